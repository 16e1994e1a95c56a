package engine

import (
	"regexp"
	"strings"
)

// voterExtractor parses Voter ID (EPIC) card fields.
type voterExtractor struct{}

var (
	epicRe        = regexp.MustCompile(`\b([A-Z]{3,4}[0-9]{6,10})\b`)
	epicStrictRe  = regexp.MustCompile(`^[A-Z]{3,4}[0-9]{6,10}$`)
	epicLabeledRe = regexp.MustCompile(`(?i)Epic no\.?\s*[:\-]?\s*([A-Z0-9]{6,20})`)
	epicLooseRe   = regexp.MustCompile(`^[A-Z0-9]{9,15}$`)
	voterNameRe   = regexp.MustCompile(`(?i)Name[ ,:/-]*([A-Za-z .'-]+)`)
	voterFatherRe = regexp.MustCompile(`(?i)Father'?s Name\s*[:;+\-_]*\s*([A-Za-z .'-]+)`)
	voterDobRes   = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Date of Birth[ /:]*([0-9]{2}[-/][0-9]{2}[-/][0-9]{4})`),
		regexp.MustCompile(`([0-9]{2}[-/][0-9]{2}[-/][0-9]{4})`),
	}
	voterGenderRe = regexp.MustCompile(`(?i)(Sex|Gender)\s*[:;+\-_]*\s*(Male|Female|Other)`)
)

func (voterExtractor) Extract(text string, _ []TableBlock) map[string]Candidate {
	fields := map[string]Candidate{}
	lines := splitLines(text)

	if m := epicRe.FindStringSubmatch(text); m != nil {
		fields["voter_id"] = Candidate{Value: m[1], Quality: epicQuality(m[1])}
	} else if m := epicLabeledRe.FindStringSubmatch(text); m != nil {
		fields["voter_id"] = Candidate{Value: m[1], Quality: epicQuality(m[1])}
	}

	if m := voterNameRe.FindStringSubmatch(text); m != nil {
		v := normalizeName(m[1])
		fields["name"] = Candidate{Value: v, Quality: nameQuality(v)}
	}

	for _, ln := range lines {
		if m := voterFatherRe.FindStringSubmatch(ln); m != nil {
			// Keep only clean alphabetic tokens; EPIC layouts bleed
			// neighboring label fragments into the capture.
			var words []string
			for _, w := range strings.Fields(m[1]) {
				if len(w) > 1 && isAlphaWord(w) {
					words = append(words, w)
				}
			}
			if len(words) > 0 {
				if len(words) > 3 {
					words = words[:3]
				}
				v := normalizeName(strings.Join(words, " "))
				fields["father_name"] = Candidate{Value: v, Quality: nameQuality(v)}
				break
			}
		}
	}

	for _, re := range voterDobRes {
		if m := re.FindStringSubmatch(text); m != nil {
			fields["dob"] = Candidate{Value: canonicalDate(m[1]), Quality: dateQuality(m[1])}
			break
		}
	}

	if m := voterGenderRe.FindStringSubmatch(text); m != nil {
		fields["gender"] = Candidate{Value: titleCase(m[2]), Quality: MatchFull}
	}

	return fields
}

func epicQuality(value string) MatchQuality {
	switch {
	case epicStrictRe.MatchString(value):
		return MatchFull
	case epicLooseRe.MatchString(value):
		return MatchPartial
	default:
		return MatchNone
	}
}

func isAlphaWord(s string) bool {
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return true
}
