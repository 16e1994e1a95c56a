package engine

import (
	"regexp"
	"strings"
)

// panExtractor parses PAN card fields.
type panExtractor struct{}

var (
	panNumberRe     = regexp.MustCompile(`\b([A-Z]{5}[0-9]{4}[A-Z])\b`)
	panLooseRe      = regexp.MustCompile(`^[A-Z0-9]{10}$`)
	panLabeledDobRe = regexp.MustCompile(`(?:DOB|DATE OF BIRTH)[:\s]*([0-9]{2}[/-][0-9]{2}[/-][0-9]{4})`)
	panBareDateRe   = regexp.MustCompile(`\b[0-9]{2}[/-][0-9]{2}[/-][0-9]{4}\b`)
	panNameLabelRe  = regexp.MustCompile(`(?i)NAME\s*[:\-]?\s*(.+)`)
	panFatherRe     = regexp.MustCompile(`(?i)FATHER'?S?\s*NAME\s*[:\-]?\s*(.+)`)
)

func (panExtractor) Extract(text string, _ []TableBlock) map[string]Candidate {
	fields := map[string]Candidate{}
	upper := strings.ToUpper(text)
	lines := splitLines(text)

	if m := panNumberRe.FindStringSubmatch(upper); m != nil {
		fields["pan"] = Candidate{Value: m[1], Quality: panQuality(m[1])}
	}

	if m := panLabeledDobRe.FindStringSubmatch(upper); m != nil {
		fields["dob"] = Candidate{Value: canonicalDate(m[1]), Quality: dateQuality(m[1])}
	} else if m := panBareDateRe.FindString(text); m != "" {
		fields["dob"] = Candidate{Value: canonicalDate(m), Quality: dateQuality(m)}
	}

	// Name and father's name sit on labeled lines; the value is either
	// after the label or on the following line.
	for i, ln := range lines {
		upperLn := strings.ToUpper(ln)
		if _, ok := fields["name"]; !ok && strings.Contains(upperLn, "NAME") && !strings.Contains(upperLn, "FATHER") {
			if v := labeledOrNextLine(panNameLabelRe, lines, i); v != "" {
				fields["name"] = Candidate{Value: v, Quality: nameQuality(v)}
			}
		}
		if _, ok := fields["father_name"]; !ok && strings.Contains(upperLn, "FATHER") {
			if v := labeledOrNextLine(panFatherRe, lines, i); v != "" {
				fields["father_name"] = Candidate{Value: v, Quality: nameQuality(v)}
			}
		}
	}

	return fields
}

func panQuality(value string) MatchQuality {
	switch {
	case panNumberRe.MatchString(value):
		return MatchFull
	case panLooseRe.MatchString(value):
		return MatchPartial
	default:
		return MatchNone
	}
}

func labeledOrNextLine(label *regexp.Regexp, lines []string, i int) string {
	if m := label.FindStringSubmatch(lines[i]); m != nil && strings.TrimSpace(m[1]) != "" {
		return normalizeName(m[1])
	}
	if i+1 < len(lines) {
		return normalizeName(lines[i+1])
	}
	return ""
}
