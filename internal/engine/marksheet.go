package engine

import (
	"regexp"
	"strconv"
	"strings"
)

// marksheetExtractor parses the scalar marksheet fields. Subject rows
// come from the table tiers in tables.go.
type marksheetExtractor struct{}

var (
	schoolLabelRe  = regexp.MustCompile(`(?i)^SCHOOL\s*[:\-]?\s*(.+)`)
	schoolAnyRe    = regexp.MustCompile(`(?i)\b(SCHOOL|INSTITUTE|COLLEGE)\b`)
	schoolStrongRe = regexp.MustCompile(`(?i)\b(SCHOOL|COLLEGE|INSTITUTE|ACADEMY|UNIVERSITY)\b`)
	rollLabelRe    = regexp.MustCompile(`(?i)\bROLL\s*(?:NO)?\.?\s*[:\-]?\s*([0-9]{7,12})\b`)
	rollBareRe     = regexp.MustCompile(`^[0-9]{7,12}$`)
	rollLooseRe    = regexp.MustCompile(`^[0-9]{5,15}$`)
	rollWordRe     = regexp.MustCompile(`(?i)\bROLL\b`)
	msDobLabeledRe = regexp.MustCompile(`(?i)\b(?:DOB|DATE\s*OF\s*BIRTH)[\s:\-]*([0-3]?\d[/\-.][01]?\d[/\-.]\d{4})\b`)
	msDobBareRe    = regexp.MustCompile(`\b([0-3]?\d[/\-.][01]?\d[/\-.]\d{4})\b`)
	examYearRe     = regexp.MustCompile(`(?i)EXAMINATION\s+held\s+in\s+\w+-?(20\d{2})`)
	cgpaRe         = regexp.MustCompile(`(?i)(CGPA|GPA|GRADE\s*POINT)[\s.:;\-]*([0-9]{1,2}\.[0-9]{1,2})`)
	headerRowRe    = regexp.MustCompile(`(?i)\b(REGULAR|ROLL|PC/)\b`)
	certifiedRe    = regexp.MustCompile(`(?i)CERTIFIED\s+THAT\s+([A-Z\s]+)`)
	msFatherRe     = regexp.MustCompile(`(?i)FATHER'?S\s+NAME\s+([A-Z\s]+)`)
	msMotherRe     = regexp.MustCompile(`(?i)MOTHER'?S\s+NAME\s+([A-Z\s]+)`)
	yearStrictRe   = regexp.MustCompile(`^(19|20)\d{2}$`)
)

func (marksheetExtractor) Extract(text string, _ []TableBlock) map[string]Candidate {
	fields := map[string]Candidate{}
	lines := splitLines(text)

	for _, ln := range lines {
		if schoolLabelRe.MatchString(ln) {
			fields["school_name"] = Candidate{Value: strings.TrimSpace(ln), Quality: schoolQuality(ln)}
			break
		}
	}
	if _, ok := fields["school_name"]; !ok {
		for _, ln := range lines {
			if schoolAnyRe.MatchString(ln) {
				fields["school_name"] = Candidate{Value: strings.TrimSpace(ln), Quality: schoolQuality(ln)}
				break
			}
		}
	}

	for i, ln := range lines {
		if !rollWordRe.MatchString(ln) {
			continue
		}
		if m := rollLabelRe.FindStringSubmatch(ln); m != nil && !strings.Contains(m[1], "/") {
			fields["roll_no"] = Candidate{Value: m[1], Quality: rollQuality(m[1])}
			break
		}
		if i+1 < len(lines) && rollBareRe.MatchString(strings.TrimSpace(lines[i+1])) {
			v := strings.TrimSpace(lines[i+1])
			fields["roll_no"] = Candidate{Value: v, Quality: rollQuality(v)}
			break
		}
	}

	if m := msDobLabeledRe.FindStringSubmatch(text); m != nil {
		fields["dob"] = Candidate{Value: canonicalDate(m[1]), Quality: dateQuality(m[1])}
	} else if m := msDobBareRe.FindStringSubmatch(text); m != nil {
		fields["dob"] = Candidate{Value: canonicalDate(m[1]), Quality: dateQuality(m[1])}
	}

	for _, ln := range lines {
		if m := examYearRe.FindStringSubmatch(ln); m != nil {
			fields["year"] = Candidate{Value: m[1], Quality: yearQuality(m[1])}
			break
		}
	}

	if m := cgpaRe.FindStringSubmatch(text); m != nil {
		fields["cgpa"] = Candidate{Value: m[2], Quality: cgpaQuality(m[2])}
	}

	extractMarksheetNames(lines, fields)
	return fields
}

// extractMarksheetNames reads the certificate block: the header row
// with roll/regular markers is followed by student, father and mother
// lines in that order.
func extractMarksheetNames(lines []string, fields map[string]Candidate) {
	for i, ln := range lines {
		if !headerRowRe.MatchString(ln) {
			continue
		}
		if i+1 < len(lines) {
			v := strings.TrimSpace(lines[i+1])
			if m := certifiedRe.FindStringSubmatch(lines[i+1]); m != nil {
				v = strings.TrimSpace(m[1])
			}
			fields["student_name"] = Candidate{Value: v, Quality: nameQuality(v)}
		}
		if i+2 < len(lines) {
			v := strings.TrimSpace(lines[i+2])
			if m := msFatherRe.FindStringSubmatch(lines[i+2]); m != nil {
				v = strings.TrimSpace(m[1])
			}
			fields["father_name"] = Candidate{Value: v, Quality: nameQuality(v)}
		}
		if i+3 < len(lines) {
			v := strings.TrimSpace(lines[i+3])
			if m := msMotherRe.FindStringSubmatch(lines[i+3]); m != nil {
				v = strings.TrimSpace(m[1])
			}
			fields["mother_name"] = Candidate{Value: v, Quality: nameQuality(v)}
		}
		return
	}
}

func schoolQuality(s string) MatchQuality {
	s = strings.TrimSpace(s)
	switch {
	case len(s) < 5:
		return MatchNone
	case len(s) <= 100 && schoolStrongRe.MatchString(s):
		return MatchFull
	default:
		return MatchPartial
	}
}

func rollQuality(s string) MatchQuality {
	switch {
	case rollBareRe.MatchString(s):
		return MatchFull
	case rollLooseRe.MatchString(s):
		return MatchPartial
	default:
		return MatchNone
	}
}

func yearQuality(s string) MatchQuality {
	switch {
	case yearStrictRe.MatchString(s):
		return MatchFull
	case len(s) == 4 && aadhaarDigits.MatchString(s):
		return MatchPartial
	default:
		return MatchNone
	}
}

func cgpaQuality(s string) MatchQuality {
	v, ok := parseFloat(s)
	switch {
	case ok && v >= 0 && v <= 10:
		return MatchFull
	case ok && v >= 0 && v <= 100:
		return MatchPartial
	default:
		return MatchNone
	}
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}
