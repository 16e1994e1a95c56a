package engine

import (
	"regexp"
	"strings"
)

// aadhaarExtractor parses Aadhaar card fields. Aadhaar layouts put the
// holder's name immediately before a C/O (care-of) relation line, and
// the address between the relation line and the VTC/PO block.
type aadhaarExtractor struct{}

var (
	aadhaarNumberRe = regexp.MustCompile(`\b(\d{4})\s*(\d{4})\s*(\d{4})\b`)
	aadhaarDateRe   = regexp.MustCompile(`\b(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{4})\b`)
	aadhaarGenderRe = regexp.MustCompile(`(?i)\b(male|female|transgender)\b`)
	aadhaarMobileRe = regexp.MustCompile(`(?:^|[^\d])([6-9]\d{9})(?:[^\d]|$)`)

	relationInlineRe = regexp.MustCompile(`(?i)^([A-Z\s]{5,30})\s+(C/O|D/O|S/O|W/O)\W*([A-Za-z\s]{5,50})$`)
	relationRe       = regexp.MustCompile(`(?i)(C/O|D/O|S/O|W/O)`)
	relationValueRe  = regexp.MustCompile(`(?i)(?:C/O|D/O|S/O|W/O)\W*([A-Za-z\s]{5,50})`)
	upperNameLineRe  = regexp.MustCompile(`^[A-Z\s]{5,30}$`)

	addressStopRe  = regexp.MustCompile(`(?i)\b(VTC|PO|District|State|PIN|Mobile|Aadhaar|VID)\b`)
	houseNumberRe  = regexp.MustCompile(`\d+[-/]\d+`)
	addressMarkers = []string{"road", "street", "flat", "house", "building", "apartment", "near", "opposite"}

	nonAlphaRe    = regexp.MustCompile(`[^A-Za-z\s]`)
	nonAddressRe  = regexp.MustCompile(`[^A-Za-z0-9\s,\-\./]`)
	aadhaarDigits = regexp.MustCompile(`^\d+$`)
)

func (aadhaarExtractor) Extract(text string, _ []TableBlock) map[string]Candidate {
	fields := map[string]Candidate{}
	lines := splitLines(text)
	if len(lines) == 0 {
		return fields
	}

	for _, ln := range lines {
		if m := aadhaarNumberRe.FindStringSubmatch(ln); m != nil {
			// Canonical Aadhaar grouping: three blocks of four digits.
			grouped := m[1] + " " + m[2] + " " + m[3]
			fields["aadhaar_number"] = Candidate{Value: grouped, Quality: aadhaarNumberQuality(m[1] + m[2] + m[3])}
			break
		}
	}

	for _, ln := range lines {
		if m := aadhaarDateRe.FindStringSubmatch(ln); m != nil {
			fields["dob"] = Candidate{Value: canonicalDate(m[1]), Quality: dateQuality(m[1])}
			break
		}
	}

	if m := aadhaarGenderRe.FindStringSubmatch(text); m != nil {
		fields["gender"] = Candidate{Value: titleCase(m[1]), Quality: MatchFull}
	}

	for _, ln := range lines {
		if m := aadhaarMobileRe.FindStringSubmatch(ln); m != nil {
			fields["mobile"] = Candidate{Value: m[1], Quality: MatchFull}
			break
		}
	}

	extractAadhaarNames(lines, fields)
	if addr := extractAadhaarAddress(lines, fields); addr != "" {
		fields["address"] = Candidate{Value: addr, Quality: addressQuality(addr)}
	}

	return fields
}

func aadhaarNumberQuality(digits string) MatchQuality {
	switch {
	case len(digits) == 12 && aadhaarDigits.MatchString(digits):
		return MatchFull
	case len(digits) >= 10 && len(digits) <= 14 && aadhaarDigits.MatchString(digits):
		return MatchPartial
	default:
		return MatchNone
	}
}

func extractAadhaarNames(lines []string, fields map[string]Candidate) {
	for i, ln := range lines {
		// Name and relation on the same line: "KOTTANGI CHARAN C/O: Kottangi Satya".
		if m := relationInlineRe.FindStringSubmatch(ln); m != nil {
			name := normalizeName(m[1])
			father := normalizeName(m[3])
			if len(name) > 3 {
				fields["name"] = Candidate{Value: titleCase(name), Quality: nameQuality(name)}
			}
			if len(father) > 3 {
				fields["father_name"] = Candidate{Value: titleCase(father), Quality: nameQuality(father)}
			}
			return
		}

		// Name on one line, relation on the next.
		if i+1 < len(lines) {
			current := strings.TrimSpace(nonAlphaRe.ReplaceAllString(ln, " "))
			current = spaceRun.ReplaceAllString(current, " ")
			if upperNameLineRe.MatchString(current) && relationRe.MatchString(lines[i+1]) {
				fields["name"] = Candidate{Value: titleCase(current), Quality: nameQuality(current)}
				if m := relationValueRe.FindStringSubmatch(lines[i+1]); m != nil {
					father := normalizeName(m[1])
					fields["father_name"] = Candidate{Value: titleCase(father), Quality: nameQuality(father)}
				}
				return
			}
		}
	}
}

func extractAadhaarAddress(lines []string, fields map[string]Candidate) string {
	var collected []string
	started := false

	for _, ln := range lines {
		lower := strings.ToLower(ln)
		if !started {
			for _, marker := range addressMarkers {
				if strings.Contains(lower, marker) {
					started = true
					break
				}
			}
			if houseNumberRe.MatchString(ln) {
				started = true
			}
		}
		if started && (addressStopRe.MatchString(ln) ||
			strings.Contains(lower, "government") || strings.Contains(lower, "unique identification")) {
			break
		}
		if !started {
			continue
		}

		clean := spaceRun.ReplaceAllString(nonAddressRe.ReplaceAllString(ln, " "), " ")
		clean = stripKnownNames(clean, fields)
		clean = strings.Trim(clean, " ,.-")
		if len(clean) > 5 && !contains(collected, clean) {
			collected = append(collected, clean)
		}
	}

	return strings.Join(collected, ", ")
}

func stripKnownNames(line string, fields map[string]Candidate) string {
	for _, key := range []string{"name", "father_name"} {
		if c, ok := fields[key]; ok && c.Value != "" {
			re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(c.Value))
			if err == nil {
				line = re.ReplaceAllString(line, "")
			}
		}
	}
	return spaceRun.ReplaceAllString(line, " ")
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
