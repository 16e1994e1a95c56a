package engine

import (
	"regexp"
	"strings"
)

// licenceExtractor parses Driving Licence fields. Licence numbers on
// worn cards often OCR the leading state-code zero as the letter O, so
// the number grammar tolerates both.
type licenceExtractor struct{}

var (
	dlNumberRe   = regexp.MustCompile(`\b([A-Z]{2}[0O]?\d{6,20})\b`)
	dlSpacedRe   = regexp.MustCompile(`\b([A-Z]{2}[0O]?\s*\d[\d\s]{5,20})\b`)
	dlStrictRe   = regexp.MustCompile(`^[A-Z]{2}[0-9O]{6,20}$`)
	dlLettersRe  = regexp.MustCompile(`[A-Z]{2}`)
	dlDigitsRe   = regexp.MustCompile(`\d{6,}`)
	dlNameLineRe = regexp.MustCompile(`(?i)Name\s*[:\-]?\s*(.+)`)
	dlHasNameRe  = regexp.MustCompile(`(?i)\bNAME\b`)
	dlSigRe      = regexp.MustCompile(`(?i)Holder.?s Signature`)
	dlFatherRe   = regexp.MustCompile(`(?i)(?:S/O|D/O|W/O|FATHER['’]?S? NAME)[:\-]?\s*(.+)`)
	dlRelationRe = regexp.MustCompile(`(?i)\b(S/O|D/O|W/O|FATHER)\b`)
	dlAddressRe  = regexp.MustCompile(`(?i).*ADDRESS\s*[:\-]?\s*`)
	dlDateRe     = regexp.MustCompile(`(\d{2}[/-]\d{2}[/-]\d{4})`)

	dlDateLabels = []struct {
		re    *regexp.Regexp
		field string
	}{
		{regexp.MustCompile(`(?i)(?:Date of Birth|DOB)[\s:]*(\d{2}[/-]\d{2}[/-]\d{4})`), "dob"},
		{regexp.MustCompile(`(?i)(?:Issue Date|Date of First Issue)[\s:]*(\d{2}[/-]\d{2}[/-]\d{4})`), "issue_date"},
		{regexp.MustCompile(`(?i)(?:Validity|Valid Till|Valid Upto)[\s:]*(\d{2}[/-]\d{2}[/-]\d{4})`), "valid_till"},
	}
)

func (licenceExtractor) Extract(text string, _ []TableBlock) map[string]Candidate {
	fields := map[string]Candidate{}
	if text == "" {
		return fields
	}
	lines := splitLines(text)

	for _, ln := range lines {
		if m := dlNumberRe.FindStringSubmatch(strings.ReplaceAll(ln, " ", "")); m != nil {
			fields["dl_number"] = Candidate{Value: m[1], Quality: dlQuality(m[1])}
			break
		}
	}
	if _, ok := fields["dl_number"]; !ok {
		if m := dlSpacedRe.FindStringSubmatch(strings.Join(lines, " ")); m != nil {
			v := strings.ReplaceAll(m[1], " ", "")
			fields["dl_number"] = Candidate{Value: v, Quality: dlQuality(v)}
		}
	}

	for _, ln := range lines {
		if dlHasNameRe.MatchString(ln) {
			if m := dlNameLineRe.FindStringSubmatch(ln); m != nil {
				v := normalizeName(dlSigRe.ReplaceAllString(m[1], ""))
				if v != "" {
					fields["name"] = Candidate{Value: v, Quality: nameQuality(v)}
					break
				}
			}
		}
	}

	for _, ln := range lines {
		if dlRelationRe.MatchString(ln) {
			if m := dlFatherRe.FindStringSubmatch(ln); m != nil {
				v := normalizeName(m[1])
				fields["father_name"] = Candidate{Value: v, Quality: nameQuality(v)}
				break
			}
		}
	}

	if addr := extractLicenceAddress(lines); addr != "" {
		fields["address"] = Candidate{Value: addr, Quality: addressQuality(addr)}
	}

	extractLicenceDates(text, fields)
	return fields
}

func dlQuality(value string) MatchQuality {
	switch {
	case dlStrictRe.MatchString(value):
		return MatchFull
	case dlLettersRe.MatchString(value) && dlDigitsRe.MatchString(value):
		return MatchPartial
	default:
		return MatchNone
	}
}

func extractLicenceAddress(lines []string) string {
	var collected []string
	start := -1
	for i, ln := range lines {
		if strings.Contains(strings.ToUpper(ln), "ADDRESS") {
			start = i
			if part := strings.TrimSpace(dlAddressRe.ReplaceAllString(ln, "")); part != "" {
				collected = append(collected, part)
			}
			break
		}
	}
	if start == -1 {
		return ""
	}
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			collected = append(collected, strings.TrimSpace(lines[i]))
		} else if len(collected) > 0 {
			break
		}
	}
	return strings.Join(collected, ", ")
}

// extractLicenceDates assigns labeled dates first, then fills issue and
// validity from the remaining dates in layout order. Licences carry up
// to three dates and labels are the least reliably OCR'd part.
func extractLicenceDates(text string, fields map[string]Candidate) {
	all := dlDateRe.FindAllString(text, -1)
	var remaining []string
	seen := map[string]bool{}
	for _, d := range all {
		if !seen[d] {
			seen[d] = true
			remaining = append(remaining, d)
		}
	}

	for _, labeled := range dlDateLabels {
		if m := labeled.re.FindStringSubmatch(text); m != nil {
			fields[labeled.field] = Candidate{Value: canonicalDate(m[1]), Quality: dateQuality(m[1])}
			remaining = removeString(remaining, m[1])
		}
	}

	if _, ok := fields["issue_date"]; !ok && len(remaining) > 0 {
		fields["issue_date"] = Candidate{Value: canonicalDate(remaining[0]), Quality: dateQuality(remaining[0])}
		remaining = remaining[1:]
	}
	if _, ok := fields["valid_till"]; !ok && len(remaining) > 0 {
		fields["valid_till"] = Candidate{Value: canonicalDate(remaining[0]), Quality: dateQuality(remaining[0])}
	}
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, item := range list {
		if item != s {
			out = append(out, item)
		}
	}
	return out
}
