/**
 * Field Extractor Registry
 *
 * One extractor per document type, dispatched over a closed enum so a
 * new document type is a compile-time extension. Each extractor applies
 * ordered pattern rules per field, accepts the first match, normalizes
 * the value format, and grades the match against the field's expected
 * grammar.
 */

package engine

import (
	"fmt"
	"regexp"
	"strings"
)

// Extractor parses fields out of classified text. Unextracted fields
// are omitted from the returned map; schema completion to null happens
// when the confidence engine assembles the output.
type Extractor interface {
	Extract(text string, tables []TableBlock) map[string]Candidate
}

// ExtractorFor returns the extractor for a document type.
func ExtractorFor(t DocumentType) Extractor {
	switch t {
	case DocTypePAN:
		return panExtractor{}
	case DocTypeAadhaar:
		return aadhaarExtractor{}
	case DocTypeVoterID:
		return voterExtractor{}
	case DocTypeDrivingLicence:
		return licenceExtractor{}
	case DocTypeMarksheet:
		return marksheetExtractor{}
	default:
		return noopExtractor{}
	}
}

// noopExtractor backs the Unknown type: nothing to extract.
type noopExtractor struct{}

func (noopExtractor) Extract(string, []TableBlock) map[string]Candidate {
	return map[string]Candidate{}
}

// ---- shared text helpers ----

var (
	lineSplit    = regexp.MustCompile(`[\r\n]+`)
	spaceRun     = regexp.MustCompile(`\s+`)
	trailingDeco = regexp.MustCompile(`[:\-]+$`)
	dateShape    = regexp.MustCompile(`\b(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})\b`)
)

func splitLines(text string) []string {
	var out []string
	for _, ln := range lineSplit.Split(text, -1) {
		if ln = strings.TrimSpace(ln); ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

func normalizeName(s string) string {
	s = spaceRun.ReplaceAllString(s, " ")
	s = trailingDeco.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.TrimSpace(s)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// canonicalDate re-formats a recognized date to DD/MM/YYYY. Returns the
// input unchanged when it does not look like a date at all.
func canonicalDate(s string) string {
	m := dateShape.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	day, month := m[1], m[2]
	if len(day) == 1 {
		day = "0" + day
	}
	if len(month) == 1 {
		month = "0" + month
	}
	return fmt.Sprintf("%s/%s/%s", day, month, m[3])
}

// ---- shared grammar graders ----

func dateQuality(s string) MatchQuality {
	m := dateShape.FindStringSubmatch(s)
	if m == nil {
		return MatchNone
	}
	day, month, year := atoi(m[1]), atoi(m[2]), atoi(m[3])
	if day >= 1 && day <= 31 && month >= 1 && month <= 12 && year >= 1900 && year <= 2100 {
		return MatchFull
	}
	return MatchPartial
}

func nameQuality(s string) MatchQuality {
	s = strings.TrimSpace(s)
	if len(s) < 3 {
		return MatchNone
	}
	if len(s) > 50 {
		return MatchPartial
	}
	alpha := 0
	for _, r := range s {
		if r == ' ' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			alpha++
		}
	}
	ratio := float64(alpha) / float64(len(s))
	words := len(strings.Fields(s))
	switch {
	case ratio >= 0.90 && words >= 2 && words <= 5:
		return MatchFull
	case ratio >= 0.70:
		return MatchPartial
	default:
		return MatchNone
	}
}

func addressQuality(s string) MatchQuality {
	s = strings.TrimSpace(s)
	if len(s) < 10 {
		return MatchNone
	}
	hasLetters := strings.ContainsFunc(s, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	})
	hasDigits := strings.ContainsAny(s, "0123456789")
	hasComma := strings.Contains(s, ",")
	switch {
	case len(s) <= 200 && hasLetters && hasDigits && hasComma:
		return MatchFull
	case hasLetters && (hasDigits || hasComma):
		return MatchPartial
	case hasLetters:
		return MatchPartial
	default:
		return MatchNone
	}
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}
