/**
 * Document Classifier
 *
 * Scores normalized OCR text against per-type signature sets and picks
 * the best match. Pure function of its inputs; safe to call
 * concurrently.
 */

package engine

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Classification is the outcome of scoring one document's text.
type Classification struct {
	Type   DocumentType
	Score  int
	Scores map[DocumentType]int
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize canonicalizes OCR text for signature matching: NFKC
// composition, upper-casing, and whitespace collapse. OCR output from
// scanned Indian documents mixes full-width digits and stray combining
// marks; NFKC folds those before the ASCII-oriented cues run.
func Normalize(text string) string {
	t := norm.NFKC.String(text)
	t = strings.ToUpper(t)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(t, " "))
}

// Classify scores text against every signature set and returns the
// winner. A best score below the minimum-evidence floor yields Unknown:
// extraction then proceeds with every field unfilled instead of
// failing the request.
func Classify(cfg *ScoringConfig, text string) Classification {
	scores := make(map[DocumentType]int, len(cfg.Signatures))
	for _, t := range classifyPriority {
		scores[t] = 0
	}

	normalized := Normalize(text)
	if normalized == "" {
		return Classification{Type: DocTypeUnknown, Scores: scores}
	}

	for docType, cues := range cfg.Signatures {
		score := 0
		for _, cue := range cues {
			if cueMatches(cue, normalized) {
				score += cue.Weight
			}
		}
		if score < 0 {
			score = 0
		}
		scores[docType] = score
	}

	// Strictly highest score wins; equal scores break by the fixed
	// priority order.
	best := DocTypeUnknown
	bestScore := 0
	for _, docType := range classifyPriority {
		if scores[docType] > bestScore {
			best = docType
			bestScore = scores[docType]
		}
	}

	if bestScore < cfg.ClassifyFloor {
		return Classification{Type: DocTypeUnknown, Score: bestScore, Scores: scores}
	}
	return Classification{Type: best, Score: bestScore, Scores: scores}
}

func cueMatches(cue Cue, text string) bool {
	haystack := text
	if cue.HeaderLen > 0 && len(text) > cue.HeaderLen {
		haystack = text[:cue.HeaderLen]
	}
	if cue.Pattern != nil {
		return cue.Pattern.MatchString(haystack)
	}
	return strings.Contains(haystack, cue.Literal)
}
