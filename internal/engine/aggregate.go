/**
 * Document Aggregator - Overall confidence and rescan advice
 *
 * Collapses per-field confidences into one document score: an
 * importance-weighted average over the fields that were actually
 * extracted, a marksheet penalty when the subject table came back
 * thin, and High/Medium/Low bucket counts for the summary block.
 */

package engine

import "math"

// Aggregate computes the document-level confidence, summary buckets
// and the rescan suggestion for a finalized field map.
func Aggregate(cfg *ScoringConfig, docType DocumentType, fields map[string]FieldValue, table []TableRow) (float64, Summary, bool) {
	var weightedSum, weightTotal float64
	var high, medium, low, flagged int

	for _, name := range docType.Schema() {
		f := fields[name]
		if f.Value == nil {
			low++
			flagged++
			continue
		}
		w := cfg.ImportanceWeight(name)
		weightedSum += f.Confidence * w
		weightTotal += w

		switch {
		case f.Confidence >= cfg.HighCutoff:
			high++
		case f.Confidence >= cfg.MediumCutoff:
			medium++
		default:
			low++
		}
		if f.Status != StatusPass {
			flagged++
		}
	}

	overall := 0.0
	if weightTotal > 0 {
		overall = weightedSum / weightTotal
	}
	if docType == DocTypeMarksheet {
		overall *= tablePenalty(len(table))
	}
	overall = clampScore(math.Round(overall*10) / 10)

	summary := Summary{
		OverallConfidence: overall,
		High:              BucketCount{Count: high},
		Medium:            BucketCount{Count: medium},
		Low:               BucketCount{Count: low},
	}
	rescan := overall < cfg.RescanCutoff || flagged >= cfg.RescanFlagged
	return overall, summary, rescan
}

// tablePenalty scales marksheet confidence by subject row count: a
// marksheet without its table is a weak extraction no matter how the
// scalar fields scored.
func tablePenalty(rows int) float64 {
	switch {
	case rows == 0:
		return 0.60
	case rows <= 2:
		return 0.75
	case rows <= 4:
		return 0.90
	default:
		return 1.0
	}
}
