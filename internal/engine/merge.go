package engine

// MergeScored combines two scored field maps from independent OCR
// passes. Each field keeps the higher-confidence candidate; on a tie
// the primary pass wins. Either map may be nil.
func MergeScored(primary, secondary map[string]ScoredField) map[string]ScoredField {
	merged := make(map[string]ScoredField, len(primary)+len(secondary))
	for name, f := range primary {
		merged[name] = f
	}
	for name, f := range secondary {
		cur, ok := merged[name]
		if !ok || f.Confidence > cur.Confidence {
			merged[name] = f
		}
	}
	return merged
}
