/**
 * Local Extraction Pipeline
 *
 * Composes the pure stages into one document answer: classify the
 * primary pass, extract and score fields per pass, merge field-wise
 * by confidence, apply cross-field rules, finalize against the field
 * schema and aggregate. Every stage is a pure function, so the
 * pipeline itself carries no state beyond its configuration.
 */

package engine

import "strings"

// Pipeline runs the local extraction stages over one or two OCR
// passes of the same document.
type Pipeline struct {
	cfg *ScoringConfig
}

// NewPipeline builds a pipeline around a scoring configuration; a nil
// config selects the defaults.
func NewPipeline(cfg *ScoringConfig) *Pipeline {
	if cfg == nil {
		cfg = DefaultScoringConfig()
	}
	return &Pipeline{cfg: cfg}
}

// Config exposes the active scoring configuration.
func (p *Pipeline) Config() *ScoringConfig { return p.cfg }

// Run extracts one document from its OCR passes. The first pass is
// primary: it drives classification and wins merge ties. Empty text
// across all passes yields an Unknown result with no fields rather
// than an error.
func (p *Pipeline) Run(passes ...RawOcrResult) ExtractionResult {
	primary := RawOcrResult{}
	if len(passes) > 0 {
		primary = passes[0]
	}

	cls := Classify(p.cfg, primary.Text)
	docType := cls.Type

	merged := map[string]ScoredField{}
	extractor := ExtractorFor(docType)
	for i, pass := range passes {
		if strings.TrimSpace(pass.Text) == "" {
			continue
		}
		candidates := extractor.Extract(pass.Text, pass.Tables)
		scored := ScoreFields(p.cfg, candidates, pass.Tokens, pass.Quality)
		if i == 0 {
			merged = scored
		} else {
			merged = MergeScored(merged, scored)
		}
	}

	ApplyCrossFieldRules(merged)
	fields := Finalize(p.cfg, docType, merged)

	var table []TableRow
	if docType == DocTypeMarksheet {
		table = ExtractTable(primary.Tables, primary.Text)
	}

	overall, summary, rescan := Aggregate(p.cfg, docType, fields, table)

	return ExtractionResult{
		DocumentType:  docType,
		Fields:        fields,
		Table:         table,
		Confidence:    overall,
		Summary:       summary,
		SuggestRescan: rescan,
		SourceBackend: BackendLocal,
	}
}
