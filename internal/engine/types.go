/**
 * Core Types - Shared data structures for the extraction engine
 *
 * Common types passed between the classifier, field extractors,
 * confidence engine and aggregator.
 */

package engine

// DocumentType identifies a supported document category.
type DocumentType string

const (
	DocTypePAN            DocumentType = "PAN"
	DocTypeAadhaar        DocumentType = "Aadhaar"
	DocTypeVoterID        DocumentType = "Voter ID"
	DocTypeDrivingLicence DocumentType = "Driving Licence"
	DocTypeMarksheet      DocumentType = "Marksheet"
	DocTypeUnknown        DocumentType = "Unknown"
)

// classifyPriority is the fixed tie-break order: ID documents carry more
// specific keyword sets, so they win over Marksheet on equal scores.
var classifyPriority = []DocumentType{
	DocTypePAN,
	DocTypeAadhaar,
	DocTypeVoterID,
	DocTypeDrivingLicence,
	DocTypeMarksheet,
}

// fieldSchemas lists the fixed, ordered field names per document type.
// Every name here appears in the output map of every result for that
// type, extracted or not.
var fieldSchemas = map[DocumentType][]string{
	DocTypePAN:            {"pan", "name", "father_name", "dob"},
	DocTypeAadhaar:        {"aadhaar_number", "name", "dob", "gender", "father_name", "address", "mobile"},
	DocTypeVoterID:        {"voter_id", "name", "father_name", "husband_name", "dob", "gender"},
	DocTypeDrivingLicence: {"dl_number", "name", "dob", "issue_date", "valid_till", "father_name", "address"},
	DocTypeMarksheet:      {"student_name", "father_name", "mother_name", "school_name", "dob", "roll_no", "year", "cgpa"},
	DocTypeUnknown:        {},
}

// Schema returns the fixed field names for the document type.
func (t DocumentType) Schema() []string {
	return fieldSchemas[t]
}

// TokenStats summarizes word-level OCR confidence over a document.
type TokenStats struct {
	Average       float64 `json:"average"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	WordCount     int     `json:"word_count"`
	LowConfWords  int     `json:"low_conf_words"`
	HighConfWords int     `json:"high_conf_words"`
}

// QualityReport is the document-level image quality assessment.
type QualityReport struct {
	Score  float64  `json:"quality_score"` // 0-100
	Grade  string   `json:"quality"`       // "good", "blurry", "poor_lighting", "low_contrast", "unknown"
	Issues []string `json:"issues,omitempty"`
}

// TableBlock is a structured grid of cell text recovered from a table
// region, row-major.
type TableBlock [][]string

// RawOcrResult is one OCR pass over a document: normalized text plus
// the confidence signals the scoring formula consumes. Immutable once
// produced.
type RawOcrResult struct {
	Text    string
	Tokens  TokenStats
	Quality QualityReport
	IsPDF   bool
	Tables  []TableBlock
}

// MatchQuality grades how completely an extracted candidate matches the
// field's expected grammar.
type MatchQuality string

const (
	MatchFull    MatchQuality = "full"
	MatchPartial MatchQuality = "partial"
	MatchNone    MatchQuality = "none"
)

// Candidate is a raw extractor hit for one field, before scoring.
type Candidate struct {
	Value   string
	Quality MatchQuality
}

// FieldStatus is the confidence verdict on one field.
type FieldStatus string

const (
	StatusPass   FieldStatus = "PASS"
	StatusReview FieldStatus = "REVIEW"
	StatusFail   FieldStatus = "FAIL"
)

// Breakdown carries the four sub-scores behind a field confidence.
type Breakdown struct {
	OCR     float64 `json:"tesseract_ocr"`
	Pattern float64 `json:"pattern_match"`
	Quality float64 `json:"image_quality"`
	Rules   float64 `json:"business_rules"`
}

// FieldValue is the confidence-annotated value of one schema field.
// Never mutated after creation; corrections downstream produce new
// submission records.
type FieldValue struct {
	Value      *string     `json:"value"`
	Confidence float64     `json:"confidence"`
	Breakdown  Breakdown   `json:"breakdown"`
	Threshold  float64     `json:"threshold"`
	Status     FieldStatus `json:"status"`
}

// TableRow is one subject row from a marksheet table, in layout order.
type TableRow struct {
	Subject string `json:"subject"`
	Grade   string `json:"grade"`
	Marks   string `json:"marks"`
}

// BucketCount wraps a per-category field count.
type BucketCount struct {
	Count int `json:"count"`
}

// Summary buckets field confidences into High/Medium/Low categories.
type Summary struct {
	OverallConfidence float64     `json:"overall_confidence"`
	High              BucketCount `json:"high_confidence"`
	Medium            BucketCount `json:"medium_confidence"`
	Low               BucketCount `json:"low_confidence"`
}

// Backend labels which tier produced a result.
type Backend string

const (
	BackendRemote Backend = "remote"
	BackendLocal  Backend = "local"
)

// ExtractionResult is the unit returned to callers: one immutable,
// fully schema-complete answer per scan attempt.
type ExtractionResult struct {
	DocumentType  DocumentType          `json:"document_type"`
	Fields        map[string]FieldValue `json:"fields"`
	Table         []TableRow            `json:"table"`
	Confidence    float64               `json:"confidence"`
	Summary       Summary               `json:"extraction_summary"`
	SuggestRescan bool                  `json:"suggest_rescan"`
	SourceBackend Backend               `json:"source_backend"`
}
