/**
 * Scoring Configuration
 *
 * All heuristic constants in one immutable value: classifier signatures,
 * hybrid-confidence weights, per-field thresholds and pattern tiers, and
 * the importance weights behind the overall document confidence.
 * Built once at startup and threaded explicitly; never mutated.
 */

package engine

import "regexp"

// Cue is one weighted classification signal. Pattern cues carry higher
// weights than free-text keywords: a matching numeric grammar is less
// ambiguous than vocabulary overlap. Negative weights model
// disqualifying vocabulary (an Aadhaar mention on a PAN candidate).
type Cue struct {
	Pattern   *regexp.Regexp // nil for plain substring cues
	Literal   string         // uppercase substring to look for
	HeaderLen int            // restrict match to the first N runes; 0 = whole text
	Weight    int
}

// PatternTiers maps a field's match quality to its pattern sub-score.
type PatternTiers struct {
	Full    float64
	Partial float64
	None    float64
}

// ScoringConfig is the complete heuristic configuration of the engine.
type ScoringConfig struct {
	// Hybrid confidence weights; must sum to 1.0.
	WeightOCR     float64
	WeightPattern float64
	WeightQuality float64
	WeightRules   float64

	// Classifier.
	Signatures    map[DocumentType][]Cue
	ClassifyFloor int

	// Per-field acceptance thresholds; DefaultThreshold for unknown names.
	Thresholds       map[string]float64
	DefaultThreshold float64

	// Pattern tiers per field; DefaultTiers for unknown names.
	Tiers        map[string]PatternTiers
	DefaultTiers PatternTiers

	// Importance weights for the overall weighted average.
	Importance        map[string]float64
	DefaultImportance float64

	// Aggregation cutoffs.
	HighCutoff    float64 // >= is High
	MediumCutoff  float64 // >= is Medium, below is Low
	RescanCutoff  float64 // overall below this suggests a rescan
	RescanFlagged int     // this many FAIL/REVIEW fields suggest a rescan
}

// DefaultScoringConfig builds the canonical configuration.
func DefaultScoringConfig() *ScoringConfig {
	return &ScoringConfig{
		WeightOCR:     0.30,
		WeightPattern: 0.40,
		WeightQuality: 0.15,
		WeightRules:   0.15,

		Signatures:    defaultSignatures(),
		ClassifyFloor: 40,

		Thresholds: map[string]float64{
			"aadhaar_number": 75,
			"pan":            75,
			"voter_id":       75,
			"dl_number":      75,
			"roll_no":        75,

			"name":         75,
			"student_name": 75,
			"father_name":  75,
			"mother_name":  75,
			"husband_name": 75,

			"dob":        70,
			"issue_date": 70,
			"valid_till": 70,
			"cgpa":       70,

			"mobile":      80,
			"address":     75,
			"gender":      75,
			"school_name": 75,
			"year":        75,
		},
		DefaultThreshold: 80,

		Tiers: map[string]PatternTiers{
			"aadhaar_number": {Full: 98, Partial: 75, None: 40},
			"pan":            {Full: 98, Partial: 70, None: 35},
			"voter_id":       {Full: 95, Partial: 65, None: 40},
			"dl_number":      {Full: 95, Partial: 75, None: 45},
			"mobile":         {Full: 97, Partial: 65, None: 35},
			"roll_no":        {Full: 92, Partial: 75, None: 50},

			"dob":        {Full: 95, Partial: 60, None: 40},
			"issue_date": {Full: 95, Partial: 60, None: 40},
			"valid_till": {Full: 95, Partial: 60, None: 40},

			"gender": {Full: 99, Partial: 75, None: 50},

			"name":         {Full: 88, Partial: 70, None: 35},
			"student_name": {Full: 88, Partial: 70, None: 35},
			"father_name":  {Full: 88, Partial: 70, None: 35},
			"mother_name":  {Full: 88, Partial: 70, None: 35},
			"husband_name": {Full: 88, Partial: 70, None: 35},

			"address":     {Full: 85, Partial: 70, None: 40},
			"school_name": {Full: 90, Partial: 65, None: 40},
			"cgpa":        {Full: 92, Partial: 65, None: 30},
			"year":        {Full: 95, Partial: 65, None: 35},
		},
		DefaultTiers: PatternTiers{Full: 65, Partial: 50, None: 30},

		Importance: map[string]float64{
			"aadhaar_number": 1.5,
			"pan":            1.5,
			"voter_id":       1.5,
			"dl_number":      1.5,

			"name":         1.3,
			"student_name": 1.3,
			"dob":          1.2,

			"father_name":  1.0,
			"husband_name": 1.0,
			"mobile":       1.0,
			"roll_no":      1.0,

			"mother_name": 0.9,
			"address":     0.9,

			"issue_date":  0.8,
			"valid_till":  0.8,
			"year":        0.8,
			"school_name": 0.8,

			"gender": 0.7,
			"cgpa":   0.7,
		},
		DefaultImportance: 1.0,

		HighCutoff:    85,
		MediumCutoff:  68,
		RescanCutoff:  70,
		RescanFlagged: 3,
	}
}

// Threshold returns the acceptance threshold for a field name.
func (c *ScoringConfig) Threshold(field string) float64 {
	if t, ok := c.Thresholds[field]; ok {
		return t
	}
	return c.DefaultThreshold
}

// PatternScore maps a field's match quality onto its pattern tier.
func (c *ScoringConfig) PatternScore(field string, q MatchQuality) float64 {
	tiers, ok := c.Tiers[field]
	if !ok {
		tiers = c.DefaultTiers
	}
	switch q {
	case MatchFull:
		return tiers.Full
	case MatchPartial:
		return tiers.Partial
	default:
		return tiers.None
	}
}

// ImportanceWeight returns the aggregation weight for a field name.
func (c *ScoringConfig) ImportanceWeight(field string) float64 {
	if w, ok := c.Importance[field]; ok {
		return w
	}
	return c.DefaultImportance
}

func defaultSignatures() map[DocumentType][]Cue {
	return map[DocumentType][]Cue{
		DocTypePAN: {
			{Pattern: regexp.MustCompile(`\b[A-Z]{5}[0-9]{4}[A-Z]\b`), Weight: 50},
			{Literal: "INCOME TAX", HeaderLen: 500, Weight: 40},
			{Literal: "PERMANENT ACCOUNT", HeaderLen: 500, Weight: 30},
			{Literal: "GOVT. OF INDIA INCOME TAX", Weight: 20},
			{Pattern: regexp.MustCompile(`\bFATHER'?S? NAME\b`), Weight: 15},
			{Pattern: regexp.MustCompile(`\b\d{2}[/-]\d{2}[/-]\d{4}\b`), Weight: 10},
			{Pattern: regexp.MustCompile(`AADHAAR|ELECTION|DRIVING`), Weight: -30},
			{Literal: "APPLICATION", Weight: -20},
			{Literal: "FORM", HeaderLen: 300, Weight: -20},
		},
		DocTypeAadhaar: {
			{Pattern: regexp.MustCompile(`\b\d{4}\s*\d{4}\s*\d{4}\b`), Weight: 50},
			{Literal: "UIDAI", HeaderLen: 500, Weight: 40},
			{Pattern: regexp.MustCompile(`AADHAAR|AADHAR`), Weight: 30},
			{Literal: "UNIQUE IDENTIFICATION", Weight: 25},
			{Literal: "GOVERNMENT OF INDIA", Weight: 20},
			{Pattern: regexp.MustCompile(`\b(S/O|D/O|C/O)\b`), Weight: 15},
			{Literal: "VID", Weight: 10},
			{Pattern: regexp.MustCompile(`INCOME TAX|ELECTION`), Weight: -30},
			{Literal: "ENROLMENT", Weight: -25},
			{Literal: "APPLICATION", HeaderLen: 300, Weight: -25},
		},
		DocTypeVoterID: {
			{Pattern: regexp.MustCompile(`\b[A-Z]{3,4}[0-9]{6,10}\b`), Weight: 50},
			{Literal: "ELECTION COMMISSION", HeaderLen: 500, Weight: 40},
			{Literal: "ELECTORAL", HeaderLen: 500, Weight: 30},
			{Literal: "ELECTOR", Weight: 25},
			{Pattern: regexp.MustCompile(`\bEPIC\s*NO\b`), Weight: 20},
			{Pattern: regexp.MustCompile(`\bPART\s*NO\b`), Weight: 15},
			{Pattern: regexp.MustCompile(`AADHAAR|INCOME TAX|DRIVING`), Weight: -30},
		},
		DocTypeDrivingLicence: {
			{Pattern: regexp.MustCompile(`\b[A-Z]{2}[0-9O]{6,20}\b`), Weight: 50},
			{Pattern: regexp.MustCompile(`DRIVING LICENCE|DRIVING LICENSE`), HeaderLen: 500, Weight: 40},
			{Literal: "TRANSPORT", HeaderLen: 500, Weight: 30},
			{Pattern: regexp.MustCompile(`\bVALID\s*(TILL|UPTO)\b`), Weight: 25},
			{Literal: "MOTOR VEHICLE", Weight: 20},
			{Pattern: regexp.MustCompile(`\b(LMV|MCWG|TRANS)\b`), Weight: 15},
			{Pattern: regexp.MustCompile(`AADHAAR|INCOME TAX|ELECTION`), Weight: -30},
			{Literal: "LEARNER", Weight: -25},
			{Literal: "APPLICATION", HeaderLen: 300, Weight: -25},
		},
		DocTypeMarksheet: {
			{Pattern: regexp.MustCompile(`\b(A1|A2|B1|B2|C1|C2|GRADE|CGPA)\b`), Weight: 50},
			{Literal: "BOARD OF", HeaderLen: 500, Weight: 40},
			{Literal: "EXAMINATION", HeaderLen: 500, Weight: 35},
			{Literal: "MARKS", Weight: 30},
			{Literal: "MARKSHEET", Weight: 25},
			{Pattern: regexp.MustCompile(`\b(SCHOOL|COLLEGE|INSTITUTE)\b`), Weight: 20},
			{Pattern: regexp.MustCompile(`\bROLL\s*NO\b`), Weight: 20},
			{Literal: "SUBJECT", Weight: 15},
			{Pattern: regexp.MustCompile(`SAMPLE PAPER|PRACTICE`), Weight: -30},
		},
	}
}
