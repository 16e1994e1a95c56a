/**
 * Confidence Engine - Hybrid per-field scoring
 *
 * Each extracted field gets four sub-scores: real token-level OCR
 * confidence, the pattern tier of its match quality, the document
 * image quality, and a business-rules score. The final confidence is
 * the fixed weighted blend of the four; a missing signal contributes
 * zero rather than shifting weight onto the others.
 */

package engine

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ScoredField is a field candidate after hybrid scoring, before the
// threshold verdict.
type ScoredField struct {
	Value      string
	Confidence float64
	Breakdown  Breakdown
}

var (
	ruleSpecialRe  = regexp.MustCompile(`[^A-Za-z0-9\s,.\-/()]`)
	dateFieldRe    = regexp.MustCompile(`^\d{1,2}[/\-.]\d{1,2}[/\-.]\d{4}$`)
	dateSplitRe    = regexp.MustCompile(`[/\-.]`)
	genderVocab    = map[string]bool{"male": true, "female": true, "transgender": true, "m": true, "f": true, "other": true}
	ruleNameFields = map[string]bool{"name": true, "father_name": true, "mother_name": true, "student_name": true, "husband_name": true}
	ruleIDFields   = map[string]bool{"aadhaar_number": true, "pan": true, "mobile": true, "roll_no": true}
)

// ScoreFields applies the hybrid formula to every candidate of one
// OCR pass.
func ScoreFields(cfg *ScoringConfig, fields map[string]Candidate, tokens TokenStats, quality QualityReport) map[string]ScoredField {
	scored := make(map[string]ScoredField, len(fields))
	for name, cand := range fields {
		if strings.TrimSpace(cand.Value) == "" {
			continue
		}
		b := Breakdown{
			OCR:     clampScore(tokens.Average),
			Pattern: cfg.PatternScore(name, cand.Quality),
			Quality: clampScore(quality.Score),
			Rules:   businessRulesScore(name, cand.Value),
		}
		conf := b.OCR*cfg.WeightOCR +
			b.Pattern*cfg.WeightPattern +
			b.Quality*cfg.WeightQuality +
			b.Rules*cfg.WeightRules
		scored[name] = ScoredField{
			Value:      cand.Value,
			Confidence: clampScore(math.Round(conf)),
			Breakdown:  b,
		}
	}
	return scored
}

// businessRulesScore starts at 100 and subtracts format penalties.
func businessRulesScore(field, value string) float64 {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0
	}
	score := 100.0

	switch {
	case len(v) == 1:
		score -= 40
	case len(v) > 200:
		score -= 30
	}

	if n := len(ruleSpecialRe.FindAllString(v, -1)); n > 0 {
		score -= math.Min(30, float64(n)*5)
	}

	if ruleNameFields[field] && (v == strings.ToUpper(v) || v == strings.ToLower(v)) {
		score -= 10
	}

	if hasRepeatRun(v, 5) {
		score -= 30
	}

	if ruleIDFields[field] && !strings.ContainsAny(v, "0123456789") {
		score -= 50
	}

	return clampScore(score)
}

// hasRepeatRun reports whether the value contains a run of at least n
// identical consecutive runes.
func hasRepeatRun(value string, n int) bool {
	var prev rune
	run := 0
	for _, r := range value {
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= n {
			return true
		}
	}
	return false
}

// ApplyCrossFieldRules adjusts merged field confidences where values
// contradict each other or fall outside realistic ranges. Runs after
// merging so both OCR passes have contributed their best candidates.
func ApplyCrossFieldRules(fields map[string]ScoredField) {
	adjust := func(name string, penalty float64) {
		f, ok := fields[name]
		if !ok {
			return
		}
		f.Confidence = clampScore(f.Confidence - penalty)
		fields[name] = f
	}

	for _, name := range []string{"dob", "issue_date", "valid_till"} {
		if f, ok := fields[name]; ok {
			adjust(name, datePenalty(f.Value))
		}
	}

	if f, ok := fields["year"]; ok {
		if y, err := strconv.Atoi(strings.TrimSpace(f.Value)); err != nil {
			adjust("year", 40)
		} else if y < 1990 || y > 2025 {
			adjust("year", 30)
		}
	}

	if f, ok := fields["cgpa"]; ok {
		if v, ok := parseFloat(f.Value); !ok {
			adjust("cgpa", 30)
		} else if v < 0 || v > 10 {
			adjust("cgpa", 35)
		}
	}

	name := ""
	if f, ok := fields["name"]; ok {
		name = f.Value
	} else if f, ok := fields["student_name"]; ok {
		name = f.Value
	}
	if father, ok := fields["father_name"]; ok && name != "" {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(father.Value)) {
			adjust("father_name", 50)
		}
	}

	if f, ok := fields["gender"]; ok {
		if !genderVocab[strings.ToLower(strings.TrimSpace(f.Value))] {
			adjust("gender", 40)
		}
	}
}

// datePenalty validates a canonical DD/MM/YYYY value.
func datePenalty(value string) float64 {
	v := strings.TrimSpace(value)
	if !dateFieldRe.MatchString(v) {
		return 50
	}
	parts := dateSplitRe.Split(v, -1)
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return 50
	}
	switch {
	case day < 1 || day > 31:
		return 40
	case month < 1 || month > 12:
		return 40
	case year < 1900 || year > time.Now().Year():
		return 30
	}
	return 0
}

// Finalize turns scored fields into the schema-complete output map:
// every schema field appears, unextracted ones as null/0/FAIL, and
// each extracted one gets its threshold verdict.
func Finalize(cfg *ScoringConfig, docType DocumentType, scored map[string]ScoredField) map[string]FieldValue {
	out := make(map[string]FieldValue, len(docType.Schema()))
	for _, name := range docType.Schema() {
		threshold := cfg.Threshold(name)
		f, ok := scored[name]
		if !ok {
			out[name] = FieldValue{
				Value:     nil,
				Threshold: threshold,
				Status:    StatusFail,
			}
			continue
		}
		v := f.Value
		out[name] = FieldValue{
			Value:      &v,
			Confidence: f.Confidence,
			Breakdown:  f.Breakdown,
			Threshold:  threshold,
			Status:     StatusFor(f.Confidence, threshold),
		}
	}
	return out
}

// StatusFor grades a confidence against its threshold with a ten
// point review band below it.
func StatusFor(confidence, threshold float64) FieldStatus {
	switch {
	case confidence >= threshold:
		return StatusPass
	case confidence >= threshold-10:
		return StatusReview
	default:
		return StatusFail
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
