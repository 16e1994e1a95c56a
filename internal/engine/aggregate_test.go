/**
 * Aggregation Tests
 *
 * Validates the importance-weighted overall confidence, the marksheet
 * table penalty, bucket counting and the rescan suggestion.
 */

package engine

import "testing"

func strPtr(s string) *string { return &s }

func TestAggregateWeightedAverage(t *testing.T) {
	cfg := DefaultScoringConfig()
	fields := map[string]FieldValue{
		"pan":         {Value: strPtr("ABCDE1234F"), Confidence: 90, Status: StatusPass},
		"name":        {Value: strPtr("Rahul Sharma"), Confidence: 80, Status: StatusPass},
		"father_name": {Value: nil, Status: StatusFail},
		"dob":         {Value: strPtr("15/06/1990"), Confidence: 75, Status: StatusPass},
	}

	overall, summary, rescan := Aggregate(cfg, DocTypePAN, fields, nil)

	// (90*1.5 + 80*1.3 + 75*1.2) / (1.5+1.3+1.2) = 82.25, rounded half
	// away from zero to one decimal.
	if overall != 82.3 {
		t.Errorf("overall = %v, want 82.3", overall)
	}
	if summary.OverallConfidence != overall {
		t.Errorf("summary overall = %v, want %v", summary.OverallConfidence, overall)
	}
	if summary.High.Count != 1 || summary.Medium.Count != 2 || summary.Low.Count != 1 {
		t.Errorf("buckets = %d/%d/%d, want 1/2/1",
			summary.High.Count, summary.Medium.Count, summary.Low.Count)
	}
	if rescan {
		t.Error("rescan suggested for a healthy document")
	}
}

func TestAggregateNullFieldsCountAsFlagged(t *testing.T) {
	cfg := DefaultScoringConfig()

	// Three nulls cross the flagged-field cutoff regardless of how the
	// extracted field scored.
	fields := map[string]FieldValue{
		"pan":         {Value: strPtr("ABCDE1234F"), Confidence: 95, Status: StatusPass},
		"name":        {Value: nil, Status: StatusFail},
		"father_name": {Value: nil, Status: StatusFail},
		"dob":         {Value: nil, Status: StatusFail},
	}

	overall, summary, rescan := Aggregate(cfg, DocTypePAN, fields, nil)
	if overall != 95 {
		t.Errorf("overall = %v, want 95", overall)
	}
	if summary.Low.Count != 3 {
		t.Errorf("low bucket = %d, want 3", summary.Low.Count)
	}
	if !rescan {
		t.Error("rescan not suggested with three failed fields")
	}
}

func TestAggregateMarksheetTablePenalty(t *testing.T) {
	cfg := DefaultScoringConfig()
	fields := map[string]FieldValue{}
	for _, name := range DocTypeMarksheet.Schema() {
		fields[name] = FieldValue{Value: strPtr("x y"), Confidence: 90, Status: StatusPass}
	}

	row := TableRow{Subject: "English", Grade: "A1", Marks: "95"}

	testCases := []struct {
		name string
		rows int
		want float64
	}{
		{"No table rows", 0, 54},
		{"Thin table", 2, 67.5},
		{"Partial table", 4, 81},
		{"Full table", 5, 90},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			table := make([]TableRow, tc.rows)
			for i := range table {
				table[i] = row
			}
			overall, _, _ := Aggregate(cfg, DocTypeMarksheet, fields, table)
			if overall != tc.want {
				t.Errorf("overall with %d rows = %v, want %v", tc.rows, overall, tc.want)
			}
		})
	}
}

func TestAggregateEmptySchema(t *testing.T) {
	cfg := DefaultScoringConfig()
	overall, summary, rescan := Aggregate(cfg, DocTypeUnknown, map[string]FieldValue{}, nil)
	if overall != 0 {
		t.Errorf("overall = %v, want 0", overall)
	}
	if summary.High.Count != 0 || summary.Medium.Count != 0 || summary.Low.Count != 0 {
		t.Errorf("buckets not empty: %+v", summary)
	}
	if !rescan {
		t.Error("an empty result should suggest a rescan")
	}
}

func TestAggregateLowOverallSuggestsRescan(t *testing.T) {
	cfg := DefaultScoringConfig()
	fields := map[string]FieldValue{
		"pan":         {Value: strPtr("ABCDE1234F"), Confidence: 60, Status: StatusFail},
		"name":        {Value: strPtr("Rahul Sharma"), Confidence: 65, Status: StatusFail},
		"father_name": {Value: strPtr("Suresh Sharma"), Confidence: 70, Status: StatusReview},
		"dob":         {Value: strPtr("15/06/1990"), Confidence: 72, Status: StatusPass},
	}
	overall, _, rescan := Aggregate(cfg, DocTypePAN, fields, nil)
	if overall >= cfg.RescanCutoff {
		t.Fatalf("overall = %v, expected below the rescan cutoff", overall)
	}
	if !rescan {
		t.Error("rescan not suggested below the cutoff")
	}
}
