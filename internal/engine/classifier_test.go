/**
 * Classifier Tests
 *
 * Validates text normalization, the weighted signature scoring and the
 * minimum-evidence floor across all five document types.
 */

package engine

import "testing"

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Collapses whitespace and uppercases",
			input: "  income   tax\n department ",
			want:  "INCOME TAX DEPARTMENT",
		},
		{
			name:  "Folds full-width digits via NFKC",
			input: "ＡＢＣ１２３",
			want:  "ABC123",
		},
		{
			name:  "Empty input stays empty",
			input: "   \n\t ",
			want:  "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.input); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	cfg := DefaultScoringConfig()

	testCases := []struct {
		name string
		text string
		want DocumentType
	}{
		{
			name: "PAN card",
			text: "INCOME TAX DEPARTMENT\nGOVT. OF INDIA\nPermanent Account Number Card\nABCDE1234F\nFather's Name\n15/06/1990",
			want: DocTypePAN,
		},
		{
			name: "Aadhaar card",
			text: "Government of India\nUnique Identification Authority of India\nAadhaar\n1234 5678 9012\nS/O Mohan Kumar",
			want: DocTypeAadhaar,
		},
		{
			name: "Voter ID card",
			text: "ELECTION COMMISSION OF INDIA\nElector's Photo Identity Card\nEPIC NO\nWDX2796091",
			want: DocTypeVoterID,
		},
		{
			name: "Driving licence",
			text: "TRANSPORT DEPARTMENT\nDRIVING LICENCE\nMH0220190012345\nVALID TILL 09/05/2035\nLMV",
			want: DocTypeDrivingLicence,
		},
		{
			name: "Marksheet",
			text: "BOARD OF SECONDARY EDUCATION\nSECONDARY SCHOOL EXAMINATION\nROLL NO 123456789\nSUBJECT GRADE MARKS\nCGPA 9.2",
			want: DocTypeMarksheet,
		},
		{
			name: "Empty text",
			text: "",
			want: DocTypeUnknown,
		},
		{
			name: "Unrelated text stays below the floor",
			text: "hello world this is a grocery list",
			want: DocTypeUnknown,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(cfg, tc.text)
			if got.Type != tc.want {
				t.Errorf("Classify() = %s (score %d), want %s\nscores: %v",
					got.Type, got.Score, tc.want, got.Scores)
			}
		})
	}
}

func TestClassifyFloor(t *testing.T) {
	cfg := DefaultScoringConfig()

	// "MARKS" alone scores 30, below the floor of 40.
	got := Classify(cfg, "MARKS")
	if got.Type != DocTypeUnknown {
		t.Errorf("Single weak cue classified as %s, want Unknown", got.Type)
	}

	// Adding "SUBJECT" pushes the score to 45, above the floor.
	got = Classify(cfg, "MARKS SUBJECT")
	if got.Type != DocTypeMarksheet {
		t.Errorf("Two cues classified as %s (score %d), want Marksheet", got.Type, got.Score)
	}
}

func TestClassifyNegativeCuesClampToZero(t *testing.T) {
	cfg := DefaultScoringConfig()

	// Pure negative vocabulary must not produce a negative type score.
	got := Classify(cfg, "APPLICATION FORM")
	for docType, score := range got.Scores {
		if score < 0 {
			t.Errorf("score for %s is %d, want >= 0", docType, score)
		}
	}
	if got.Type != DocTypeUnknown {
		t.Errorf("Classify() = %s, want Unknown", got.Type)
	}
}
