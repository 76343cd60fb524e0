package domain

import "testing"

func TestParseApproach(t *testing.T) {
	tests := []struct {
		text string
		want Approach
		ok   bool
	}{
		{"grade strictly", ApproachStrict, true},
		{"please be harsh with mistakes", ApproachStrict, true},
		{"be lenient with spelling", ApproachLenient, true},
		{"go easy on them", ApproachLenient, true},
		{"give detailed feedback", ApproachDetailed, true},
		{"quick check please", ApproachQuick, true},
		{"focus on conceptual understanding", ApproachConceptual, true},
		{"check technical accuracy", ApproachTechnical, true},
		{"follow the CBSE pattern", ApproachCBSEStandard, true},
		{"use the board marking scheme", ApproachCBSEStandard, true},

		// Keywords must start at a word boundary, not anywhere inside a word.
		{"the district administration collected taxes", "", false},
		{"the student seemed uneasy", "", false},
		{"press the keyboard shortcut", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseApproach(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseApproach(%q) = (%q, %v), want (%q, %v)",
					tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}
