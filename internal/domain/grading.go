package domain

import (
	"strings"
	"time"
)

// Approach tags how strictly an answer was graded. Fixed vocabulary.
type Approach string

const (
	ApproachStrict       Approach = "strict"
	ApproachBalanced     Approach = "balanced"
	ApproachLenient      Approach = "lenient"
	ApproachDetailed     Approach = "detailed"
	ApproachQuick        Approach = "quick"
	ApproachConceptual   Approach = "conceptual"
	ApproachTechnical    Approach = "technical"
	ApproachCBSEStandard Approach = "cbse-standard"
)

var approachKeywords = []struct {
	keyword  string
	approach Approach
}{
	{"strict", ApproachStrict},
	{"harsh", ApproachStrict},
	{"lenient", ApproachLenient},
	{"easy", ApproachLenient},
	{"generous", ApproachLenient},
	{"detail", ApproachDetailed},
	{"thorough", ApproachDetailed},
	{"quick", ApproachQuick},
	{"brief", ApproachQuick},
	{"concept", ApproachConceptual},
	{"understanding", ApproachConceptual},
	{"technical", ApproachTechnical},
	{"accuracy", ApproachTechnical},
	{"cbse", ApproachCBSEStandard},
	{"board", ApproachCBSEStandard},
}

// ParseApproach maps a free-text grading instruction to an approach tag.
func ParseApproach(instruction string) (Approach, bool) {
	lower := strings.ToLower(instruction)
	for _, ak := range approachKeywords {
		if containsWordPrefix(lower, ak.keyword) {
			return ak.approach, true
		}
	}
	return "", false
}

// containsWordPrefix reports whether text contains keyword starting at a word
// boundary, so "strictly" matches "strict" but "district" does not.
func containsWordPrefix(text, keyword string) bool {
	for at := 0; ; {
		i := strings.Index(text[at:], keyword)
		if i < 0 {
			return false
		}
		i += at
		if i == 0 || !isWordByte(text[i-1]) {
			return true
		}
		at = i + 1
	}
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}

// GradingResult is the immutable outcome of one grading call. Once appended to
// a session's history it is never modified.
type GradingResult struct {
	Score               float64  `json:"score"`
	OutOf               int      `json:"out_of"`
	Percentage          float64  `json:"percentage"`
	Feedback            string   `json:"feedback"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	SuggestedPoints     []string `json:"suggested_points"`
	IsRelevant          bool     `json:"is_relevant"`
	Approach            Approach `json:"approach"`
	Fallback            bool     `json:"fallback"`

	GradedAt time.Time `json:"graded_at"`
}
