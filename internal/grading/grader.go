// Package grading scores a student answer against a question via an external
// LLM collaborator, with retries, an optional backup endpoint and a
// deterministic local fallback so a conversation turn always completes.
package grading

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mrinal-mann/superteacher-backend/internal/domain"
)

// Request carries everything a grader needs for one scoring call.
type Request struct {
	QuestionContext string
	StudentAnswer   string
	Instruction     string
	Approach        domain.Approach
	MaxMarks        int
}

// Response is the wire shape of a grading collaborator's reply. Score,
// feedback, strengths, areas_for_improvement and suggested_points are
// required; is_relevant is optional and defaults to relevant.
type Response struct {
	Score               float64  `json:"score"`
	Feedback            string   `json:"feedback"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	SuggestedPoints     []string `json:"suggested_points"`
	IsRelevant          *bool    `json:"is_relevant"`
}

// Grader is one grading endpoint. Implementations fail closed: a transport
// error or an unusable body is returned as an error, never as a zero result.
type Grader interface {
	Name() string
	Grade(ctx context.Context, req Request) (*Response, error)
}

// ParseResponse decodes a collaborator reply and enforces the required
// fields. A missing field is a parse failure, which the orchestrator treats
// like any other failed attempt.
func ParseResponse(raw []byte) (*Response, error) {
	var wire struct {
		Score               *float64 `json:"score"`
		Feedback            *string  `json:"feedback"`
		Strengths           []string `json:"strengths"`
		AreasForImprovement []string `json:"areas_for_improvement"`
		SuggestedPoints     []string `json:"suggested_points"`
		IsRelevant          *bool    `json:"is_relevant"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode grading response: %w", err)
	}
	if wire.Score == nil || wire.Feedback == nil ||
		wire.Strengths == nil || wire.AreasForImprovement == nil || wire.SuggestedPoints == nil {
		return nil, domain.ErrInvalidResponse
	}
	return &Response{
		Score:               *wire.Score,
		Feedback:            *wire.Feedback,
		Strengths:           wire.Strengths,
		AreasForImprovement: wire.AreasForImprovement,
		SuggestedPoints:     wire.SuggestedPoints,
		IsRelevant:          wire.IsRelevant,
	}, nil
}
