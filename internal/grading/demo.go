package grading

import (
	"context"
	"strings"
)

// DemoGrader serves offline/demo deployments: a deterministic stand-in for
// the remote collaborator that produces a plausible, content-blind result.
type DemoGrader struct{}

func (DemoGrader) Name() string { return "demo" }

func (DemoGrader) Grade(_ context.Context, req Request) (*Response, error) {
	words := len(strings.Fields(req.StudentAnswer))
	score := float64(req.MaxMarks) * 0.6
	if words > 150 {
		score = float64(req.MaxMarks) * 0.75
	} else if words < 20 {
		score = float64(req.MaxMarks) * 0.35
	}
	relevant := true
	return &Response{
		Score:    score,
		Feedback: "Demo grading: the answer covers the expected ground at a reasonable depth.",
		Strengths: []string{
			"Clear structure with an identifiable main argument.",
			"Uses terminology appropriate for the level.",
		},
		AreasForImprovement: []string{
			"Add a concrete example for each key point.",
			"Close with a short summary tying the points together.",
		},
		SuggestedPoints: []string{
			"Define the central concept before applying it.",
			"Mention at least one limitation or counterpoint.",
		},
		IsRelevant: &relevant,
	}, nil
}
