package grading

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/mrinal-mann/superteacher-backend/internal/config"
	"github.com/mrinal-mann/superteacher-backend/internal/domain"
)

// Orchestrator wraps one or two graders in the retry policy and guarantees a
// usable GradingResult on every call. It never returns an error: when every
// remote attempt fails it degrades to the deterministic local fallback.
type Orchestrator struct {
	primary Grader
	backup  Grader
	policy  RetryPolicy

	attemptTimeout time.Duration
	sleep          func(context.Context, time.Duration) error
	now            func() time.Time
}

func NewOrchestrator(primary Grader, backup Grader, policy RetryPolicy) *Orchestrator {
	return &Orchestrator{
		primary:        primary,
		backup:         backup,
		policy:         policy,
		attemptTimeout: config.RequestTimeout,
		sleep:          sleepCtx,
		now:            time.Now,
	}
}

// Grade runs the retry loop: one network attempt per iteration, exponential
// backoff between iterations, and the backup endpoint substituted on the
// final iteration only. A context timeout mid-loop also lands in the
// fallback, so a turn can never stay stuck in grading.
func (o *Orchestrator) Grade(ctx context.Context, req Request) domain.GradingResult {
	if req.MaxMarks <= 0 {
		req.MaxMarks = config.DefaultMaxMarks
	}

	for attempt := 1; attempt <= o.policy.MaxAttempts; attempt++ {
		g := o.primary
		if attempt == o.policy.MaxAttempts && o.backup != nil {
			g = o.backup
		}

		attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
		resp, err := g.Grade(attemptCtx, req)
		cancel()
		if err == nil {
			return o.finalize(req, resp)
		}
		slog.Warn("grading attempt failed",
			"grader", g.Name(), "attempt", attempt, "max_attempts", o.policy.MaxAttempts, "error", err)

		if attempt < o.policy.MaxAttempts {
			if err := o.sleep(ctx, o.policy.Delay(attempt)); err != nil {
				// Caller's deadline expired; degrade now instead of
				// leaving the session mid-grade.
				break
			}
		}
	}

	slog.Warn("all grading attempts exhausted, using local fallback")
	return o.fallback(req)
}

// finalize turns a remote response into a GradingResult, enforcing the
// invariants the remote is not trusted with: score clamped to [0, max],
// percentage recomputed locally, and an off-topic verdict forcing a zero.
func (o *Orchestrator) finalize(req Request, resp *Response) domain.GradingResult {
	score := clamp(resp.Score, 0, float64(req.MaxMarks))
	feedback := resp.Feedback
	relevant := resp.IsRelevant == nil || *resp.IsRelevant

	if !relevant {
		score = 0
		feedback = "The submitted answer does not address the question that was asked. " +
			"No marks can be awarded for an off-topic answer. " +
			"Please check that the right answer sheet was uploaded for this question."
	}

	return domain.GradingResult{
		Score:               score,
		OutOf:               req.MaxMarks,
		Percentage:          percentage(score, req.MaxMarks),
		Feedback:            feedback,
		Strengths:           resp.Strengths,
		AreasForImprovement: resp.AreasForImprovement,
		SuggestedPoints:     resp.SuggestedPoints,
		IsRelevant:          relevant,
		Approach:            req.Approach,
		GradedAt:            o.now().UTC(),
	}
}

// fallback is the deterministic local heuristic: score proportional to answer
// length, clamped to the configured band for substantial answers. It exists
// so the conversation always completes a turn even with every collaborator
// down.
func (o *Orchestrator) fallback(req Request) domain.GradingResult {
	max := float64(req.MaxMarks)
	length := len(strings.TrimSpace(req.StudentAnswer))

	floor := max * config.FallbackFloorPercent / 100
	ceiling := max * config.FallbackCeilingPercent / 100

	var score float64
	if length >= config.SubstantialAnswerLen {
		// Grow within the band, saturating at roughly five times the
		// substantial threshold.
		span := float64(length-config.SubstantialAnswerLen) / float64(4*config.SubstantialAnswerLen)
		if span > 1 {
			span = 1
		}
		score = floor + span*(ceiling-floor)
	} else {
		score = floor * float64(length) / float64(config.SubstantialAnswerLen)
	}
	score = math.Round(clamp(score, 0, max)*2) / 2

	return domain.GradingResult{
		Score:      score,
		OutOf:      req.MaxMarks,
		Percentage: percentage(score, req.MaxMarks),
		Feedback: "The grading service is temporarily unavailable, so this is a provisional " +
			"score based on the length and structure of the answer. Grade again later for " +
			"detailed feedback.",
		Strengths: []string{"The answer was submitted and is readable."},
		AreasForImprovement: []string{
			"Provisional grading cannot assess content; re-grade when the service is back.",
		},
		SuggestedPoints: []string{
			"Cover each part of the question explicitly.",
			"Support claims with definitions or examples.",
		},
		IsRelevant: true,
		Approach:   req.Approach,
		Fallback:   true,
		GradedAt:   o.now().UTC(),
	}
}

func percentage(score float64, outOf int) float64 {
	if outOf <= 0 {
		return 0
	}
	return score / float64(outOf) * 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
