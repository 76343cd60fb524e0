package grading

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// stubGrader scripts successive Grade outcomes and records which attempts hit it.
type stubGrader struct {
	name  string
	resp  *Response
	err   error
	calls int
}

func (g *stubGrader) Name() string { return g.name }

func (g *stubGrader) Grade(_ context.Context, _ Request) (*Response, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.resp, nil
}

func newTestOrchestrator(primary, backup Grader, attempts int) *Orchestrator {
	o := NewOrchestrator(primary, backup, RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Second})
	o.sleep = func(context.Context, time.Duration) error { return nil }
	o.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return o
}

func boolPtr(b bool) *bool { return &b }

func TestGradeHappyPath(t *testing.T) {
	primary := &stubGrader{name: "primary", resp: &Response{
		Score:               7.5,
		Feedback:            "Solid answer.",
		Strengths:           []string{"clear definitions"},
		AreasForImprovement: []string{"add an example"},
		SuggestedPoints:     []string{"mention opportunity cost"},
		IsRelevant:          boolPtr(true),
	}}
	o := newTestOrchestrator(primary, nil, 3)

	got := o.Grade(context.Background(), Request{StudentAnswer: "an answer", MaxMarks: 10})

	if got.Score != 7.5 || got.OutOf != 10 {
		t.Errorf("score = %v/%d, want 7.5/10", got.Score, got.OutOf)
	}
	if got.Percentage != 75 {
		t.Errorf("percentage = %v, want 75", got.Percentage)
	}
	if got.Fallback {
		t.Error("happy path marked as fallback")
	}
	if primary.calls != 1 {
		t.Errorf("primary called %d times, want 1", primary.calls)
	}
}

func TestGradeClampsOutOfRangeScore(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  float64
	}{
		{"above max", 15, 10},
		{"negative", -3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &stubGrader{name: "primary", resp: &Response{Score: tt.score, Feedback: "x"}}
			o := newTestOrchestrator(primary, nil, 1)

			got := o.Grade(context.Background(), Request{MaxMarks: 10})
			if got.Score != tt.want {
				t.Errorf("clamped score = %v, want %v", got.Score, tt.want)
			}
			if got.Percentage != got.Score/10*100 {
				t.Errorf("percentage %v inconsistent with score %v", got.Percentage, got.Score)
			}
		})
	}
}

func TestGradeIrrelevantAnswerScoresZero(t *testing.T) {
	primary := &stubGrader{name: "primary", resp: &Response{
		Score:      8,
		Feedback:   "Well written essay about a different topic.",
		IsRelevant: boolPtr(false),
	}}
	o := newTestOrchestrator(primary, nil, 1)

	got := o.Grade(context.Background(), Request{MaxMarks: 10})

	if got.Score != 0 {
		t.Errorf("score = %v, want 0 for an off-topic answer", got.Score)
	}
	if got.Percentage != 0 {
		t.Errorf("percentage = %v, want 0", got.Percentage)
	}
	if got.IsRelevant {
		t.Error("IsRelevant = true, want false")
	}
	if !strings.Contains(got.Feedback, "does not address the question") {
		t.Errorf("feedback does not explain the mismatch: %q", got.Feedback)
	}
}

func TestGradeRetriesThenSucceeds(t *testing.T) {
	fails := 0
	flaky := &funcGrader{name: "flaky", fn: func() (*Response, error) {
		fails++
		if fails < 3 {
			return nil, errors.New("transient")
		}
		return &Response{Score: 6, Feedback: "ok"}, nil
	}}
	o := newTestOrchestrator(flaky, nil, 3)

	got := o.Grade(context.Background(), Request{MaxMarks: 10})

	if got.Fallback {
		t.Error("result marked fallback despite eventual success")
	}
	if got.Score != 6 {
		t.Errorf("score = %v, want 6", got.Score)
	}
	if fails != 3 {
		t.Errorf("grader called %d times, want 3", fails)
	}
}

type funcGrader struct {
	name string
	fn   func() (*Response, error)
}

func (g *funcGrader) Name() string { return g.name }
func (g *funcGrader) Grade(context.Context, Request) (*Response, error) {
	return g.fn()
}

func TestGradeBackupUsedOnFinalAttemptOnly(t *testing.T) {
	primary := &stubGrader{name: "primary", err: errors.New("down")}
	backup := &stubGrader{name: "backup", resp: &Response{Score: 5, Feedback: "backup verdict"}}
	o := newTestOrchestrator(primary, backup, 3)

	got := o.Grade(context.Background(), Request{MaxMarks: 10})

	if primary.calls != 2 {
		t.Errorf("primary called %d times, want 2", primary.calls)
	}
	if backup.calls != 1 {
		t.Errorf("backup called %d times, want 1", backup.calls)
	}
	if got.Fallback || got.Score != 5 {
		t.Errorf("got %+v, want backup score 5", got)
	}
}

func TestGradeFallbackWhenEverythingFails(t *testing.T) {
	primary := &stubGrader{name: "primary", err: errors.New("down")}
	backup := &stubGrader{name: "backup", err: errors.New("also down")}

	for _, maxMarks := range []int{5, 10, 40} {
		o := newTestOrchestrator(primary, backup, 3)
		answer := strings.Repeat("the answer discusses development indicators at length ", 10)

		got := o.Grade(context.Background(), Request{StudentAnswer: answer, MaxMarks: maxMarks})

		if !got.Fallback {
			t.Fatalf("maxMarks=%d: result not marked as fallback", maxMarks)
		}
		if got.Score < 0 || got.Score > float64(maxMarks) {
			t.Errorf("maxMarks=%d: score %v outside [0, %d]", maxMarks, got.Score, maxMarks)
		}
		want := got.Score / float64(maxMarks) * 100
		if got.Percentage != want {
			t.Errorf("maxMarks=%d: percentage = %v, want %v", maxMarks, got.Percentage, want)
		}
		if got.Feedback == "" || len(got.Strengths) == 0 || len(got.AreasForImprovement) == 0 {
			t.Errorf("maxMarks=%d: fallback result missing feedback fields", maxMarks)
		}
	}
}

func TestGradeFallbackRewardsSubstantialAnswers(t *testing.T) {
	failing := &stubGrader{name: "primary", err: errors.New("down")}

	short := newTestOrchestrator(failing, nil, 1).
		Grade(context.Background(), Request{StudentAnswer: "brief", MaxMarks: 10})
	long := newTestOrchestrator(failing, nil, 1).
		Grade(context.Background(), Request{StudentAnswer: strings.Repeat("a detailed point about the topic ", 40), MaxMarks: 10})

	if short.Score >= long.Score {
		t.Errorf("short answer scored %v, long answer %v; want long > short", short.Score, long.Score)
	}
	// Substantial answers stay inside the provisional band.
	if long.Score < 4 || long.Score > 8 {
		t.Errorf("substantial fallback score %v outside the 40%%..80%% band", long.Score)
	}
}

func TestGradeFallbackIsDeterministic(t *testing.T) {
	failing := &stubGrader{name: "primary", err: errors.New("down")}
	req := Request{StudentAnswer: strings.Repeat("same answer ", 30), MaxMarks: 10}

	a := newTestOrchestrator(failing, nil, 1).Grade(context.Background(), req)
	b := newTestOrchestrator(failing, nil, 1).Grade(context.Background(), req)

	if a.Score != b.Score || a.Percentage != b.Percentage {
		t.Errorf("fallback not deterministic: %v%% then %v%%", a.Percentage, b.Percentage)
	}
}

func TestGradeCancelledContextFallsBack(t *testing.T) {
	primary := &stubGrader{name: "primary", err: errors.New("down")}
	o := newTestOrchestrator(primary, nil, 5)
	o.sleep = sleepCtx // real sleep so cancellation matters

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := o.Grade(ctx, Request{StudentAnswer: "anything", MaxMarks: 10})
	if !got.Fallback {
		t.Error("cancelled context did not degrade to fallback")
	}
}

func TestGradeDefaultsMaxMarks(t *testing.T) {
	primary := &stubGrader{name: "primary", resp: &Response{Score: 4, Feedback: "ok"}}
	o := newTestOrchestrator(primary, nil, 1)

	got := o.Grade(context.Background(), Request{MaxMarks: 0})
	if got.OutOf <= 0 {
		t.Errorf("OutOf = %d, want a positive default", got.OutOf)
	}
}
