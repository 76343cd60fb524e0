package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mrinal-mann/superteacher-backend/internal/domain"
)

func newTestStore() *MemoryStore {
	return NewMemoryStore(func(userID string) *domain.Session {
		return domain.NewSession(userID, domain.WorkflowCBSE)
	})
}

func TestGetCreatesLazily(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	s, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", s.UserID)
	}
	if s.Step != domain.StepInitial {
		t.Errorf("Step = %q, want %q", s.Step, domain.StepInitial)
	}

	again, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if again.ID != s.ID {
		t.Errorf("second Get returned a different session: %s vs %s", again.ID, s.ID)
	}
}

func TestUpdateAbortsOnError(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	if _, err := store.Update(ctx, "u1", func(s *domain.Session) error {
		s.Step = domain.StepWaitingForClass
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	boom := errors.New("boom")
	_, err := store.Update(ctx, "u1", func(s *domain.Session) error {
		s.Step = domain.StepComplete
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update error = %v, want boom", err)
	}

	s, _ := store.Get(ctx, "u1")
	if s.Step != domain.StepWaitingForClass {
		t.Errorf("failed update leaked: Step = %q", s.Step)
	}
	if s.Revision != 1 {
		t.Errorf("failed update bumped revision: %d", s.Revision)
	}
}

func TestConcurrentUpdatesLoseNothing(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, "u1", func(s *domain.Session) error {
				// Read-modify-write that would lose increments without
				// the per-key critical section.
				s.MaxMarks = s.MaxMarks + 1
				return nil
			})
			if err != nil {
				t.Errorf("Update: %v", err)
			}
		}()
	}
	wg.Wait()

	s, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.MaxMarks != n {
		t.Errorf("MaxMarks = %d, want %d (lost updates)", s.MaxMarks, n)
	}
	if s.Revision != n {
		t.Errorf("Revision = %d, want %d", s.Revision, n)
	}
}

func TestUpdatesForDifferentUsersAreIndependent(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Update(ctx, "a", func(s *domain.Session) error {
		s.Step = domain.StepComplete
		return nil
	})
	if err != nil {
		t.Fatalf("Update a: %v", err)
	}

	b, _ := store.Get(ctx, "b")
	if b.Step != domain.StepInitial {
		t.Errorf("user b affected by user a update: Step = %q", b.Step)
	}
}

func TestResetPreservesHistoryWhenAsked(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Update(ctx, "u1", func(s *domain.Session) error {
		s.Step = domain.StepComplete
		s.ClassLevel = domain.Class10
		s.GradingHistory = append(s.GradingHistory, domain.GradingResult{Score: 7, OutOf: 10})
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	s, err := store.Reset(ctx, "u1", true)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s.Step != domain.StepInitial {
		t.Errorf("Step after reset = %q", s.Step)
	}
	if s.ClassLevel != "" {
		t.Errorf("ClassLevel survived reset: %q", s.ClassLevel)
	}
	if len(s.GradingHistory) != 1 {
		t.Errorf("history lost on keepHistory reset: %d entries", len(s.GradingHistory))
	}

	s, err = store.Reset(ctx, "u1", false)
	if err != nil {
		t.Fatalf("second Reset: %v", err)
	}
	if len(s.GradingHistory) != 0 {
		t.Errorf("history kept on full reset: %d entries", len(s.GradingHistory))
	}
}

func TestResetIsIdempotent(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	first, err := store.Reset(ctx, "u1", false)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	second, err := store.Reset(ctx, "u1", false)
	if err != nil {
		t.Fatalf("second Reset: %v", err)
	}
	if first.Step != second.Step || second.Step != domain.StepInitial {
		t.Errorf("repeated reset changed outcome: %q then %q", first.Step, second.Step)
	}
}
