// Package session holds per-user conversation state behind an atomic
// read-modify-write store so two interleaved turns for the same user can
// never lose an update.
package session

import (
	"context"
	"sync"

	"github.com/mrinal-mann/superteacher-backend/internal/domain"
)

// Factory creates the initial session for a user id seen for the first time.
type Factory func(userID string) *domain.Session

// Store is the session container the engine talks to. All three operations
// are atomic per user id; implementations must guarantee that Update runs its
// mutation inside a single per-key critical section.
type Store interface {
	// Get returns a snapshot of the user's session, creating it lazily.
	Get(ctx context.Context, userID string) (*domain.Session, error)
	// Update applies fn to the live session under the per-key lock and
	// commits the result. The returned session is a snapshot of the
	// committed state. Returning an error from fn aborts the update.
	Update(ctx context.Context, userID string, fn func(*domain.Session) error) (*domain.Session, error)
	// Reset replaces the session with a fresh one at the workflow start,
	// optionally carrying the grading history over.
	Reset(ctx context.Context, userID string, keepHistory bool) (*domain.Session, error)
}

// MemoryStore is the in-process Store. Per-key mutexes serialize turns for a
// single user while different users proceed independently.
type MemoryStore struct {
	factory Factory

	mu      sync.Mutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	mu sync.Mutex
	s  *domain.Session
}

func NewMemoryStore(factory Factory) *MemoryStore {
	return &MemoryStore{
		factory: factory,
		entries: make(map[string]*memoryEntry),
	}
}

func (m *MemoryStore) entry(userID string) *memoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[userID]
	if !ok {
		e = &memoryEntry{s: m.factory(userID)}
		m.entries[userID] = e
	}
	return e
}

func (m *MemoryStore) Get(ctx context.Context, userID string) (*domain.Session, error) {
	e := m.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.Clone(), nil
}

func (m *MemoryStore) Update(ctx context.Context, userID string, fn func(*domain.Session) error) (*domain.Session, error) {
	e := m.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	// Mutate a copy so a failed fn leaves the committed state untouched.
	next := e.s.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.Revision++
	e.s = next
	return next.Clone(), nil
}

func (m *MemoryStore) Reset(ctx context.Context, userID string, keepHistory bool) (*domain.Session, error) {
	return m.Update(ctx, userID, func(s *domain.Session) error {
		fresh := m.factory(userID)
		if keepHistory {
			fresh.GradingHistory = s.GradingHistory
		}
		fresh.Revision = s.Revision
		fresh.CreatedAt = s.CreatedAt
		*s = *fresh
		return nil
	})
}
