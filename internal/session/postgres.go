package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mrinal-mann/superteacher-backend/internal/domain"
)

// PostgresStore keeps sessions in a single JSONB-payload table so the engine
// survives restarts and can run on more than one instance. Atomicity per key
// comes from a row lock held for the duration of the mutation.
type PostgresStore struct {
	pool    *pgxpool.Pool
	factory Factory
}

func NewPostgresStore(pool *pgxpool.Pool, factory Factory) *PostgresStore {
	return &PostgresStore{pool: pool, factory: factory}
}

func (p *PostgresStore) Get(ctx context.Context, userID string) (*domain.Session, error) {
	var payload []byte
	err := p.pool.QueryRow(ctx,
		`SELECT payload FROM grading_sessions WHERE user_id = $1`, userID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lazily create through the same locked path every writer uses.
		return p.Update(ctx, userID, func(*domain.Session) error { return nil })
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	return decodeSession(payload)
}

func (p *PostgresStore) Update(ctx context.Context, userID string, fn func(*domain.Session) error) (*domain.Session, error) {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var payload []byte
	err = tx.QueryRow(ctx,
		`SELECT payload FROM grading_sessions WHERE user_id = $1 FOR UPDATE`, userID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		// First contact. The insert may lose a race against another
		// first-contact turn, in which case it conflicts and takes no
		// lock; the locked re-read below picks up whichever row won so
		// this tx mutates that state instead of clobbering it.
		if _, err := tx.Exec(ctx,
			`INSERT INTO grading_sessions (user_id, payload) VALUES ($1, $2)
			 ON CONFLICT (user_id) DO NOTHING`, userID, mustEncode(p.factory(userID))); err != nil {
			return nil, fmt.Errorf("insert session: %w", err)
		}
		err = tx.QueryRow(ctx,
			`SELECT payload FROM grading_sessions WHERE user_id = $1 FOR UPDATE`, userID).Scan(&payload)
	}
	if err != nil {
		return nil, fmt.Errorf("select session for update: %w", err)
	}
	s, err := decodeSession(payload)
	if err != nil {
		return nil, err
	}

	if err := fn(s); err != nil {
		return nil, err
	}
	s.Revision++

	if _, err := tx.Exec(ctx,
		`UPDATE grading_sessions SET payload = $2, updated_at = now() WHERE user_id = $1`,
		userID, mustEncode(s)); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s, nil
}

func (p *PostgresStore) Reset(ctx context.Context, userID string, keepHistory bool) (*domain.Session, error) {
	return p.Update(ctx, userID, func(s *domain.Session) error {
		fresh := p.factory(userID)
		if keepHistory {
			fresh.GradingHistory = s.GradingHistory
		}
		fresh.Revision = s.Revision
		fresh.CreatedAt = s.CreatedAt
		*s = *fresh
		return nil
	})
}

func decodeSession(payload []byte) (*domain.Session, error) {
	s := &domain.Session{}
	if err := json.Unmarshal(payload, s); err != nil {
		return nil, fmt.Errorf("decode session payload: %w", err)
	}
	return s, nil
}

func mustEncode(s *domain.Session) []byte {
	b, err := json.Marshal(s)
	if err != nil {
		// Session contains only JSON-encodable fields.
		panic(fmt.Sprintf("encode session: %v", err))
	}
	return b
}
