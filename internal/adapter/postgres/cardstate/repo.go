// Package cardstate implements the computed_card_state_cache repository:
// a read-through cache of the projector's fold over a card's event
// history, keyed by (card_id, algorithm_version). The table is never the
// source of truth and is safe to truncate and rebuild at any time.
package cardstate

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/tandemly/srscore/internal/adapter/postgres"
	"github.com/tandemly/srscore/internal/domain"
)

// Repo provides ComputedCardState cache persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new card state cache repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const stateColumns = `
	card_id, algorithm_version, state, step, stability, difficulty, due,
	last_review, reps, lapses, scheduled_days, elapsed_days, event_count,
	last_event_at, computed_at`

const getSQL = `SELECT ` + stateColumns + `
FROM computed_card_state_cache
WHERE card_id = $1 AND algorithm_version = $2`

const upsertSQL = `
INSERT INTO computed_card_state_cache (
	card_id, algorithm_version, state, step, stability, difficulty, due,
	last_review, reps, lapses, scheduled_days, elapsed_days, event_count,
	last_event_at, computed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (card_id, algorithm_version) DO UPDATE SET
	state          = EXCLUDED.state,
	step           = EXCLUDED.step,
	stability      = EXCLUDED.stability,
	difficulty     = EXCLUDED.difficulty,
	due            = EXCLUDED.due,
	last_review    = EXCLUDED.last_review,
	reps           = EXCLUDED.reps,
	lapses         = EXCLUDED.lapses,
	scheduled_days = EXCLUDED.scheduled_days,
	elapsed_days   = EXCLUDED.elapsed_days,
	event_count    = EXCLUDED.event_count,
	last_event_at  = EXCLUDED.last_event_at,
	computed_at    = EXCLUDED.computed_at`

const deleteSQL = `DELETE FROM computed_card_state_cache WHERE card_id = $1 AND algorithm_version = $2`

// Get returns the cached computed state for a card under a given algorithm
// version. Returns domain.ErrNotFound on a cache miss.
func (r *Repo) Get(ctx context.Context, cardID uuid.UUID, algorithmVersion string) (*domain.ComputedCardState, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	s, err := scanState(querier.QueryRow(ctx, getSQL, cardID, algorithmVersion))
	if err != nil {
		return nil, mapError(err, "computed_card_state_cache", cardID)
	}
	return s, nil
}

// Put writes a freshly-folded state to the cache, replacing any existing
// row for the same (card_id, algorithm_version).
func (r *Repo) Put(ctx context.Context, state domain.ComputedCardState) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := querier.Exec(ctx, upsertSQL,
		state.CardID, state.AlgorithmVersion, string(state.State), state.Step,
		state.Stability, state.Difficulty, state.Due, state.LastReview,
		state.Reps, state.Lapses, state.ScheduledDays, state.ElapsedDays,
		state.EventCount, state.LastEventAt, state.ComputedAt,
	)
	if err != nil {
		return mapError(err, "computed_card_state_cache", state.CardID)
	}
	return nil
}

// Invalidate drops a card's cached state for an algorithm version, forcing
// the next Project call to re-fold from the event log. Used by the admin
// re-projection endpoint to force a rebuild without waiting for a natural
// cache miss.
func (r *Repo) Invalidate(ctx context.Context, cardID uuid.UUID, algorithmVersion string) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, deleteSQL, cardID, algorithmVersion); err != nil {
		return mapError(err, "computed_card_state_cache", cardID)
	}
	return nil
}

func scanState(row pgx.Row) (*domain.ComputedCardState, error) {
	var (
		s     domain.ComputedCardState
		state string
	)
	err := row.Scan(
		&s.CardID, &s.AlgorithmVersion, &state, &s.Step, &s.Stability, &s.Difficulty,
		&s.Due, &s.LastReview, &s.Reps, &s.Lapses, &s.ScheduledDays, &s.ElapsedDays,
		&s.EventCount, &s.LastEventAt, &s.ComputedAt,
	)
	if err != nil {
		return nil, err
	}
	s.State = domain.CardState(state)
	return &s, nil
}

func mapError(err error, entity string, id uuid.UUID) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrAlreadyExists)
		case "23503":
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
		case "23514":
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrValidation)
		}
	}

	return fmt.Errorf("%s %s: %w", entity, id, err)
}
