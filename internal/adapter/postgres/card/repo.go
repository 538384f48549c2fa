// Package card implements the Card repository using PostgreSQL, plus the
// queue queries the session selector needs (new/due counts and candidate
// sets). All queries are hand-written SQL: the join against
// computed_card_state_cache has enough shape variation (LEFT JOIN for
// never-reviewed cards, filtered join for due cards, optional deck filter)
// that a generator would need hand-tuning anyway.
package card

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/tandemly/srscore/internal/adapter/postgres"
	"github.com/tandemly/srscore/internal/domain"
)

// Repo provides card persistence and queue queries backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new card repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const cardColumns = `id, user_id, deck_id, note_id, ordinal, created_at, updated_at`

const getByIDSQL = `SELECT ` + cardColumns + ` FROM cards WHERE id = $1 AND user_id = $2`

const createSQL = `
INSERT INTO cards (id, user_id, deck_id, note_id, ordinal, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + cardColumns

const deleteSQL = `DELETE FROM cards WHERE id = $1 AND user_id = $2`

const listByDeckSQL = `
SELECT ` + cardColumns + `
FROM cards
WHERE user_id = $1 AND deck_id = $2
ORDER BY ordinal, created_at`

// GetByID returns a card by primary key filtered by user_id.
func (r *Repo) GetByID(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanCard(querier.QueryRow(ctx, getByIDSQL, cardID, userID))
	if err != nil {
		return nil, mapError(err, "card", cardID)
	}
	return c, nil
}

// Create inserts a new card.
func (r *Repo) Create(ctx context.Context, c *domain.Card) (*domain.Card, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	created, err := scanCard(querier.QueryRow(ctx, createSQL,
		c.ID, c.UserID, c.DeckID, c.NoteID, c.Ordinal, c.CreatedAt, c.UpdatedAt,
	))
	if err != nil {
		return nil, mapError(err, "card", c.ID)
	}
	return created, nil
}

// Delete removes a card by ID.
func (r *Repo) Delete(ctx context.Context, userID, cardID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ct, err := querier.Exec(ctx, deleteSQL, cardID, userID)
	if err != nil {
		return mapError(err, "card", cardID)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("card %s: %w", cardID, domain.ErrNotFound)
	}
	return nil
}

// ListByDeck returns every card belonging to the given deck, ordered for
// stable display within a deck.
func (r *Repo) ListByDeck(ctx context.Context, userID, deckID uuid.UUID) ([]domain.Card, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByDeckSQL, userID, deckID)
	if err != nil {
		return nil, fmt.Errorf("list cards by deck: %w", err)
	}
	defer rows.Close()

	return scanCards(rows)
}

// GetNewCards returns cards that have never been reviewed (no cache row for
// the current algorithm version), ordered by creation time so the oldest
// additions surface first. A nil deckID matches cards in any of the user's
// decks.
func (r *Repo) GetNewCards(ctx context.Context, userID uuid.UUID, algorithmVersion string, deckID *uuid.UUID, limit int) ([]domain.Card, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	queryStr := `
SELECT c.` + cardColumns + `
FROM cards c
LEFT JOIN computed_card_state_cache cs
  ON cs.card_id = c.id AND cs.algorithm_version = $2
WHERE c.user_id = $1 AND cs.card_id IS NULL`
	args := []any{userID, algorithmVersion}
	queryStr, args = appendDeckFilter(queryStr, args, deckID)
	queryStr += fmt.Sprintf(" ORDER BY c.created_at LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := querier.Query(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("get new cards: %w", err)
	}
	defer rows.Close()

	return scanCards(rows)
}

// GetLearningCandidates returns LEARNING/RELEARNING cards whose due
// timestamp is at or before `before`, ordered soonest-due first. The
// selector uses this both for "due now" (before=now) and the cool-down
// fallback (before=end-of-today).
func (r *Repo) GetLearningCandidates(ctx context.Context, userID uuid.UUID, algorithmVersion string, deckID *uuid.UUID, before time.Time) ([]domain.QueueCard, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	queryStr := `
SELECT c.` + cardColumns + `, cs.due
FROM cards c
JOIN computed_card_state_cache cs
  ON cs.card_id = c.id AND cs.algorithm_version = $2
WHERE c.user_id = $1
  AND cs.state IN ('LEARNING', 'RELEARNING')
  AND cs.due <= $3`
	args := []any{userID, algorithmVersion, before}
	queryStr, args = appendDeckFilter(queryStr, args, deckID)
	queryStr += " ORDER BY cs.due ASC"

	rows, err := querier.Query(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("get learning candidates: %w", err)
	}
	defer rows.Close()

	return scanQueueCards(rows)
}

// GetReviewCandidates returns REVIEW cards whose due timestamp is at or
// before `before` (typically end-of-today).
func (r *Repo) GetReviewCandidates(ctx context.Context, userID uuid.UUID, algorithmVersion string, deckID *uuid.UUID, before time.Time) ([]domain.Card, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	queryStr := `
SELECT c.` + cardColumns + `
FROM cards c
JOIN computed_card_state_cache cs
  ON cs.card_id = c.id AND cs.algorithm_version = $2
WHERE c.user_id = $1
  AND cs.state = 'REVIEW'
  AND cs.due <= $3`
	args := []any{userID, algorithmVersion, before}
	queryStr, args = appendDeckFilter(queryStr, args, deckID)

	rows, err := querier.Query(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("get review candidates: %w", err)
	}
	defer rows.Close()

	return scanCards(rows)
}

// CountNew returns the count of never-reviewed cards.
func (r *Repo) CountNew(ctx context.Context, userID uuid.UUID, algorithmVersion string, deckID *uuid.UUID) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	queryStr := `
SELECT count(*)
FROM cards c
LEFT JOIN computed_card_state_cache cs
  ON cs.card_id = c.id AND cs.algorithm_version = $2
WHERE c.user_id = $1 AND cs.card_id IS NULL`
	args := []any{userID, algorithmVersion}
	queryStr, args = appendDeckFilter(queryStr, args, deckID)

	var count int
	if err := querier.QueryRow(ctx, queryStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count new cards: %w", err)
	}
	return count, nil
}

// CountLearningDueToday returns the count of LEARNING/RELEARNING cards due
// at or before `before`.
func (r *Repo) CountLearningDueToday(ctx context.Context, userID uuid.UUID, algorithmVersion string, deckID *uuid.UUID, before time.Time) (int, error) {
	return r.countByState(ctx, userID, algorithmVersion, deckID, before, "'LEARNING', 'RELEARNING'")
}

// CountReviewDueToday returns the count of REVIEW cards due at or before
// `before`.
func (r *Repo) CountReviewDueToday(ctx context.Context, userID uuid.UUID, algorithmVersion string, deckID *uuid.UUID, before time.Time) (int, error) {
	return r.countByState(ctx, userID, algorithmVersion, deckID, before, "'REVIEW'")
}

func (r *Repo) countByState(ctx context.Context, userID uuid.UUID, algorithmVersion string, deckID *uuid.UUID, before time.Time, stateList string) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	queryStr := `
SELECT count(*)
FROM cards c
JOIN computed_card_state_cache cs
  ON cs.card_id = c.id AND cs.algorithm_version = $2
WHERE c.user_id = $1
  AND cs.state IN (` + stateList + `)
  AND cs.due <= $3`
	args := []any{userID, algorithmVersion, before}
	queryStr, args = appendDeckFilter(queryStr, args, deckID)

	var count int
	if err := querier.QueryRow(ctx, queryStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count cards by state: %w", err)
	}
	return count, nil
}

// appendDeckFilter adds a "c.deck_id = $n" clause when deckID is non-nil,
// appending the bind argument and returning the updated query and args.
func appendDeckFilter(queryStr string, args []any, deckID *uuid.UUID) (string, []any) {
	if deckID == nil {
		return queryStr, args
	}
	args = append(args, *deckID)
	return queryStr + fmt.Sprintf(" AND c.deck_id = $%d", len(args)), args
}

// ---------------------------------------------------------------------------
// Row scanning
// ---------------------------------------------------------------------------

func scanCard(row pgx.Row) (*domain.Card, error) {
	var c domain.Card
	if err := row.Scan(&c.ID, &c.UserID, &c.DeckID, &c.NoteID, &c.Ordinal, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCards(rows pgx.Rows) ([]domain.Card, error) {
	cards := []domain.Card{}
	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(&c.ID, &c.UserID, &c.DeckID, &c.NoteID, &c.Ordinal, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

func scanQueueCards(rows pgx.Rows) ([]domain.QueueCard, error) {
	out := []domain.QueueCard{}
	for rows.Next() {
		var qc domain.QueueCard
		if err := rows.Scan(&qc.Card.ID, &qc.Card.UserID, &qc.Card.DeckID, &qc.Card.NoteID, &qc.Card.Ordinal, &qc.Card.CreatedAt, &qc.Card.UpdatedAt, &qc.Due); err != nil {
			return nil, err
		}
		out = append(out, qc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

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
