// Package eventlog implements the ReviewEvent append-only log using
// PostgreSQL. Appending a batch runs one hand-written INSERT per event inside
// a single transaction (idempotent via ON CONFLICT DO NOTHING on the
// client-chosen id); the
// change-feed and per-card replay queries are built with squirrel since
// their filters vary by caller (cursor present or not, card-scoped or not).
package eventlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/tandemly/srscore/internal/adapter/postgres"
	"github.com/tandemly/srscore/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides review-event persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	tx   *postgres.TxManager
}

// New creates a new event log repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool, tx: postgres.NewTxManager(pool)}
}

const eventColumns = `id, card_id, user_id, rating, reviewed_at, duration_ms, received_at`

const appendOneSQL = `
INSERT INTO review_events (id, card_id, user_id, rating, reviewed_at, duration_ms, received_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`

const upsertSyncMetadataSQL = `
INSERT INTO sync_metadata (user_id, last_event_at, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE
SET last_event_at = GREATEST(sync_metadata.last_event_at, EXCLUDED.last_event_at),
    updated_at = now()`

const getSyncMetadataSQL = `SELECT user_id, last_event_at, updated_at FROM sync_metadata WHERE user_id = $1`

// AppendBatch inserts a batch of review events for a single user in one
// transaction. Every event must belong to userID; a mixed-owner batch is
// rejected before any row is written. Duplicate client-chosen IDs are
// silently skipped (idempotent re-upload), not reported as a conflict:
// the caller can't tell "already recorded" from "just recorded" and for
// this log it shouldn't need to.
func (r *Repo) AppendBatch(ctx context.Context, userID uuid.UUID, events []domain.ReviewEvent) (created, skipped int, err error) {
	if len(events) == 0 {
		return 0, 0, nil
	}

	for i := range events {
		if events[i].UserID != userID {
			return 0, 0, fmt.Errorf("review event %s: %w: belongs to a different user", events[i].ID, domain.ErrValidation)
		}
		if err := events[i].Validate(); err != nil {
			return 0, 0, err
		}
	}

	err = r.tx.RunInTx(ctx, func(ctx context.Context) error {
		querier := postgres.QuerierFromCtx(ctx, r.pool)

		latest := events[0].ReviewedAt
		for _, e := range events {
			tag, err := querier.Exec(ctx, appendOneSQL,
				e.ID, e.CardID, e.UserID, int(e.Rating), e.ReviewedAt, e.DurationMs, e.ReceivedAt,
			)
			if err != nil {
				return mapError(err, "review_event", e.ID)
			}
			if tag.RowsAffected() > 0 {
				created++
			} else {
				skipped++
			}
			if e.ReviewedAt.After(latest) {
				latest = e.ReviewedAt
			}
		}

		if _, err := querier.Exec(ctx, upsertSyncMetadataSQL, userID, latest); err != nil {
			return mapError(err, "sync_metadata", userID)
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return created, skipped, nil
}

// EventsForCard returns every event recorded for a card, ordered oldest
// first so the projector can fold them in sequence.
func (r *Repo) EventsForCard(ctx context.Context, userID, cardID uuid.UUID) ([]domain.ReviewEvent, error) {
	queryStr, args, err := psql.Select(eventColumns).
		From("review_events").
		Where(sq.Eq{"user_id": userID, "card_id": cardID}).
		OrderBy("reviewed_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build events-for-card query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := querier.Query(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query events for card: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// EventsForCards returns every event recorded for a set of cards, ordered
// oldest first within each card, bucketed by card id so a queue page can
// fold a batch of cards from one round trip instead of one query per card.
func (r *Repo) EventsForCards(ctx context.Context, userID uuid.UUID, cardIDs []uuid.UUID) (map[uuid.UUID][]domain.ReviewEvent, error) {
	result := make(map[uuid.UUID][]domain.ReviewEvent, len(cardIDs))
	if len(cardIDs) == 0 {
		return result, nil
	}

	queryStr, args, err := psql.Select(eventColumns).
		From("review_events").
		Where(sq.Eq{"user_id": userID, "card_id": cardIDs}).
		OrderBy("card_id ASC", "reviewed_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build events-for-cards query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := querier.Query(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query events for cards: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		result[e.CardID] = append(result[e.CardID], e)
	}
	return result, nil
}

// EventsSince returns events for a user strictly after the given cursor
// (reviewedAt, afterID), ordered by (reviewed_at, id), for change-feed
// pagination. Pass uuid.Nil for afterID to start from the beginning of
// the given reviewedAt instant.
func (r *Repo) EventsSince(ctx context.Context, userID uuid.UUID, since time.Time, afterID uuid.UUID, limit int) ([]domain.ReviewEvent, error) {
	builder := psql.Select(eventColumns).
		From("review_events").
		Where(sq.Eq{"user_id": userID})

	if afterID == uuid.Nil {
		builder = builder.Where(sq.GtOrEq{"reviewed_at": since})
	} else {
		builder = builder.Where(sq.Or{
			sq.Gt{"reviewed_at": since},
			sq.And{sq.Eq{"reviewed_at": since}, sq.Gt{"id": afterID}},
		})
	}

	queryStr, args, err := builder.
		OrderBy("reviewed_at ASC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build events-since query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := querier.Query(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query events since: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetSyncMetadata returns the last-event-at watermark for a user, or a
// zero-valued SyncMetadata if the user has never uploaded an event.
func (r *Repo) GetSyncMetadata(ctx context.Context, userID uuid.UUID) (*domain.SyncMetadata, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var m domain.SyncMetadata
	err := querier.QueryRow(ctx, getSyncMetadataSQL, userID).Scan(&m.UserID, &m.LastEventAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.SyncMetadata{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync metadata: %w", err)
	}
	return &m, nil
}

func scanEvents(rows pgx.Rows) ([]domain.ReviewEvent, error) {
	events := []domain.ReviewEvent{}
	for rows.Next() {
		var (
			e      domain.ReviewEvent
			rating int
		)
		if err := rows.Scan(&e.ID, &e.CardID, &e.UserID, &rating, &e.ReviewedAt, &e.DurationMs, &e.ReceivedAt); err != nil {
			return nil, err
		}
		e.Rating = domain.Rating(rating)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func mapError(err error, entity string, id uuid.UUID) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
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
