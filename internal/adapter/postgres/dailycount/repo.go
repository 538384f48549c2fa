// Package dailycount implements the DailyCount repository: a per-user,
// per-calendar-day counter of new cards introduced, used by the selector to
// enforce the daily new-card budget without rescanning the event log.
package dailycount

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

// Repo provides DailyCount persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new daily count repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const getSQL = `SELECT user_id, day, new_count, review_count FROM daily_counts WHERE user_id = $1 AND day = $2`

const incrementNewSQL = `
INSERT INTO daily_counts (user_id, day, new_count, review_count)
VALUES ($1, $2, 1, 0)
ON CONFLICT (user_id, day) DO UPDATE SET new_count = daily_counts.new_count + 1`

const incrementReviewSQL = `
INSERT INTO daily_counts (user_id, day, new_count, review_count)
VALUES ($1, $2, 0, 1)
ON CONFLICT (user_id, day) DO UPDATE SET review_count = daily_counts.review_count + 1`

// Get returns the day's counters, or a zero-valued DailyCount if the user
// hasn't studied anything that day yet.
func (r *Repo) Get(ctx context.Context, userID uuid.UUID, day time.Time) (*domain.DailyCount, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var dc domain.DailyCount
	err := querier.QueryRow(ctx, getSQL, userID, day).Scan(&dc.UserID, &dc.Day, &dc.NewCount, &dc.ReviewCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.DailyCount{UserID: userID, Day: day}, nil
	}
	if err != nil {
		return nil, mapError(err, "daily_count", userID)
	}
	return &dc, nil
}

// IncrementNew records that a NEW card was reviewed for the first time on
// the given day. It joins the transaction carried by ctx, if any;
// study.SubmitReview calls it after the event append has already
// committed, as a separate write.
func (r *Repo) IncrementNew(ctx context.Context, userID uuid.UUID, day time.Time) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)
	if _, err := querier.Exec(ctx, incrementNewSQL, userID, day); err != nil {
		return mapError(err, "daily_count", userID)
	}
	return nil
}

// IncrementReview records a REVIEW-queue card review for the given day.
func (r *Repo) IncrementReview(ctx context.Context, userID uuid.UUID, day time.Time) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)
	if _, err := querier.Exec(ctx, incrementReviewSQL, userID, day); err != nil {
		return mapError(err, "daily_count", userID)
	}
	return nil
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
