// Package session implements the auth Session repository using PostgreSQL.
// All queries use raw SQL (no sqlc) since this package's column set is
// small enough that a generator adds no value over hand-written SQL.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/tandemly/srscore/internal/adapter/postgres"
	"github.com/tandemly/srscore/internal/domain"
)

// Repo provides auth session persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new session repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const sessionColumns = `id, user_id, token_hash, expires_at, created_at, revoked_at`

const createSQL = `
INSERT INTO sessions (id, user_id, token_hash, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + sessionColumns

const getByTokenHashSQL = `
SELECT ` + sessionColumns + `
FROM sessions
WHERE token_hash = $1`

const revokeSQL = `
UPDATE sessions
SET revoked_at = now()
WHERE id = $1 AND user_id = $2 AND revoked_at IS NULL`

const revokeAllForUserSQL = `
UPDATE sessions
SET revoked_at = now()
WHERE user_id = $1 AND revoked_at IS NULL`

const deleteExpiredSQL = `
DELETE FROM sessions
WHERE expires_at < $1`

// Create inserts a new session and returns the persisted domain.Session.
func (r *Repo) Create(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, createSQL, s.ID, s.UserID, s.TokenHash, s.ExpiresAt, s.CreatedAt)

	created, err := scanSession(row)
	if err != nil {
		return nil, mapError(err, "session", s.ID)
	}
	return created, nil
}

// GetByTokenHash returns the session matching a token hash.
// Returns domain.ErrNotFound if no session matches.
func (r *Repo) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, getByTokenHashSQL, tokenHash)

	s, err := scanSession(row)
	if err != nil {
		return nil, mapError(err, "session", uuid.Nil)
	}
	return s, nil
}

// Revoke marks a single session as revoked. Idempotent: revoking an
// already-revoked or missing session is not an error.
func (r *Repo) Revoke(ctx context.Context, userID, sessionID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, revokeSQL, sessionID, userID); err != nil {
		return mapError(err, "session", sessionID)
	}
	return nil
}

// RevokeAllForUser revokes every active session for a user (e.g. on password change).
func (r *Repo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, revokeAllForUserSQL, userID); err != nil {
		return mapError(err, "session", userID)
	}
	return nil
}

// DeleteExpired removes sessions whose expiry is before now, for periodic
// housekeeping.
func (r *Repo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ct, err := querier.Exec(ctx, deleteExpiredSQL, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return ct.RowsAffected(), nil
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	if err := row.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt, &s.RevokedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
