// Package user implements the User and UserSettings repositories using
// PostgreSQL with hand-written SQL. The column set is small enough that
// a code generator adds no value over writing the queries directly.
package user

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

// Repo provides user and user-settings persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new user repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// User operations
// ---------------------------------------------------------------------------

const userColumns = `id, email, name, role, created_at, updated_at`

const getByIDSQL = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

const getByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

const createSQL = `
INSERT INTO users (id, email, name, role, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns

const updateSQL = `
UPDATE users SET name = $2, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

// GetByID returns a user by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	u, err := scanUser(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, mapError(err, "user", id)
	}
	return u, nil
}

// GetByEmail returns a user by email address.
func (r *Repo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	u, err := scanUser(querier.QueryRow(ctx, getByEmailSQL, email))
	if err != nil {
		return nil, mapError(err, "user", uuid.Nil)
	}
	return u, nil
}

// Create inserts a new user and returns the persisted domain.User.
func (r *Repo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	created, err := scanUser(querier.QueryRow(ctx, createSQL,
		u.ID, u.Email, u.Name, string(u.Role), u.CreatedAt, u.UpdatedAt,
	))
	if err != nil {
		return nil, mapError(err, "user", u.ID)
	}
	return created, nil
}

// Update modifies the display name for the given user.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, name string) (*domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	u, err := scanUser(querier.QueryRow(ctx, updateSQL, id, name))
	if err != nil {
		return nil, mapError(err, "user", id)
	}
	return u, nil
}

// ---------------------------------------------------------------------------
// UserSettings operations
// ---------------------------------------------------------------------------

const settingsColumns = `user_id, new_cards_per_day, desired_retention, max_interval_days, timezone, updated_at`

const getSettingsSQL = `SELECT ` + settingsColumns + ` FROM user_settings WHERE user_id = $1`

const createSettingsSQL = `
INSERT INTO user_settings (user_id, new_cards_per_day, desired_retention, max_interval_days, timezone, updated_at)
VALUES ($1, $2, $3, $4, $5, now())`

const updateSettingsSQL = `
UPDATE user_settings
SET new_cards_per_day = $2, desired_retention = $3, max_interval_days = $4, timezone = $5, updated_at = now()
WHERE user_id = $1
RETURNING ` + settingsColumns

// GetSettings returns the settings for the given user.
func (r *Repo) GetSettings(ctx context.Context, userID uuid.UUID) (*domain.UserSettings, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	s, err := scanSettings(querier.QueryRow(ctx, getSettingsSQL, userID))
	if err != nil {
		return nil, mapError(err, "user_settings", userID)
	}
	return s, nil
}

// CreateSettings inserts new user settings.
func (r *Repo) CreateSettings(ctx context.Context, s *domain.UserSettings) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := querier.Exec(ctx, createSettingsSQL,
		s.UserID, s.NewCardsPerDay, s.DesiredRetention, s.MaxIntervalDays, s.Timezone,
	)
	if err != nil {
		return mapError(err, "user_settings", s.UserID)
	}
	return nil
}

// UpdateSettings updates the settings for the given user.
func (r *Repo) UpdateSettings(ctx context.Context, userID uuid.UUID, s domain.UserSettings) (*domain.UserSettings, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	updated, err := scanSettings(querier.QueryRow(ctx, updateSettingsSQL,
		userID, s.NewCardsPerDay, s.DesiredRetention, s.MaxIntervalDays, s.Timezone,
	))
	if err != nil {
		return nil, mapError(err, "user_settings", userID)
	}
	return updated, nil
}

// GetByUserID is an alias for GetSettings, satisfying the selector's settingsRepo interface.
func (r *Repo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserSettings, error) {
	return r.GetSettings(ctx, userID)
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

// mapError converts pgx/pgconn errors into domain errors.
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

// ---------------------------------------------------------------------------
// Row scanning
// ---------------------------------------------------------------------------

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.UserRole(role)
	return &u, nil
}

func scanSettings(row pgx.Row) (*domain.UserSettings, error) {
	var s domain.UserSettings
	if err := row.Scan(&s.UserID, &s.NewCardsPerDay, &s.DesiredRetention, &s.MaxIntervalDays, &s.Timezone, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
