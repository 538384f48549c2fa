// Package session implements opaque server-side session issuance and
// validation. Per spec's non-goal ruling out JWT-style self-describing
// tokens ("cryptographic-grade session security" is explicitly out of
// scope), a session is a random token whose SHA-256 hash is the only
// thing ever stored or compared — the raw token is returned to the
// caller once, at creation, and never persisted.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

// sessionRepo defines the Session persistence needed by this service.
type sessionRepo interface {
	Create(ctx context.Context, s *domain.Session) (*domain.Session, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	Revoke(ctx context.Context, userID, sessionID uuid.UUID) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

// userRepo is the minimal user lookup ValidateToken needs to attach a
// role to the session, sparing admin-gated handlers a second query.
type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Service implements session issuance and validation.
type Service struct {
	log      *slog.Logger
	sessions sessionRepo
	users    userRepo
	ttl      time.Duration
}

// NewService creates a new session service instance. ttl is applied to
// every newly issued session (config's session-duration, default 30d).
func NewService(logger *slog.Logger, sessions sessionRepo, users userRepo, ttl time.Duration) *Service {
	return &Service{
		log:      logger.With("service", "session"),
		sessions: sessions,
		users:    users,
		ttl:      ttl,
	}
}
