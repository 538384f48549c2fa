// Package identity implements the sign-up/sign-in seam that sits between
// the external identity provider (spec's explicit non-goal — OAuth token
// exchange happens outside this module) and the rest of the core. By the
// time SignIn is called, the caller has already verified the user's
// identity and handed over a trustworthy email; this package's only job is
// find-or-create on domain.User plus the bootstrap work spec §4.5 requires
// every new account to get: default settings, pending-invitation
// promotion, and the fixed AI-tutor relationship.
//
// Grounded on the teacher's internal/service/auth login/register shape
// (find-by-identity, fall back to create-in-a-transaction), trimmed to the
// one identity source this module keeps: the verified email itself.
package identity

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
	"github.com/tandemly/srscore/internal/service/session"
)

// userRepo is the user persistence this seam needs.
type userRepo interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

// settingsRepo creates the default settings row a brand-new user needs.
type settingsRepo interface {
	CreateSettings(ctx context.Context, settings *domain.UserSettings) error
}

// txManager runs the user-plus-settings creation atomically.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// relationshipBootstrap is the subset of the relationship service this seam
// invokes after a new user is created, per spec §4.5.
type relationshipBootstrap interface {
	ProcessPendingInvitationsOnSignUp(ctx context.Context, newUser domain.User)
	EnsureAITutorLink(ctx context.Context, newUserID uuid.UUID) error
}

// sessionIssuer issues the opaque session token a successful sign-in
// returns to the caller.
type sessionIssuer interface {
	CreateSession(ctx context.Context, userID uuid.UUID) (*session.Created, error)
}

// Service implements the sign-up/sign-in seam.
type Service struct {
	log           *slog.Logger
	users         userRepo
	settings      settingsRepo
	tx            txManager
	relationships relationshipBootstrap
	sessions      sessionIssuer
}

// NewService creates a new identity service instance.
func NewService(
	logger *slog.Logger,
	users userRepo,
	settings settingsRepo,
	tx txManager,
	relationships relationshipBootstrap,
	sessions sessionIssuer,
) *Service {
	return &Service{
		log:           logger.With("service", "identity"),
		users:         users,
		settings:      settings,
		tx:            tx,
		relationships: relationships,
		sessions:      sessions,
	}
}
