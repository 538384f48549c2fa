package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
	"github.com/tandemly/srscore/internal/service/session"
)

// Result is what a successful SignIn hands back: the user record, whether
// this call created the account, and the one-time raw session token.
type Result struct {
	User      *domain.User
	NewUser   bool
	RawToken  string
	ExpiresAt time.Time
}

// SignIn implements the sign-up/sign-in seam: find the user by email, or
// create one with default settings and run the new-account bootstrap
// (pending-invitation promotion, AI-tutor link), then issue a session
// either way. email is assumed already verified by the external identity
// provider per spec §1.
func (s *Service) SignIn(ctx context.Context, email, name string) (*Result, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("identity.SignIn: %w: email is required", domain.ErrValidation)
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		created, err := s.sessions.CreateSession(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("identity.SignIn: %w", err)
		}
		return &Result{User: user, NewUser: false, RawToken: created.RawToken, ExpiresAt: created.Session.ExpiresAt}, nil
	case errors.Is(err, domain.ErrNotFound):
		// fall through to registration
	default:
		return nil, fmt.Errorf("identity.SignIn: lookup: %w", err)
	}

	user, err = s.registerUser(ctx, email, name)
	if err != nil {
		return nil, err
	}

	s.relationships.ProcessPendingInvitationsOnSignUp(ctx, *user)
	if err := s.relationships.EnsureAITutorLink(ctx, user.ID); err != nil {
		// Bootstrap is best-effort: a failed AI-tutor link shouldn't fail
		// the sign-up itself, and retrying it is cheap (EnsureAITutorLink
		// is idempotent).
		s.log.ErrorContext(ctx, "ensure AI tutor link failed",
			slog.String("user_id", user.ID.String()), slog.Any("error", err))
	}

	created, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("identity.SignIn: %w", err)
	}

	s.log.InfoContext(ctx, "user registered", slog.String("user_id", user.ID.String()))
	return &Result{User: user, NewUser: true, RawToken: created.RawToken, ExpiresAt: created.Session.ExpiresAt}, nil
}

func (s *Service) registerUser(ctx context.Context, email, name string) (*domain.User, error) {
	var created *domain.User

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		newUser := &domain.User{
			ID:        uuid.New(),
			Email:     email,
			Name:      name,
			Role:      domain.UserRoleUser,
			CreatedAt: now,
			UpdatedAt: now,
		}

		u, err := s.users.Create(ctx, newUser)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		settings := domain.DefaultUserSettings(u.ID)
		if err := s.settings.CreateSettings(ctx, &settings); err != nil {
			return fmt.Errorf("create settings: %w", err)
		}

		created = u
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Concurrent sign-up raced us to the insert; the other call
			// won, so just load what it created.
			existing, getErr := s.users.GetByEmail(ctx, email)
			if getErr == nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("identity.SignIn: register: %w", err)
	}

	return created, nil
}
