package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

// ValidateToken implements the tokenValidator interface the Auth
// middleware depends on: hashes the presented raw token, looks up the
// matching session, and rejects it if missing, revoked, or expired.
// Satisfies spec §6's "bearer token or cookie carrying the same session
// id" — the middleware decides which transport the token arrived on,
// this only ever sees the raw value.
func (s *Service) ValidateToken(ctx context.Context, rawToken string) (uuid.UUID, string, error) {
	if rawToken == "" {
		return uuid.Nil, "", fmt.Errorf("session.ValidateToken: %w", domain.ErrUnauthorized)
	}

	rec, err := s.sessions.GetByTokenHash(ctx, hashToken(rawToken))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return uuid.Nil, "", fmt.Errorf("session.ValidateToken: %w", domain.ErrUnauthorized)
		}
		return uuid.Nil, "", fmt.Errorf("session.ValidateToken: %w", err)
	}

	if rec.IsRevoked() || rec.IsExpired(time.Now().UTC()) {
		return uuid.Nil, "", fmt.Errorf("session.ValidateToken: %w", domain.ErrUnauthorized)
	}

	user, err := s.users.GetByID(ctx, rec.UserID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("session.ValidateToken: load user: %w", err)
	}

	return rec.UserID, user.Role.String(), nil
}
