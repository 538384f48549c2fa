package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

// Created is the result of issuing a new session: the stored record plus
// the one-time raw token the caller must hand back to the client.
type Created struct {
	Session  *domain.Session
	RawToken string
}

// CreateSession issues a new session for userID, valid for the service's
// configured ttl.
func (s *Service) CreateSession(ctx context.Context, userID uuid.UUID) (*Created, error) {
	raw, err := generateRawToken()
	if err != nil {
		return nil, fmt.Errorf("session.CreateSession: %w", err)
	}

	now := time.Now().UTC()
	rec := &domain.Session{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: hashToken(raw),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	created, err := s.sessions.Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("session.CreateSession: %w", err)
	}

	s.log.InfoContext(ctx, "session created", slog.String("user_id", userID.String()))
	return &Created{Session: created, RawToken: raw}, nil
}

// RevokeSession invalidates a single session belonging to userID.
func (s *Service) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := s.sessions.Revoke(ctx, userID, sessionID); err != nil {
		return fmt.Errorf("session.RevokeSession: %w", err)
	}
	return nil
}

// RevokeAllSessions invalidates every session belonging to userID, e.g. on
// password change or account compromise.
func (s *Service) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("session.RevokeAllSessions: %w", err)
	}
	return nil
}
