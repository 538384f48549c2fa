package relationship

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

// RequestRelationship implements requestRelationship: if recipientEmail
// belongs to an existing user, creates a pending Relationship between the
// two (unless one already exists, or the requester named themselves).
// Otherwise creates (or returns the existing, idempotently) a
// PendingInvitation for that email.
func (s *Service) RequestRelationship(ctx context.Context, requesterID uuid.UUID, recipientEmail string, requesterRole domain.RelationshipRole) (*RequestResult, error) {
	if !requesterRole.IsValid() {
		return nil, domain.NewValidationError("requesterRole", "must be TUTOR or STUDENT")
	}

	var result *RequestResult

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		recipient, err := s.users.GetByEmail(ctx, recipientEmail)
		switch {
		case err == nil:
			res, err := s.requestAgainstExistingUser(ctx, requesterID, recipient.ID, requesterRole)
			if err != nil {
				return err
			}
			result = res
			return nil
		case errors.Is(err, domain.ErrNotFound):
			res, err := s.requestAgainstPendingInvitation(ctx, requesterID, recipientEmail, requesterRole)
			if err != nil {
				return err
			}
			result = res
			return nil
		default:
			return fmt.Errorf("look up recipient: %w", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("relationship.RequestRelationship: %w", err)
	}

	s.log.InfoContext(ctx, "relationship requested",
		slog.String("requester_id", requesterID.String()),
		slog.String("requester_role", string(requesterRole)))

	return result, nil
}

func (s *Service) requestAgainstExistingUser(ctx context.Context, requesterID, recipientID uuid.UUID, requesterRole domain.RelationshipRole) (*RequestResult, error) {
	if requesterID == recipientID {
		return nil, fmt.Errorf("%w: cannot create a relationship with yourself", domain.ErrConflict)
	}

	_, err := s.relationships.GetNonRemovedBetween(ctx, requesterID, recipientID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: a relationship already exists between these users", domain.ErrConflict)
	case errors.Is(err, domain.ErrNotFound):
		// fall through to create
	default:
		return nil, fmt.Errorf("check existing relationship: %w", err)
	}

	rel := &domain.Relationship{
		ID:          uuid.New(),
		RequesterID: requesterID,
		Status:      domain.RelationshipStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if requesterRole == domain.RelationshipRoleTutor {
		rel.TutorID, rel.StudentID = requesterID, recipientID
	} else {
		rel.TutorID, rel.StudentID = recipientID, requesterID
	}

	created, err := s.relationships.CreateRelationship(ctx, rel)
	if err != nil {
		return nil, fmt.Errorf("create relationship: %w", err)
	}
	return &RequestResult{Relationship: created}, nil
}

func (s *Service) requestAgainstPendingInvitation(ctx context.Context, requesterID uuid.UUID, email string, requesterRole domain.RelationshipRole) (*RequestResult, error) {
	existing, err := s.invitations.GetPendingInvitation(ctx, requesterID, email, requesterRole)
	switch {
	case err == nil:
		return &RequestResult{Invitation: existing}, nil
	case errors.Is(err, domain.ErrNotFound):
		// fall through to create
	default:
		return nil, fmt.Errorf("check existing invitation: %w", err)
	}

	// The email may have resolved to a user in the moment between the
	// caller's first lookup and here (e.g. a concurrent sign-up); recheck
	// before creating an invitation for an email that already has an
	// account, per the "fall through to the user path" rule.
	if recipient, err := s.users.GetByEmail(ctx, email); err == nil {
		return s.requestAgainstExistingUser(ctx, requesterID, recipient.ID, requesterRole)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("recheck recipient: %w", err)
	}

	now := time.Now().UTC()
	inv := &domain.PendingInvitation{
		ID:           uuid.New(),
		InviterID:    requesterID,
		InviterRole:  requesterRole,
		InviteeEmail: email,
		Status:       domain.InvitationStatusPending,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.invitationTTL),
	}
	created, err := s.invitations.CreateInvitation(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}
	return &RequestResult{Invitation: created}, nil
}
