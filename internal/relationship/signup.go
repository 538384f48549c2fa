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

// ProcessPendingInvitationsOnSignUp implements
// processPendingInvitationsOnSignUp: finds every unexpired pending
// invitation addressed to newUser's email and, for each, atomically
// promotes it to an active Relationship and marks it promoted. One
// invitation failing is logged, not fatal to the rest — a partial
// sign-up shouldn't block account creation.
func (s *Service) ProcessPendingInvitationsOnSignUp(ctx context.Context, newUser domain.User) {
	now := time.Now().UTC()

	invitations, err := s.invitations.ListPendingByEmail(ctx, newUser.Email, now)
	if err != nil {
		s.log.ErrorContext(ctx, "list pending invitations failed",
			slog.String("email", newUser.Email), slog.Any("error", err))
		return
	}

	for _, inv := range invitations {
		if err := s.promoteInvitation(ctx, inv, newUser.ID); err != nil {
			s.log.ErrorContext(ctx, "promote invitation failed",
				slog.String("invitation_id", inv.ID.String()), slog.Any("error", err))
		}
	}
}

func (s *Service) promoteInvitation(ctx context.Context, inv domain.PendingInvitation, newUserID uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.relationships.GetNonRemovedBetween(ctx, inv.InviterID, newUserID)
		switch {
		case err == nil:
			// Already connected — the inviter may have called
			// requestRelationship directly against this user in the same
			// window. Leave the invitation pending rather than double-create.
			return nil
		case errors.Is(err, domain.ErrNotFound):
			// fall through to create
		default:
			return fmt.Errorf("check existing relationship: %w", err)
		}

		rel := &domain.Relationship{
			ID:          uuid.New(),
			RequesterID: inv.InviterID,
			Status:      domain.RelationshipStatusActive,
			CreatedAt:   time.Now().UTC(),
		}
		if inv.InviterRole == domain.RelationshipRoleTutor {
			rel.TutorID, rel.StudentID = inv.InviterID, newUserID
		} else {
			rel.TutorID, rel.StudentID = newUserID, inv.InviterID
		}

		created, err := s.relationships.CreateRelationship(ctx, rel)
		if err != nil {
			return fmt.Errorf("create relationship: %w", err)
		}

		if err := s.invitations.UpdateInvitationStatus(ctx, inv.ID, domain.InvitationStatusAccepted, &created.ID); err != nil {
			return fmt.Errorf("mark invitation promoted: %w", err)
		}
		return nil
	})
}

// EnsureAITutorLink connects newUserID to the fixed synthetic AI tutor as a
// student, active immediately since the invitation *is* the consent.
// Invoked from the same sign-up seam as ProcessPendingInvitationsOnSignUp.
func (s *Service) EnsureAITutorLink(ctx context.Context, newUserID uuid.UUID) error {
	if newUserID == AITutorUserID {
		return nil
	}

	_, err := s.relationships.GetNonRemovedBetween(ctx, AITutorUserID, newUserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("relationship.EnsureAITutorLink: %w", err)
	}

	rel := &domain.Relationship{
		ID:          uuid.New(),
		TutorID:     AITutorUserID,
		StudentID:   newUserID,
		RequesterID: AITutorUserID,
		Status:      domain.RelationshipStatusActive,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.relationships.CreateRelationship(ctx, rel); err != nil {
		return fmt.Errorf("relationship.EnsureAITutorLink: %w", err)
	}
	return nil
}
