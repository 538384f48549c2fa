package relationship

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

// CancelInvitation implements cancelInvitation: only the inviter may
// cancel a pending invitation.
func (s *Service) CancelInvitation(ctx context.Context, id, userID uuid.UUID) error {
	inv, err := s.invitations.GetInvitationByID(ctx, id)
	if err != nil {
		return fmt.Errorf("relationship.CancelInvitation: %w", err)
	}
	if inv.InviterID != userID {
		return fmt.Errorf("relationship.CancelInvitation: %w", domain.ErrForbidden)
	}
	if inv.Status != domain.InvitationStatusPending {
		return fmt.Errorf("relationship.CancelInvitation: %w: not pending", domain.ErrConflict)
	}

	if err := s.invitations.UpdateInvitationStatus(ctx, id, domain.InvitationStatusCancelled, nil); err != nil {
		return fmt.Errorf("relationship.CancelInvitation: %w", err)
	}

	s.log.InfoContext(ctx, "invitation cancelled", slog.String("invitation_id", id.String()))
	return nil
}
