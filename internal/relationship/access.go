package relationship

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

// VerifyAccess implements verifyAccess: required in front of every
// conversation, shared deck, progress view, and tutor-review request.
// Returns a capability handle iff userID is a participant of the
// relationship AND it is active; otherwise fails with ErrForbidden.
func (s *Service) VerifyAccess(ctx context.Context, relationshipID, userID uuid.UUID) (*domain.AccessGrant, error) {
	rel, err := s.relationships.GetRelationshipByID(ctx, relationshipID)
	if err != nil {
		return nil, fmt.Errorf("relationship.VerifyAccess: %w", err)
	}

	role, ok := rel.RoleOf(userID)
	if !ok || rel.Status != domain.RelationshipStatusActive {
		return nil, fmt.Errorf("relationship.VerifyAccess: %w", domain.ErrForbidden)
	}

	return &domain.AccessGrant{Relationship: *rel, ViewerID: userID, ViewerRole: role}, nil
}
