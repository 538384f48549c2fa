package relationship

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

// AcceptRelationship implements acceptRelationship: only the recipient of
// a pending Relationship (not the requester) may accept it, transitioning
// it to active.
func (s *Service) AcceptRelationship(ctx context.Context, id, userID uuid.UUID) (*domain.Relationship, error) {
	rel, err := s.relationships.GetRelationshipByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("relationship.AcceptRelationship: %w", err)
	}
	if !rel.IsRecipient(userID) {
		return nil, fmt.Errorf("relationship.AcceptRelationship: %w", domain.ErrForbidden)
	}
	if rel.Status != domain.RelationshipStatusPending {
		return nil, fmt.Errorf("relationship.AcceptRelationship: %w: not pending", domain.ErrConflict)
	}

	updated, err := s.relationships.UpdateRelationshipStatus(ctx, id, domain.RelationshipStatusActive, nil)
	if err != nil {
		return nil, fmt.Errorf("relationship.AcceptRelationship: %w", err)
	}

	s.log.InfoContext(ctx, "relationship accepted", slog.String("relationship_id", id.String()))
	return updated, nil
}
