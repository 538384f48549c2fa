package relationship

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

// RemoveRelationship implements removeRelationship: either participant may
// remove a Relationship in any status, terminating it for both. Idempotent
// against an already-removed relationship.
func (s *Service) RemoveRelationship(ctx context.Context, id, userID uuid.UUID) error {
	rel, err := s.relationships.GetRelationshipByID(ctx, id)
	if err != nil {
		return fmt.Errorf("relationship.RemoveRelationship: %w", err)
	}
	if !rel.HasParticipant(userID) {
		return fmt.Errorf("relationship.RemoveRelationship: %w", domain.ErrForbidden)
	}
	if rel.Status == domain.RelationshipStatusRemoved {
		return nil
	}

	now := time.Now().UTC()
	if _, err := s.relationships.UpdateRelationshipStatus(ctx, id, domain.RelationshipStatusRemoved, &now); err != nil {
		return fmt.Errorf("relationship.RemoveRelationship: %w", err)
	}

	s.log.InfoContext(ctx, "relationship removed", slog.String("relationship_id", id.String()))
	return nil
}
