package relationship

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

// ListRelationships returns userID's full relationship graph — active
// relationships from both sides, pending relationships split by who sent
// the request, and outstanding invitations userID sent — for GET
// /relationships.
func (s *Service) ListRelationships(ctx context.Context, userID uuid.UUID) ([]domain.CategorizedRelationship, error) {
	rows, err := s.relationships.ListCategorized(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("relationship.ListRelationships: %w", err)
	}
	return rows, nil
}
