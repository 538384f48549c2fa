package changefeed

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

// CardHistory implements eventsForCard: the complete, unpaginated replay of
// a single card's review events, ascending by reviewedAt. Used by the
// client-side "why is this card scheduled like this" view and by cache
// rebuilds that want to inspect one card without pulling the whole feed.
func (s *Service) CardHistory(ctx context.Context, userID, cardID uuid.UUID) ([]domain.ReviewEvent, error) {
	events, err := s.events.EventsForCard(ctx, userID, cardID)
	if err != nil {
		return nil, fmt.Errorf("changefeed.CardHistory: %w", err)
	}
	return events, nil
}
