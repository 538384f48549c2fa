package selector

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// QueueCounts reports queue sizes for GET /cards/queue-counts without
// picking a card, for clients that want the counts alone (e.g. a deck
// list badge) without paying for a selection round.
func (s *Selector) QueueCounts(ctx context.Context, userID uuid.UUID, deckID *uuid.UUID, now time.Time) (QueueCounts, error) {
	return s.queueCounts(ctx, userID, deckID, endOfUTCDay(now))
}
