package changefeed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

// Page is the result of a change-feed pull: the events a client hasn't
// seen yet, whether more remain beyond the page limit, and the server's
// own clock so the client can reason about drift between its local "since"
// watermark and server time.
type Page struct {
	Events     []domain.ReviewEvent
	HasMore    bool
	ServerTime time.Time
}

// EventsSince implements eventsSince: events strictly after `since`,
// ascending by (reviewedAt, id), bounded by limit (DefaultLimit if <= 0).
// Fetches one extra row over the limit to detect HasMore without a second
// count query.
func (s *Service) EventsSince(ctx context.Context, userID uuid.UUID, since time.Time, limit int) (*Page, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	// uuid.Max as the cursor id excludes events reviewed at exactly `since`.
	events, err := s.events.EventsSince(ctx, userID, since, uuid.Max, limit+1)
	if err != nil {
		return nil, fmt.Errorf("changefeed.EventsSince: %w", err)
	}

	hasMore := len(events) > limit
	if hasMore {
		events = events[:limit]
	}

	return &Page{
		Events:     events,
		HasMore:    hasMore,
		ServerTime: time.Now().UTC(),
	}, nil
}
