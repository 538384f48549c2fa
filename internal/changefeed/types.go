// Package changefeed implements the two read-side operations clients use
// to catch up after studying offline: a paginated per-user change feed
// (eventsSince) and full per-card replay (eventsForCard). Both are thin,
// storage-free wrappers around the event log adapter — there is no
// algorithm here, only the bookkeeping (has-more detection, server clock
// for drift diagnostics) the REST boundary needs.
//
// Grounded on the teacher's per-service layout applied to spec.md §4.2's
// Event Log read operations, split out of internal/study because a sync
// pull has no write side and no daily-count side effect to coordinate.
package changefeed

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

type eventSource interface {
	EventsSince(ctx context.Context, userID uuid.UUID, since time.Time, afterID uuid.UUID, limit int) ([]domain.ReviewEvent, error)
	EventsForCard(ctx context.Context, userID, cardID uuid.UUID) ([]domain.ReviewEvent, error)
}

// DefaultLimit is the page size eventsSince applies when the caller
// doesn't specify one, per spec.md §4.2.
const DefaultLimit = 1000

// Service implements the change-feed read operations.
type Service struct {
	log    *slog.Logger
	events eventSource
}

// NewService creates a new changefeed service instance.
func NewService(logger *slog.Logger, events eventSource) *Service {
	return &Service{log: logger.With("service", "changefeed"), events: events}
}
