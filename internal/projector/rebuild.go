package projector

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
	"github.com/tandemly/srscore/internal/scheduler"
)

// Rebuild unconditionally re-folds a card's full event history and
// overwrites its cached projection, skipping the freshness check Project
// normally short-circuits on. Backs the admin re-projection endpoint: an
// operator forcing a rebuild after a weight change or a suspected drift
// between the cache and the event log doesn't want the cache's own
// staleness check deciding whether the rebuild actually happens.
func (p *Projector) Rebuild(ctx context.Context, params scheduler.Parameters, userID, cardID uuid.UUID) (*domain.ComputedCardState, error) {
	events, err := p.events.EventsForCard(ctx, userID, cardID)
	if err != nil {
		return nil, fmt.Errorf("projector: rebuild: load events: %w", err)
	}

	computed, err := fold(params, cardID, events)
	if err != nil {
		return nil, fmt.Errorf("projector: rebuild: fold card %s: %w", cardID, err)
	}

	if err := p.cache.Put(ctx, *computed); err != nil {
		return nil, fmt.Errorf("projector: rebuild: write cache: %w", err)
	}
	return computed, nil
}
