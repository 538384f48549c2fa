// Package projector derives a card's current ComputedCardState by folding
// its ReviewEvent history through internal/scheduler, with a rebuildable
// cache so steady-state reads don't re-fold the whole history every time.
package projector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
	"github.com/tandemly/srscore/internal/scheduler"
)

// eventSource is the read side of the event log needed to re-fold a card.
type eventSource interface {
	EventsForCard(ctx context.Context, userID, cardID uuid.UUID) ([]domain.ReviewEvent, error)
	EventsForCards(ctx context.Context, userID uuid.UUID, cardIDs []uuid.UUID) (map[uuid.UUID][]domain.ReviewEvent, error)
}

// cache is the read-through store backing Project; a miss or a stale row
// (event count or algorithm version mismatch) triggers a re-fold.
type cache interface {
	Get(ctx context.Context, cardID uuid.UUID, algorithmVersion string) (*domain.ComputedCardState, error)
	Put(ctx context.Context, state domain.ComputedCardState) error
}

// Projector folds ReviewEvents into ComputedCardState, backed by a cache.
type Projector struct {
	events eventSource
	cache  cache
}

// New creates a Projector.
func New(events eventSource, cache cache) *Projector {
	return &Projector{events: events, cache: cache}
}

// Project returns the current computed state of a card, using the cache
// when it is fresh (same algorithm version, same event count as the live
// log) and re-folding from the full event history otherwise.
func (p *Projector) Project(ctx context.Context, params scheduler.Parameters, userID, cardID uuid.UUID) (*domain.ComputedCardState, error) {
	events, err := p.events.EventsForCard(ctx, userID, cardID)
	if err != nil {
		return nil, fmt.Errorf("projector: load events: %w", err)
	}

	cached, err := p.cache.Get(ctx, cardID, domain.CurrentAlgorithmVersion)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("projector: load cache: %w", err)
	}
	if cached != nil && cached.AlgorithmVersion == domain.CurrentAlgorithmVersion && cached.EventCount == len(events) {
		return cached, nil
	}

	computed, err := fold(params, cardID, events)
	if err != nil {
		return nil, fmt.Errorf("projector: fold card %s: %w", cardID, err)
	}

	if err := p.cache.Put(ctx, *computed); err != nil {
		return nil, fmt.Errorf("projector: write cache: %w", err)
	}
	return computed, nil
}

// ProjectBatch projects a set of cards, fetching their event histories in
// one query and bucketing by card id before folding, so a queue page
// doesn't pay one round trip per card.
func (p *Projector) ProjectBatch(ctx context.Context, params scheduler.Parameters, userID uuid.UUID, cardIDs []uuid.UUID) (map[uuid.UUID]*domain.ComputedCardState, error) {
	if len(cardIDs) == 0 {
		return map[uuid.UUID]*domain.ComputedCardState{}, nil
	}

	byCard, err := p.events.EventsForCards(ctx, userID, cardIDs)
	if err != nil {
		return nil, fmt.Errorf("projector: load events batch: %w", err)
	}

	result := make(map[uuid.UUID]*domain.ComputedCardState, len(cardIDs))
	for _, cardID := range cardIDs {
		events := byCard[cardID]

		cached, err := p.cache.Get(ctx, cardID, domain.CurrentAlgorithmVersion)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("projector: load cache for %s: %w", cardID, err)
		}
		if cached != nil && cached.AlgorithmVersion == domain.CurrentAlgorithmVersion && cached.EventCount == len(events) {
			result[cardID] = cached
			continue
		}

		computed, err := fold(params, cardID, events)
		if err != nil {
			return nil, fmt.Errorf("projector: fold card %s: %w", cardID, err)
		}
		if err := p.cache.Put(ctx, *computed); err != nil {
			return nil, fmt.Errorf("projector: write cache for %s: %w", cardID, err)
		}
		result[cardID] = computed
	}

	return result, nil
}

// fold replays a card's event history through the scheduler in order,
// producing the state it converges to. An empty history yields the
// implicit NEW state with zero event count.
func fold(params scheduler.Parameters, cardID uuid.UUID, events []domain.ReviewEvent) (*domain.ComputedCardState, error) {
	state := scheduler.State{CardState: domain.CardStateNew}
	var lastEventAt time.Time

	for _, e := range events {
		state.ElapsedDays = computeElapsedDays(state.LastReview, e.ReviewedAt)

		next, err := scheduler.Review(params, state, e.Rating, e.ReviewedAt)
		if err != nil {
			return nil, fmt.Errorf("review event %s: %w", e.ID, err)
		}
		state = next
		lastEventAt = e.ReviewedAt
	}

	return &domain.ComputedCardState{
		CardID:           cardID,
		AlgorithmVersion: domain.CurrentAlgorithmVersion,
		State:            state.CardState,
		Step:             state.Step,
		Stability:        state.Stability,
		Difficulty:       state.Difficulty,
		Due:              state.Due,
		LastReview:       state.LastReview,
		Reps:             state.Reps,
		Lapses:           state.Lapses,
		ScheduledDays:    state.ScheduledDays,
		ElapsedDays:      state.ElapsedDays,
		EventCount:       len(events),
		LastEventAt:      lastEventAt,
		ComputedAt:       time.Now().UTC(),
	}, nil
}

// computeElapsedDays calculates whole days elapsed since the last review, so
// each fold step feeds the scheduler the real gap between events rather than
// an implicit one-day cadence.
func computeElapsedDays(lastReview *time.Time, now time.Time) int {
	if lastReview == nil {
		return 0
	}
	return max(0, int(now.Sub(*lastReview).Hours()/24))
}
