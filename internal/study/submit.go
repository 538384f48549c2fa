package study

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

// SubmitReview implements POST /study/review: determines the card's
// pre-review NEW/non-NEW status, appends the review event, re-folds the
// card's projection, and bumps the day's new/review counter.
//
// The event append (plus its sync-metadata bump) commits atomically on its
// own — AppendBatch manages its own transaction, and per
// internal/adapter/postgres.TxManager nesting a second RunInTx inside it
// would silently open an unrelated transaction, not join it. The daily
// count increment that follows is therefore a second, separate write
// against an already-durable event: like the cached ComputedCardState,
// daily_counts is a derived, rebuildable convenience counter, never the
// source of truth, so a narrow window where it lags the event log it
// summarizes is recoverable rather than corrupting.
//
// event.ID must be caller-supplied so a retried submission is a no-op
// rather than a duplicate review, per the event log's idempotency
// contract.
func (s *Service) SubmitReview(ctx context.Context, userID uuid.UUID, event domain.ReviewEvent) (*domain.ComputedCardState, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("study.SubmitReview: %w", err)
	}
	event.UserID = userID
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}

	if _, err := s.cards.GetByID(ctx, userID, event.CardID); err != nil {
		return nil, fmt.Errorf("study.SubmitReview: card %s: %w", event.CardID, err)
	}

	settings, err := s.settings.GetSettings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("study.SubmitReview: load settings: %w", err)
	}
	params := parametersFor(settings)

	before, err := s.projector.Project(ctx, params, userID, event.CardID)
	if err != nil {
		return nil, fmt.Errorf("study.SubmitReview: project prior state: %w", err)
	}
	wasNew := before.State == domain.CardStateNew

	created, _, err := s.events.AppendBatch(ctx, userID, []domain.ReviewEvent{event})
	if err != nil {
		return nil, fmt.Errorf("study.SubmitReview: append event: %w", err)
	}

	after, err := s.projector.Project(ctx, params, userID, event.CardID)
	if err != nil {
		return nil, fmt.Errorf("study.SubmitReview: project updated state: %w", err)
	}
	if created == 0 {
		// The event id was already recorded: a retry leaves the daily
		// counters as the first submission set them.
		return after, nil
	}

	day := startOfUTCDay(event.ReviewedAt)
	if wasNew {
		err = s.dailyCounts.IncrementNew(ctx, userID, day)
	} else {
		err = s.dailyCounts.IncrementReview(ctx, userID, day)
	}
	if err != nil {
		return nil, fmt.Errorf("study.SubmitReview: increment daily count: %w", err)
	}

	s.log.InfoContext(ctx, "review submitted",
		slog.String("card_id", event.CardID.String()),
		slog.String("rating", event.Rating.String()))

	return after, nil
}

func startOfUTCDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
