// Package study implements the review-submission seam a client's "I graded
// this card" action goes through, tying together the event log, the state
// projector, and the daily new-card counter. The event append commits in
// its own transaction; the daily counter increment is a separate write
// made after it, so a failure between the two leaves the day's counter one
// short of the event log.
//
// Grounded on the teacher's per-service layout (narrow repo interfaces,
// one file per operation), applied
// to SPEC_FULL.md §3.2's "Daily-count side effect" requirement: every
// accepted review increments exactly one of new_count/review_count,
// decided by the card's state immediately before the review was folded in.
package study

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
	"github.com/tandemly/srscore/internal/scheduler"
)

// eventAppender is the write side of the event log needed to persist a
// batch of incoming reviews idempotently.
type eventAppender interface {
	AppendBatch(ctx context.Context, userID uuid.UUID, events []domain.ReviewEvent) (created, skipped int, err error)
}

// cardOwnership is the minimal card lookup UploadBatch needs to reject a
// batch containing an event for a card the uploading user doesn't own,
// per the Event Log's "verify card exists and user owns the enclosing
// deck" whole-batch rejection rule.
type cardOwnership interface {
	GetByID(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error)
}

// stateProjector derives a card's current computed state by folding its
// event history, used both to determine a card's pre-review NEW/non-NEW
// status and to return the post-review projection to the caller.
type stateProjector interface {
	Project(ctx context.Context, params scheduler.Parameters, userID, cardID uuid.UUID) (*domain.ComputedCardState, error)
}

// settingsRepo supplies the per-user scheduler configuration backing a
// review's projection.
type settingsRepo interface {
	GetSettings(ctx context.Context, userID uuid.UUID) (*domain.UserSettings, error)
}

// dailyCountRepo is the per-user, per-day new/review counter incremented
// as a side effect of a submitted review.
type dailyCountRepo interface {
	IncrementNew(ctx context.Context, userID uuid.UUID, day time.Time) error
	IncrementReview(ctx context.Context, userID uuid.UUID, day time.Time) error
}

// Service implements review submission.
type Service struct {
	log         *slog.Logger
	events      eventAppender
	cards       cardOwnership
	projector   stateProjector
	settings    settingsRepo
	dailyCounts dailyCountRepo
}

// NewService creates a new study service instance.
func NewService(logger *slog.Logger, events eventAppender, cards cardOwnership, projector stateProjector, settings settingsRepo, dailyCounts dailyCountRepo) *Service {
	return &Service{
		log:         logger.With("service", "study"),
		events:      events,
		cards:       cards,
		projector:   projector,
		settings:    settings,
		dailyCounts: dailyCounts,
	}
}

// parametersFor builds the scheduler configuration for a user's review
// from their settings. The FSRS weights aren't user-configurable (no
// column for them on UserSettings), so every user reviews against
// scheduler.DefaultWeights; only retention target and interval cap vary.
func parametersFor(settings *domain.UserSettings) scheduler.Parameters {
	params := scheduler.DefaultParameters()
	params.DesiredRetention = settings.DesiredRetention
	params.MaxIntervalDays = settings.MaxIntervalDays
	return params
}
