package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewEvent is the append-only, immutable record of a single review. It is
// the system's source of truth; ComputedCardState is always a derived,
// rebuildable projection over a card's events, never the other way around.
//
// ID is chosen by the client so that re-submitting the same review (e.g.
// after a dropped connection) is a no-op rather than a duplicate.
type ReviewEvent struct {
	ID         uuid.UUID
	CardID     uuid.UUID
	UserID     uuid.UUID
	Rating     Rating
	ReviewedAt time.Time // client-supplied wall-clock time the review happened
	DurationMs *int
	ReceivedAt time.Time // server-assigned time the event was durably stored
}

// Validate checks the event's own invariants. It does not check that CardID
// belongs to UserID — that is an authorization concern for the caller.
func (e *ReviewEvent) Validate() error {
	var errs []FieldError

	if e.ID == uuid.Nil {
		errs = append(errs, FieldError{Field: "id", Message: "required"})
	}
	if e.CardID == uuid.Nil {
		errs = append(errs, FieldError{Field: "card_id", Message: "required"})
	}
	if !e.Rating.IsValid() {
		errs = append(errs, FieldError{Field: "rating", Message: "must be 0-3"})
	}
	if e.ReviewedAt.IsZero() {
		errs = append(errs, FieldError{Field: "reviewed_at", Message: "required"})
	}
	if e.DurationMs != nil && *e.DurationMs < 0 {
		errs = append(errs, FieldError{Field: "duration_ms", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// DailyCount tracks how many new and review cards a user has studied on a
// given calendar day (UTC), enforcing the selector's daily
// new-card budget without rescanning the whole event log on every request.
type DailyCount struct {
	UserID      uuid.UUID
	Day         time.Time // truncated to UTC midnight
	NewCount    int
	ReviewCount int
}

// SyncMetadata tracks per-user change-feed bookkeeping so offline clients can
// resume an incremental sync from where they left off.
type SyncMetadata struct {
	UserID      uuid.UUID
	LastEventAt time.Time
	UpdatedAt   time.Time
}
