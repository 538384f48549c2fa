package domain

import (
	"time"

	"github.com/google/uuid"
)

// CurrentAlgorithmVersion identifies the scheduler revision used to produce
// ComputedCardState. Bumping it invalidates every cached projection and
// forces a rebuild from the event log on next read.
const CurrentAlgorithmVersion = "fsrs-6.0"

// Card is a single reviewable unit belonging to a Note. A Note with two
// orientations (e.g. front->back and back->front) produces two Cards.
type Card struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	DeckID    uuid.UUID
	NoteID    uuid.UUID
	Ordinal   int // which facet of the note this card tests, 0-based
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ComputedCardState is the FSRS projection derived by folding a card's
// ReviewEvents in order. It is never written directly by a review — only by
// the projector, and only as a cache of a fold that is always reproducible
// from the event log.
type ComputedCardState struct {
	CardID           uuid.UUID
	AlgorithmVersion string
	State            CardState
	Step             int
	Stability        float64
	Difficulty       float64
	Due              time.Time
	LastReview       *time.Time
	Reps             int
	Lapses           int
	ScheduledDays    int
	ElapsedDays      int
	EventCount       int       // number of events folded to produce this state
	LastEventAt      time.Time // ReviewedAt of the last folded event
	ComputedAt       time.Time
}

// IsDue returns true if the card needs review at the given time.
//   - NEW cards (no computed state yet) are always due.
//   - Other cards are due when Due <= now.
func (s *ComputedCardState) IsDue(now time.Time) bool {
	if s == nil || s.State == CardStateNew {
		return true
	}
	return !s.Due.After(now)
}

// QueueCard pairs a Card with the due timestamp it was matched on, so the
// selector can weight and order candidates without a second lookup.
type QueueCard struct {
	Card Card
	Due  time.Time
}

// GradeCounts holds per-rating counters for a study session.
type GradeCounts struct {
	Again int
	Hard  int
	Good  int
	Easy  int
}

// SessionResult holds aggregated results of a completed study session.
type SessionResult struct {
	TotalReviewed int
	NewReviewed   int
	DueReviewed   int
	GradeCounts   GradeCounts
	DurationMs    int64
	AccuracyRate  float64
}
