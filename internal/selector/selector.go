// Package selector implements the study-session card selector: given a
// user, an optional deck filter, an exclusion set of already-shown notes,
// and a flag to ignore the daily new-card budget, it picks the next card
// to present by evaluating a strict priority chain.
//
// Grounded on the teacher's internal/service/study study_queue.go/session.go
// shape (load settings, call repos, log a structured summary), generalized
// to the full priority chain.
package selector

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

type cardRepo interface {
	GetLearningCandidates(ctx context.Context, userID uuid.UUID, algorithmVersion string, deckID *uuid.UUID, before time.Time) ([]domain.QueueCard, error)
	GetReviewCandidates(ctx context.Context, userID uuid.UUID, algorithmVersion string, deckID *uuid.UUID, before time.Time) ([]domain.Card, error)
	GetNewCards(ctx context.Context, userID uuid.UUID, algorithmVersion string, deckID *uuid.UUID, limit int) ([]domain.Card, error)
	CountNew(ctx context.Context, userID uuid.UUID, algorithmVersion string, deckID *uuid.UUID) (int, error)
	CountLearningDueToday(ctx context.Context, userID uuid.UUID, algorithmVersion string, deckID *uuid.UUID, before time.Time) (int, error)
	CountReviewDueToday(ctx context.Context, userID uuid.UUID, algorithmVersion string, deckID *uuid.UUID, before time.Time) (int, error)
}

type settingsRepo interface {
	GetSettings(ctx context.Context, userID uuid.UUID) (*domain.UserSettings, error)
}

type dailyCountRepo interface {
	Get(ctx context.Context, userID uuid.UUID, day time.Time) (*domain.DailyCount, error)
}

// newCandidatesFetchCap bounds how many NEW cards a single selection round
// fetches before applying the daily budget and exclusion set in memory —
// plenty for any one deck's worth of additions since only one card is ever
// actually returned.
const newCandidatesFetchCap = 200

// QueueCounts summarizes queue sizes alongside the chosen card, for display.
type QueueCounts struct {
	NewRemaining     int
	LearningDueToday int
	ReviewDueToday   int
}

// Result is the outcome of a next-card selection.
type Result struct {
	Card            *domain.Card
	Counts          QueueCounts
	HasMoreNewCards bool
}

// Selector picks the next card to study for a user.
type Selector struct {
	cards       cardRepo
	settings    settingsRepo
	dailyCounts dailyCountRepo
}

// New creates a Selector.
func New(cards cardRepo, settings settingsRepo, dailyCounts dailyCountRepo) *Selector {
	return &Selector{cards: cards, settings: settings, dailyCounts: dailyCounts}
}

// NextCard evaluates the priority chain and returns the next card to show,
// or a nil Card (with HasMoreNewCards set) if the session is complete.
func (s *Selector) NextCard(ctx context.Context, userID uuid.UUID, deckID *uuid.UUID, excludeNoteIDs []uuid.UUID, ignoreDailyLimit bool, now time.Time) (*Result, error) {
	settings, err := s.settings.GetSettings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("selector: load settings: %w", err)
	}

	endOfDay := endOfUTCDay(now)
	day := startOfUTCDay(now)
	excluded := toSet(excludeNoteIDs)

	counts, err := s.queueCounts(ctx, userID, deckID, endOfDay)
	if err != nil {
		return nil, err
	}

	// 1. Learning/Relearning cards due now, weighted by how overdue they are.
	learningNow, err := s.cards.GetLearningCandidates(ctx, userID, domain.CurrentAlgorithmVersion, deckID, now)
	if err != nil {
		return nil, fmt.Errorf("selector: load learning candidates: %w", err)
	}
	learningNow = filterExcluded(learningNow, excluded)
	if len(learningNow) > 0 {
		chosen := pickWeightedByOverdue(learningNow, now)
		return &Result{Card: &chosen, Counts: counts}, nil
	}

	// 2. Mix of NEW and REVIEW.
	chosen, err := s.pickNewOrReview(ctx, userID, deckID, settings, day, endOfDay, excluded, ignoreDailyLimit)
	if err != nil {
		return nil, err
	}
	if chosen != nil {
		return &Result{Card: chosen, Counts: counts}, nil
	}

	// 3. Learning/Relearning cards on cool-down but due by end of today.
	cooldown, err := s.cards.GetLearningCandidates(ctx, userID, domain.CurrentAlgorithmVersion, deckID, endOfDay)
	if err != nil {
		return nil, fmt.Errorf("selector: load cool-down candidates: %w", err)
	}
	cooldown = filterExcluded(cooldown, excluded)
	if len(cooldown) > 0 {
		// Already ordered soonest-due first by the repository.
		return &Result{Card: &cooldown[0].Card, Counts: counts}, nil
	}

	// 4. Absent. Report whether more NEW cards exist beyond today's budget.
	ignoring, err := s.pickNewOrReview(ctx, userID, deckID, settings, day, endOfDay, excluded, true)
	if err != nil {
		return nil, err
	}
	return &Result{Card: nil, Counts: counts, HasMoreNewCards: ignoring != nil}, nil
}

// pickNewOrReview implements priority step 2: weight NEW vs REVIEW by pool
// size, subject to the daily new-card budget, returning nil if both pools
// are empty.
func (s *Selector) pickNewOrReview(ctx context.Context, userID uuid.UUID, deckID *uuid.UUID, settings *domain.UserSettings, day, endOfDay time.Time, excluded map[uuid.UUID]struct{}, ignoreDailyLimit bool) (*domain.Card, error) {
	newBudget := newCandidatesFetchCap
	if !ignoreDailyLimit {
		dc, err := s.dailyCounts.Get(ctx, userID, day)
		if err != nil {
			return nil, fmt.Errorf("selector: load daily count: %w", err)
		}
		remaining := settings.NewCardsPerDay - dc.NewCount
		if remaining <= 0 {
			newBudget = 0
		} else if remaining < newBudget {
			newBudget = remaining
		}
	}

	var newPool []domain.Card
	if newBudget > 0 {
		all, err := s.cards.GetNewCards(ctx, userID, domain.CurrentAlgorithmVersion, deckID, newCandidatesFetchCap)
		if err != nil {
			return nil, fmt.Errorf("selector: load new cards: %w", err)
		}
		newPool = filterExcludedCards(all, excluded)
		if len(newPool) > newBudget {
			newPool = newPool[:newBudget]
		}
	}

	reviewAll, err := s.cards.GetReviewCandidates(ctx, userID, domain.CurrentAlgorithmVersion, deckID, endOfDay)
	if err != nil {
		return nil, fmt.Errorf("selector: load review candidates: %w", err)
	}
	reviewPool := filterExcludedCards(reviewAll, excluded)

	if len(newPool) == 0 && len(reviewPool) == 0 {
		return nil, nil
	}

	pNew := float64(len(newPool)) / float64(len(newPool)+len(reviewPool))
	if len(reviewPool) == 0 || (len(newPool) > 0 && rand.Float64() < pNew) {
		c := newPool[rand.IntN(len(newPool))]
		return &c, nil
	}
	c := reviewPool[rand.IntN(len(reviewPool))]
	return &c, nil
}

func (s *Selector) queueCounts(ctx context.Context, userID uuid.UUID, deckID *uuid.UUID, endOfDay time.Time) (QueueCounts, error) {
	newCount, err := s.cards.CountNew(ctx, userID, domain.CurrentAlgorithmVersion, deckID)
	if err != nil {
		return QueueCounts{}, fmt.Errorf("selector: count new: %w", err)
	}
	learningCount, err := s.cards.CountLearningDueToday(ctx, userID, domain.CurrentAlgorithmVersion, deckID, endOfDay)
	if err != nil {
		return QueueCounts{}, fmt.Errorf("selector: count learning due today: %w", err)
	}
	reviewCount, err := s.cards.CountReviewDueToday(ctx, userID, domain.CurrentAlgorithmVersion, deckID, endOfDay)
	if err != nil {
		return QueueCounts{}, fmt.Errorf("selector: count review due today: %w", err)
	}
	return QueueCounts{NewRemaining: newCount, LearningDueToday: learningCount, ReviewDueToday: reviewCount}, nil
}

// pickWeightedByOverdue performs priority step 1's weighted randomization:
// weight is max(1, seconds overdue), so a card 10 minutes late is far more
// likely to be chosen than one 5 seconds late. Ties (equal weight) resolve
// toward the earliest due timestamp because candidates arrive pre-sorted
// by due ascending and the cumulative walk favors the first match.
func pickWeightedByOverdue(candidates []domain.QueueCard, now time.Time) domain.Card {
	if len(candidates) == 1 {
		return candidates[0].Card
	}

	weights := make([]float64, len(candidates))
	var total float64
	for i, c := range candidates {
		overdue := now.Sub(c.Due).Seconds()
		if overdue < 1 {
			overdue = 1
		}
		weights[i] = overdue
		total += overdue
	}

	draw := rand.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if draw <= cum {
			return candidates[i].Card
		}
	}
	return candidates[len(candidates)-1].Card
}

func toSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func filterExcluded(candidates []domain.QueueCard, excluded map[uuid.UUID]struct{}) []domain.QueueCard {
	if len(excluded) == 0 {
		return candidates
	}
	out := candidates[:0]
	for _, c := range candidates {
		if _, skip := excluded[c.Card.NoteID]; !skip {
			out = append(out, c)
		}
	}
	return out
}

func filterExcludedCards(candidates []domain.Card, excluded map[uuid.UUID]struct{}) []domain.Card {
	if len(excluded) == 0 {
		return candidates
	}
	out := candidates[:0]
	for _, c := range candidates {
		if _, skip := excluded[c.NoteID]; !skip {
			out = append(out, c)
		}
	}
	return out
}

func startOfUTCDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfUTCDay(t time.Time) time.Time {
	return startOfUTCDay(t).Add(24 * time.Hour).Add(-time.Nanosecond)
}
