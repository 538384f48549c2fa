package scheduler

import (
	"time"

	"github.com/tandemly/srscore/internal/domain"
)

// State is the FSRS scheduling state the algorithm reads and produces. It
// carries exactly the fields the algorithm needs — the caller (the
// projector) is responsible for stitching the result into a full
// domain.ComputedCardState alongside bookkeeping like EventCount and
// AlgorithmVersion.
type State struct {
	CardState     domain.CardState
	Step          int
	Stability     float64
	Difficulty    float64
	Due           time.Time
	LastReview    *time.Time
	Reps          int
	Lapses        int
	ScheduledDays int
	ElapsedDays   int
}

// Parameters holds all FSRS-6 configuration for a single Review call.
type Parameters struct {
	W                [21]float64
	DesiredRetention float64
	MaxIntervalDays  int
	EnableFuzz       bool
	LearningSteps    []time.Duration
	RelearningSteps  []time.Duration
}

// DefaultParameters returns sensible defaults.
func DefaultParameters() Parameters {
	return Parameters{
		W:                DefaultWeights,
		DesiredRetention: 0.9,
		MaxIntervalDays:  365,
		EnableFuzz:       true,
		LearningSteps:    []time.Duration{time.Minute, 10 * time.Minute},
		RelearningSteps:  []time.Duration{10 * time.Minute},
	}
}

// Review is the scheduler's single entry point: given the card's current
// state, a rating on the client-facing 0-3 scale, and the review time,
// return the next state. It never touches storage and never mutates its
// arguments.
func Review(params Parameters, state State, rating domain.Rating, now time.Time) (State, error) {
	if !rating.IsValid() {
		return State{}, domain.NewValidationError("rating", "must be 0 (again), 1 (hard), 2 (good), or 3 (easy)")
	}
	r := toLibraryRating(rating)

	switch state.CardState {
	case "", domain.CardStateNew:
		return reviewNew(params, state, r, now), nil
	case domain.CardStateLearning:
		return reviewLearning(params, state, r, now, false), nil
	case domain.CardStateRelearning:
		return reviewLearning(params, state, r, now, true), nil
	case domain.CardStateReview:
		return reviewReview(params, state, r, now), nil
	default:
		return State{}, domain.NewValidationError("state", "unknown card state")
	}
}

// toLibraryRating maps the spec's 0-3 client scale to FSRS's 1-4 scale.
func toLibraryRating(rating domain.Rating) Rating {
	return Rating(int(rating) + 1)
}

func reviewNew(params Parameters, s State, rating Rating, now time.Time) State {
	s.Reps++
	s.LastReview = &now

	stability := InitialStability(params.W, rating)
	difficulty := InitialDifficulty(params.W, rating)
	s.Stability = stability
	s.Difficulty = difficulty

	steps := params.LearningSteps
	if len(steps) == 0 {
		steps = []time.Duration{time.Minute}
	}

	switch rating {
	case Again:
		s.CardState = domain.CardStateLearning
		s.Step = 0
		s.ScheduledDays = 0
		s.ElapsedDays = 0
		s.Due = now.Add(steps[0])

	case Hard:
		s.CardState = domain.CardStateLearning
		s.Step = 0
		s.ScheduledDays = 0
		s.ElapsedDays = 0
		var delay time.Duration
		if len(steps) > 1 {
			delay = (steps[0] + steps[1]) / 2
		} else {
			delay = steps[0]
		}
		s.Due = now.Add(delay)

	case Good:
		if len(steps) > 1 {
			s.CardState = domain.CardStateLearning
			s.Step = 1
			s.ScheduledDays = 0
			s.ElapsedDays = 0
			s.Due = now.Add(steps[1])
		} else {
			s = graduateToReview(params, s, stability, difficulty, now)
		}

	case Easy:
		s = graduateToReview(params, s, stability, difficulty, now)
		goodS := InitialStability(params.W, Good)
		goodInterval := clampInterval(NextInterval(goodS, params.DesiredRetention), params.MaxIntervalDays)
		if s.ScheduledDays <= goodInterval {
			s.ScheduledDays = clampInterval(goodInterval+1, params.MaxIntervalDays)
			s.Due = now.Add(time.Duration(s.ScheduledDays) * 24 * time.Hour)
		}
	}

	return s
}

func reviewLearning(params Parameters, s State, rating Rating, now time.Time, isRelearning bool) State {
	s.Reps++
	s.LastReview = &now

	steps := params.LearningSteps
	if isRelearning {
		steps = params.RelearningSteps
	}
	if len(steps) == 0 {
		steps = []time.Duration{time.Minute}
	}

	preS := s.Stability
	s.Stability = ShortTermStability(params.W, s.Stability, s.Difficulty, rating)
	s.Difficulty = NextDifficulty(params.W, s.Difficulty, rating)

	switch rating {
	case Again:
		s.Step = 0
		s.ElapsedDays = 0
		s.ScheduledDays = 0
		s.Due = now.Add(steps[0])

	case Hard:
		step := s.Step
		if step >= len(steps) {
			step = len(steps) - 1
		}
		s.ElapsedDays = 0
		s.ScheduledDays = 0
		s.Due = now.Add(steps[step])

	case Good:
		nextStep := s.Step + 1
		if nextStep >= len(steps) {
			s = graduateToReview(params, s, s.Stability, s.Difficulty, now)
		} else {
			s.Step = nextStep
			s.ElapsedDays = 0
			s.ScheduledDays = 0
			s.Due = now.Add(steps[nextStep])
		}

	case Easy:
		s = graduateToReview(params, s, s.Stability, s.Difficulty, now)

		goodS := ShortTermStability(params.W, preS, s.Difficulty, Good)
		goodInterval := clampInterval(NextInterval(goodS, params.DesiredRetention), params.MaxIntervalDays)
		if s.ScheduledDays <= goodInterval {
			s.ScheduledDays = clampInterval(goodInterval+1, params.MaxIntervalDays)
			s.Due = now.Add(time.Duration(s.ScheduledDays) * 24 * time.Hour)
		}
	}

	return s
}

func reviewReview(params Parameters, s State, rating Rating, now time.Time) State {
	s.Reps++
	s.LastReview = &now

	elapsedDays := s.ElapsedDays
	if elapsedDays < 1 {
		elapsedDays = 1
	}

	r := Retrievability(elapsedDays, s.Stability)
	preD := s.Difficulty
	d := NextDifficulty(params.W, s.Difficulty, rating)

	if rating == Again {
		s.Lapses++
		s.CardState = domain.CardStateRelearning
		s.Step = 0
		s.Difficulty = d
		s.Stability = StabilityAfterForgettingCapped(params.W, s.Stability, preD, r)

		steps := params.RelearningSteps
		if len(steps) == 0 {
			steps = []time.Duration{10 * time.Minute}
		}
		s.ElapsedDays = 0
		s.ScheduledDays = 0
		s.Due = now.Add(steps[0])
		return s
	}

	hardS := StabilityAfterRecall(params.W, s.Stability, preD, r, Hard)
	goodS := StabilityAfterRecall(params.W, s.Stability, preD, r, Good)
	easyS := StabilityAfterRecall(params.W, s.Stability, preD, r, Easy)

	hardIvl := clampInterval(NextInterval(hardS, params.DesiredRetention), params.MaxIntervalDays)
	goodIvl := clampInterval(NextInterval(goodS, params.DesiredRetention), params.MaxIntervalDays)
	easyIvl := clampInterval(NextInterval(easyS, params.DesiredRetention), params.MaxIntervalDays)

	hardIvl, goodIvl, easyIvl = enforceOrdering(hardIvl, goodIvl, easyIvl, params.MaxIntervalDays)

	if params.EnableFuzz {
		maxIvl := float64(params.MaxIntervalDays)
		ed := float64(elapsedDays)
		seed := FuzzSeed(now, s.Reps, s.Difficulty, s.Stability)

		hardIvl = int(applyFuzz(float64(hardIvl), ed, maxIvl, seed))
		goodIvl = int(applyFuzz(float64(goodIvl), ed, maxIvl, seed+1))
		easyIvl = int(applyFuzz(float64(easyIvl), ed, maxIvl, seed+2))

		hardIvl, goodIvl, easyIvl = enforceOrdering(hardIvl, goodIvl, easyIvl, params.MaxIntervalDays)
	}

	s.Difficulty = d

	var chosenIvl int
	var chosenS float64
	switch rating {
	case Hard:
		chosenIvl, chosenS = hardIvl, hardS
	case Good:
		chosenIvl, chosenS = goodIvl, goodS
	case Easy:
		chosenIvl, chosenS = easyIvl, easyS
	}
	chosenIvl = clampInterval(chosenIvl, params.MaxIntervalDays)

	s.Stability = chosenS
	s.CardState = domain.CardStateReview
	s.ScheduledDays = chosenIvl
	s.ElapsedDays = 0
	s.Due = now.Add(time.Duration(chosenIvl) * 24 * time.Hour)

	return s
}

// enforceOrdering guarantees hard <= good < easy, re-clamping afterward.
func enforceOrdering(hard, good, easy, maxDays int) (int, int, int) {
	if hard > good {
		hard = good
	}
	if good <= hard {
		good = hard + 1
	}
	if easy <= good {
		easy = good + 1
	}
	return clampInterval(hard, maxDays), clampInterval(good, maxDays), clampInterval(easy, maxDays)
}

func graduateToReview(params Parameters, s State, stability, difficulty float64, now time.Time) State {
	s.CardState = domain.CardStateReview
	s.Step = 0
	s.Stability = stability
	s.Difficulty = difficulty

	interval := clampInterval(NextInterval(stability, params.DesiredRetention), params.MaxIntervalDays)
	s.ScheduledDays = interval
	s.ElapsedDays = 0
	s.Due = now.Add(time.Duration(interval) * 24 * time.Hour)

	return s
}

// clampInterval constrains an interval to [1, maxDays].
func clampInterval(interval, maxDays int) int {
	if interval < 1 {
		return 1
	}
	if interval > maxDays {
		return maxDays
	}
	return interval
}
