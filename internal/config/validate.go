package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Session.Duration <= 0 {
		return fmt.Errorf("session.duration must be > 0 (got %v)", c.Session.Duration)
	}

	if c.Invitation.ExpiryDays <= 0 {
		return fmt.Errorf("invitation.expiry_days must be > 0 (got %d)", c.Invitation.ExpiryDays)
	}

	if c.Selector.DefaultNewCardsPerDay < 0 {
		return fmt.Errorf("selector.default_new_cards_per_day must be >= 0 (got %d)", c.Selector.DefaultNewCardsPerDay)
	}

	if err := c.Scheduler.validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	return nil
}

func (s *SchedulerConfig) validate() error {
	if s.DefaultRetention <= 0 || s.DefaultRetention >= 1 {
		return fmt.Errorf("default_retention must be in (0, 1) (got %v)", s.DefaultRetention)
	}
	if s.MaxIntervalDays <= 0 {
		return fmt.Errorf("max_interval_days must be > 0 (got %d)", s.MaxIntervalDays)
	}

	steps, err := ParseLearningSteps(s.LearningStepsRaw)
	if err != nil {
		return fmt.Errorf("learning_steps: %w", err)
	}
	s.LearningSteps = steps

	relearning, err := ParseLearningSteps(s.RelearningStepsRaw)
	if err != nil {
		return fmt.Errorf("relearning_steps: %w", err)
	}
	s.RelearningSteps = relearning

	return nil
}

// ParseLearningSteps parses a comma-separated string of durations (e.g. "1m,10m")
// into a slice of time.Duration. An empty string returns a nil slice.
func ParseLearningSteps(raw string) ([]time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	steps := make([]time.Duration, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		d, err := time.ParseDuration(p)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", p, err)
		}
		steps = append(steps, d)
	}

	return steps, nil
}
