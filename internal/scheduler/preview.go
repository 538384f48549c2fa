package scheduler

import (
	"fmt"
	"time"

	"github.com/tandemly/srscore/internal/domain"
)

// Preview is a hypothetical outcome of rating a card a particular way,
// without mutating anything. It backs the "how long until I see this card
// again for each answer" hint a client shows before a review is submitted.
type Preview struct {
	Rating   domain.Rating
	NextDue  time.Time
	Interval string // human-readable, e.g. "10m", "3d", "2.1mo", "1y"
}

// PreviewIntervals computes the four hypothetical next states (one per
// rating) without mutating state or touching storage.
func PreviewIntervals(params Parameters, state State, now time.Time) [4]Preview {
	var out [4]Preview
	for i, rating := range []domain.Rating{domain.RatingAgain, domain.RatingHard, domain.RatingGood, domain.RatingEasy} {
		next, err := Review(params, state, rating, now)
		if err != nil {
			continue
		}
		out[i] = Preview{
			Rating:   rating,
			NextDue:  next.Due,
			Interval: FormatInterval(next.Due.Sub(now)),
		}
	}
	return out
}

// FormatInterval renders a duration the way a reviewer expects to see it:
// minutes and hours for same-day intervals, days/months/years beyond that.
func FormatInterval(d time.Duration) string {
	if d <= 0 {
		return "now"
	}

	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}

	days := d.Hours() / 24
	switch {
	case days < 30:
		return fmt.Sprintf("%dd", int(days))
	case days < 365:
		return fmt.Sprintf("%.1fmo", days/30)
	default:
		return fmt.Sprintf("%dy", int(days/365))
	}
}
