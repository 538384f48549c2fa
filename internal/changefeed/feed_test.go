package changefeed_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tandemly/srscore/internal/changefeed"
	"github.com/tandemly/srscore/internal/domain"
)

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeEventSource struct {
	since map[uuid.UUID][]domain.ReviewEvent
	byCard map[uuid.UUID][]domain.ReviewEvent
}

func newFakeEventSource() *fakeEventSource {
	return &fakeEventSource{since: map[uuid.UUID][]domain.ReviewEvent{}, byCard: map[uuid.UUID][]domain.ReviewEvent{}}
}

func (f *fakeEventSource) EventsSince(ctx context.Context, userID uuid.UUID, since time.Time, afterID uuid.UUID, limit int) ([]domain.ReviewEvent, error) {
	all := f.since[userID]
	var filtered []domain.ReviewEvent
	for _, e := range all {
		if e.ReviewedAt.After(since) {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

func (f *fakeEventSource) EventsForCard(ctx context.Context, userID, cardID uuid.UUID) ([]domain.ReviewEvent, error) {
	return f.byCard[cardID], nil
}

func TestEventsSince_FewerThanLimit_HasMoreFalse(t *testing.T) {
	userID := uuid.New()
	src := newFakeEventSource()
	base := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	src.since[userID] = []domain.ReviewEvent{
		{ID: uuid.New(), ReviewedAt: base.Add(time.Minute)},
		{ID: uuid.New(), ReviewedAt: base.Add(2 * time.Minute)},
	}

	svc := changefeed.NewService(newTestLogger(), src)
	page, err := svc.EventsSince(context.Background(), userID, base, 10)
	require.NoError(t, err)
	require.Len(t, page.Events, 2)
	require.False(t, page.HasMore)
}

func TestEventsSince_MoreThanLimit_HasMoreTrueAndTruncated(t *testing.T) {
	userID := uuid.New()
	src := newFakeEventSource()
	base := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		src.since[userID] = append(src.since[userID], domain.ReviewEvent{
			ID:         uuid.New(),
			ReviewedAt: base.Add(time.Duration(i+1) * time.Minute),
		})
	}

	svc := changefeed.NewService(newTestLogger(), src)
	page, err := svc.EventsSince(context.Background(), userID, base, 3)
	require.NoError(t, err)
	require.Len(t, page.Events, 3)
	require.True(t, page.HasMore)
}

func TestEventsSince_ZeroLimit_UsesDefault(t *testing.T) {
	userID := uuid.New()
	src := newFakeEventSource()
	svc := changefeed.NewService(newTestLogger(), src)

	page, err := svc.EventsSince(context.Background(), userID, time.Now(), 0)
	require.NoError(t, err)
	require.NotNil(t, page)
}
