package study

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

// BatchResult is the outcome of UploadBatch: the JSON shape POST /reviews
// responds with.
type BatchResult struct {
	Created int
	Skipped int
}

// UploadBatch implements appendBatch for the offline-sync path (POST
// /reviews): every event in the batch must reference a card userID
// actually owns, or the whole batch is rejected — callers are expected to
// retry with the offending events removed rather than have the server
// silently drop just those. A batch that passes the ownership check is
// handed to the event log whole, so its own per-row idempotent insert is
// the only thing deciding created vs. skipped.
func (s *Service) UploadBatch(ctx context.Context, userID uuid.UUID, events []domain.ReviewEvent) (*BatchResult, error) {
	if len(events) == 0 {
		return &BatchResult{}, nil
	}

	seenCards := make(map[uuid.UUID]struct{}, len(events))
	for i := range events {
		events[i].UserID = userID
		if err := events[i].Validate(); err != nil {
			return nil, fmt.Errorf("study.UploadBatch: %w", err)
		}
		if _, checked := seenCards[events[i].CardID]; checked {
			continue
		}
		if _, err := s.cards.GetByID(ctx, userID, events[i].CardID); err != nil {
			return nil, fmt.Errorf("study.UploadBatch: card %s: %w", events[i].CardID, err)
		}
		seenCards[events[i].CardID] = struct{}{}
	}

	created, skipped, err := s.events.AppendBatch(ctx, userID, events)
	if err != nil {
		return nil, fmt.Errorf("study.UploadBatch: %w", err)
	}

	s.log.InfoContext(ctx, "review batch uploaded",
		slog.Int("created", created),
		slog.Int("skipped", skipped))

	return &BatchResult{Created: created, Skipped: skipped}, nil
}
