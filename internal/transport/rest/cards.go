package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/selector"
)

// queueCounter is the standalone queue-count lookup GET /cards/queue-counts
// drives, separate from a full NextCard selection round.
type queueCounter interface {
	QueueCounts(ctx context.Context, userID uuid.UUID, deckID *uuid.UUID, now time.Time) (selector.QueueCounts, error)
}

// CardsHandler serves card-queue REST endpoints.
type CardsHandler struct {
	counts queueCounter
	log    *slog.Logger
}

// NewCardsHandler creates a CardsHandler.
func NewCardsHandler(counts queueCounter, logger *slog.Logger) *CardsHandler {
	return &CardsHandler{counts: counts, log: logger.With("handler", "cards")}
}

// QueueCounts handles GET /cards/queue-counts?deck_id.
func (h *CardsHandler) QueueCounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	deckID, err := parseOptionalUUID(r.URL.Query().Get("deck_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deck_id")
		return
	}

	counts, err := h.counts.QueueCounts(r.Context(), userID, deckID, time.Now().UTC())
	if err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, queueCountsResponse{
		NewRemaining:     counts.NewRemaining,
		LearningDueToday: counts.LearningDueToday,
		ReviewDueToday:   counts.ReviewDueToday,
	})
}
