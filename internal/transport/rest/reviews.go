package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/changefeed"
	"github.com/tandemly/srscore/internal/domain"
	"github.com/tandemly/srscore/internal/study"
)

// batchUploader is the offline-sync write path POST /reviews drives.
type batchUploader interface {
	UploadBatch(ctx context.Context, userID uuid.UUID, events []domain.ReviewEvent) (*study.BatchResult, error)
}

// changeFeedReader is the two read-side Event Log operations GET /reviews
// and GET /cards/:id/events drive.
type changeFeedReader interface {
	EventsSince(ctx context.Context, userID uuid.UUID, since time.Time, limit int) (*changefeed.Page, error)
	CardHistory(ctx context.Context, userID, cardID uuid.UUID) ([]domain.ReviewEvent, error)
}

// ReviewsHandler serves the review-event REST endpoints: batch upload and
// change-feed pull.
type ReviewsHandler struct {
	uploads batchUploader
	feed    changeFeedReader
	log     *slog.Logger
}

// NewReviewsHandler creates a ReviewsHandler.
func NewReviewsHandler(uploads batchUploader, feed changeFeedReader, logger *slog.Logger) *ReviewsHandler {
	return &ReviewsHandler{uploads: uploads, feed: feed, log: logger.With("handler", "reviews")}
}

type reviewEventDTO struct {
	ID         uuid.UUID `json:"id"`
	CardID     uuid.UUID `json:"card_id"`
	Rating     int       `json:"rating"`
	ReviewedAt time.Time `json:"reviewed_at"`
	DurationMs *int      `json:"time_spent_ms"`
}

func (d reviewEventDTO) toDomain() domain.ReviewEvent {
	return domain.ReviewEvent{
		ID:         d.ID,
		CardID:     d.CardID,
		Rating:     domain.Rating(d.Rating),
		ReviewedAt: d.ReviewedAt,
		DurationMs: d.DurationMs,
	}
}

func fromDomainEvent(e domain.ReviewEvent) reviewEventDTO {
	return reviewEventDTO{
		ID:         e.ID,
		CardID:     e.CardID,
		Rating:     int(e.Rating),
		ReviewedAt: e.ReviewedAt,
		DurationMs: e.DurationMs,
	}
}

type uploadBatchRequest struct {
	Events []reviewEventDTO `json:"events"`
}

type uploadBatchResponse struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// UploadBatch handles POST /reviews: batch upload of review events.
func (h *ReviewsHandler) UploadBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req uploadBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	events := make([]domain.ReviewEvent, len(req.Events))
	for i, e := range req.Events {
		events[i] = e.toDomain()
	}

	result, err := h.uploads.UploadBatch(r.Context(), userID, events)
	if err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadBatchResponse{Created: result.Created, Skipped: result.Skipped})
}

type changeFeedResponse struct {
	Events     []reviewEventDTO `json:"events"`
	HasMore    bool             `json:"has_more"`
	ServerTime time.Time        `json:"server_time"`
}

// ChangeFeed handles GET /reviews?since=<iso>&limit=<n>.
func (h *ReviewsHandler) ChangeFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	since, err := parseSince(r.URL.Query().Get("since"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid since")
		return
	}
	limit := changefeed.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	page, err := h.feed.EventsSince(r.Context(), userID, since, limit)
	if err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}

	events := make([]reviewEventDTO, len(page.Events))
	for i, e := range page.Events {
		events[i] = fromDomainEvent(e)
	}

	writeJSON(w, http.StatusOK, changeFeedResponse{
		Events:     events,
		HasMore:    page.HasMore,
		ServerTime: page.ServerTime,
	})
}

// CardEvents handles GET /cards/:id/events: full event history for one
// card.
func (h *ReviewsHandler) CardEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	cardID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid card id")
		return
	}

	events, err := h.feed.CardHistory(r.Context(), userID, cardID)
	if err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}

	dtos := make([]reviewEventDTO, len(events))
	for i, e := range events {
		dtos[i] = fromDomainEvent(e)
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": dtos})
}

func parseSince(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
