package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
	"github.com/tandemly/srscore/internal/scheduler"
	"github.com/tandemly/srscore/internal/selector"
)

// studySelector is the Session Selector entry point this handler drives.
type studySelector interface {
	NextCard(ctx context.Context, userID uuid.UUID, deckID *uuid.UUID, excludeNoteIDs []uuid.UUID, ignoreDailyLimit bool, now time.Time) (*selector.Result, error)
}

// studyProjector supplies the current projection a preview is computed
// from, and the per-user scheduler parameters it's computed with.
type studyProjector interface {
	Project(ctx context.Context, params scheduler.Parameters, userID, cardID uuid.UUID) (*domain.ComputedCardState, error)
}

// studySettings supplies the per-user retention/interval-cap settings the
// preview and submit paths both build scheduler.Parameters from.
type studySettings interface {
	GetSettings(ctx context.Context, userID uuid.UUID) (*domain.UserSettings, error)
}

// reviewSubmitter is the review-submission seam this handler's POST
// /study/review drives.
type reviewSubmitter interface {
	SubmitReview(ctx context.Context, userID uuid.UUID, event domain.ReviewEvent) (*domain.ComputedCardState, error)
}

// StudyHandler serves the study-session REST endpoints.
type StudyHandler struct {
	selector  studySelector
	projector studyProjector
	settings  studySettings
	study     reviewSubmitter
	log       *slog.Logger
}

// NewStudyHandler creates a StudyHandler.
func NewStudyHandler(selector studySelector, projector studyProjector, settings studySettings, study reviewSubmitter, logger *slog.Logger) *StudyHandler {
	return &StudyHandler{
		selector:  selector,
		projector: projector,
		settings:  settings,
		study:     study,
		log:       logger.With("handler", "study"),
	}
}

type intervalPreviewResponse struct {
	Rating   domain.Rating `json:"rating"`
	NextDue  time.Time     `json:"next_due"`
	Interval string        `json:"interval"`
}

type nextCardResponse struct {
	Card            *cardResponse             `json:"card"`
	Counts          queueCountsResponse       `json:"counts"`
	IntervalPreviews []intervalPreviewResponse `json:"interval_previews,omitempty"`
	HasMoreNewCards bool                      `json:"has_more_new_cards,omitempty"`
}

type cardResponse struct {
	ID      string `json:"id"`
	DeckID  string `json:"deck_id"`
	NoteID  string `json:"note_id"`
	Ordinal int    `json:"ordinal"`
}

type queueCountsResponse struct {
	NewRemaining     int `json:"new_remaining"`
	LearningDueToday int `json:"learning_due_today"`
	ReviewDueToday   int `json:"review_due_today"`
}

// NextCard handles GET /study/next-card?deck_id&exclude_notes&ignore_daily_limit.
func (h *StudyHandler) NextCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	deckID, err := parseOptionalUUID(r.URL.Query().Get("deck_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deck_id")
		return
	}
	excludeNotes, err := parseUUIDList(r.URL.Query().Get("exclude_notes"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid exclude_notes")
		return
	}
	ignoreDailyLimit := r.URL.Query().Get("ignore_daily_limit") == "true"

	now := time.Now().UTC()
	result, err := h.selector.NextCard(r.Context(), userID, deckID, excludeNotes, ignoreDailyLimit, now)
	if err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}

	resp := nextCardResponse{
		Counts: queueCountsResponse{
			NewRemaining:     result.Counts.NewRemaining,
			LearningDueToday: result.Counts.LearningDueToday,
			ReviewDueToday:   result.Counts.ReviewDueToday,
		},
		HasMoreNewCards: result.HasMoreNewCards,
	}

	if result.Card != nil {
		resp.Card = &cardResponse{
			ID:      result.Card.ID.String(),
			DeckID:  result.Card.DeckID.String(),
			NoteID:  result.Card.NoteID.String(),
			Ordinal: result.Card.Ordinal,
		}

		settings, err := h.settings.GetSettings(r.Context(), userID)
		if err != nil {
			handleError(r.Context(), h.log, w, err)
			return
		}
		state, err := h.projector.Project(r.Context(), parametersFromSettings(settings), userID, result.Card.ID)
		if err != nil {
			handleError(r.Context(), h.log, w, err)
			return
		}
		previews := scheduler.PreviewIntervals(parametersFromSettings(settings), stateFromComputed(state), now)
		for _, p := range previews {
			resp.IntervalPreviews = append(resp.IntervalPreviews, intervalPreviewResponse{
				Rating:   p.Rating,
				NextDue:  p.NextDue,
				Interval: p.Interval,
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

type submitReviewRequest struct {
	ID         uuid.UUID  `json:"id"`
	CardID     uuid.UUID  `json:"card_id"`
	Rating     int        `json:"rating"`
	ReviewedAt time.Time  `json:"reviewed_at"`
	DurationMs *int       `json:"time_spent_ms"`
}

// SubmitReview handles POST /study/review: server-side rating, the
// non-offline path.
func (h *StudyHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req submitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event := domain.ReviewEvent{
		ID:         req.ID,
		CardID:     req.CardID,
		Rating:     domain.Rating(req.Rating),
		ReviewedAt: req.ReviewedAt,
		DurationMs: req.DurationMs,
	}

	state, err := h.study.SubmitReview(r.Context(), userID, event)
	if err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// parametersFromSettings mirrors study.parametersFor and selector's own
// settings-to-parameters mapping: the FSRS weights aren't user-configurable,
// only retention target and interval cap are.
func parametersFromSettings(settings *domain.UserSettings) scheduler.Parameters {
	params := scheduler.DefaultParameters()
	params.DesiredRetention = settings.DesiredRetention
	params.MaxIntervalDays = settings.MaxIntervalDays
	return params
}

// stateFromComputed adapts a projector's ComputedCardState into the bare
// scheduler.State PreviewIntervals folds against — the inverse of what the
// projector's own fold does when it builds a ComputedCardState from a
// scheduler.State.
func stateFromComputed(s *domain.ComputedCardState) scheduler.State {
	return scheduler.State{
		CardState:     s.State,
		Step:          s.Step,
		Stability:     s.Stability,
		Difficulty:    s.Difficulty,
		Due:           s.Due,
		LastReview:    s.LastReview,
		Reps:          s.Reps,
		Lapses:        s.Lapses,
		ScheduledDays: s.ScheduledDays,
		ElapsedDays:   s.ElapsedDays,
	}
}

func parseOptionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseUUIDList(raw string) ([]uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		id, err := uuid.Parse(p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
