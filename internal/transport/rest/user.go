package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tandemly/srscore/internal/domain"
	"github.com/tandemly/srscore/internal/service/user"
)

// profileService is the authenticated-user profile/settings service this
// handler drives. Every method reads userID off context itself (via
// pkg/ctxutil), matching the teacher's auth-scoped-service convention, so
// the handler only needs to forward the request context.
type profileService interface {
	GetProfile(ctx context.Context) (*domain.User, error)
	UpdateProfile(ctx context.Context, input user.UpdateProfileInput) (*domain.User, error)
	GetSettings(ctx context.Context) (*domain.UserSettings, error)
	UpdateSettings(ctx context.Context, input user.UpdateSettingsInput) (*domain.UserSettings, error)
}

// UserHandler serves the authenticated user's profile/settings REST
// endpoints.
type UserHandler struct {
	svc profileService
	log *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(svc profileService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: logger.With("handler", "user")}
}

// GetProfile handles GET /me.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	u, err := h.svc.GetProfile(r.Context())
	if err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type updateProfileRequest struct {
	Name string `json:"name"`
}

// UpdateProfile handles PATCH /me.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := h.svc.UpdateProfile(r.Context(), user.UpdateProfileInput{Name: req.Name})
	if err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// GetSettings handles GET /me/settings.
func (h *UserHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	s, err := h.svc.GetSettings(r.Context())
	if err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type updateSettingsRequest struct {
	NewCardsPerDay   *int     `json:"new_cards_per_day"`
	DesiredRetention *float64 `json:"desired_retention"`
	MaxIntervalDays  *int     `json:"max_interval_days"`
	Timezone         *string  `json:"timezone"`
}

// UpdateSettings handles PATCH /me/settings.
func (h *UserHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s, err := h.svc.UpdateSettings(r.Context(), user.UpdateSettingsInput{
		NewCardsPerDay:   req.NewCardsPerDay,
		DesiredRetention: req.DesiredRetention,
		MaxIntervalDays:  req.MaxIntervalDays,
		Timezone:         req.Timezone,
	})
	if err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
