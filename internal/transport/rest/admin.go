package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
	"github.com/tandemly/srscore/internal/scheduler"
	"github.com/tandemly/srscore/pkg/ctxutil"
)

// cardRebuilder is the forced re-projection operation the admin endpoint
// drives, bypassing the cache's own freshness check.
type cardRebuilder interface {
	Rebuild(ctx context.Context, params scheduler.Parameters, userID, cardID uuid.UUID) (*domain.ComputedCardState, error)
}

// adminSettings supplies the owning user's scheduler parameters the
// rebuild folds against — an admin reprojects a card as its owner's
// settings would compute it, not with some separate admin configuration.
type adminSettings interface {
	GetSettings(ctx context.Context, userID uuid.UUID) (*domain.UserSettings, error)
}

// adminCards resolves the card's owner, since the reproject route is
// keyed by card id alone.
type adminCards interface {
	GetByID(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error)
}

// AdminHandler serves the admin-gated REST endpoints supplementing the
// spec's core (spec §6: "Administrative operations ... are HTTP endpoints
// gated by an is_admin flag on the User").
type AdminHandler struct {
	projector cardRebuilder
	settings  adminSettings
	cards     adminCards
	log       *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(projector cardRebuilder, settings adminSettings, cards adminCards, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{projector: projector, settings: settings, cards: cards, log: logger.With("handler", "admin")}
}

// Reproject handles POST /admin/cards/{id}/reproject: forces a full
// re-fold of a card's event history, overwriting its cached projection
// regardless of whether the cache looks fresh. Used after an algorithm
// version bump or a suspected cache/event-log drift.
func (h *AdminHandler) Reproject(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "admin access required")
		return
	}

	cardID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid card id")
		return
	}

	ownerID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	if _, err := h.cards.GetByID(r.Context(), ownerID, cardID); err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}

	settings, err := h.settings.GetSettings(r.Context(), ownerID)
	if err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}

	state, err := h.projector.Rebuild(r.Context(), parametersFromSettings(settings), ownerID, cardID)
	if err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}

	h.log.InfoContext(r.Context(), "card reprojected", slog.String("card_id", cardID.String()))
	writeJSON(w, http.StatusOK, state)
}

func isAdmin(ctx context.Context) bool {
	return ctxutil.UserRoleFromCtx(ctx) == domain.UserRoleAdmin.String()
}
