package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tandemly/srscore/internal/identity"
)

// identityService is the sign-up/sign-in seam this handler fronts. It is
// the glue between an external identity provider (out of scope per spec
// §1) and the core: by the time this handler is reached, an upstream
// OAuth callback or dev-mode shim has already verified the caller's email.
type identityService interface {
	SignIn(ctx context.Context, email, name string) (*identity.Result, error)
}

// IdentityHandler serves the sign-up/sign-in REST endpoint.
type IdentityHandler struct {
	svc identityService
	log *slog.Logger
}

// NewIdentityHandler creates an IdentityHandler.
func NewIdentityHandler(svc identityService, logger *slog.Logger) *IdentityHandler {
	return &IdentityHandler{svc: svc, log: logger.With("handler", "identity")}
}

type signInRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type signInResponse struct {
	UserID    string    `json:"user_id"`
	NewUser   bool      `json:"new_user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignIn handles POST /auth/sign-in: the sign-up/sign-in seam an already-
// verified identity provider callback hands off to.
func (h *IdentityHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.SignIn(r.Context(), req.Email, req.Name)
	if err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}

	status := http.StatusOK
	if result.NewUser {
		status = http.StatusCreated
	}

	writeJSON(w, status, signInResponse{
		UserID:    result.User.ID.String(),
		NewUser:   result.NewUser,
		Token:     result.RawToken,
		ExpiresAt: result.ExpiresAt,
	})
}
