package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
	"github.com/tandemly/srscore/pkg/ctxutil"
)

// writeError writes the spec §7 error envelope: {error: "<message>"}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleError maps a core operation's error to the spec §7 error kinds and
// writes the corresponding envelope. Unrecognized errors are logged and
// reported as 500s without leaking internal detail to the caller.
func handleError(ctx context.Context, log *slog.Logger, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.ErrorContext(ctx, "internal error", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requireUserID pulls the authenticated user id out of the request context,
// writing a 401 envelope and returning ok=false if the request is
// anonymous. Every authenticated handler below starts with this.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}
