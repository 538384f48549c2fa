package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
	"github.com/tandemly/srscore/internal/relationship"
)

// relationshipService is the Relationship Graph service this handler
// drives.
type relationshipService interface {
	RequestRelationship(ctx context.Context, requesterID uuid.UUID, recipientEmail string, requesterRole domain.RelationshipRole) (*relationship.RequestResult, error)
	AcceptRelationship(ctx context.Context, id, userID uuid.UUID) (*domain.Relationship, error)
	RemoveRelationship(ctx context.Context, id, userID uuid.UUID) error
	CancelInvitation(ctx context.Context, id, userID uuid.UUID) error
	ListRelationships(ctx context.Context, userID uuid.UUID) ([]domain.CategorizedRelationship, error)
}

// RelationshipsHandler serves the Relationship Graph REST endpoints.
type RelationshipsHandler struct {
	svc relationshipService
	log *slog.Logger
}

// NewRelationshipsHandler creates a RelationshipsHandler.
func NewRelationshipsHandler(svc relationshipService, logger *slog.Logger) *RelationshipsHandler {
	return &RelationshipsHandler{svc: svc, log: logger.With("handler", "relationships")}
}

type requestRelationshipRequest struct {
	RecipientEmail string `json:"recipient_email"`
	RequesterRole  string `json:"requester_role"`
}

type requestRelationshipResponse struct {
	Relationship *domain.Relationship     `json:"relationship,omitempty"`
	Invitation   *domain.PendingInvitation `json:"invitation,omitempty"`
}

// Request handles POST /relationships: request a relationship by recipient
// email.
func (h *RelationshipsHandler) Request(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req requestRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.RequestRelationship(r.Context(), userID, req.RecipientEmail, domain.RelationshipRole(req.RequesterRole))
	if err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, requestRelationshipResponse{
		Relationship: result.Relationship,
		Invitation:   result.Invitation,
	})
}

// Accept handles POST /relationships/:id/accept.
func (h *RelationshipsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid relationship id")
		return
	}

	rel, err := h.svc.AcceptRelationship(r.Context(), id, userID)
	if err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, rel)
}

// Remove handles DELETE /relationships/:id.
func (h *RelationshipsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid relationship id")
		return
	}

	if err := h.svc.RemoveRelationship(r.Context(), id, userID); err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// CancelInvitation handles DELETE /invitations/:id.
func (h *RelationshipsHandler) CancelInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invitation id")
		return
	}

	if err := h.svc.CancelInvitation(r.Context(), id, userID); err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// List handles GET /relationships: categorised view.
func (h *RelationshipsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	rows, err := h.svc.ListRelationships(r.Context(), userID)
	if err != nil {
		handleError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"relationships": rows})
}
