// Package relationship implements the tutor/student Relationship graph:
// requesting, accepting, and removing relationships; deferred invitations
// for recipients who aren't users yet; sign-up-time promotion of those
// invitations; and the access check every cross-user feature (shared
// decks, progress views, tutor-review requests) sits behind.
//
// Grounded on the teacher's per-service layout (constructor takes a
// logger plus narrow repo interfaces plus a txManager, one file per
// operation) applied fresh, since the teacher's own domain/organization.go
// covers an unrelated concern (topics/inbox/audit).
package relationship

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

// DefaultInvitationTTL is how long a PendingInvitation stays open if the
// caller doesn't override it, matching spec's "≥ 30 days after creation".
const DefaultInvitationTTL = 30 * 24 * time.Hour

// AITutorUserID is the reserved, well-known id of the synthetic AI tutor
// every new user is automatically connected to as a student.
var AITutorUserID = uuid.MustParse("00000000-0000-0000-0000-00000000a1a1")

// relationshipRepo defines the Relationship persistence needed by this service.
type relationshipRepo interface {
	CreateRelationship(ctx context.Context, rel *domain.Relationship) (*domain.Relationship, error)
	GetRelationshipByID(ctx context.Context, id uuid.UUID) (*domain.Relationship, error)
	GetNonRemovedBetween(ctx context.Context, userA, userB uuid.UUID) (*domain.Relationship, error)
	UpdateRelationshipStatus(ctx context.Context, id uuid.UUID, status domain.RelationshipStatus, removedAt *time.Time) (*domain.Relationship, error)
	ListCategorized(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.CategorizedRelationship, error)
}

// invitationRepo defines the PendingInvitation persistence needed by this service.
type invitationRepo interface {
	CreateInvitation(ctx context.Context, inv *domain.PendingInvitation) (*domain.PendingInvitation, error)
	GetInvitationByID(ctx context.Context, id uuid.UUID) (*domain.PendingInvitation, error)
	GetPendingInvitation(ctx context.Context, inviterID uuid.UUID, email string, role domain.RelationshipRole) (*domain.PendingInvitation, error)
	ListPendingByEmail(ctx context.Context, email string, now time.Time) ([]domain.PendingInvitation, error)
	UpdateInvitationStatus(ctx context.Context, id uuid.UUID, status domain.InvitationStatus, resultRelationshipID *uuid.UUID) error
}

// userRepo is the minimal user lookup requestRelationship needs to decide
// whether an email resolves to an existing account.
type userRepo interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// txManager defines the transaction manager interface needed by this service.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RequestResult is the outcome of RequestRelationship: exactly one of
// Relationship or Invitation is set, depending on whether the recipient
// email resolved to an existing user.
type RequestResult struct {
	Relationship *domain.Relationship
	Invitation   *domain.PendingInvitation
}

// Service implements the Relationship Graph operations.
type Service struct {
	log           *slog.Logger
	relationships relationshipRepo
	invitations   invitationRepo
	users         userRepo
	tx            txManager
	invitationTTL time.Duration
}

// NewService creates a new relationship service instance. Pass
// DefaultInvitationTTL for invitationTTL unless config overrides it.
func NewService(logger *slog.Logger, relationships relationshipRepo, invitations invitationRepo, users userRepo, tx txManager, invitationTTL time.Duration) *Service {
	return &Service{
		log:           logger.With("service", "relationship"),
		relationships: relationships,
		invitations:   invitations,
		users:         users,
		tx:            tx,
		invitationTTL: invitationTTL,
	}
}
