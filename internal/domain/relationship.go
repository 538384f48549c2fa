package domain

import (
	"time"

	"github.com/google/uuid"
)

// Relationship links a tutor and a student once both accounts exist. At
// most one non-removed Relationship may exist for a given unordered pair
// of users.
type Relationship struct {
	ID        uuid.UUID
	TutorID   uuid.UUID
	StudentID uuid.UUID
	// RequesterID is whichever of TutorID/StudentID sent the original
	// requestRelationship call. The other participant is the recipient and
	// is the only one who may acceptRelationship.
	RequesterID uuid.UUID
	Status      RelationshipStatus
	CreatedAt   time.Time
	RemovedAt   *time.Time
}

// RoleOf reports the role userID occupies in this relationship, if any.
func (r *Relationship) RoleOf(userID uuid.UUID) (RelationshipRole, bool) {
	switch userID {
	case r.TutorID:
		return RelationshipRoleTutor, true
	case r.StudentID:
		return RelationshipRoleStudent, true
	default:
		return "", false
	}
}

// HasParticipant reports whether userID is either end of the relationship.
func (r *Relationship) HasParticipant(userID uuid.UUID) bool {
	_, ok := r.RoleOf(userID)
	return ok
}

// IsRecipient reports whether userID is a participant other than the one
// who sent the original request.
func (r *Relationship) IsRecipient(userID uuid.UUID) bool {
	return r.HasParticipant(userID) && userID != r.RequesterID
}

// AccessGrant is the capability handle returned by verifyAccess: proof that
// ViewerID is an active participant of Relationship, carrying the role they
// occupy so call sites take the handle instead of re-deriving a role string.
type AccessGrant struct {
	Relationship Relationship
	ViewerID     uuid.UUID
	ViewerRole   RelationshipRole
}

// IsTutor reports whether the viewer holding this grant is the tutor side.
func (g AccessGrant) IsTutor() bool { return g.ViewerRole == RelationshipRoleTutor }

// IsStudent reports whether the viewer holding this grant is the student side.
func (g AccessGrant) IsStudent() bool { return g.ViewerRole == RelationshipRoleStudent }

// OtherParticipant returns the id of the participant who is not the viewer.
func (g AccessGrant) OtherParticipant() uuid.UUID {
	if g.ViewerID == g.Relationship.TutorID {
		return g.Relationship.StudentID
	}
	return g.Relationship.TutorID
}

// PendingInvitation is issued for an email address that has not yet signed
// up. It auto-promotes to an active Relationship the moment an account with
// a matching email is created.
type PendingInvitation struct {
	ID           uuid.UUID
	InviterID    uuid.UUID
	InviterRole  RelationshipRole // role the inviter occupies in the resulting Relationship
	InviteeEmail string
	Status       InvitationStatus
	CreatedAt    time.Time
	ExpiresAt    time.Time
	// ResultRelationshipID is set once Status transitions to ACCEPTED.
	ResultRelationshipID *uuid.UUID
}

// IsExpired reports whether the invitation's expiry has passed.
func (p *PendingInvitation) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// RelationshipCategory labels a row in a user's categorized relationship
// listing (GET /relationships): which side of an active/pending
// Relationship the viewer occupies, or an outstanding invitation they sent.
type RelationshipCategory string

const (
	RelationshipCategoryStudent         RelationshipCategory = "student"          // active, viewer is the tutor
	RelationshipCategoryTutor           RelationshipCategory = "tutor"            // active, viewer is the student
	RelationshipCategoryPendingIncoming RelationshipCategory = "pending_incoming" // pending, viewer did not send the request
	RelationshipCategoryPendingOutgoing RelationshipCategory = "pending_outgoing" // pending, viewer sent the request
	RelationshipCategoryInvitationSent  RelationshipCategory = "invitation_sent"  // outstanding invitation the viewer sent
)

// CategorizedRelationship is one row of a user's relationship graph: either
// a Relationship (pending or active) or an outstanding PendingInvitation
// the viewer sent to an email address that is not yet a user.
type CategorizedRelationship struct {
	Category     RelationshipCategory
	Relationship *Relationship
	Invitation   *PendingInvitation
}
