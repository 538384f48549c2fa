package relationship

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

func TestRequestRelationship_ExistingUser_CreatesPending(t *testing.T) {
	rels := newFakeRelationshipRepo()
	invs := newFakeInvitationRepo()
	users := newFakeUserRepo()
	bob := users.addUser("bob@example.com")
	svc := newTestService(rels, invs, users)

	alice := uuid.New()
	result, err := svc.RequestRelationship(context.Background(), alice, bob.Email, domain.RelationshipRoleTutor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Relationship == nil {
		t.Fatal("expected a Relationship result, got none")
	}
	if result.Relationship.Status != domain.RelationshipStatusPending {
		t.Errorf("expected PENDING, got %s", result.Relationship.Status)
	}
	if result.Relationship.TutorID != alice || result.Relationship.StudentID != bob.ID {
		t.Errorf("expected alice as tutor, bob as student, got tutor=%s student=%s", result.Relationship.TutorID, result.Relationship.StudentID)
	}
	if result.Relationship.RequesterID != alice {
		t.Errorf("expected requester alice, got %s", result.Relationship.RequesterID)
	}
}

func TestRequestRelationship_SelfInvite_Rejected(t *testing.T) {
	rels := newFakeRelationshipRepo()
	invs := newFakeInvitationRepo()
	users := newFakeUserRepo()
	alice := users.addUser("alice@example.com")
	svc := newTestService(rels, invs, users)

	_, err := svc.RequestRelationship(context.Background(), alice.ID, alice.Email, domain.RelationshipRoleTutor)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRequestRelationship_AlreadyRelated_Rejected(t *testing.T) {
	rels := newFakeRelationshipRepo()
	invs := newFakeInvitationRepo()
	users := newFakeUserRepo()
	bob := users.addUser("bob@example.com")
	svc := newTestService(rels, invs, users)
	alice := uuid.New()

	if _, err := svc.RequestRelationship(context.Background(), alice, bob.Email, domain.RelationshipRoleTutor); err != nil {
		t.Fatalf("unexpected error on first request: %v", err)
	}

	_, err := svc.RequestRelationship(context.Background(), alice, bob.Email, domain.RelationshipRoleTutor)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on second request, got %v", err)
	}
}

func TestRequestRelationship_UnknownEmail_CreatesInvitation(t *testing.T) {
	rels := newFakeRelationshipRepo()
	invs := newFakeInvitationRepo()
	users := newFakeUserRepo()
	svc := newTestService(rels, invs, users)
	alice := uuid.New()

	result, err := svc.RequestRelationship(context.Background(), alice, "dave@example.com", domain.RelationshipRoleStudent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Invitation == nil {
		t.Fatal("expected an Invitation result, got none")
	}
	if result.Invitation.Status != domain.InvitationStatusPending {
		t.Errorf("expected PENDING, got %s", result.Invitation.Status)
	}
	if result.Invitation.InviteeEmail != "dave@example.com" {
		t.Errorf("unexpected invitee email %q", result.Invitation.InviteeEmail)
	}
}

func TestRequestRelationship_UnknownEmail_Idempotent(t *testing.T) {
	rels := newFakeRelationshipRepo()
	invs := newFakeInvitationRepo()
	users := newFakeUserRepo()
	svc := newTestService(rels, invs, users)
	alice := uuid.New()

	first, err := svc.RequestRelationship(context.Background(), alice, "dave@example.com", domain.RelationshipRoleStudent)
	if err != nil {
		t.Fatalf("unexpected error on first call: %v", err)
	}
	second, err := svc.RequestRelationship(context.Background(), alice, "dave@example.com", domain.RelationshipRoleStudent)
	if err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}
	if first.Invitation.ID != second.Invitation.ID {
		t.Errorf("expected the same invitation to be returned, got %s and %s", first.Invitation.ID, second.Invitation.ID)
	}
	if len(invs.byID) != 1 {
		t.Errorf("expected exactly one invitation to be stored, got %d", len(invs.byID))
	}
}

func TestRequestRelationship_EmailOfRegisteredUser_CreatesRelationshipNotInvitation(t *testing.T) {
	rels := newFakeRelationshipRepo()
	invs := newFakeInvitationRepo()
	users := newFakeUserRepo()
	svc := newTestService(rels, invs, users)
	alice := uuid.New()

	// dave is registered before the call, so the initial lookup resolves
	// him and the request takes the existing-user path. A sign-up landing
	// between that lookup and the invitation path's recheck is not
	// simulated by this fake.
	dave := users.addUser("dave@example.com")

	result, err := svc.RequestRelationship(context.Background(), alice, dave.Email, domain.RelationshipRoleStudent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Relationship == nil {
		t.Fatal("expected a Relationship result since the email resolves to an existing user")
	}
	if result.Invitation != nil {
		t.Error("expected no Invitation to be created once the user resolved")
	}
}

func TestRequestRelationship_InvalidRole_Rejected(t *testing.T) {
	rels := newFakeRelationshipRepo()
	invs := newFakeInvitationRepo()
	users := newFakeUserRepo()
	svc := newTestService(rels, invs, users)

	_, err := svc.RequestRelationship(context.Background(), uuid.New(), "x@example.com", domain.RelationshipRole("BOGUS"))
	if err == nil {
		t.Fatal("expected an error for an invalid role")
	}
}
