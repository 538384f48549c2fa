package relationship

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

func seedPendingRelationship(rels *fakeRelationshipRepo, tutorID, studentID, requesterID uuid.UUID) *domain.Relationship {
	rel := &domain.Relationship{
		ID:          uuid.New(),
		TutorID:     tutorID,
		StudentID:   studentID,
		RequesterID: requesterID,
		Status:      domain.RelationshipStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	created, _ := rels.CreateRelationship(context.Background(), rel)
	return created
}

func TestAcceptRelationship_RecipientAccepts(t *testing.T) {
	rels := newFakeRelationshipRepo()
	svc := newTestService(rels, newFakeInvitationRepo(), newFakeUserRepo())

	tutor, student := uuid.New(), uuid.New()
	rel := seedPendingRelationship(rels, tutor, student, tutor)

	updated, err := svc.AcceptRelationship(context.Background(), rel.ID, student)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.RelationshipStatusActive {
		t.Errorf("expected ACTIVE, got %s", updated.Status)
	}
}

func TestAcceptRelationship_RequesterForbidden(t *testing.T) {
	rels := newFakeRelationshipRepo()
	svc := newTestService(rels, newFakeInvitationRepo(), newFakeUserRepo())

	tutor, student := uuid.New(), uuid.New()
	rel := seedPendingRelationship(rels, tutor, student, tutor)

	_, err := svc.AcceptRelationship(context.Background(), rel.ID, tutor)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAcceptRelationship_NonParticipantForbidden(t *testing.T) {
	rels := newFakeRelationshipRepo()
	svc := newTestService(rels, newFakeInvitationRepo(), newFakeUserRepo())

	tutor, student := uuid.New(), uuid.New()
	rel := seedPendingRelationship(rels, tutor, student, tutor)

	_, err := svc.AcceptRelationship(context.Background(), rel.ID, uuid.New())
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAcceptRelationship_NotPending_Conflict(t *testing.T) {
	rels := newFakeRelationshipRepo()
	svc := newTestService(rels, newFakeInvitationRepo(), newFakeUserRepo())

	tutor, student := uuid.New(), uuid.New()
	rel := seedPendingRelationship(rels, tutor, student, tutor)
	if _, err := svc.AcceptRelationship(context.Background(), rel.ID, student); err != nil {
		t.Fatalf("unexpected error accepting: %v", err)
	}

	_, err := svc.AcceptRelationship(context.Background(), rel.ID, student)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on re-accept, got %v", err)
	}
}
