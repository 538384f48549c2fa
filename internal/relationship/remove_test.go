package relationship

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

func TestRemoveRelationship_EitherParticipantCanRemove(t *testing.T) {
	rels := newFakeRelationshipRepo()
	svc := newTestService(rels, newFakeInvitationRepo(), newFakeUserRepo())

	tutor, student := uuid.New(), uuid.New()
	rel := seedPendingRelationship(rels, tutor, student, tutor)

	if err := svc.RemoveRelationship(context.Background(), rel.ID, student); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := rels.GetRelationshipByID(context.Background(), rel.ID)
	if err != nil {
		t.Fatalf("unexpected error fetching: %v", err)
	}
	if stored.Status != domain.RelationshipStatusRemoved {
		t.Errorf("expected REMOVED, got %s", stored.Status)
	}
	if stored.RemovedAt == nil {
		t.Error("expected RemovedAt to be set")
	}
}

func TestRemoveRelationship_NonParticipantForbidden(t *testing.T) {
	rels := newFakeRelationshipRepo()
	svc := newTestService(rels, newFakeInvitationRepo(), newFakeUserRepo())

	tutor, student := uuid.New(), uuid.New()
	rel := seedPendingRelationship(rels, tutor, student, tutor)

	err := svc.RemoveRelationship(context.Background(), rel.ID, uuid.New())
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRemoveRelationship_IdempotentOnDoubleRemove(t *testing.T) {
	rels := newFakeRelationshipRepo()
	svc := newTestService(rels, newFakeInvitationRepo(), newFakeUserRepo())

	tutor, student := uuid.New(), uuid.New()
	rel := seedPendingRelationship(rels, tutor, student, tutor)

	if err := svc.RemoveRelationship(context.Background(), rel.ID, student); err != nil {
		t.Fatalf("unexpected error on first remove: %v", err)
	}
	if err := svc.RemoveRelationship(context.Background(), rel.ID, tutor); err != nil {
		t.Fatalf("expected idempotent no-op on second remove, got %v", err)
	}
}
