package relationship

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tandemly/srscore/internal/domain"
)

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type txManagerMock struct{}

func (txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRelationshipRepo struct {
	byID map[uuid.UUID]*domain.Relationship
}

func newFakeRelationshipRepo() *fakeRelationshipRepo {
	return &fakeRelationshipRepo{byID: map[uuid.UUID]*domain.Relationship{}}
}

func (f *fakeRelationshipRepo) CreateRelationship(ctx context.Context, rel *domain.Relationship) (*domain.Relationship, error) {
	cp := *rel
	f.byID[rel.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeRelationshipRepo) GetRelationshipByID(ctx context.Context, id uuid.UUID) (*domain.Relationship, error) {
	rel, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *rel
	return &out, nil
}

func (f *fakeRelationshipRepo) GetNonRemovedBetween(ctx context.Context, userA, userB uuid.UUID) (*domain.Relationship, error) {
	for _, rel := range f.byID {
		if rel.Status == domain.RelationshipStatusRemoved {
			continue
		}
		if (rel.TutorID == userA && rel.StudentID == userB) || (rel.TutorID == userB && rel.StudentID == userA) {
			out := *rel
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRelationshipRepo) UpdateRelationshipStatus(ctx context.Context, id uuid.UUID, status domain.RelationshipStatus, removedAt *time.Time) (*domain.Relationship, error) {
	rel, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rel.Status = status
	rel.RemovedAt = removedAt
	out := *rel
	return &out, nil
}

func (f *fakeRelationshipRepo) ListCategorized(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.CategorizedRelationship, error) {
	var rows []domain.CategorizedRelationship
	for _, rel := range f.byID {
		role, ok := rel.RoleOf(userID)
		if !ok {
			continue
		}
		cp := *rel
		switch {
		case rel.Status == domain.RelationshipStatusActive && role == domain.RelationshipRoleTutor:
			rows = append(rows, domain.CategorizedRelationship{Category: domain.RelationshipCategoryStudent, Relationship: &cp})
		case rel.Status == domain.RelationshipStatusActive && role == domain.RelationshipRoleStudent:
			rows = append(rows, domain.CategorizedRelationship{Category: domain.RelationshipCategoryTutor, Relationship: &cp})
		case rel.Status == domain.RelationshipStatusPending && rel.RequesterID == userID:
			rows = append(rows, domain.CategorizedRelationship{Category: domain.RelationshipCategoryPendingOutgoing, Relationship: &cp})
		case rel.Status == domain.RelationshipStatusPending:
			rows = append(rows, domain.CategorizedRelationship{Category: domain.RelationshipCategoryPendingIncoming, Relationship: &cp})
		}
	}
	return rows, nil
}

type fakeInvitationRepo struct {
	byID map[uuid.UUID]*domain.PendingInvitation
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{byID: map[uuid.UUID]*domain.PendingInvitation{}}
}

func (f *fakeInvitationRepo) CreateInvitation(ctx context.Context, inv *domain.PendingInvitation) (*domain.PendingInvitation, error) {
	cp := *inv
	f.byID[inv.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeInvitationRepo) GetInvitationByID(ctx context.Context, id uuid.UUID) (*domain.PendingInvitation, error) {
	inv, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *inv
	return &out, nil
}

func (f *fakeInvitationRepo) GetPendingInvitation(ctx context.Context, inviterID uuid.UUID, email string, role domain.RelationshipRole) (*domain.PendingInvitation, error) {
	for _, inv := range f.byID {
		if inv.InviterID == inviterID && inv.InviteeEmail == email && inv.InviterRole == role && inv.Status == domain.InvitationStatusPending {
			out := *inv
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInvitationRepo) ListPendingByEmail(ctx context.Context, email string, now time.Time) ([]domain.PendingInvitation, error) {
	var out []domain.PendingInvitation
	for _, inv := range f.byID {
		if inv.InviteeEmail == email && inv.Status == domain.InvitationStatusPending && inv.ExpiresAt.After(now) {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInvitationRepo) UpdateInvitationStatus(ctx context.Context, id uuid.UUID, status domain.InvitationStatus, resultRelationshipID *uuid.UUID) error {
	inv, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	inv.Status = status
	inv.ResultRelationshipID = resultRelationshipID
	return nil
}

type fakeUserRepo struct {
	byEmail map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*domain.User{}}
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) addUser(email string) *domain.User {
	u := &domain.User{ID: uuid.New(), Email: email, Name: "Test User", Role: domain.UserRoleUser}
	f.byEmail[email] = u
	return u
}

func newTestService(rels *fakeRelationshipRepo, invs *fakeInvitationRepo, users *fakeUserRepo) *Service {
	return NewService(newTestLogger(), rels, invs, users, txManagerMock{}, DefaultInvitationTTL)
}
