package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tandemly/srscore/internal/adapter/postgres/testhelper"
	"github.com/tandemly/srscore/internal/adapter/postgres/user"
	"github.com/tandemly/srscore/internal/domain"
)

// newRepo is a test helper that sets up the DB and returns a ready Repo.
func newRepo(t *testing.T) (*user.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return user.New(pool), pool
}

// ---------------------------------------------------------------------------
// User CRUD
// ---------------------------------------------------------------------------

func TestRepo_Create_HappyPath(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	u := &domain.User{
		ID:        uuid.New(),
		Email:     "create-happy-" + uuid.New().String()[:8] + "@example.com",
		Name:      "Happy User",
		Role:      domain.UserRoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	got, err := repo.Create(ctx, u)
	if err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}

	if got.ID != u.ID {
		t.Errorf("ID mismatch: got %s, want %s", got.ID, u.ID)
	}
	if got.Email != u.Email {
		t.Errorf("Email mismatch: got %s, want %s", got.Email, u.Email)
	}
	if got.Name != u.Name {
		t.Errorf("Name mismatch: got %q, want %q", got.Name, u.Name)
	}
	if got.Role != u.Role {
		t.Errorf("Role mismatch: got %s, want %s", got.Role, u.Role)
	}
}

func TestRepo_Create_DuplicateEmail(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	email := "dup-email-" + uuid.New().String()[:8] + "@example.com"
	now := time.Now().UTC().Truncate(time.Microsecond)

	u1 := &domain.User{
		ID:        uuid.New(),
		Email:     email,
		Name:      "User 1",
		Role:      domain.UserRoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := repo.Create(ctx, u1); err != nil {
		t.Fatalf("Create first user: %v", err)
	}

	u2 := &domain.User{
		ID:        uuid.New(),
		Email:     email, // same email
		Name:      "User 2",
		Role:      domain.UserRoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := repo.Create(ctx, u2)
	assertIsDomainError(t, err, domain.ErrAlreadyExists)
}

func TestRepo_GetByID_HappyPath(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	seeded := testhelper.SeedUser(t, pool)

	got, err := repo.GetByID(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("GetByID: unexpected error: %v", err)
	}

	if got.ID != seeded.ID {
		t.Errorf("ID mismatch: got %s, want %s", got.ID, seeded.ID)
	}
	if got.Email != seeded.Email {
		t.Errorf("Email mismatch: got %s, want %s", got.Email, seeded.Email)
	}
}

func TestRepo_GetByID_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, uuid.New())
	assertIsDomainError(t, err, domain.ErrNotFound)
}

func TestRepo_GetByEmail_HappyPath(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	seeded := testhelper.SeedUser(t, pool)

	got, err := repo.GetByEmail(ctx, seeded.Email)
	if err != nil {
		t.Fatalf("GetByEmail: unexpected error: %v", err)
	}

	if got.ID != seeded.ID {
		t.Errorf("ID mismatch: got %s, want %s", got.ID, seeded.ID)
	}
}

func TestRepo_GetByEmail_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	_, err := repo.GetByEmail(ctx, "nonexistent-"+uuid.New().String()[:8]+"@example.com")
	assertIsDomainError(t, err, domain.ErrNotFound)
}

func TestRepo_Update_HappyPath(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	seeded := testhelper.SeedUser(t, pool)

	newName := "Updated Name"

	got, err := repo.Update(ctx, seeded.ID, newName)
	if err != nil {
		t.Fatalf("Update: unexpected error: %v", err)
	}

	if got.Name != newName {
		t.Errorf("Name mismatch: got %q, want %q", got.Name, newName)
	}
	if !got.UpdatedAt.After(seeded.UpdatedAt) {
		t.Errorf("UpdatedAt should be newer: got %v, seeded %v", got.UpdatedAt, seeded.UpdatedAt)
	}
}

func TestRepo_Update_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	_, err := repo.Update(ctx, uuid.New(), "name")
	assertIsDomainError(t, err, domain.ErrNotFound)
}

// ---------------------------------------------------------------------------
// UserSettings CRUD
// ---------------------------------------------------------------------------

func TestRepo_CreateSettings_HappyPath(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	// Create a user first (without using SeedUser to avoid auto settings creation).
	now := time.Now().UTC().Truncate(time.Microsecond)
	u := &domain.User{
		ID:        uuid.New(),
		Email:     "settings-create-" + uuid.New().String()[:8] + "@example.com",
		Name:      "Settings User",
		Role:      domain.UserRoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create user: %v", err)
	}

	s := &domain.UserSettings{
		UserID:           u.ID,
		NewCardsPerDay:   30,
		DesiredRetention: 0.92,
		MaxIntervalDays:  180,
		Timezone:         "Europe/Moscow",
	}

	if err := repo.CreateSettings(ctx, s); err != nil {
		t.Fatalf("CreateSettings: unexpected error: %v", err)
	}

	got, err := repo.GetSettings(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetSettings: unexpected error: %v", err)
	}

	if got.NewCardsPerDay != s.NewCardsPerDay {
		t.Errorf("NewCardsPerDay mismatch: got %d, want %d", got.NewCardsPerDay, s.NewCardsPerDay)
	}
	if got.DesiredRetention != s.DesiredRetention {
		t.Errorf("DesiredRetention mismatch: got %f, want %f", got.DesiredRetention, s.DesiredRetention)
	}
	if got.MaxIntervalDays != s.MaxIntervalDays {
		t.Errorf("MaxIntervalDays mismatch: got %d, want %d", got.MaxIntervalDays, s.MaxIntervalDays)
	}
	if got.Timezone != s.Timezone {
		t.Errorf("Timezone mismatch: got %s, want %s", got.Timezone, s.Timezone)
	}
}

func TestRepo_CreateSettings_DuplicateUserID(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	// SeedUser already creates settings, so creating again should conflict.
	seeded := testhelper.SeedUser(t, pool)

	s := domain.DefaultUserSettings(seeded.ID)
	err := repo.CreateSettings(ctx, &s)
	assertIsDomainError(t, err, domain.ErrAlreadyExists)
}

func TestRepo_GetSettings_HappyPath(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	seeded := testhelper.SeedUser(t, pool)

	got, err := repo.GetSettings(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("GetSettings: unexpected error: %v", err)
	}

	defaults := domain.DefaultUserSettings(seeded.ID)
	if got.NewCardsPerDay != defaults.NewCardsPerDay {
		t.Errorf("NewCardsPerDay mismatch: got %d, want %d", got.NewCardsPerDay, defaults.NewCardsPerDay)
	}
	if got.DesiredRetention != defaults.DesiredRetention {
		t.Errorf("DesiredRetention mismatch: got %f, want %f", got.DesiredRetention, defaults.DesiredRetention)
	}
}

func TestRepo_GetSettings_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	_, err := repo.GetSettings(ctx, uuid.New())
	assertIsDomainError(t, err, domain.ErrNotFound)
}

func TestRepo_UpdateSettings_HappyPath(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	seeded := testhelper.SeedUser(t, pool)

	updated := domain.UserSettings{
		NewCardsPerDay:   50,
		DesiredRetention: 0.95,
		MaxIntervalDays:  730,
		Timezone:         "America/New_York",
	}

	got, err := repo.UpdateSettings(ctx, seeded.ID, updated)
	if err != nil {
		t.Fatalf("UpdateSettings: unexpected error: %v", err)
	}

	if got.NewCardsPerDay != updated.NewCardsPerDay {
		t.Errorf("NewCardsPerDay mismatch: got %d, want %d", got.NewCardsPerDay, updated.NewCardsPerDay)
	}
	if got.DesiredRetention != updated.DesiredRetention {
		t.Errorf("DesiredRetention mismatch: got %f, want %f", got.DesiredRetention, updated.DesiredRetention)
	}
	if got.MaxIntervalDays != updated.MaxIntervalDays {
		t.Errorf("MaxIntervalDays mismatch: got %d, want %d", got.MaxIntervalDays, updated.MaxIntervalDays)
	}
	if got.Timezone != updated.Timezone {
		t.Errorf("Timezone mismatch: got %s, want %s", got.Timezone, updated.Timezone)
	}
}

func TestRepo_UpdateSettings_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	_, err := repo.UpdateSettings(ctx, uuid.New(), domain.DefaultUserSettings(uuid.New()))
	assertIsDomainError(t, err, domain.ErrNotFound)
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func assertIsDomainError(t *testing.T, err error, target error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error wrapping %v, got nil", target)
	}
	if !errors.Is(err, target) {
		t.Fatalf("expected error wrapping %v, got: %v", target, err)
	}
}
