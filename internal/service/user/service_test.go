package user

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tandemly/srscore/internal/domain"
	"github.com/tandemly/srscore/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type userRepoMock struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateFunc  func(ctx context.Context, id uuid.UUID, name string) (*domain.User, error)
}

func (m *userRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.GetByIDFunc(ctx, id)
}
func (m *userRepoMock) Update(ctx context.Context, id uuid.UUID, name string) (*domain.User, error) {
	return m.UpdateFunc(ctx, id, name)
}

type settingsRepoMock struct {
	GetSettingsFunc    func(ctx context.Context, userID uuid.UUID) (*domain.UserSettings, error)
	UpdateSettingsFunc func(ctx context.Context, userID uuid.UUID, s domain.UserSettings) (*domain.UserSettings, error)
}

func (m *settingsRepoMock) GetSettings(ctx context.Context, userID uuid.UUID) (*domain.UserSettings, error) {
	return m.GetSettingsFunc(ctx, userID)
}
func (m *settingsRepoMock) UpdateSettings(ctx context.Context, userID uuid.UUID, s domain.UserSettings) (*domain.UserSettings, error) {
	return m.UpdateSettingsFunc(ctx, userID, s)
}

type txManagerMock struct{}

func (txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(users userRepo, settings settingsRepo) *Service {
	logger := slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewService(logger, users, settings, txManagerMock{})
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// ---------------------------------------------------------------------------
// GetProfile / UpdateProfile
// ---------------------------------------------------------------------------

func TestService_GetProfile_Success(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	ctx := ctxutil.WithUserID(context.Background(), userID)

	expected := &domain.User{
		ID:        userID,
		Email:     "test@example.com",
		Name:      "Test User",
		Role:      domain.UserRoleUser,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	users := &userRepoMock{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
			assert.Equal(t, userID, id)
			return expected, nil
		},
	}

	svc := newTestService(users, &settingsRepoMock{})
	got, err := svc.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestService_GetProfile_Unauthorized(t *testing.T) {
	t.Parallel()

	svc := newTestService(&userRepoMock{}, &settingsRepoMock{})
	_, err := svc.GetProfile(context.Background())
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestService_UpdateProfile_Success(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	ctx := ctxutil.WithUserID(context.Background(), userID)

	users := &userRepoMock{
		UpdateFunc: func(ctx context.Context, id uuid.UUID, name string) (*domain.User, error) {
			assert.Equal(t, userID, id)
			assert.Equal(t, "New Name", name)
			return &domain.User{ID: id, Name: name}, nil
		},
	}

	svc := newTestService(users, &settingsRepoMock{})
	got, err := svc.UpdateProfile(ctx, UpdateProfileInput{Name: "New Name"})
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.Name)
}

func TestService_UpdateProfile_InvalidInput(t *testing.T) {
	t.Parallel()

	svc := newTestService(&userRepoMock{}, &settingsRepoMock{})
	_, err := svc.UpdateProfile(ctxutil.WithUserID(context.Background(), uuid.New()), UpdateProfileInput{Name: ""})
	require.ErrorIs(t, err, domain.ErrValidation)
}

// ---------------------------------------------------------------------------
// GetSettings / UpdateSettings
// ---------------------------------------------------------------------------

func TestService_GetSettings_Success(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	ctx := ctxutil.WithUserID(context.Background(), userID)
	expected := domain.DefaultUserSettings(userID)

	settings := &settingsRepoMock{
		GetSettingsFunc: func(ctx context.Context, id uuid.UUID) (*domain.UserSettings, error) {
			assert.Equal(t, userID, id)
			return &expected, nil
		},
	}

	svc := newTestService(&userRepoMock{}, settings)
	got, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, expected, *got)
}

func TestService_UpdateSettings_AppliesPartialChanges(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	ctx := ctxutil.WithUserID(context.Background(), userID)
	current := domain.DefaultUserSettings(userID)

	var captured domain.UserSettings
	settings := &settingsRepoMock{
		GetSettingsFunc: func(ctx context.Context, id uuid.UUID) (*domain.UserSettings, error) {
			return &current, nil
		},
		UpdateSettingsFunc: func(ctx context.Context, id uuid.UUID, s domain.UserSettings) (*domain.UserSettings, error) {
			captured = s
			return &s, nil
		},
	}

	svc := newTestService(&userRepoMock{}, settings)
	got, err := svc.UpdateSettings(ctx, UpdateSettingsInput{NewCardsPerDay: ptr(50)})
	require.NoError(t, err)
	assert.Equal(t, 50, got.NewCardsPerDay)
	assert.Equal(t, current.Timezone, captured.Timezone, "untouched fields are preserved")
}

func TestService_UpdateSettings_PropagatesRepoError(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	ctx := ctxutil.WithUserID(context.Background(), userID)

	settings := &settingsRepoMock{
		GetSettingsFunc: func(ctx context.Context, id uuid.UUID) (*domain.UserSettings, error) {
			return nil, errors.New("db down")
		},
	}

	svc := newTestService(&userRepoMock{}, settings)
	_, err := svc.UpdateSettings(ctx, UpdateSettingsInput{NewCardsPerDay: ptr(10)})
	require.Error(t, err)
}
