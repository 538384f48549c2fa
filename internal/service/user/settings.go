package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tandemly/srscore/internal/domain"
	"github.com/tandemly/srscore/pkg/ctxutil"
)

// GetSettings returns the authenticated user's settings.
// Returns ErrUnauthorized if no userID is found in context.
func (s *Service) GetSettings(ctx context.Context) (*domain.UserSettings, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	settings, err := s.settings.GetSettings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user.GetSettings: %w", err)
	}

	return settings, nil
}

// UpdateSettings updates the authenticated user's settings with partial updates.
// Returns ErrUnauthorized if no userID is found in context.
func (s *Service) UpdateSettings(ctx context.Context, input UpdateSettingsInput) (*domain.UserSettings, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	var updatedSettings *domain.UserSettings

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.settings.GetSettings(txCtx, userID)
		if err != nil {
			return fmt.Errorf("get current settings: %w", err)
		}

		newSettings := applySettingsChanges(*current, input)

		updated, err := s.settings.UpdateSettings(txCtx, userID, newSettings)
		if err != nil {
			return fmt.Errorf("update settings: %w", err)
		}
		updatedSettings = updated

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("user.UpdateSettings: %w", err)
	}

	s.log.InfoContext(ctx, "settings updated",
		slog.String("user_id", userID.String()))

	return updatedSettings, nil
}

// applySettingsChanges merges the input changes into current settings.
func applySettingsChanges(current domain.UserSettings, input UpdateSettingsInput) domain.UserSettings {
	result := current

	if input.NewCardsPerDay != nil {
		result.NewCardsPerDay = *input.NewCardsPerDay
	}
	if input.DesiredRetention != nil {
		result.DesiredRetention = *input.DesiredRetention
	}
	if input.MaxIntervalDays != nil {
		result.MaxIntervalDays = *input.MaxIntervalDays
	}
	if input.Timezone != nil {
		result.Timezone = *input.Timezone
	}

	return result
}
