package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tandemly/srscore/internal/domain"
)

// SeedUser inserts a user row (and default settings) directly via SQL and
// returns the domain.User, for tests that need a valid foreign key without
// exercising the user service.
func SeedUser(t *testing.T, pool *pgxpool.Pool) *domain.User {
	t.Helper()

	u := &domain.User{
		ID:        uuid.New(),
		Email:     uuid.NewString() + "@example.com",
		Name:      "Test User",
		Role:      domain.UserRoleUser,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, email, name, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.Name, string(u.Role), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	settings := domain.DefaultUserSettings(u.ID)
	_, err = pool.Exec(context.Background(),
		`INSERT INTO user_settings (user_id, new_cards_per_day, desired_retention, max_interval_days, timezone, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())`,
		settings.UserID, settings.NewCardsPerDay, settings.DesiredRetention, settings.MaxIntervalDays, settings.Timezone,
	)
	if err != nil {
		t.Fatalf("seed user settings: %v", err)
	}

	return u
}

// SeedDeck inserts a deck owned by userID.
func SeedDeck(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) *domain.Deck {
	t.Helper()

	d := &domain.Deck{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      "Test Deck",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO decks (id, user_id, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		d.ID, d.UserID, d.Name, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed deck: %v", err)
	}

	return d
}

// SeedCard inserts a note and a single card for it, both owned by userID in deckID.
func SeedCard(t *testing.T, pool *pgxpool.Pool, userID, deckID uuid.UUID) *domain.Card {
	t.Helper()

	noteID := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO notes (id, user_id, deck_id, front, back, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now(), now())`,
		noteID, userID, deckID, "front", "back",
	)
	if err != nil {
		t.Fatalf("seed note: %v", err)
	}

	c := &domain.Card{
		ID:        uuid.New(),
		UserID:    userID,
		DeckID:    deckID,
		NoteID:    noteID,
		Ordinal:   0,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	_, err = pool.Exec(context.Background(),
		`INSERT INTO cards (id, user_id, deck_id, note_id, ordinal, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.UserID, c.DeckID, c.NoteID, c.Ordinal, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed card: %v", err)
	}

	return c
}
