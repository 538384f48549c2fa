package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Deck groups Notes into a study collection owned by a single user.
type Deck struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Note holds the content a Card quizzes on. A Note belongs to exactly one
// Deck and can back more than one Card (e.g. a vocabulary pair tested in
// both directions).
type Note struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	DeckID    uuid.UUID
	Front     string
	Back      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate normalizes and checks a Note's text fields.
func (n *Note) Validate() error {
	var errs []FieldError

	n.Front = strings.TrimSpace(n.Front)
	n.Back = strings.TrimSpace(n.Back)

	if n.Front == "" {
		errs = append(errs, FieldError{Field: "front", Message: "required"})
	}
	if n.Back == "" {
		errs = append(errs, FieldError{Field: "back", Message: "required"})
	}

	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}
