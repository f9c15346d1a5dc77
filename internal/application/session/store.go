// Package session persists classified plot batches between requests.  A save
// yields an opaque token; a later restore must declare why it wants the data
// back, so an idle page load never silently repopulates stale results.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/verdantio/plotproof/internal/domain/plot"
	"github.com/verdantio/plotproof/pkg/errors"
)

// Token identifies one saved analysis session.
type Token string

// RestoreIntent declares the consumer's reason for restoring a session.
type RestoreIntent string

const (
	// IntentMapReturn restores results when the user comes back from the
	// map view.
	IntentMapReturn RestoreIntent = "map-return"
	// IntentEditReturn restores results when the user comes back from
	// editing plot associations.
	IntentEditReturn RestoreIntent = "edit-return"
	// IntentExport restores results to feed the CSV export.
	IntentExport RestoreIntent = "export"
)

// ParseIntent validates an intent string from an outer boundary.
func ParseIntent(s string) (RestoreIntent, error) {
	switch in := RestoreIntent(s); in {
	case IntentMapReturn, IntentEditReturn, IntentExport:
		return in, nil
	case "":
		return "", errors.New(errors.ErrCodeBadIntent, "restore intent is required")
	default:
		return "", errors.Newf(errors.ErrCodeBadIntent, "unknown restore intent %q", s)
	}
}

var (
	ErrSessionNotFound = errors.New(errors.ErrCodeSessionNotFound, "session not found")
	ErrEmptyToken      = errors.New(errors.ErrCodeValidation, "session token is required")
)

// Store saves and restores classified plot batches.
//
// Restore of a cleared, expired, or never-saved token returns
// ErrSessionNotFound; so does a corrupt stored payload, after the store has
// cleared it.  Numeric fields round-trip without type drift: a stored 0
// restores as the number 0.
type Store interface {
	Save(ctx context.Context, plots []plot.ClassifiedPlot) (Token, error)
	Restore(ctx context.Context, token Token, intent RestoreIntent) ([]plot.ClassifiedPlot, error)
	Clear(ctx context.Context, token Token) error
}

// envelope is the stored wire form of a session.
type envelope struct {
	Version int                   `json:"version"`
	SavedAt time.Time             `json:"savedAt"`
	Plots   []plot.ClassifiedPlot `json:"plots"`
}

const envelopeVersion = 1

func newToken() Token {
	return Token(uuid.NewString())
}

func checkRestore(token Token, intent RestoreIntent) error {
	if token == "" {
		return ErrEmptyToken
	}
	if _, err := ParseIntent(string(intent)); err != nil {
		return err
	}
	return nil
}
