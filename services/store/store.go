package store

import (
	"context"
	"errors"

	"calassist/models"
)

// ErrNotAuthenticated is returned by stores that require a completed sign-in
// before they can reach the calendar provider.
var ErrNotAuthenticated = errors.New("not authenticated with the calendar provider")

// AuthURLError is returned from SignIn when the user must first visit the
// provider's consent page. The handler surfaces the URL instead of failing.
type AuthURLError struct {
	URL string
}

func (e *AuthURLError) Error() string {
	return "authorization required, visit: " + e.URL
}

// Store is the calendar system of record shared between the assistant and
// the HTTP surface. Implementations are explicitly constructed and injected;
// there is no package-level client state.
type Store interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	CreateEvent(ctx context.Context, input models.CreateEventInput) (*models.Event, error)
	UpdateEvent(ctx context.Context, id string, patch models.EventPatch) (*models.Event, error)
	DeleteEvent(ctx context.Context, id string) error

	IsAuthenticated() bool
	SignIn(ctx context.Context) error
	SignOut()

	Timezone() string
	SetTimezone(id string) error
}
