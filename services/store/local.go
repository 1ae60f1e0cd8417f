package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	"calassist/db"
	"calassist/models"
)

// LocalStore keeps events in the local database instead of an external
// provider. It is always authenticated and needs no sign-in flow, serving
// as the fallback backend when no Google credentials are configured.
type LocalStore struct {
	mu       sync.Mutex
	repo     db.EventRepository
	timezone string
}

func NewLocalStore(repo db.EventRepository, timezone string) (*LocalStore, error) {
	store := &LocalStore{
		repo:     repo,
		timezone: timezone,
	}

	events, err := repo.GetAllEvents()
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	if len(events) == 0 {
		if err := store.seedWelcomeEvent(); err != nil {
			log.Printf("[ERROR] Failed to seed welcome event: %v", err)
		}
	}

	return store, nil
}

func (l *LocalStore) IsAuthenticated() bool { return true }

func (l *LocalStore) SignIn(ctx context.Context) error { return nil }

func (l *LocalStore) SignOut() {}

func (l *LocalStore) Timezone() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.timezone
}

func (l *LocalStore) SetTimezone(id string) error {
	if _, err := time.LoadLocation(id); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", id, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.timezone = id
	return nil
}

func (l *LocalStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	return l.repo.GetAllEvents()
}

func (l *LocalStore) CreateEvent(ctx context.Context, input models.CreateEventInput) (*models.Event, error) {
	event := &models.Event{
		ID:          newEventID(),
		Title:       input.Title,
		Start:       input.Start,
		End:         input.End,
		Description: input.Description,
		Location:    input.Location,
	}

	if err := l.repo.CreateEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

func (l *LocalStore) UpdateEvent(ctx context.Context, id string, patch models.EventPatch) (*models.Event, error) {
	return l.repo.UpdateEvent(id, &patch)
}

func (l *LocalStore) DeleteEvent(ctx context.Context, id string) error {
	return l.repo.DeleteEvent(id)
}

func (l *LocalStore) seedWelcomeEvent() error {
	today := time.Now().Truncate(24 * time.Hour)
	return l.repo.CreateEvent(&models.Event{
		ID:          newEventID(),
		Title:       "Welcome Event",
		Start:       today.Add(10 * time.Hour).Format(time.RFC3339),
		End:         today.Add(11 * time.Hour).Format(time.RFC3339),
		Description: "Welcome to your new calendar!",
	})
}

func newEventID() string {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("evt-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
