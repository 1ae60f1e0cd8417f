package store

import (
	"context"
	"fmt"
	"testing"

	"calassist/models"
)

type fakeEventRepo struct {
	events []models.Event
}

func (f *fakeEventRepo) CreateEvent(event *models.Event) error {
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeEventRepo) GetEventByID(id string) (*models.Event, error) {
	for i := range f.events {
		if f.events[i].ID == id {
			return &f.events[i], nil
		}
	}
	return nil, fmt.Errorf("event with id %s not found", id)
}

func (f *fakeEventRepo) GetAllEvents() ([]models.Event, error) {
	events := make([]models.Event, len(f.events))
	copy(events, f.events)
	return events, nil
}

func (f *fakeEventRepo) UpdateEvent(id string, patch *models.EventPatch) (*models.Event, error) {
	for i := range f.events {
		if f.events[i].ID != id {
			continue
		}
		if patch.Title != nil {
			f.events[i].Title = *patch.Title
		}
		if patch.Start != nil {
			f.events[i].Start = *patch.Start
		}
		if patch.End != nil {
			f.events[i].End = *patch.End
		}
		return &f.events[i], nil
	}
	return nil, fmt.Errorf("event with id %s not found", id)
}

func (f *fakeEventRepo) DeleteEvent(id string) error {
	for i := range f.events {
		if f.events[i].ID == id {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeEventRepo) Close() error { return nil }

func TestLocalStoreSeedsWelcomeEvent(t *testing.T) {
	repo := &fakeEventRepo{}
	store, err := NewLocalStore(repo, "UTC")
	if err != nil {
		t.Fatalf("NewLocalStore returned error: %v", err)
	}

	events, err := store.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Welcome Event" {
		t.Errorf("expected a seeded welcome event, got %+v", events)
	}
}

func TestLocalStoreDoesNotReseed(t *testing.T) {
	repo := &fakeEventRepo{events: []models.Event{{ID: "1", Title: "Existing"}}}
	store, err := NewLocalStore(repo, "UTC")
	if err != nil {
		t.Fatalf("NewLocalStore returned error: %v", err)
	}

	events, _ := store.ListEvents(context.Background())
	if len(events) != 1 || events[0].Title != "Existing" {
		t.Errorf("store must not seed over existing events, got %+v", events)
	}
}

func TestLocalStoreCreateAssignsID(t *testing.T) {
	store, err := NewLocalStore(&fakeEventRepo{events: []models.Event{{ID: "1"}}}, "UTC")
	if err != nil {
		t.Fatalf("NewLocalStore returned error: %v", err)
	}

	event, err := store.CreateEvent(context.Background(), models.CreateEventInput{
		Title: "Lunch",
		Start: "2026-09-02T12:00:00Z",
		End:   "2026-09-02T13:00:00Z",
	})
	if err != nil {
		t.Fatalf("CreateEvent returned error: %v", err)
	}
	if event.ID == "" {
		t.Error("created events must carry a generated ID")
	}
	if event.Title != "Lunch" {
		t.Errorf("unexpected title %q", event.Title)
	}
}

func TestLocalStoreIsAlwaysAuthenticated(t *testing.T) {
	store, err := NewLocalStore(&fakeEventRepo{events: []models.Event{{ID: "1"}}}, "UTC")
	if err != nil {
		t.Fatalf("NewLocalStore returned error: %v", err)
	}

	if !store.IsAuthenticated() {
		t.Error("the local store needs no sign-in")
	}
	if err := store.SignIn(context.Background()); err != nil {
		t.Errorf("SignIn should be a no-op, got %v", err)
	}
}

func TestLocalStoreSetTimezone(t *testing.T) {
	store, err := NewLocalStore(&fakeEventRepo{events: []models.Event{{ID: "1"}}}, "UTC")
	if err != nil {
		t.Fatalf("NewLocalStore returned error: %v", err)
	}

	if err := store.SetTimezone("Asia/Tokyo"); err != nil {
		t.Fatalf("SetTimezone returned error: %v", err)
	}
	if store.Timezone() != "Asia/Tokyo" {
		t.Errorf("timezone not updated, got %q", store.Timezone())
	}

	if err := store.SetTimezone("Not/AZone"); err == nil {
		t.Error("expected an error for an invalid zone")
	}
	if store.Timezone() != "Asia/Tokyo" {
		t.Errorf("timezone must be unchanged after a failed update, got %q", store.Timezone())
	}
}
