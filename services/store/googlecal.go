package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"calassist/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleStore backs the calendar with the user's primary Google Calendar.
// It starts unauthenticated; SignIn resolves readiness once a cached OAuth
// token exists, and CompleteSignIn finishes a fresh consent flow.
type GoogleStore struct {
	mu        sync.Mutex
	oauthCfg  *oauth2.Config
	tokenFile string
	svc       *calendar.Service
	timezone  string
}

func NewGoogleStore(credentialsFile, tokenFile, timezone string) (*GoogleStore, error) {
	credentials, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read Google credentials: %w", err)
	}

	oauthCfg, err := google.ConfigFromJSON(credentials, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Google credentials: %w", err)
	}

	return &GoogleStore{
		oauthCfg:  oauthCfg,
		tokenFile: tokenFile,
		timezone:  timezone,
	}, nil
}

func (g *GoogleStore) IsAuthenticated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.svc != nil
}

// SignIn builds the calendar service from a cached token. Without one it
// returns an AuthURLError carrying the consent URL the user must visit.
func (g *GoogleStore) SignIn(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.svc != nil {
		return nil
	}

	token, err := g.loadToken()
	if err != nil {
		url := g.oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
		return &AuthURLError{URL: url}
	}

	return g.buildService(ctx, token)
}

// CompleteSignIn exchanges an authorization code from the consent flow,
// caches the token, and builds the calendar service.
func (g *GoogleStore) CompleteSignIn(ctx context.Context, authCode string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	token, err := g.oauthCfg.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if err := g.saveToken(token); err != nil {
		log.Printf("[ERROR] Failed to cache OAuth token: %v", err)
	}

	return g.buildService(ctx, token)
}

func (g *GoogleStore) SignOut() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.svc = nil
}

func (g *GoogleStore) Timezone() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timezone
}

func (g *GoogleStore) SetTimezone(id string) error {
	if _, err := time.LoadLocation(id); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", id, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.timezone = id
	return nil
}

func (g *GoogleStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	svc, err := g.service()
	if err != nil {
		return nil, err
	}

	response, err := svc.Events.List("primary").
		TimeMin(time.Now().Format(time.RFC3339)).
		ShowDeleted(false).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var events []models.Event
	for _, item := range response.Items {
		events = append(events, fromGoogleEvent(item))
	}
	return events, nil
}

func (g *GoogleStore) CreateEvent(ctx context.Context, input models.CreateEventInput) (*models.Event, error) {
	svc, err := g.service()
	if err != nil {
		return nil, err
	}

	created, err := svc.Events.Insert("primary", &calendar.Event{
		Summary:     input.Title,
		Description: input.Description,
		Location:    input.Location,
		Start:       &calendar.EventDateTime{DateTime: input.Start, TimeZone: g.Timezone()},
		End:         &calendar.EventDateTime{DateTime: input.End, TimeZone: g.Timezone()},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	event := fromGoogleEvent(created)
	return &event, nil
}

func (g *GoogleStore) UpdateEvent(ctx context.Context, id string, patch models.EventPatch) (*models.Event, error) {
	svc, err := g.service()
	if err != nil {
		return nil, err
	}

	changes := &calendar.Event{}
	if patch.Title != nil {
		changes.Summary = *patch.Title
	}
	if patch.Description != nil {
		changes.Description = *patch.Description
	}
	if patch.Location != nil {
		changes.Location = *patch.Location
	}
	if patch.Start != nil {
		changes.Start = &calendar.EventDateTime{DateTime: *patch.Start, TimeZone: g.Timezone()}
	}
	if patch.End != nil {
		changes.End = &calendar.EventDateTime{DateTime: *patch.End, TimeZone: g.Timezone()}
	}

	updated, err := svc.Events.Patch("primary", id, changes).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	event := fromGoogleEvent(updated)
	return &event, nil
}

func (g *GoogleStore) DeleteEvent(ctx context.Context, id string) error {
	svc, err := g.service()
	if err != nil {
		return err
	}

	if err := svc.Events.Delete("primary", id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

func (g *GoogleStore) service() (*calendar.Service, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.svc == nil {
		return nil, ErrNotAuthenticated
	}
	return g.svc, nil
}

func (g *GoogleStore) buildService(ctx context.Context, token *oauth2.Token) error {
	client := g.oauthCfg.Client(ctx, token)
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("failed to create calendar service: %w", err)
	}
	g.svc = svc
	return nil
}

func (g *GoogleStore) loadToken() (*oauth2.Token, error) {
	file, err := os.Open(g.tokenFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(file).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode cached token: %w", err)
	}
	return token, nil
}

func (g *GoogleStore) saveToken(token *oauth2.Token) error {
	file, err := os.OpenFile(g.tokenFile, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()
	return json.NewEncoder(file).Encode(token)
}

func fromGoogleEvent(item *calendar.Event) models.Event {
	start := item.Start.DateTime
	if start == "" {
		start = item.Start.Date
	}
	end := item.End.DateTime
	if end == "" {
		end = item.End.Date
	}

	return models.Event{
		ID:          item.Id,
		Title:       item.Summary,
		Start:       start,
		End:         end,
		Description: item.Description,
		Location:    item.Location,
	}
}
