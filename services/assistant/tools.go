package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"calassist/models"
	"calassist/services/store"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
)

// ActionTool is one entry of the action catalog advertised to the model.
type ActionTool interface {
	Name() string
	Description() string
	InputSchema() *jsonschema.Schema
	Call(ctx context.Context, input string) (string, error)
}

func generateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

type CreateEventInput struct {
	Title       string `json:"title" jsonschema:"required,description=The title of the event"`
	Start       string `json:"start" jsonschema:"required,description=ISO 8601 string for the start time"`
	End         string `json:"end" jsonschema:"required,description=ISO 8601 string for the end time"`
	Description string `json:"description,omitempty" jsonschema:"description=Optional description"`
	Location    string `json:"location,omitempty" jsonschema:"description=Optional location"`
}

type CreateEventTool struct {
	store store.Store
}

func NewCreateEventTool(store store.Store) CreateEventTool {
	return CreateEventTool{store: store}
}

func (c CreateEventTool) Name() string {
	return "create_event"
}

func (c CreateEventTool) Description() string {
	return "Create a new calendar event"
}

func (c CreateEventTool) Call(ctx context.Context, input string) (string, error) {
	var params CreateEventInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", &InvalidArgumentsError{Action: c.Name(), Cause: err}
	}

	start, err := parseEventTime(params.Start, c.store.Timezone())
	if err != nil {
		return "", &InvalidArgumentsError{Action: c.Name(), Cause: fmt.Errorf("start is not an ISO 8601 time: %v", err)}
	}
	end, err := parseEventTime(params.End, c.store.Timezone())
	if err != nil {
		return "", &InvalidArgumentsError{Action: c.Name(), Cause: fmt.Errorf("end is not an ISO 8601 time: %v", err)}
	}
	params.Start = start.Format(time.RFC3339)
	params.End = end.Format(time.RFC3339)

	if !c.store.IsAuthenticated() {
		return "", &StoreAuthRequiredError{Action: c.Name()}
	}

	event, err := c.store.CreateEvent(ctx, models.CreateEventInput{
		Title:       params.Title,
		Start:       params.Start,
		End:         params.End,
		Description: params.Description,
		Location:    params.Location,
	})
	if err != nil {
		return "", &StoreOperationError{Action: c.Name(), Cause: err}
	}

	return fmt.Sprintf("Created event: %s at %s", event.Title, formatEventTime(start, c.store.Timezone())), nil
}

func (c CreateEventTool) InputSchema() *jsonschema.Schema {
	return generateSchema[CreateEventInput]()
}

type ListEventsInput struct{}

type ListEventsTool struct {
	store store.Store
}

func NewListEventsTool(store store.Store) ListEventsTool {
	return ListEventsTool{store: store}
}

func (l ListEventsTool) Name() string {
	return "list_events"
}

func (l ListEventsTool) Description() string {
	return "List all calendar events"
}

func (l ListEventsTool) Call(ctx context.Context, input string) (string, error) {
	var params ListEventsInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", &InvalidArgumentsError{Action: l.Name(), Cause: err}
	}

	if !l.store.IsAuthenticated() {
		return "", &StoreAuthRequiredError{Action: l.Name()}
	}

	events, err := l.store.ListEvents(ctx)
	if err != nil {
		return "", &StoreOperationError{Action: l.Name(), Cause: err}
	}

	if len(events) == 0 {
		return "You have no upcoming events.", nil
	}

	titles := lo.Map(events, func(event models.Event, _ int) string {
		return event.Title
	})
	return fmt.Sprintf("You have %d events: %s", len(events), strings.Join(titles, ", ")), nil
}

func (l ListEventsTool) InputSchema() *jsonschema.Schema {
	return generateSchema[ListEventsInput]()
}

type DeleteEventInput struct {
	ID string `json:"id" jsonschema:"required,description=The ID of the event to delete"`
}

type DeleteEventTool struct {
	store store.Store
}

func NewDeleteEventTool(store store.Store) DeleteEventTool {
	return DeleteEventTool{store: store}
}

func (d DeleteEventTool) Name() string {
	return "delete_event"
}

func (d DeleteEventTool) Description() string {
	return "Delete a calendar event by ID"
}

// Call confirms the deletion by id without verifying existence first; the
// second round needs a confirmation-shaped result either way.
func (d DeleteEventTool) Call(ctx context.Context, input string) (string, error) {
	var params DeleteEventInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", &InvalidArgumentsError{Action: d.Name(), Cause: err}
	}

	if err := d.store.DeleteEvent(ctx, params.ID); err != nil {
		log.Printf("[ERROR] Delete event %s failed: %v", params.ID, err)
	}

	return fmt.Sprintf("Deleted event with ID: %s", params.ID), nil
}

func (d DeleteEventTool) InputSchema() *jsonschema.Schema {
	return generateSchema[DeleteEventInput]()
}

type SetTimezoneInput struct {
	Timezone string `json:"timezone" jsonschema:"required,description=The timezone identifier such as UTC or America/New_York"`
}

type SetTimezoneTool struct {
	store  store.Store
	strict bool
}

func NewSetTimezoneTool(store store.Store, strict bool) SetTimezoneTool {
	return SetTimezoneTool{store: store, strict: strict}
}

func (s SetTimezoneTool) Name() string {
	return "set_timezone"
}

func (s SetTimezoneTool) Description() string {
	return "Set the target timezone for the calendar"
}

func (s SetTimezoneTool) Call(ctx context.Context, input string) (string, error) {
	var params SetTimezoneInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", &InvalidArgumentsError{Action: s.Name(), Cause: err}
	}

	zone, err := store.NormalizeTimezone(params.Timezone, s.strict)
	if err != nil {
		return "", &InvalidArgumentsError{Action: s.Name(), Cause: err}
	}

	if err := s.store.SetTimezone(zone); err != nil {
		return "", &StoreOperationError{Action: s.Name(), Cause: err}
	}

	return fmt.Sprintf("Timezone set to %s.", zone), nil
}

func (s SetTimezoneTool) InputSchema() *jsonschema.Schema {
	return generateSchema[SetTimezoneInput]()
}

// parseEventTime accepts RFC 3339 timestamps, or offset-less ISO 8601 ones
// interpreted in the store's timezone.
func parseEventTime(value, timezone string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	loc := time.UTC
	if parsed, err := time.LoadLocation(timezone); err == nil {
		loc = parsed
	}
	return time.ParseInLocation("2006-01-02T15:04:05", value, loc)
}

func formatEventTime(t time.Time, timezone string) string {
	if loc, err := time.LoadLocation(timezone); err == nil {
		t = t.In(loc)
	}
	return t.Format("Jan 2, 2006 at 3:04 PM")
}
