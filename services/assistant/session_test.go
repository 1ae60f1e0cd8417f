package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"calassist/models"
)

type fakeStore struct {
	mu            sync.Mutex
	authenticated bool
	events        []models.Event
	timezone      string
	listCalls     int
	createErr     error
	deleteErr     error
	deleted       []string
}

func newFakeStore(authenticated bool) *fakeStore {
	return &fakeStore{authenticated: authenticated, timezone: "UTC"}
}

func (f *fakeStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	events := make([]models.Event, len(f.events))
	copy(events, f.events)
	return events, nil
}

func (f *fakeStore) CreateEvent(ctx context.Context, input models.CreateEventInput) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	event := models.Event{
		ID:          "evt-1",
		Title:       input.Title,
		Start:       input.Start,
		End:         input.End,
		Description: input.Description,
		Location:    input.Location,
	}
	f.events = append(f.events, event)
	return &event, nil
}

func (f *fakeStore) UpdateEvent(ctx context.Context, id string, patch models.EventPatch) (*models.Event, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) DeleteEvent(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *fakeStore) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authenticated
}

func (f *fakeStore) SignIn(ctx context.Context) error { return nil }

func (f *fakeStore) SignOut() {}

func (f *fakeStore) Timezone() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timezone
}

func (f *fakeStore) SetTimezone(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timezone = id
	return nil
}

type gatewayCall struct {
	system    string
	turns     []models.Turn
	toolCount int
}

type gatewayResult struct {
	reply *models.Turn
	err   error
}

type fakeGateway struct {
	mu      sync.Mutex
	results []gatewayResult
	calls   []gatewayCall
	block   chan struct{}
}

func (f *fakeGateway) Complete(ctx context.Context, system string, turns []models.Turn, tools []ActionTool) (*models.Turn, error) {
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := make([]models.Turn, len(turns))
	copy(snapshot, turns)
	f.calls = append(f.calls, gatewayCall{system: system, turns: snapshot, toolCount: len(tools)})

	if len(f.results) == 0 {
		return nil, &GatewayError{Cause: errors.New("no scripted result")}
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result.reply, result.err
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestSession(gateway Gateway, st *fakeStore) *Session {
	registry := NewRegistry(st, false)
	session := NewSession(gateway, registry, st, 2026)
	session.now = func() time.Time {
		return time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	}
	return session
}

func assistantReply(content string, calls ...models.ToolCall) *models.Turn {
	return &models.Turn{Role: models.RoleAssistant, Content: content, ToolCalls: calls}
}

func TestSubmitPlainReply(t *testing.T) {
	gateway := &fakeGateway{results: []gatewayResult{
		{reply: assistantReply("Your calendar looks clear.")},
	}}
	session := newTestSession(gateway, newFakeStore(true))

	history, err := session.Submit(context.Background(), "anything on today?")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if len(history) != 3 {
		t.Fatalf("expected 3 turns (greeting, user, assistant), got %d", len(history))
	}
	if history[1].Role != models.RoleUser || history[1].Content != "anything on today?" {
		t.Errorf("unexpected user turn: %+v", history[1])
	}
	if history[2].Role != models.RoleAssistant || history[2].Content != "Your calendar looks clear." {
		t.Errorf("unexpected assistant turn: %+v", history[2])
	}
	if gateway.callCount() != 1 {
		t.Errorf("expected exactly one gateway call, got %d", gateway.callCount())
	}
	if gateway.calls[0].toolCount != 4 {
		t.Errorf("expected the full action catalog on round 1, got %d tools", gateway.calls[0].toolCount)
	}
	if session.IsBusy() {
		t.Error("session should be idle after the exchange")
	}
}

func TestSubmitToolResultOrdering(t *testing.T) {
	calls := []models.ToolCall{
		{ID: "call-1", Name: "list_events", Arguments: json.RawMessage(`{}`)},
		{ID: "call-2", Name: "delete_event", Arguments: json.RawMessage(`{"id":"abc"}`)},
		{ID: "call-3", Name: "summon_dragon", Arguments: json.RawMessage(`{}`)},
	}
	gateway := &fakeGateway{results: []gatewayResult{
		{reply: assistantReply("", calls...)},
		{reply: assistantReply("Done.")},
	}}
	session := newTestSession(gateway, newFakeStore(true))

	history, err := session.Submit(context.Background(), "clean up my calendar")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	var toolTurns []models.Turn
	for _, turn := range history {
		if turn.Role == models.RoleTool {
			toolTurns = append(toolTurns, turn)
		}
	}
	if len(toolTurns) != len(calls) {
		t.Fatalf("expected %d tool turns, got %d", len(calls), len(toolTurns))
	}
	for i, turn := range toolTurns {
		if turn.ToolCallID != calls[i].ID {
			t.Errorf("tool turn %d has ToolCallID %q, want %q", i, turn.ToolCallID, calls[i].ID)
		}
		if turn.ToolName != calls[i].Name {
			t.Errorf("tool turn %d has ToolName %q, want %q", i, turn.ToolName, calls[i].Name)
		}
	}

	if gateway.callCount() != 2 {
		t.Fatalf("expected two gateway rounds, got %d", gateway.callCount())
	}
	if gateway.calls[1].toolCount != 0 {
		t.Errorf("round 2 should carry no tools, got %d", gateway.calls[1].toolCount)
	}

	// Round 2 must see the tool turns in invocation order.
	round2 := gateway.calls[1].turns
	var seen []string
	for _, turn := range round2 {
		if turn.Role == models.RoleTool {
			seen = append(seen, turn.ToolCallID)
		}
	}
	if len(seen) != 3 || seen[0] != "call-1" || seen[1] != "call-2" || seen[2] != "call-3" {
		t.Errorf("round 2 tool turn order wrong: %v", seen)
	}

	if history[len(history)-1].Content != "Done." {
		t.Errorf("expected final reply appended, got %+v", history[len(history)-1])
	}
}

func TestSubmitGatewayFailureFirstRound(t *testing.T) {
	gateway := &fakeGateway{results: []gatewayResult{
		{err: &GatewayError{Cause: errors.New("connection refused")}},
	}}
	store := newFakeStore(true)
	session := newTestSession(gateway, store)

	history, err := session.Submit(context.Background(), "schedule something")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	last := history[len(history)-1]
	if last.Role != models.RoleAssistant || last.Content != apology {
		t.Errorf("expected generic apology turn, got %+v", last)
	}
	if strings.Contains(last.Content, "connection refused") {
		t.Error("raw error text must not reach the user")
	}
	if len(store.deleted) != 0 || len(store.events) != 0 {
		t.Error("no action should have been dispatched")
	}
	if session.IsBusy() {
		t.Error("session should return to idle after a gateway failure")
	}
}

func TestSubmitGatewayFailureFinalRound(t *testing.T) {
	gateway := &fakeGateway{results: []gatewayResult{
		{reply: assistantReply("", models.ToolCall{ID: "call-1", Name: "list_events", Arguments: json.RawMessage(`{}`)})},
		{err: &GatewayError{Cause: errors.New("timeout")}},
	}}
	session := newTestSession(gateway, newFakeStore(true))

	history, err := session.Submit(context.Background(), "what's coming up?")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	last := history[len(history)-1]
	if last.Role != models.RoleAssistant || last.Content != apology {
		t.Errorf("expected generic apology turn, got %+v", last)
	}
	if session.IsBusy() {
		t.Error("session should return to idle")
	}
}

func TestSubmitWhileBusyIsRejected(t *testing.T) {
	gateway := &fakeGateway{
		results: []gatewayResult{{reply: assistantReply("ok")}},
		block:   make(chan struct{}),
	}
	session := newTestSession(gateway, newFakeStore(true))

	done := make(chan struct{})
	go func() {
		defer close(done)
		session.Submit(context.Background(), "first message")
	}()

	for !session.IsBusy() {
		time.Sleep(time.Millisecond)
	}
	before := len(session.History())

	if _, err := session.Submit(context.Background(), "second message"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if len(session.History()) != before {
		t.Error("a rejected submission must not change the turn history")
	}

	close(gateway.block)
	<-done

	if gateway.callCount() != 1 {
		t.Errorf("rejected submission must not issue a gateway call, got %d calls", gateway.callCount())
	}
}

func TestSubmitEmptyTextIsNoOp(t *testing.T) {
	gateway := &fakeGateway{}
	session := newTestSession(gateway, newFakeStore(true))

	history, err := session.Submit(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected only the greeting turn, got %d turns", len(history))
	}
	if gateway.callCount() != 0 {
		t.Errorf("empty input must not reach the gateway, got %d calls", gateway.callCount())
	}
}

func TestScheduleLunchScenario(t *testing.T) {
	createCall := models.ToolCall{
		ID:        "call-1",
		Name:      "create_event",
		Arguments: json.RawMessage(`{"title":"Lunch","start":"2026-09-02T12:00:00Z","end":"2026-09-02T13:00:00Z"}`),
	}
	gateway := &fakeGateway{results: []gatewayResult{
		{reply: assistantReply("", createCall)},
		{reply: assistantReply("Lunch is on your calendar for tomorrow at noon.")},
	}}
	store := newFakeStore(true)
	session := newTestSession(gateway, store)

	history, err := session.Submit(context.Background(), "Schedule lunch tomorrow at noon for 1 hour")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if len(store.events) != 1 || store.events[0].Title != "Lunch" {
		t.Fatalf("store should contain the new event, got %+v", store.events)
	}

	var toolTurn *models.Turn
	for i := range history {
		if history[i].Role == models.RoleTool {
			toolTurn = &history[i]
		}
	}
	if toolTurn == nil {
		t.Fatal("expected a tool result turn")
	}
	if !strings.Contains(toolTurn.Content, "Lunch") {
		t.Errorf("result should restate the title, got %q", toolTurn.Content)
	}
	if history[len(history)-1].Content != "Lunch is on your calendar for tomorrow at noon." {
		t.Errorf("expected final confirmation, got %+v", history[len(history)-1])
	}
}

func TestListEventsUnauthenticatedScenario(t *testing.T) {
	listCall := models.ToolCall{ID: "call-1", Name: "list_events", Arguments: json.RawMessage(`{}`)}
	gateway := &fakeGateway{results: []gatewayResult{
		{reply: assistantReply("", listCall)},
		{reply: assistantReply("You'll need to sign in first.")},
	}}
	store := newFakeStore(false)
	store.events = []models.Event{{ID: "1", Title: "Secret Meeting"}}
	session := newTestSession(gateway, store)

	history, err := session.Submit(context.Background(), "what's on my calendar")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	var toolTurn *models.Turn
	for i := range history {
		if history[i].Role == models.RoleTool {
			toolTurn = &history[i]
		}
	}
	if toolTurn == nil {
		t.Fatal("expected a tool result turn")
	}
	if !strings.Contains(toolTurn.Content, "sign in") {
		t.Errorf("result should direct the user to sign in, got %q", toolTurn.Content)
	}
	if strings.Contains(toolTurn.Content, "Secret Meeting") {
		t.Errorf("result must not enumerate event titles, got %q", toolTurn.Content)
	}
}

func TestSystemPromptEmbedsEventSnapshot(t *testing.T) {
	gateway := &fakeGateway{results: []gatewayResult{
		{reply: assistantReply("You have one event.")},
	}}
	store := newFakeStore(true)
	store.events = []models.Event{{ID: "1", Title: "Standup", Start: "2026-09-01T09:00:00Z", End: "2026-09-01T09:15:00Z"}}
	session := newTestSession(gateway, store)

	if _, err := session.Submit(context.Background(), "what's today?"); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	system := gateway.calls[0].system
	if !strings.Contains(system, "Tuesday, September 1st, 2026") {
		t.Errorf("system prompt should carry today's date, got %q", system)
	}
	if !strings.Contains(system, "assume it's 2026") {
		t.Errorf("system prompt should carry the default-year policy, got %q", system)
	}
	if !strings.Contains(system, "Standup") {
		t.Errorf("system prompt should embed the event snapshot, got %q", system)
	}
}
