package assistant

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"calassist/models"
	"calassist/services/store"
)

const greeting = "Hi! I'm your calendar assistant. I can help you schedule, delete, or list your events."

const apology = "Sorry, I encountered an error processing your request."

// exchangeState tracks the two-round exchange for one user submission.
// Dispatching tools twice for the same submission is unrepresentable: the
// only path into stateDispatchingTools leaves stateAwaitingFirstReply.
type exchangeState int

const (
	stateIdle exchangeState = iota
	stateAwaitingFirstReply
	stateDispatchingTools
	stateAwaitingFinalReply
)

// Session owns the ordered turn history and orchestrates one exchange at a
// time: user turn, first model round, optional tool dispatch plus second
// round, final assistant turn. It is the single entry point the HTTP layer
// consumes.
type Session struct {
	mu    sync.Mutex
	state exchangeState
	turns []models.Turn

	gateway    Gateway
	registry   *Registry
	dispatcher *Dispatcher
	store      store.Store

	defaultYear int
	now         func() time.Time
}

func NewSession(gateway Gateway, registry *Registry, st store.Store, defaultYear int) *Session {
	return &Session{
		turns: []models.Turn{
			{Role: models.RoleAssistant, Content: greeting},
		},
		gateway:     gateway,
		registry:    registry,
		dispatcher:  NewDispatcher(registry),
		store:       st,
		defaultYear: defaultYear,
		now:         time.Now,
	}
}

// IsBusy reports whether an exchange is in flight.
func (s *Session) IsBusy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != stateIdle
}

// History returns a copy of the visible turn history.
func (s *Session) History() []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyLocked()
}

func (s *Session) historyLocked() []models.Turn {
	history := make([]models.Turn, len(s.turns))
	copy(history, s.turns)
	return history
}

// Submit runs one full exchange for the given user text and returns the
// updated history. It returns ErrBusy while another exchange is in flight;
// empty input is a no-op. Gateway failures never escape: they become a
// generic assistant turn and the session returns to idle.
func (s *Session) Submit(ctx context.Context, text string) ([]models.Turn, error) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if s.state != stateIdle {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if text == "" {
		history := s.historyLocked()
		s.mu.Unlock()
		return history, nil
	}

	s.turns = append(s.turns, models.Turn{Role: models.RoleUser, Content: text})
	s.state = stateAwaitingFirstReply
	request := s.historyLocked()
	s.mu.Unlock()

	defer s.setState(stateIdle)

	system := BuildSystemPrompt(s.now(), s.defaultYear, s.snapshotEvents(ctx))

	reply, err := s.gateway.Complete(ctx, system, request, s.registry.List())
	if err != nil {
		log.Printf("[ERROR] First model round failed: %v", err)
		return s.appendTurn(models.Turn{Role: models.RoleAssistant, Content: apology}), nil
	}

	if len(reply.ToolCalls) == 0 {
		return s.appendTurn(*reply), nil
	}

	s.setState(stateDispatchingTools)
	request = s.appendTurn(*reply)

	results := s.dispatcher.Dispatch(ctx, reply.ToolCalls)
	for _, result := range results {
		request = s.appendTurn(result)
	}

	s.setState(stateAwaitingFinalReply)

	final, err := s.gateway.Complete(ctx, system, request, nil)
	if err != nil {
		log.Printf("[ERROR] Final model round failed: %v", err)
		return s.appendTurn(models.Turn{Role: models.RoleAssistant, Content: apology}), nil
	}

	return s.appendTurn(*final), nil
}

func (s *Session) appendTurn(turn models.Turn) []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	return s.historyLocked()
}

func (s *Session) setState(state exchangeState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// snapshotEvents reads the store's current events for the system prompt.
// The store is read fresh every exchange, never cached.
func (s *Session) snapshotEvents(ctx context.Context) []models.Event {
	if !s.store.IsAuthenticated() {
		return nil
	}

	events, err := s.store.ListEvents(ctx)
	if err != nil {
		log.Printf("[ERROR] Failed to snapshot events for system prompt: %v", err)
		return nil
	}
	return events
}
