package assistant

import (
	"errors"
	"fmt"
)

// ErrBusy is returned by Submit while an exchange is already in flight.
var ErrBusy = errors.New("an exchange is already in progress")

// GatewayError wraps any transport, auth, or parse failure talking to the
// chat completion provider. The session recovers it into a generic apology
// turn; the cause is logged, never shown to the user.
type GatewayError struct {
	Cause error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("model gateway: %v", e.Cause)
}

func (e *GatewayError) Unwrap() error { return e.Cause }

// UnknownActionError marks a tool call naming an action outside the registry.
type UnknownActionError struct {
	Name string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Name)
}

// InvalidArgumentsError marks tool call arguments failing schema validation.
type InvalidArgumentsError struct {
	Action string
	Cause  error
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Action, e.Cause)
}

func (e *InvalidArgumentsError) Unwrap() error { return e.Cause }

// StoreAuthRequiredError marks an action attempted while the calendar store
// is unauthenticated.
type StoreAuthRequiredError struct {
	Action string
}

func (e *StoreAuthRequiredError) Error() string {
	return fmt.Sprintf("%s requires calendar sign-in", e.Action)
}

// StoreOperationError wraps a calendar store call that failed.
type StoreOperationError struct {
	Action string
	Cause  error
}

func (e *StoreOperationError) Error() string {
	return fmt.Sprintf("%s store operation failed: %v", e.Action, e.Cause)
}

func (e *StoreOperationError) Unwrap() error { return e.Cause }
