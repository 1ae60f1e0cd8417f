package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"calassist/models"

	"github.com/invopop/jsonschema"
)

// Dispatcher executes a reply's tool calls against the calendar store, in
// the order the model listed them. Every call yields exactly one tool-role
// result turn; a failure becomes failure text rather than aborting the rest,
// because the second round needs one tool turn per call.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

func (d *Dispatcher) Dispatch(ctx context.Context, calls []models.ToolCall) []models.Turn {
	results := make([]models.Turn, 0, len(calls))

	for _, call := range calls {
		results = append(results, models.Turn{
			Role:       models.RoleTool,
			Content:    d.execute(ctx, call),
			ToolCallID: call.ID,
			ToolName:   call.Name,
		})
	}

	return results
}

func (d *Dispatcher) execute(ctx context.Context, call models.ToolCall) string {
	log.Printf("[INFO] Executing action: %s with arguments: %s", call.Name, call.Arguments)

	tool, ok := d.registry.Lookup(call.Name)
	if !ok {
		return failureText(&UnknownActionError{Name: call.Name})
	}

	arguments := call.Arguments
	if len(arguments) == 0 {
		arguments = json.RawMessage("{}")
	}

	if err := validateRequired(tool.InputSchema(), arguments); err != nil {
		return failureText(&InvalidArgumentsError{Action: call.Name, Cause: err})
	}

	result, err := tool.Call(ctx, string(arguments))
	if err != nil {
		log.Printf("[ERROR] Action %s failed: %v", call.Name, err)
		return failureText(err)
	}

	log.Printf("[INFO] Action %s result: %s", call.Name, result)
	return result
}

// validateRequired checks the presence of every schema-required field before
// the action runs; field shapes are checked by the typed decode inside the
// tool itself.
func validateRequired(schema *jsonschema.Schema, arguments json.RawMessage) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(arguments, &fields); err != nil {
		return fmt.Errorf("arguments are not a JSON object: %v", err)
	}

	for _, name := range schema.Required {
		value, ok := fields[name]
		if !ok || string(value) == "null" {
			return fmt.Errorf("missing required field %q", name)
		}
	}
	return nil
}

func failureText(err error) string {
	var authErr *StoreAuthRequiredError
	if errors.As(err, &authErr) {
		switch authErr.Action {
		case "create_event":
			return "Failed to create event. Please make sure you are signed in with Google."
		case "list_events":
			return "I can't list your events because you're not signed in with Google. Please sign in using the button in the header."
		default:
			return "This action requires you to be signed in with Google. Please sign in using the button in the header."
		}
	}

	var storeErr *StoreOperationError
	if errors.As(err, &storeErr) {
		return "The calendar operation failed. Please try again."
	}

	return fmt.Sprintf("Error: %v", err)
}
