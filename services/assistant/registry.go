package assistant

import (
	"encoding/json"

	"calassist/services/store"

	"github.com/invopop/jsonschema"
)

// Registry is the closed, ordered catalog of actions the model may request.
// It is built once at startup and never mutated afterwards.
type Registry struct {
	tools  []ActionTool
	byName map[string]ActionTool
}

func NewRegistry(st store.Store, strictTimezones bool) *Registry {
	tools := []ActionTool{
		NewCreateEventTool(st),
		NewListEventsTool(st),
		NewDeleteEventTool(st),
		NewSetTimezoneTool(st, strictTimezones),
	}

	byName := make(map[string]ActionTool, len(tools))
	for _, tool := range tools {
		byName[tool.Name()] = tool
	}

	return &Registry{tools: tools, byName: byName}
}

// List returns the catalog in declaration order, stable across the process
// lifetime.
func (r *Registry) List() []ActionTool {
	return r.tools
}

func (r *Registry) Lookup(name string) (ActionTool, bool) {
	tool, ok := r.byName[name]
	return tool, ok
}

// schemaParameters flattens a reflected schema into the plain map shape the
// chat completion providers expect for function parameters.
func schemaParameters(schema *jsonschema.Schema) map[string]any {
	raw, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}

	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return map[string]any{"type": "object"}
	}
	return params
}
