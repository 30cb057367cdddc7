package realtime

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// ToolDefinition declares a function tool on the session config. Parameters
// holds the JSON schema of the function's arguments.
type ToolDefinition struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// FunctionTool builds a ToolDefinition whose parameter schema is reflected
// from params, which should be a struct (or pointer to one) with json tags.
func FunctionTool(name, description string, params any) (ToolDefinition, error) {
	reflector := jsonschema.Reflector{DoNotReference: true}

	var schema *jsonschema.Schema
	if t := reflect.TypeOf(params); t != nil && t.Kind() == reflect.Ptr {
		schema = reflector.ReflectFromType(t.Elem())
	} else {
		schema = reflector.Reflect(params)
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return ToolDefinition{}, fmt.Errorf("failed to build parameter schema for tool %q: %w", name, err)
	}

	return ToolDefinition{
		Type:        "function",
		Name:        name,
		Description: description,
		Parameters:  raw,
	}, nil
}
