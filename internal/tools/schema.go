// Package tools implements the concrete Executor kinds that sit behind
// the Tool Registry: in-process filesystem tools guarded by
// pathguard, a PTY-backed exec tool guarded by argvalidate and run
// through ptyrun, and a web_fetch tool guarded by urlguard. Argument
// shapes are validated against a JSON Schema before any guard runs,
// adapted from goadesign-goa-ai/registry/service.go's
// validatePayloadJSONAgainstSchema.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ArgSchema compiles once and validates every call's argument map
// before it reaches a tool's guard chain.
type ArgSchema struct {
	schema *jsonschema.Schema
}

// CompileArgSchema compiles a JSON Schema document (as a Go value tree,
// e.g. from json.Unmarshal) for one tool's arguments.
func CompileArgSchema(name string, schemaDoc interface{}) (*ArgSchema, error) {
	c := jsonschema.NewCompiler()
	resourceID := "tool://" + name
	if err := c.AddResource(resourceID, schemaDoc); err != nil {
		return nil, fmt.Errorf("tools: add schema resource for %s: %w", name, err)
	}
	schema, err := c.Compile(resourceID)
	if err != nil {
		return nil, fmt.Errorf("tools: compile schema for %s: %w", name, err)
	}
	return &ArgSchema{schema: schema}, nil
}

// Validate checks args against the compiled schema. args must already be
// the plain-Go-value shape jsonschema expects (map[string]interface{}
// keys, not typed structs), which is exactly the shape a ToolCall's
// Args field carries.
func (s *ArgSchema) Validate(args map[string]interface{}) error {
	if s == nil || s.schema == nil {
		return nil
	}
	return s.schema.Validate(args)
}

// mustSchemaDoc decodes a literal JSON Schema source string into the
// Go value tree CompileArgSchema expects. Panics on malformed schema
// literals, since those are a programming error, not a runtime one.
func mustSchemaDoc(jsonSrc string) interface{} {
	var doc interface{}
	if err := json.Unmarshal([]byte(jsonSrc), &doc); err != nil {
		panic(fmt.Sprintf("tools: invalid embedded schema literal: %v", err))
	}
	return doc
}
