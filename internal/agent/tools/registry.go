// Package tools exposes the fixed catalog of named operations the agent may
// invoke. Every tool declares a strict JSON schema (all fields required, no
// undeclared properties) and decodes its arguments against it before doing
// anything; invalid payloads surface as ok:false INVALID_ARGUMENTS results
// rather than best-effort coercion.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"

	"github.com/reachloop/reachbot/internal/agent/ai"
	"github.com/reachloop/reachbot/internal/fault"
	"github.com/reachloop/reachbot/internal/logging"
)

// Tool is one dispatchable operation. Execute returns a JSON-serializable
// value on success; failures are returned as errors and encoded by the
// registry, so a tool never half-completes from the caller's perspective.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Execute(ctx context.Context, input json.RawMessage) (any, error)
}

// Registry holds the catalog in registration order.
type Registry struct {
	order []string
	tools map[string]Tool
	log   logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
		log:   logging.Component("tools"),
	}
}

// Register adds a tool to the catalog. Later registrations with the same name
// replace earlier ones.
func (r *Registry) Register(t Tool) {
	if _, ok := r.tools[t.Name()]; !ok {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Definitions returns the catalog in registration order, in the shape the
// completion service expects.
func (r *Registry) Definitions() []ai.ToolDefinition {
	defs := make([]ai.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, ai.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
	}
	return defs
}

// Dispatch executes one named tool and returns its serialized result. Every
// outcome, including unknown tools and argument failures, comes back as a
// well-formed JSON document.
func (r *Registry) Dispatch(ctx context.Context, name string, input json.RawMessage) string {
	t, ok := r.tools[name]
	if !ok {
		r.log.Warnf("unknown tool %q", name)
		return failureJSON(fault.InvalidArguments, "unknown tool: "+name)
	}

	out, err := t.Execute(ctx, input)
	if err != nil {
		code, msg := fault.Classify(err)
		r.log.Warnf("%s failed: %s: %s", name, code, msg)
		return failureJSON(code, msg)
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return failureJSON(fault.Unknown, "encode result: "+err.Error())
	}
	return string(raw)
}

// failureJSON encodes a taxonomy code plus message as an ok:false result. The
// structural flag tells the model whether a self-heal cycle can recover.
func failureJSON(code fault.Code, msg string) string {
	raw, _ := json.Marshal(map[string]any{
		"ok":         false,
		"code":       code,
		"structural": code.Structural(),
		"error":      msg,
	})
	return string(raw)
}

// decodeStrict unmarshals raw into v, rejecting undeclared properties,
// type mismatches, and trailing content.
func decodeStrict(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fault.New(fault.InvalidArguments, "invalid arguments: %v", err)
	}
	if dec.More() {
		return fault.New(fault.InvalidArguments, "invalid arguments: trailing content")
	}
	return nil
}

// objectSchema builds a strict object schema: every declared property is
// required and no others are accepted. The required list is sorted so the
// catalog serializes identically across runs.
func objectSchema(properties map[string]any) map[string]any {
	required := make([]string, 0, len(properties))
	for name := range properties {
		required = append(required, name)
	}
	sort.Strings(required)
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	} else {
		schema["required"] = []string{}
	}
	return schema
}
