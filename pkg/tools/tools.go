// Package tools implements the tool-call protocol the agent layer speaks:
// one serialized JSON request per call, discriminated by a string action
// where the tool has more than one operation, answered with one serialized
// JSON response. Malformed input produces a structured {"error": ...}
// response, never a Go error or panic back to the caller.
package tools

import (
	"context"
	"encoding/json"
)

// Tool is one callable tool: a name, a human-readable description for the
// agent, a JSON-schema of its input, and the runner itself.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
	Run         func(ctx context.Context, raw []byte) []byte
}

// ErrorResponse is the structured shape every tool returns on bad input or
// an operation failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Registry holds the tool set exposed over the MCP and HTTP transports.
type Registry struct {
	tools  []Tool
	byName map[string]Tool
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools = append(r.tools, t)
		r.byName[t.Name] = t
	}
	return r
}

// All returns the tools in registration order.
func (r *Registry) All() []Tool {
	return r.tools
}

// Run dispatches raw to the named tool. The second return is false when the
// tool does not exist.
func (r *Registry) Run(ctx context.Context, name string, raw []byte) ([]byte, bool) {
	t, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return t.Run(ctx, raw), true
}

// errorResponse renders the structured error shape.
func errorResponse(msg string) []byte {
	b, _ := json.Marshal(ErrorResponse{Error: msg})
	return b
}

// marshal renders a response value, degrading to an error response if the
// value itself cannot be encoded.
func marshal(v interface{}) []byte {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResponse("failed to encode response: " + err.Error())
	}
	return b
}
