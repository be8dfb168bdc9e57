// Package tools implements the agent-callable tools: knowledge-base search,
// web search, market data, and financial calculators.
package tools

import (
	"context"
	"fmt"
	"sort"
)

// Tool is a function the agent can invoke by name.
type Tool struct {
	Name        string
	Description string
	Func        func(ctx context.Context, params map[string]any) (string, error)
	// Schema is the JSON Schema for the tool's parameters, published to the
	// agent service at registration time.
	Schema map[string]any
}

// Registry holds the available tools by name.
type Registry struct {
	tools map[string]*Tool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. A duplicate name replaces the previous tool.
func (r *Registry) Register(t *Tool) {
	r.tools[t.Name] = t
}

// Get returns the tool with the given name.
func (r *Registry) Get(name string) (*Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named tool with params. Unknown names return an error
// listing the available tools.
func (r *Registry) Invoke(ctx context.Context, name string, params map[string]any) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s (available: %v)", name, r.Names())
	}
	return t.Func(ctx, params)
}

// stringParam returns the named string parameter or an error if absent.
func stringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter: %s", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string", key)
	}
	return s, nil
}

// floatParam returns the named numeric parameter. JSON numbers decode as
// float64; plain ints are accepted too.
func floatParam(params map[string]any, key string) (float64, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("missing required parameter: %s", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("parameter %s must be a number", key)
	}
}

// floatParamDefault is floatParam with a fallback when the key is absent.
func floatParamDefault(params map[string]any, key string, def float64) (float64, error) {
	if _, ok := params[key]; !ok {
		return def, nil
	}
	return floatParam(params, key)
}
