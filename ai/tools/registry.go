package tools

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/hrygo/taskpilot/ai/llm"
	"github.com/hrygo/taskpilot/internal/metrics"
	"github.com/hrygo/taskpilot/store"
)

// ErrUnknownTool is returned when a tool name outside the catalog is
// requested. This indicates an integration error, not user input.
var ErrUnknownTool = errors.New("unknown tool")

// Registry is the closed catalog of tools. It is built once at startup;
// an unknown or duplicate name is a construction-time error.
type Registry struct {
	tools map[string]Tool
	order []string // registration order, used for descriptor listing
}

// NewRegistry builds a registry from the given tools.
func NewRegistry(list ...Tool) (*Registry, error) {
	r := &Registry{
		tools: make(map[string]Tool, len(list)),
		order: make([]string, 0, len(list)),
	}
	for _, tool := range list {
		name := tool.Name()
		if name == "" {
			return nil, errors.New("tool with empty name")
		}
		if _, exists := r.tools[name]; exists {
			return nil, errors.Errorf("tool already registered: %s", name)
		}
		r.tools[name] = tool
		r.order = append(r.order, name)
	}
	return r, nil
}

// NewTaskRegistry builds the full task tool catalog bound to st.
func NewTaskRegistry(st *store.Store) (*Registry, error) {
	if st == nil {
		return nil, errors.New("store cannot be nil")
	}
	return NewRegistry(
		NewAddTaskTool(st),
		NewUpdateTaskTool(st),
		NewReadTaskTool(st),
		NewReadAllTasksTool(st),
		NewCompleteTaskTool(st),
		NewDeleteTaskTool(st),
	)
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns all registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Execute dispatches a named tool. Only an unregistered name yields a
// Go error; every tool-level failure comes back inside the envelope.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (*Result, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownTool, name)
	}
	result := tool.Execute(ctx, args)
	metrics.ToolExecutions.WithLabelValues(name, result.Status).Inc()
	return result, nil
}

// Descriptors renders the catalog's schemas for the LLM gateway.
func (r *Registry) Descriptors() []llm.ToolDescriptor {
	descriptors := make([]llm.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		parameters, err := json.Marshal(tool.InputSchema())
		if err != nil {
			// Schemas are static maps; this cannot fail for the built-in catalog.
			continue
		}
		descriptors = append(descriptors, llm.ToolDescriptor{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  string(parameters),
		})
	}
	return descriptors
}
