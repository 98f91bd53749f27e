// Package tools implements the task operations the LLM can invoke,
// plus the registry that dispatches them by name.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/taskpilot/store"
)

// Tool is a named, schema-described task operation invocable by the LLM.
type Tool interface {
	// Name returns the name of the tool.
	Name() string
	// Description returns a description of what the tool does.
	Description() string
	// InputSchema returns the JSON schema for the input.
	InputSchema() map[string]any
	// Execute runs the tool. Failures are reported through the result
	// envelope, never as a Go error, so the caller can narrate them
	// back through the LLM.
	Execute(ctx context.Context, args map[string]any) *Result
}

// Result is the uniform envelope returned by every tool.
type Result struct {
	Status  string         // "success" or "error"
	Message string         // human-readable outcome
	Data    map[string]any // additional envelope fields (task, tasks, task_id, ...)
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Success builds a success envelope.
func Success(message string, data map[string]any) *Result {
	return &Result{Status: StatusSuccess, Message: message, Data: data}
}

// Errorf builds an error envelope.
func Errorf(format string, args ...any) *Result {
	return &Result{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// IsError reports whether the envelope carries an error status.
func (r *Result) IsError() bool {
	return r.Status == StatusError
}

// String renders the envelope as JSON, the form fed back to the LLM.
func (r *Result) String() string {
	payload := make(map[string]any, len(r.Data)+2)
	for k, v := range r.Data {
		payload[k] = v
	}
	payload["status"] = r.Status
	if r.Message != "" {
		payload["message"] = r.Message
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return `{"status":"error","message":"unencodable tool result"}`
	}
	return string(raw)
}

// stringArg extracts a string argument, reporting whether it was present
// and non-empty.
func stringArg(args map[string]any, key string) (string, bool) {
	value, ok := args[key].(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// boolArg extracts a boolean argument.
func boolArg(args map[string]any, key string) (bool, bool) {
	value, ok := args[key].(bool)
	return value, ok
}

// parseTaskID validates that the task_id argument is a well-formed UUID.
// An invalid id yields the error envelope the LLM narrates back to the
// user instead of aborting the turn.
func parseTaskID(args map[string]any) (uuid.UUID, *Result) {
	raw, ok := stringArg(args, "task_id")
	if !ok {
		return uuid.Nil, Errorf("task_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, Errorf("Invalid task ID format: %s. Expected UUID.", raw)
	}
	return id, nil
}

// taskPayload renders a task in the shape the envelopes expose.
func taskPayload(task *store.Task) map[string]any {
	description := ""
	if task.Description != nil {
		description = *task.Description
	}
	return map[string]any{
		"id":          task.ID.String(),
		"user_id":     task.UserID,
		"title":       task.Title,
		"description": description,
		"completed":   task.Completed,
		"priority":    string(task.Priority),
		"created_at":  time.Unix(task.CreatedTs, 0).UTC().Format(time.RFC3339),
		"updated_at":  time.Unix(task.UpdatedTs, 0).UTC().Format(time.RFC3339),
	}
}
