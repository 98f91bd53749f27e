package tools

import (
	"context"
	"log/slog"

	"github.com/hrygo/taskpilot/store"
)

// ReadAllTasksTool lists the user's tasks with optional status and
// priority filters.
type ReadAllTasksTool struct {
	store *store.Store
}

// NewReadAllTasksTool creates a new read all tasks tool.
func NewReadAllTasksTool(st *store.Store) *ReadAllTasksTool {
	return &ReadAllTasksTool{store: st}
}

func (t *ReadAllTasksTool) Name() string {
	return "read_all_tasks"
}

func (t *ReadAllTasksTool) Description() string {
	return "Read all tasks from the user's task list. Use this when the user wants to view all their tasks or a " +
		"filtered list. Parameters: user_id (required), status (optional - 'all', 'pending', 'completed'), " +
		"priority (optional)."
}

func (t *ReadAllTasksTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user_id":  map[string]any{"type": "string", "description": "The ID of the user"},
			"status":   map[string]any{"type": "string", "description": "Filter by status: 'all', 'pending', or 'completed'"},
			"priority": map[string]any{"type": "string", "description": "Filter by priority"},
		},
		"required": []string{"user_id"},
	}
}

func (t *ReadAllTasksTool) Execute(ctx context.Context, args map[string]any) *Result {
	userID, ok := stringArg(args, "user_id")
	if !ok {
		return Errorf("user_id is required")
	}

	find := &store.FindTask{UserID: &userID}

	// status translates to a completed-flag equality filter; "all" and
	// unknown values leave the filter unset.
	if status, ok := stringArg(args, "status"); ok && status != "all" {
		switch status {
		case "pending":
			completed := false
			find.Completed = &completed
		case "completed":
			completed := true
			find.Completed = &completed
		}
	}
	if priority, ok := stringArg(args, "priority"); ok {
		p := store.Priority(priority)
		find.Priority = &p
	}

	list, err := t.store.ListTasks(ctx, find)
	if err != nil {
		slog.Error("failed to list tasks", "error", err)
		return Errorf("Failed to read tasks: %v", err)
	}

	taskList := make([]map[string]any, 0, len(list))
	for _, task := range list {
		taskList = append(taskList, taskPayload(task))
	}

	return Success("", map[string]any{
		"tasks_count": len(taskList),
		"tasks":       taskList,
	})
}

var _ Tool = (*ReadAllTasksTool)(nil)
