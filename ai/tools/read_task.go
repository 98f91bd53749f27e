package tools

import (
	"context"
	"log/slog"

	"github.com/hrygo/taskpilot/store"
)

// ReadTaskTool fetches a single task scoped to its owner.
type ReadTaskTool struct {
	store *store.Store
}

// NewReadTaskTool creates a new read task tool.
func NewReadTaskTool(st *store.Store) *ReadTaskTool {
	return &ReadTaskTool{store: st}
}

func (t *ReadTaskTool) Name() string {
	return "read_task"
}

func (t *ReadTaskTool) Description() string {
	return "Read a specific task from the user's task list. Use this when the user wants to view details of a " +
		"specific task. Parameters: user_id (required), task_id (required)."
}

func (t *ReadTaskTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user_id": map[string]any{"type": "string", "description": "The ID of the user"},
			"task_id": map[string]any{"type": "string", "description": "The ID of the task to read"},
		},
		"required": []string{"user_id", "task_id"},
	}
}

func (t *ReadTaskTool) Execute(ctx context.Context, args map[string]any) *Result {
	userID, ok := stringArg(args, "user_id")
	if !ok {
		return Errorf("user_id is required")
	}
	taskID, errResult := parseTaskID(args)
	if errResult != nil {
		return errResult
	}

	task, err := t.store.GetTask(ctx, &store.FindTask{ID: &taskID})
	if err != nil {
		slog.Error("failed to fetch task", "error", err)
		return Errorf("Failed to read task: %v", err)
	}
	// An ownership mismatch is reported as not-found so task ids cannot
	// be probed across users.
	if task == nil || task.UserID != userID {
		return Errorf("Task with id %s not found or does not belong to user %s", taskID, userID)
	}

	return Success("", map[string]any{
		"task": taskPayload(task),
	})
}

var _ Tool = (*ReadTaskTool)(nil)
