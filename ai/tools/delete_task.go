package tools

import (
	"context"
	"log/slog"

	"github.com/hrygo/taskpilot/store"
)

// DeleteTaskTool removes a task from the user's task list.
type DeleteTaskTool struct {
	store *store.Store
}

// NewDeleteTaskTool creates a new delete task tool.
func NewDeleteTaskTool(st *store.Store) *DeleteTaskTool {
	return &DeleteTaskTool{store: st}
}

func (t *DeleteTaskTool) Name() string {
	return "delete_task"
}

func (t *DeleteTaskTool) Description() string {
	return "Delete a task from the user's task list. Use this when the user wants to remove a task. " +
		"Parameters: user_id (required), task_id (required)."
}

func (t *DeleteTaskTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user_id": map[string]any{"type": "string", "description": "The ID of the user"},
			"task_id": map[string]any{"type": "string", "description": "The ID of the task to delete"},
		},
		"required": []string{"user_id", "task_id"},
	}
}

func (t *DeleteTaskTool) Execute(ctx context.Context, args map[string]any) *Result {
	userID, ok := stringArg(args, "user_id")
	if !ok {
		return Errorf("user_id is required")
	}
	taskID, errResult := parseTaskID(args)
	if errResult != nil {
		return errResult
	}

	existing, err := t.store.GetTask(ctx, &store.FindTask{ID: &taskID, UserID: &userID})
	if err != nil {
		slog.Error("failed to fetch task", "error", err)
		return Errorf("Failed to delete task: %v", err)
	}
	if existing == nil {
		return Errorf("Task with id %s not found", taskID)
	}

	if err := t.store.DeleteTask(ctx, &store.DeleteTask{ID: taskID}); err != nil {
		slog.Error("failed to delete task", "error", err)
		return Errorf("Failed to delete task: %v", err)
	}

	return Success("Task with ID "+taskID.String()+" deleted successfully", map[string]any{
		"task_id": taskID.String(),
	})
}

var _ Tool = (*DeleteTaskTool)(nil)
