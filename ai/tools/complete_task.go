package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrygo/taskpilot/store"
)

// CompleteTaskTool marks a task as completed.
type CompleteTaskTool struct {
	store *store.Store
}

// NewCompleteTaskTool creates a new complete task tool.
func NewCompleteTaskTool(st *store.Store) *CompleteTaskTool {
	return &CompleteTaskTool{store: st}
}

func (t *CompleteTaskTool) Name() string {
	return "complete_task"
}

func (t *CompleteTaskTool) Description() string {
	return "Mark a task as completed in the user's task list. Use this when the user wants to mark a task as done. " +
		"Parameters: user_id (required), task_id (required)."
}

func (t *CompleteTaskTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user_id": map[string]any{"type": "string", "description": "The ID of the user"},
			"task_id": map[string]any{"type": "string", "description": "The ID of the task to mark as completed"},
		},
		"required": []string{"user_id", "task_id"},
	}
}

func (t *CompleteTaskTool) Execute(ctx context.Context, args map[string]any) *Result {
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
		return Errorf("Failed to complete task: %v", err)
	}
	if existing == nil {
		return Errorf("Task with id %s not found", taskID)
	}

	completed := true
	now := time.Now().Unix()
	task, err := t.store.UpdateTask(ctx, &store.UpdateTask{ID: taskID, Completed: &completed, UpdatedTs: &now})
	if err != nil {
		slog.Error("failed to complete task", "error", err)
		return Errorf("Failed to complete task: %v", err)
	}
	if task == nil {
		return Errorf("Task with id %s not found", taskID)
	}

	return Success("Task '"+task.Title+"' marked as completed", map[string]any{
		"task_id":    task.ID.String(),
		"task_title": task.Title,
	})
}

var _ Tool = (*CompleteTaskTool)(nil)
