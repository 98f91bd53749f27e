package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrygo/taskpilot/store"
)

// UpdateTaskTool modifies an existing task's title, description,
// priority, or completion status.
type UpdateTaskTool struct {
	store *store.Store
}

// NewUpdateTaskTool creates a new update task tool.
func NewUpdateTaskTool(st *store.Store) *UpdateTaskTool {
	return &UpdateTaskTool{store: st}
}

func (t *UpdateTaskTool) Name() string {
	return "update_task"
}

func (t *UpdateTaskTool) Description() string {
	return "Update an existing task in the user's task list. Use this when the user wants to modify a task's " +
		"title, description, priority, or completion status. Parameters: user_id (required), task_id (required), " +
		"title (optional), description (optional), completed (optional), priority (optional)."
}

func (t *UpdateTaskTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user_id":     map[string]any{"type": "string", "description": "The ID of the user"},
			"task_id":     map[string]any{"type": "string", "description": "The ID of the task to update"},
			"title":       map[string]any{"type": "string", "description": "The new title of the task"},
			"description": map[string]any{"type": "string", "description": "The new description of the task"},
			"completed":   map[string]any{"type": "boolean", "description": "Whether the task is completed"},
			"priority":    map[string]any{"type": "string", "description": "The new priority of the task"},
		},
		"required": []string{"user_id", "task_id"},
	}
}

func (t *UpdateTaskTool) Execute(ctx context.Context, args map[string]any) *Result {
	userID, ok := stringArg(args, "user_id")
	if !ok {
		return Errorf("user_id is required")
	}
	taskID, errResult := parseTaskID(args)
	if errResult != nil {
		return errResult
	}

	// Ownership check first: a task belonging to another user is
	// indistinguishable from a missing one.
	existing, err := t.store.GetTask(ctx, &store.FindTask{ID: &taskID, UserID: &userID})
	if err != nil {
		slog.Error("failed to fetch task", "error", err)
		return Errorf("Failed to update task: %v", err)
	}
	if existing == nil {
		return Errorf("Task with id %s not found", taskID)
	}

	now := time.Now().Unix()
	update := &store.UpdateTask{ID: taskID, UpdatedTs: &now}
	if title, ok := stringArg(args, "title"); ok {
		update.Title = &title
	}
	if description, ok := stringArg(args, "description"); ok {
		update.Description = &description
	}
	if completed, ok := boolArg(args, "completed"); ok {
		update.Completed = &completed
	}
	if priority, ok := stringArg(args, "priority"); ok {
		p := store.Priority(priority)
		if !p.IsValid() {
			return Errorf("Invalid priority: %s. Expected low, medium, or high.", priority)
		}
		update.Priority = &p
	}

	task, err := t.store.UpdateTask(ctx, update)
	if err != nil {
		slog.Error("failed to update task", "error", err)
		return Errorf("Failed to update task: %v", err)
	}
	if task == nil {
		return Errorf("Task with id %s not found", taskID)
	}

	return Success("Task '"+task.Title+"' updated successfully", map[string]any{
		"task_id":    task.ID.String(),
		"task_title": task.Title,
	})
}

var _ Tool = (*UpdateTaskTool)(nil)
