package tools

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/taskpilot/store"
)

// AddTaskTool creates a new task in the user's task list.
type AddTaskTool struct {
	store *store.Store
}

// NewAddTaskTool creates a new add task tool.
func NewAddTaskTool(st *store.Store) *AddTaskTool {
	return &AddTaskTool{store: st}
}

func (t *AddTaskTool) Name() string {
	return "add_task"
}

func (t *AddTaskTool) Description() string {
	return "Add a new task to the user's task list. Use this when the user wants to create a new task. " +
		"Parameters: user_id (required), title (required), description (optional)."
}

func (t *AddTaskTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user_id":     map[string]any{"type": "string", "description": "The ID of the user"},
			"title":       map[string]any{"type": "string", "description": "The title of the task"},
			"description": map[string]any{"type": "string", "description": "The description of the task"},
		},
		"required": []string{"user_id", "title"},
	}
}

func (t *AddTaskTool) Execute(ctx context.Context, args map[string]any) *Result {
	userID, ok := stringArg(args, "user_id")
	if !ok {
		return Errorf("user_id is required")
	}
	title, ok := stringArg(args, "title")
	if !ok || strings.TrimSpace(title) == "" {
		return Errorf("title is required and cannot be empty")
	}

	now := time.Now().Unix()
	create := &store.Task{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Completed: false,
		Priority:  store.PriorityMedium,
		CreatedTs: now,
		UpdatedTs: now,
	}
	if description, ok := stringArg(args, "description"); ok {
		create.Description = &description
	}

	task, err := t.store.CreateTask(ctx, create)
	if err != nil {
		slog.Error("failed to create task", "error", err)
		return Errorf("Failed to add task: %v", err)
	}

	return Success("Task '"+title+"' added successfully", map[string]any{
		"task_id":    task.ID.String(),
		"task_title": title,
	})
}

var _ Tool = (*AddTaskTool)(nil)
