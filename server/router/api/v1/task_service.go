package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/taskpilot/store"
)

// TaskService exposes plain CRUD over tasks, bypassing the chat flow.
type TaskService struct {
	Store *store.Store
}

type CreateTaskRequest struct {
	UserID      string  `json:"user_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Priority    string  `json:"priority"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	Priority    *string `json:"priority"`
}

type TaskResponse struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
	Priority    string  `json:"priority"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func (s *TaskService) RegisterRoutes(g *echo.Group) {
	g.POST("/tasks", s.CreateTask)
	g.GET("/tasks/:user_id", s.ListTasks)
	g.GET("/tasks/:user_id/:task_id", s.GetTask)
	g.PATCH("/tasks/:user_id/:task_id", s.UpdateTask)
	g.DELETE("/tasks/:user_id/:task_id", s.DeleteTask)
}

func (s *TaskService) CreateTask(c echo.Context) error {
	ctx := c.Request().Context()

	request := &CreateTaskRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed request body")
	}
	if request.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "User ID is required")
	}
	if request.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Title is required")
	}

	priority := store.PriorityMedium
	if request.Priority != "" {
		priority = store.Priority(request.Priority)
		if !priority.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Priority must be one of: low, medium, high")
		}
	}

	now := time.Now().Unix()
	task, err := s.Store.CreateTask(ctx, &store.Task{
		ID:          uuid.New(),
		UserID:      request.UserID,
		Title:       request.Title,
		Description: request.Description,
		Priority:    priority,
		CreatedTs:   now,
		UpdatedTs:   now,
	})
	if err != nil {
		slog.Error("failed to create task", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create task")
	}

	return c.JSON(http.StatusCreated, convertTask(task))
}

func (s *TaskService) ListTasks(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("user_id")

	find := &store.FindTask{UserID: &userID}
	switch c.QueryParam("status") {
	case "pending":
		completed := false
		find.Completed = &completed
	case "completed":
		completed := true
		find.Completed = &completed
	}
	if p := c.QueryParam("priority"); p != "" {
		priority := store.Priority(p)
		if !priority.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Priority must be one of: low, medium, high")
		}
		find.Priority = &priority
	}

	tasks, err := s.Store.ListTasks(ctx, find)
	if err != nil {
		slog.Error("failed to list tasks", "user_id", userID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list tasks")
	}

	response := make([]*TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		response = append(response, convertTask(task))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *TaskService) GetTask(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("user_id")
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID format")
	}

	task, err := s.Store.GetTask(ctx, &store.FindTask{ID: &taskID, UserID: &userID})
	if err != nil {
		slog.Error("failed to get task", "task_id", taskID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get task")
	}
	if task == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}
	return c.JSON(http.StatusOK, convertTask(task))
}

func (s *TaskService) UpdateTask(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("user_id")
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID format")
	}

	request := &UpdateTaskRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed request body")
	}

	existing, err := s.Store.GetTask(ctx, &store.FindTask{ID: &taskID, UserID: &userID})
	if err != nil {
		slog.Error("failed to get task", "task_id", taskID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update task")
	}
	if existing == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}

	now := time.Now().Unix()
	update := &store.UpdateTask{
		ID:          taskID,
		Title:       request.Title,
		Description: request.Description,
		Completed:   request.Completed,
		UpdatedTs:   &now,
	}
	if request.Priority != nil {
		priority := store.Priority(*request.Priority)
		if !priority.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Priority must be one of: low, medium, high")
		}
		update.Priority = &priority
	}

	task, err := s.Store.UpdateTask(ctx, update)
	if err != nil {
		slog.Error("failed to update task", "task_id", taskID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update task")
	}
	if task == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}
	return c.JSON(http.StatusOK, convertTask(task))
}

func (s *TaskService) DeleteTask(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("user_id")
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID format")
	}

	existing, err := s.Store.GetTask(ctx, &store.FindTask{ID: &taskID, UserID: &userID})
	if err != nil {
		slog.Error("failed to get task", "task_id", taskID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete task")
	}
	if existing == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}

	if err := s.Store.DeleteTask(ctx, &store.DeleteTask{ID: taskID}); err != nil {
		slog.Error("failed to delete task", "task_id", taskID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete task")
	}
	return c.NoContent(http.StatusNoContent)
}

func convertTask(task *store.Task) *TaskResponse {
	return &TaskResponse{
		ID:          task.ID.String(),
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		Priority:    string(task.Priority),
		CreatedAt:   time.Unix(task.CreatedTs, 0).UTC().Format(time.RFC3339),
		UpdatedAt:   time.Unix(task.UpdatedTs, 0).UTC().Format(time.RFC3339),
	}
}
