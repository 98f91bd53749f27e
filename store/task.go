package store

import "github.com/google/uuid"

// Priority is the task priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid reports whether p is one of the known priority levels.
func (p Priority) IsValid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type Task struct {
	ID          uuid.UUID
	UserID      string
	Title       string
	Description *string
	Completed   bool
	Priority    Priority
	CreatedTs   int64
	UpdatedTs   int64
}

type FindTask struct {
	ID        *uuid.UUID
	UserID    *string
	Completed *bool
	Priority  *Priority
}

type UpdateTask struct {
	ID          uuid.UUID
	Title       *string
	Description *string
	Completed   *bool
	Priority    *Priority
	UpdatedTs   *int64
}

type DeleteTask struct {
	ID uuid.UUID
}
