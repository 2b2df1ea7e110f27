package types

import (
	"fmt"
	"time"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Task states.
const (
	TaskPlanned   TaskStatus = "planned"
	TaskActive    TaskStatus = "active"
	TaskDone      TaskStatus = "done"
	TaskAbandoned TaskStatus = "abandoned"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPlanned, TaskActive, TaskDone, TaskAbandoned:
		return true
	}
	return false
}

// Task priority bounds.
const (
	MinTaskPriority = 1
	MaxTaskPriority = 5
)

// Task is an actionable work item attached to a feature.
type Task struct {
	ID          string     `json:"id"`
	FeatureID   string     `json:"featureId"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Priority    *int       `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"` // set on the transition into done
}

// CreateTaskInput holds the fields of a new task. An empty Status means
// planned.
type CreateTaskInput struct {
	FeatureID   string
	Title       string
	Description *string
	Status      TaskStatus
	Priority    *int
	DueDate     *time.Time
	Tags        []string
}

// Validate checks the title, status and priority range.
func (in CreateTaskInput) Validate() error {
	if in.Title == "" {
		return fmt.Errorf("%w: task title must not be empty", ErrInvalidValue)
	}
	if in.Status != "" && !in.Status.Valid() {
		return fmt.Errorf("%w: unknown task status %q", ErrInvalidValue, in.Status)
	}
	return checkPriority(in.Priority)
}

// UpdateTaskInput holds a partial task update.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *int
	DueDate     *time.Time
	Tags        []string
}

// Validate checks the fields that are present.
func (in UpdateTaskInput) Validate() error {
	if in.Status != nil && !in.Status.Valid() {
		return fmt.Errorf("%w: unknown task status %q", ErrInvalidValue, *in.Status)
	}
	return checkPriority(in.Priority)
}

// TaskFilter narrows a task listing. Zero values do not filter.
type TaskFilter struct {
	Statuses     []TaskStatus
	Tags         []string // any tag matches
	FeatureID    string
	GeometryType GeometryType
	HasDueDate   *bool
	Overdue      bool
}

func checkPriority(p *int) error {
	if p == nil {
		return nil
	}
	if *p < MinTaskPriority || *p > MaxTaskPriority {
		return fmt.Errorf("%w: priority %d outside %d-%d", ErrInvalidValue, *p, MinTaskPriority, MaxTaskPriority)
	}
	return nil
}
