package models

import (
	"time"

	"github.com/google/uuid"
)

// TodoStatus represents the lifecycle state of a todo
type TodoStatus string

const (
	TodoStatusPending    TodoStatus = "pending"
	TodoStatusInProgress TodoStatus = "in_progress"
	TodoStatusCompleted  TodoStatus = "completed"
	TodoStatusCancelled  TodoStatus = "cancelled"
)

// TodoPriority represents how urgent a todo is
type TodoPriority string

const (
	TodoPriorityLow    TodoPriority = "low"
	TodoPriorityMedium TodoPriority = "medium"
	TodoPriorityHigh   TodoPriority = "high"
	TodoPriorityUrgent TodoPriority = "urgent"
)

// Rank returns the ordering rank of a priority (low < medium < high < urgent).
// Unknown priorities rank below low so they never float to the top.
func (p TodoPriority) Rank() int {
	switch p {
	case TodoPriorityLow:
		return 1
	case TodoPriorityMedium:
		return 2
	case TodoPriorityHigh:
		return 3
	case TodoPriorityUrgent:
		return 4
	default:
		return 0
	}
}

// TodoCategory groups todos into broad buckets
type TodoCategory string

const (
	TodoCategoryPersonal TodoCategory = "personal"
	TodoCategoryWork     TodoCategory = "work"
	TodoCategoryShopping TodoCategory = "shopping"
	TodoCategoryHealth   TodoCategory = "health"
	TodoCategoryLearning TodoCategory = "learning"
	TodoCategoryOther    TodoCategory = "other"
)

// Todo represents a todo item with its subtasks attached
type Todo struct {
	ID               uuid.UUID    `json:"id"`
	UserID           uuid.UUID    `json:"userId"`
	Title            string       `json:"title"`
	Description      string       `json:"description,omitempty"`
	Priority         TodoPriority `json:"priority"`
	Status           TodoStatus   `json:"status"`
	Category         TodoCategory `json:"category"`
	DueDate          *time.Time   `json:"dueDate,omitempty"`
	CompletedAt      *time.Time   `json:"completedAt,omitempty"`
	Tags             []string     `json:"tags"`
	EstimatedMinutes *int         `json:"estimatedMinutes,omitempty"`
	ActualMinutes    *int         `json:"actualMinutes,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
	Subtasks         []*Subtask   `json:"subtasks"`
}

// Subtask is a child item owned by exactly one todo
type Subtask struct {
	ID          uuid.UUID  `json:"id"`
	TodoID      uuid.UUID  `json:"todoId"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	OrderIndex  int        `json:"orderIndex"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
