package models

import (
	"time"

	"github.com/google/uuid"
)

// TodoSortKey selects the field a listing is ordered by
type TodoSortKey string

const (
	SortByCreatedAt TodoSortKey = "createdAt"
	SortByUpdatedAt TodoSortKey = "updatedAt"
	SortByDueDate   TodoSortKey = "dueDate"
	SortByPriority  TodoSortKey = "priority"
	SortByTitle     TodoSortKey = "title"
)

// SortOrder is the listing direction
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// TodoFilter describes a list query. All supplied criteria are combined
// with AND; the tag filter matches todos whose tag set intersects Tags.
type TodoFilter struct {
	UserID    uuid.UUID     `validate:"-"`
	Status    *TodoStatus   `validate:"omitempty,todo_status"`
	Priority  *TodoPriority `validate:"omitempty,todo_priority"`
	Category  *TodoCategory `validate:"omitempty,todo_category"`
	Search    string        `validate:"max=200"`
	Tags      []string      `validate:"omitempty,max=20,unique,dive,min=1,max=50"`
	DueAfter  *time.Time    `validate:"-"`
	DueBefore *time.Time    `validate:"-"`
	SortBy    TodoSortKey   `validate:"omitempty,oneof=createdAt updatedAt dueDate priority title"`
	SortOrder SortOrder     `validate:"omitempty,oneof=asc desc"`
	Page      int           `validate:"gte=1"`
	Limit     int           `validate:"gte=1,lte=100"`
}

// TodoPage is the paginated listing result
type TodoPage struct {
	Items      []*Todo `json:"items"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"totalPages"`
}

// StatsPeriod restricts a stats snapshot to a trailing time window.
// The empty period means the full backing set.
type StatsPeriod string

const (
	StatsPeriodAll   StatsPeriod = ""
	StatsPeriodDay   StatsPeriod = "day"
	StatsPeriodWeek  StatsPeriod = "week"
	StatsPeriodMonth StatsPeriod = "month"
	StatsPeriodYear  StatsPeriod = "year"
)

// WindowStart returns the start of the trailing window ending at now,
// or the zero time for the all-time period.
func (p StatsPeriod) WindowStart(now time.Time) time.Time {
	switch p {
	case StatsPeriodDay:
		return now.AddDate(0, 0, -1)
	case StatsPeriodWeek:
		return now.AddDate(0, 0, -7)
	case StatsPeriodMonth:
		return now.AddDate(0, -1, 0)
	case StatsPeriodYear:
		return now.AddDate(-1, 0, 0)
	default:
		return time.Time{}
	}
}

// TodoStats is a computed snapshot, never persisted
type TodoStats struct {
	Total                int                  `json:"total"`
	ByStatus             map[TodoStatus]int   `json:"byStatus"`
	ByPriority           map[TodoPriority]int `json:"byPriority"`
	ByCategory           map[TodoCategory]int `json:"byCategory"`
	Overdue              int                  `json:"overdue"`
	CompletionRate       float64              `json:"completionRate"`
	AvgCompletionMinutes float64              `json:"avgCompletionMinutes"`
}

// NewTodoStats returns a snapshot with every status/priority/category
// bucket present so empty stores still serialize all-zero counts.
func NewTodoStats() *TodoStats {
	return &TodoStats{
		ByStatus: map[TodoStatus]int{
			TodoStatusPending:    0,
			TodoStatusInProgress: 0,
			TodoStatusCompleted:  0,
			TodoStatusCancelled:  0,
		},
		ByPriority: map[TodoPriority]int{
			TodoPriorityLow:    0,
			TodoPriorityMedium: 0,
			TodoPriorityHigh:   0,
			TodoPriorityUrgent: 0,
		},
		ByCategory: map[TodoCategory]int{
			TodoCategoryPersonal: 0,
			TodoCategoryWork:     0,
			TodoCategoryShopping: 0,
			TodoCategoryHealth:   0,
			TodoCategoryLearning: 0,
			TodoCategoryOther:    0,
		},
	}
}
