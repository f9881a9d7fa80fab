package models

import "time"

// SubtaskInput carries a subtask supplied inline on create, or an element
// of a destructive subtask replacement on update.
type SubtaskInput struct {
	Title     string `json:"title" validate:"required,min=1,max=100"`
	Completed bool   `json:"completed"`
}

// CreateTodoInput is the validated create request
type CreateTodoInput struct {
	Title            string         `json:"title" validate:"required,min=1,max=200"`
	Description      string         `json:"description" validate:"max=1000"`
	Priority         *TodoPriority  `json:"priority" validate:"omitempty,todo_priority"`
	Status           *TodoStatus    `json:"status" validate:"omitempty,todo_status"`
	Category         *TodoCategory  `json:"category" validate:"omitempty,todo_category"`
	DueDate          *time.Time     `json:"dueDate"`
	Tags             []string       `json:"tags" validate:"omitempty,max=20,unique,dive,min=1,max=50"`
	EstimatedMinutes *int           `json:"estimatedMinutes" validate:"omitempty,gt=0"`
	ActualMinutes    *int           `json:"actualMinutes" validate:"omitempty,gt=0"`
	Subtasks         []SubtaskInput `json:"subtasks" validate:"omitempty,max=50,dive"`
}

// UpdateTodoInput is the validated partial-update request. Nil fields are
// left unchanged. A non-nil Subtasks slice replaces the entire subtask set.
type UpdateTodoInput struct {
	Title            *string        `json:"title" validate:"omitempty,min=1,max=200"`
	Description      *string        `json:"description" validate:"omitempty,max=1000"`
	Priority         *TodoPriority  `json:"priority" validate:"omitempty,todo_priority"`
	Status           *TodoStatus    `json:"status" validate:"omitempty,todo_status"`
	Category         *TodoCategory  `json:"category" validate:"omitempty,todo_category"`
	DueDate          *time.Time     `json:"dueDate"`
	Tags             []string       `json:"tags" validate:"omitempty,max=20,unique,dive,min=1,max=50"`
	EstimatedMinutes *int           `json:"estimatedMinutes" validate:"omitempty,gt=0"`
	ActualMinutes    *int           `json:"actualMinutes" validate:"omitempty,gt=0"`
	Subtasks         []SubtaskInput `json:"subtasks" validate:"omitempty,max=50,dive"`
}

// UpdateSubtaskInput is the validated per-subtask partial update
type UpdateSubtaskInput struct {
	Title     *string `json:"title" validate:"omitempty,min=1,max=100"`
	Completed *bool   `json:"completed"`
}

// RegisterInput is the validated account registration request. Password
// complexity is checked by the password_complexity validator.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=8,max=128,password_complexity"`
}

// LoginInput is the validated login request
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
