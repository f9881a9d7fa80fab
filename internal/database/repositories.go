package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/todoforge/todoforge/internal/models"
)

var (
	// ErrNotFound is returned when a todo, subtask, or user does not
	// exist, or a subtask does not belong to the named parent.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when registering an email that is
	// already taken.
	ErrDuplicateEmail = errors.New("email already registered")
)

// TodoRepositoryInterface defines todo persistence operations. Both the
// Postgres and the in-memory stores implement it; callers construct the
// store they need (no package-level singleton).
type TodoRepositoryInterface interface {
	// Create persists a todo together with its inline subtasks as one
	// atomic unit.
	Create(ctx context.Context, todo *models.Todo) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Todo, error)
	// Update persists the todo row only; subtasks are managed through
	// ReplaceSubtasks and the per-subtask operations.
	Update(ctx context.Context, todo *models.Todo) error
	// ReplaceSubtasks atomically swaps the entire subtask set of a todo.
	ReplaceSubtasks(ctx context.Context, todoID uuid.UUID, subtasks []*models.Subtask) error
	// Delete removes a todo and, via the owning relationship, its subtasks.
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// List returns the filtered, ordered page of todos plus the total
	// number of matches before pagination.
	List(ctx context.Context, filter *models.TodoFilter) ([]*models.Todo, int, error)
	// Stats recomputes the aggregate snapshot over the period window
	// ending at now.
	Stats(ctx context.Context, userID uuid.UUID, period models.StatsPeriod, now time.Time) (*models.TodoStats, error)
	AddSubtask(ctx context.Context, subtask *models.Subtask) error
	GetSubtask(ctx context.Context, todoID, subtaskID uuid.UUID) (*models.Subtask, error)
	UpdateSubtask(ctx context.Context, subtask *models.Subtask) error
	DeleteSubtask(ctx context.Context, todoID, subtaskID uuid.UUID) error
}

// UserRepositoryInterface defines user persistence operations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Ensure concrete types implement the interfaces
var (
	_ TodoRepositoryInterface = (*TodoRepository)(nil)
	_ TodoRepositoryInterface = (*MemoryTodoRepository)(nil)
	_ UserRepositoryInterface = (*UserRepository)(nil)
	_ UserRepositoryInterface = (*MemoryUserRepository)(nil)
)
