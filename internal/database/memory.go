package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/todoforge/todoforge/internal/models"
)

// MemoryTodoRepository is an in-memory todo store backed by an ID->record
// map. State is constructor-injected, so tests and DB-less runs can build
// fully independent instances. All operations run under one lock, which
// makes create-with-subtasks and cascade delete atomic.
type MemoryTodoRepository struct {
	mu    sync.RWMutex
	todos map[uuid.UUID]*models.Todo
}

// NewMemoryTodoRepository creates an empty in-memory todo store
func NewMemoryTodoRepository() *MemoryTodoRepository {
	return &MemoryTodoRepository{todos: make(map[uuid.UUID]*models.Todo)}
}

// Create stores a todo and its inline subtasks as one unit
func (r *MemoryTodoRepository) Create(_ context.Context, todo *models.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.todos[todo.ID] = cloneTodo(todo)
	return nil
}

// GetByID returns a todo with its subtasks; other users' todos are not found
func (r *MemoryTodoRepository) GetByID(_ context.Context, userID, id uuid.UUID) (*models.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	todo, ok := r.todos[id]
	if !ok || todo.UserID != userID {
		return nil, ErrNotFound
	}
	return cloneTodo(todo), nil
}

// Update replaces the stored todo fields, keeping the stored subtasks
func (r *MemoryTodoRepository) Update(_ context.Context, todo *models.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.todos[todo.ID]
	if !ok || stored.UserID != todo.UserID {
		return ErrNotFound
	}
	updated := cloneTodo(todo)
	updated.Subtasks = stored.Subtasks
	r.todos[todo.ID] = updated
	return nil
}

// ReplaceSubtasks swaps the entire subtask set of a todo
func (r *MemoryTodoRepository) ReplaceSubtasks(_ context.Context, todoID uuid.UUID, subtasks []*models.Subtask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.todos[todoID]
	if !ok {
		return ErrNotFound
	}
	replacement := make([]*models.Subtask, len(subtasks))
	for i, subtask := range subtasks {
		replacement[i] = cloneSubtask(subtask)
	}
	stored.Subtasks = replacement
	return nil
}

// Delete removes a todo together with its owned subtasks
func (r *MemoryTodoRepository) Delete(_ context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	todo, ok := r.todos[id]
	if !ok || todo.UserID != userID {
		return ErrNotFound
	}
	delete(r.todos, id)
	return nil
}

// List filters, sorts, and paginates the store. All criteria combine with
// AND; the tag filter matches on set intersection.
func (r *MemoryTodoRepository) List(_ context.Context, filter *models.TodoFilter) ([]*models.Todo, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []*models.Todo{}
	for _, todo := range r.todos {
		if matchesFilter(todo, filter) {
			matched = append(matched, todo)
		}
	}

	sortTodos(matched, filter.SortBy, filter.SortOrder)

	total := len(matched)
	offset := (filter.Page - 1) * filter.Limit
	if offset >= total {
		return []*models.Todo{}, total, nil
	}
	end := offset + filter.Limit
	if end > total {
		end = total
	}

	items := make([]*models.Todo, 0, end-offset)
	for _, todo := range matched[offset:end] {
		items = append(items, cloneTodo(todo))
	}
	return items, total, nil
}

// Stats recomputes the snapshot from the full backing set at call time
func (r *MemoryTodoRepository) Stats(_ context.Context, userID uuid.UUID, period models.StatsPeriod, now time.Time) (*models.TodoStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := models.NewTodoStats()
	start := period.WindowStart(now)

	var completed int
	var completionMinutes float64
	var completionSamples int
	for _, todo := range r.todos {
		if todo.UserID != userID {
			continue
		}
		if !start.IsZero() && todo.CreatedAt.Before(start) {
			continue
		}
		stats.Total++
		stats.ByStatus[todo.Status]++
		stats.ByPriority[todo.Priority]++
		stats.ByCategory[todo.Category]++
		if todo.DueDate != nil && todo.DueDate.Before(now) && todo.Status != models.TodoStatusCompleted {
			stats.Overdue++
		}
		if todo.Status == models.TodoStatusCompleted {
			completed++
			if todo.CompletedAt != nil {
				completionMinutes += todo.CompletedAt.Sub(todo.CreatedAt).Minutes()
				completionSamples++
			}
		}
	}

	if stats.Total > 0 {
		stats.CompletionRate = float64(completed) / float64(stats.Total)
	}
	if completionSamples > 0 {
		stats.AvgCompletionMinutes = completionMinutes / float64(completionSamples)
	}
	return stats, nil
}

// AddSubtask appends a subtask to its parent todo
func (r *MemoryTodoRepository) AddSubtask(_ context.Context, subtask *models.Subtask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.todos[subtask.TodoID]
	if !ok {
		return ErrNotFound
	}
	stored.Subtasks = append(stored.Subtasks, cloneSubtask(subtask))
	return nil
}

// GetSubtask returns a subtask scoped to its parent todo
func (r *MemoryTodoRepository) GetSubtask(_ context.Context, todoID, subtaskID uuid.UUID) (*models.Subtask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.todos[todoID]
	if !ok {
		return nil, ErrNotFound
	}
	for _, subtask := range stored.Subtasks {
		if subtask.ID == subtaskID {
			return cloneSubtask(subtask), nil
		}
	}
	return nil, ErrNotFound
}

// UpdateSubtask replaces a subtask, scoped to its parent todo
func (r *MemoryTodoRepository) UpdateSubtask(_ context.Context, subtask *models.Subtask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.todos[subtask.TodoID]
	if !ok {
		return ErrNotFound
	}
	for i, existing := range stored.Subtasks {
		if existing.ID == subtask.ID {
			stored.Subtasks[i] = cloneSubtask(subtask)
			return nil
		}
	}
	return ErrNotFound
}

// DeleteSubtask removes a subtask, scoped to its parent todo
func (r *MemoryTodoRepository) DeleteSubtask(_ context.Context, todoID, subtaskID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.todos[todoID]
	if !ok {
		return ErrNotFound
	}
	for i, existing := range stored.Subtasks {
		if existing.ID == subtaskID {
			stored.Subtasks = append(stored.Subtasks[:i], stored.Subtasks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func matchesFilter(todo *models.Todo, filter *models.TodoFilter) bool {
	if todo.UserID != filter.UserID {
		return false
	}
	if filter.Status != nil && todo.Status != *filter.Status {
		return false
	}
	if filter.Priority != nil && todo.Priority != *filter.Priority {
		return false
	}
	if filter.Category != nil && todo.Category != *filter.Category {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(todo.Title), needle) &&
			!strings.Contains(strings.ToLower(todo.Description), needle) {
			return false
		}
	}
	if len(filter.Tags) > 0 && !tagsIntersect(todo.Tags, filter.Tags) {
		return false
	}
	if filter.DueAfter != nil && (todo.DueDate == nil || todo.DueDate.Before(*filter.DueAfter)) {
		return false
	}
	if filter.DueBefore != nil && (todo.DueDate == nil || todo.DueDate.After(*filter.DueBefore)) {
		return false
	}
	return true
}

// tagsIntersect reports whether any requested tag is present on the todo.
// Both sides are already case-folded.
func tagsIntersect(todoTags, wanted []string) bool {
	for _, tag := range wanted {
		for _, have := range todoTags {
			if tag == have {
				return true
			}
		}
	}
	return false
}

// sortTodos orders todos by (sort key, direction) with ties broken by
// creation time ascending, so output is deterministic for equal keys.
// Missing due dates sort last in either direction, matching the SQL store.
func sortTodos(todos []*models.Todo, sortBy models.TodoSortKey, order models.SortOrder) {
	desc := order == models.SortDesc
	sort.SliceStable(todos, func(i, j int) bool {
		a, b := todos[i], todos[j]
		var c int
		switch sortBy {
		case models.SortByUpdatedAt:
			c = compareTime(a.UpdatedAt, b.UpdatedAt)
		case models.SortByDueDate:
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				c = 0
			case a.DueDate == nil:
				return false
			case b.DueDate == nil:
				return true
			default:
				c = compareTime(*a.DueDate, *b.DueDate)
			}
		case models.SortByPriority:
			c = a.Priority.Rank() - b.Priority.Rank()
		case models.SortByTitle:
			c = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		default:
			c = compareTime(a.CreatedAt, b.CreatedAt)
		}
		if desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func cloneTodo(todo *models.Todo) *models.Todo {
	clone := *todo
	clone.Tags = append([]string{}, todo.Tags...)
	clone.DueDate = cloneTime(todo.DueDate)
	clone.CompletedAt = cloneTime(todo.CompletedAt)
	clone.EstimatedMinutes = cloneInt(todo.EstimatedMinutes)
	clone.ActualMinutes = cloneInt(todo.ActualMinutes)
	clone.Subtasks = make([]*models.Subtask, len(todo.Subtasks))
	for i, subtask := range todo.Subtasks {
		clone.Subtasks[i] = cloneSubtask(subtask)
	}
	return &clone
}

func cloneSubtask(subtask *models.Subtask) *models.Subtask {
	clone := *subtask
	clone.CompletedAt = cloneTime(subtask.CompletedAt)
	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}
