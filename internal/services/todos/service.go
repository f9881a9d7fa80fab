package todos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/todoforge/todoforge/internal/database"
	"github.com/todoforge/todoforge/internal/models"
	"github.com/todoforge/todoforge/internal/validation"
	"go.uber.org/zap"
)

const (
	// DefaultPageSize is the page size used when the caller supplies none
	DefaultPageSize = 20
	// MaxPageSize caps the page size a caller may request
	MaxPageSize = 100
)

// Service implements the todo business rules on top of a repository.
// Inputs are assumed to have passed the validation layer already.
type Service struct {
	repo   database.TodoRepositoryInterface
	logger *zap.Logger
}

// NewService creates a todo service
func NewService(repo database.TodoRepositoryInterface, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create assigns identity and timestamps, applies enum defaults, and
// persists the todo with any inline subtasks as one unit.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, input *models.CreateTodoInput) (*models.Todo, error) {
	now := time.Now().UTC()

	todo := &models.Todo{
		ID:               uuid.New(),
		UserID:           userID,
		Title:            validation.SanitizeText(input.Title),
		Description:      validation.SanitizeText(input.Description),
		Priority:         models.TodoPriorityMedium,
		Status:           models.TodoStatusPending,
		Category:         models.TodoCategoryOther,
		DueDate:          input.DueDate,
		Tags:             validation.NormalizeTags(input.Tags),
		EstimatedMinutes: input.EstimatedMinutes,
		ActualMinutes:    input.ActualMinutes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if todo.Tags == nil {
		todo.Tags = []string{}
	}
	if input.Priority != nil {
		todo.Priority = *input.Priority
	}
	if input.Status != nil {
		todo.Status = *input.Status
	}
	if input.Category != nil {
		todo.Category = *input.Category
	}
	if todo.Status == models.TodoStatusCompleted {
		todo.CompletedAt = &now
	}
	todo.Subtasks = s.buildSubtasks(todo.ID, input.Subtasks, now)

	if err := s.repo.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	s.logger.Debug("todo_created",
		zap.String("todo_id", todo.ID.String()),
		zap.Int("subtask_count", len(todo.Subtasks)),
	)
	return todo, nil
}

// Get returns a todo with its subtasks attached
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*models.Todo, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// Update applies a partial update. Unset fields are left unchanged.
// Transitioning into completed from another status stamps completedAt;
// transitioning out of completed leaves completedAt untouched, preserving
// the last completion point. A non-nil Subtasks slice destructively
// replaces the existing subtask set; the row update and the replacement
// commit separately, so if the replacement fails the updated row keeps
// the previous subtasks. The replacement itself is atomic, so subtasks
// are never left half-swapped or orphaned.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, input *models.UpdateTodoInput) (*models.Todo, error) {
	todo, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if input.Title != nil {
		todo.Title = validation.SanitizeText(*input.Title)
	}
	if input.Description != nil {
		todo.Description = validation.SanitizeText(*input.Description)
	}
	if input.Priority != nil {
		todo.Priority = *input.Priority
	}
	if input.Status != nil {
		if *input.Status == models.TodoStatusCompleted && todo.Status != models.TodoStatusCompleted {
			todo.CompletedAt = &now
		}
		todo.Status = *input.Status
	}
	if input.Category != nil {
		todo.Category = *input.Category
	}
	if input.DueDate != nil {
		todo.DueDate = input.DueDate
	}
	if input.Tags != nil {
		todo.Tags = validation.NormalizeTags(input.Tags)
	}
	if input.EstimatedMinutes != nil {
		todo.EstimatedMinutes = input.EstimatedMinutes
	}
	if input.ActualMinutes != nil {
		todo.ActualMinutes = input.ActualMinutes
	}
	todo.UpdatedAt = now

	if err := s.repo.Update(ctx, todo); err != nil {
		return nil, err
	}

	if input.Subtasks != nil {
		replacement := s.buildSubtasks(todo.ID, input.Subtasks, now)
		if err := s.repo.ReplaceSubtasks(ctx, todo.ID, replacement); err != nil {
			return nil, err
		}
		todo.Subtasks = replacement
	}

	return todo, nil
}

// Delete removes a todo and all of its subtasks
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Debug("todo_deleted", zap.String("todo_id", id.String()))
	return nil
}

// List returns the filtered, sorted, paginated result. Defaults are
// applied here: page 1, limit 20, newest first by creation time.
func (s *Service) List(ctx context.Context, filter *models.TodoFilter) (*models.TodoPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultPageSize
	}
	if filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}
	if filter.SortBy == "" {
		filter.SortBy = models.SortByCreatedAt
	}
	if filter.SortOrder == "" {
		filter.SortOrder = models.SortDesc
	}
	filter.Search = validation.SanitizeText(filter.Search)
	filter.Tags = validation.NormalizeTags(filter.Tags)

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}

	return &models.TodoPage{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: (total + filter.Limit - 1) / filter.Limit,
	}, nil
}

// Stats returns the aggregate snapshot for the period window ending now
func (s *Service) Stats(ctx context.Context, userID uuid.UUID, period models.StatsPeriod) (*models.TodoStats, error) {
	return s.repo.Stats(ctx, userID, period, time.Now().UTC())
}

// AddSubtask appends a subtask to a todo owned by the user
func (s *Service) AddSubtask(ctx context.Context, userID, todoID uuid.UUID, input *models.SubtaskInput) (*models.Subtask, error) {
	todo, err := s.repo.GetByID(ctx, userID, todoID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	subtask := newSubtask(todoID, *input, len(todo.Subtasks), now)
	if err := s.repo.AddSubtask(ctx, subtask); err != nil {
		return nil, fmt.Errorf("failed to add subtask: %w", err)
	}
	return subtask, nil
}

// UpdateSubtask updates a subtask scoped to the given parent todo. A
// subtask ID under a different parent is reported as not found. Toggling
// completed stamps or clears the subtask's completedAt.
func (s *Service) UpdateSubtask(ctx context.Context, userID, todoID, subtaskID uuid.UUID, input *models.UpdateSubtaskInput) (*models.Subtask, error) {
	if _, err := s.repo.GetByID(ctx, userID, todoID); err != nil {
		return nil, err
	}
	subtask, err := s.repo.GetSubtask(ctx, todoID, subtaskID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if input.Title != nil {
		subtask.Title = validation.SanitizeText(*input.Title)
	}
	if input.Completed != nil && *input.Completed != subtask.Completed {
		subtask.Completed = *input.Completed
		if subtask.Completed {
			subtask.CompletedAt = &now
		} else {
			subtask.CompletedAt = nil
		}
	}
	subtask.UpdatedAt = now

	if err := s.repo.UpdateSubtask(ctx, subtask); err != nil {
		return nil, err
	}
	return subtask, nil
}

// DeleteSubtask removes a subtask scoped to the given parent todo
func (s *Service) DeleteSubtask(ctx context.Context, userID, todoID, subtaskID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, userID, todoID); err != nil {
		return err
	}
	return s.repo.DeleteSubtask(ctx, todoID, subtaskID)
}

func (s *Service) buildSubtasks(todoID uuid.UUID, inputs []models.SubtaskInput, now time.Time) []*models.Subtask {
	subtasks := make([]*models.Subtask, len(inputs))
	for i, input := range inputs {
		subtasks[i] = newSubtask(todoID, input, i, now)
	}
	return subtasks
}

func newSubtask(todoID uuid.UUID, input models.SubtaskInput, orderIndex int, now time.Time) *models.Subtask {
	subtask := &models.Subtask{
		ID:         uuid.New(),
		TodoID:     todoID,
		Title:      validation.SanitizeText(input.Title),
		Completed:  input.Completed,
		OrderIndex: orderIndex,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if subtask.Completed {
		subtask.CompletedAt = &now
	}
	return subtask
}
