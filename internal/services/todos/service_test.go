package todos

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/todoforge/todoforge/internal/database"
	"github.com/todoforge/todoforge/internal/models"
	"go.uber.org/zap"
)

func newTestService() *Service {
	return NewService(database.NewMemoryTodoRepository(), zap.NewNop())
}

func statusPtr(s models.TodoStatus) *models.TodoStatus       { return &s }
func priorityPtr(p models.TodoPriority) *models.TodoPriority { return &p }
func strPtr(s string) *string                                { return &s }
func boolPtr(b bool) *bool                                   { return &b }

func TestService_Create_Defaults(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	todo, err := svc.Create(ctx, userID, &models.CreateTodoInput{Title: "  Plain todo  "})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if todo.ID == uuid.Nil {
		t.Error("Expected an assigned ID")
	}
	if todo.UserID != userID {
		t.Errorf("Expected owner %s, got %s", userID, todo.UserID)
	}
	if todo.Title != "Plain todo" {
		t.Errorf("Expected trimmed title, got '%s'", todo.Title)
	}
	if todo.Priority != models.TodoPriorityMedium {
		t.Errorf("Expected default priority medium, got '%s'", todo.Priority)
	}
	if todo.Status != models.TodoStatusPending {
		t.Errorf("Expected default status pending, got '%s'", todo.Status)
	}
	if todo.Category != models.TodoCategoryOther {
		t.Errorf("Expected default category other, got '%s'", todo.Category)
	}
	if todo.Tags == nil || len(todo.Tags) != 0 {
		t.Errorf("Expected empty non-nil tags, got %v", todo.Tags)
	}
	if todo.CompletedAt != nil {
		t.Error("Expected no completedAt on a pending todo")
	}
	if todo.CreatedAt.IsZero() || !todo.CreatedAt.Equal(todo.UpdatedAt) {
		t.Error("Expected createdAt and updatedAt set and equal on create")
	}
}

func TestService_Create_WithSubtasksAndTags(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	input := &models.CreateTodoInput{
		Title:    "Trip",
		Priority: priorityPtr(models.TodoPriorityUrgent),
		Status:   statusPtr(models.TodoStatusInProgress),
		Tags:     []string{" Travel ", "travel", "PACKING"},
		Subtasks: []models.SubtaskInput{
			{Title: "Book flights"},
			{Title: "Pack bags", Completed: true},
		},
	}

	todo, err := svc.Create(ctx, userID, input)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if todo.Priority != models.TodoPriorityUrgent || todo.Status != models.TodoStatusInProgress {
		t.Errorf("Expected supplied enums kept, got %s/%s", todo.Priority, todo.Status)
	}
	if len(todo.Tags) != 2 || todo.Tags[0] != "travel" || todo.Tags[1] != "packing" {
		t.Errorf("Expected normalized deduplicated tags, got %v", todo.Tags)
	}
	if len(todo.Subtasks) != 2 {
		t.Fatalf("Expected 2 subtasks, got %d", len(todo.Subtasks))
	}
	if todo.Subtasks[0].OrderIndex != 0 || todo.Subtasks[1].OrderIndex != 1 {
		t.Error("Expected order indexes assigned in input order")
	}
	if todo.Subtasks[0].CompletedAt != nil {
		t.Error("Expected no completedAt on an open subtask")
	}
	if todo.Subtasks[1].CompletedAt == nil {
		t.Error("Expected completedAt on a subtask created completed")
	}

	// Create persisted with subtasks as one unit
	stored, err := svc.Get(ctx, userID, todo.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(stored.Subtasks) != 2 {
		t.Errorf("Expected 2 persisted subtasks, got %d", len(stored.Subtasks))
	}
}

func TestService_Create_CompletedStampsCompletedAt(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	todo, err := svc.Create(context.Background(), uuid.New(), &models.CreateTodoInput{
		Title:  "Already done",
		Status: statusPtr(models.TodoStatusCompleted),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if todo.CompletedAt == nil {
		t.Error("Expected completedAt stamped when created completed")
	}
}

func TestService_Update_Partial(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	todo, err := svc.Create(ctx, userID, &models.CreateTodoInput{
		Title:       "Original",
		Description: "Keep me",
		Tags:        []string{"keep"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := svc.Update(ctx, userID, todo.ID, &models.UpdateTodoInput{
		Title:    strPtr("Renamed"),
		Priority: priorityPtr(models.TodoPriorityHigh),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.Title != "Renamed" {
		t.Errorf("Expected title 'Renamed', got '%s'", updated.Title)
	}
	if updated.Priority != models.TodoPriorityHigh {
		t.Errorf("Expected priority high, got '%s'", updated.Priority)
	}
	if updated.Description != "Keep me" {
		t.Errorf("Expected untouched description, got '%s'", updated.Description)
	}
	if len(updated.Tags) != 1 || updated.Tags[0] != "keep" {
		t.Errorf("Expected untouched tags, got %v", updated.Tags)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) && !updated.UpdatedAt.Equal(updated.CreatedAt) {
		t.Error("Expected updatedAt refreshed")
	}
}

func TestService_Update_CompletionTransitions(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	todo, err := svc.Create(ctx, userID, &models.CreateTodoInput{Title: "Finish me"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// pending -> completed stamps completedAt
	done, err := svc.Update(ctx, userID, todo.ID, &models.UpdateTodoInput{
		Status: statusPtr(models.TodoStatusCompleted),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if done.CompletedAt == nil {
		t.Fatal("Expected completedAt stamped on completion")
	}
	firstCompletion := *done.CompletedAt

	// completed -> completed does not re-stamp
	again, err := svc.Update(ctx, userID, todo.ID, &models.UpdateTodoInput{
		Status: statusPtr(models.TodoStatusCompleted),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if again.CompletedAt == nil || !again.CompletedAt.Equal(firstCompletion) {
		t.Error("Expected completedAt unchanged when already completed")
	}

	// completed -> pending keeps the last completion point
	reopened, err := svc.Update(ctx, userID, todo.ID, &models.UpdateTodoInput{
		Status: statusPtr(models.TodoStatusPending),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if reopened.CompletedAt == nil || !reopened.CompletedAt.Equal(firstCompletion) {
		t.Error("Expected completedAt preserved after un-completing")
	}
}

func TestService_Update_ReplacesSubtasks(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	todo, err := svc.Create(ctx, userID, &models.CreateTodoInput{
		Title:    "Parent",
		Subtasks: []models.SubtaskInput{{Title: "Old A"}, {Title: "Old B"}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	oldID := todo.Subtasks[0].ID

	updated, err := svc.Update(ctx, userID, todo.ID, &models.UpdateTodoInput{
		Subtasks: []models.SubtaskInput{{Title: "New only", Completed: true}},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(updated.Subtasks) != 1 || updated.Subtasks[0].Title != "New only" {
		t.Fatalf("Expected replaced subtask set, got %v", updated.Subtasks)
	}
	if updated.Subtasks[0].ID == oldID {
		t.Error("Expected replacement to mint new subtask identities")
	}

	// Nil Subtasks leaves the set alone
	untouched, err := svc.Update(ctx, userID, todo.ID, &models.UpdateTodoInput{
		Title: strPtr("Renamed"),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	stored, err := svc.Get(ctx, userID, todo.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if untouched.Title != "Renamed" || len(stored.Subtasks) != 1 {
		t.Error("Expected nil Subtasks to leave the stored set unchanged")
	}
}

func TestService_Update_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), &models.UpdateTodoInput{
		Title: strPtr("Ghost"),
	})
	if !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestService_List_DefaultsAndTotalPages(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 45; i++ {
		if _, err := svc.Create(ctx, userID, &models.CreateTodoInput{Title: "bulk"}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	page, err := svc.List(ctx, &models.TodoFilter{UserID: userID})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Page != 1 || page.Limit != DefaultPageSize {
		t.Errorf("Expected defaults page=1 limit=%d, got page=%d limit=%d", DefaultPageSize, page.Page, page.Limit)
	}
	if page.Total != 45 {
		t.Errorf("Expected total 45, got %d", page.Total)
	}
	if page.TotalPages != 3 {
		t.Errorf("Expected 3 total pages, got %d", page.TotalPages)
	}
	if len(page.Items) != DefaultPageSize {
		t.Errorf("Expected %d items, got %d", DefaultPageSize, len(page.Items))
	}

	// Limit above the cap is clamped
	capped, err := svc.List(ctx, &models.TodoFilter{UserID: userID, Limit: 500})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if capped.Limit != MaxPageSize {
		t.Errorf("Expected limit clamped to %d, got %d", MaxPageSize, capped.Limit)
	}
}

func TestService_List_EmptyStore(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	page, err := svc.List(context.Background(), &models.TodoFilter{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Total != 0 || page.TotalPages != 0 {
		t.Errorf("Expected total 0 and totalPages 0, got %d/%d", page.Total, page.TotalPages)
	}
	if page.Items == nil || len(page.Items) != 0 {
		t.Errorf("Expected empty non-nil items, got %v", page.Items)
	}
}

func TestService_Subtasks(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	todo, err := svc.Create(ctx, userID, &models.CreateTodoInput{
		Title:    "Parent",
		Subtasks: []models.SubtaskInput{{Title: "First"}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	other, err := svc.Create(ctx, userID, &models.CreateTodoInput{Title: "Other parent"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	added, err := svc.AddSubtask(ctx, userID, todo.ID, &models.SubtaskInput{Title: "Second"})
	if err != nil {
		t.Fatalf("AddSubtask failed: %v", err)
	}
	if added.OrderIndex != 1 {
		t.Errorf("Expected appended order index 1, got %d", added.OrderIndex)
	}

	// Toggling completed stamps and clears the subtask completedAt
	completed, err := svc.UpdateSubtask(ctx, userID, todo.ID, added.ID, &models.UpdateSubtaskInput{
		Completed: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("UpdateSubtask failed: %v", err)
	}
	if !completed.Completed || completed.CompletedAt == nil {
		t.Error("Expected completed subtask with completedAt stamped")
	}
	reopened, err := svc.UpdateSubtask(ctx, userID, todo.ID, added.ID, &models.UpdateSubtaskInput{
		Completed: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("UpdateSubtask failed: %v", err)
	}
	if reopened.Completed || reopened.CompletedAt != nil {
		t.Error("Expected reopened subtask with completedAt cleared")
	}

	// Subtask operations are parent-scoped
	if _, err := svc.UpdateSubtask(ctx, userID, other.ID, added.ID, &models.UpdateSubtaskInput{
		Title: strPtr("Hijack"),
	}); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Expected ErrNotFound under wrong parent, got %v", err)
	}
	if err := svc.DeleteSubtask(ctx, userID, other.ID, added.ID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting under wrong parent, got %v", err)
	}

	if err := svc.DeleteSubtask(ctx, userID, todo.ID, added.ID); err != nil {
		t.Fatalf("DeleteSubtask failed: %v", err)
	}
	stored, err := svc.Get(ctx, userID, todo.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(stored.Subtasks) != 1 {
		t.Errorf("Expected 1 remaining subtask, got %d", len(stored.Subtasks))
	}
}

func TestService_Delete(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	todo, err := svc.Create(ctx, userID, &models.CreateTodoInput{Title: "Doomed"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Another user cannot delete it
	if err := svc.Delete(ctx, uuid.New(), todo.ID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for other user, got %v", err)
	}

	if err := svc.Delete(ctx, userID, todo.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, userID, todo.ID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestService_Stats_Period(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	if _, err := svc.Create(ctx, userID, &models.CreateTodoInput{Title: "Fresh"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	stats, err := svc.Stats(ctx, userID, models.StatsPeriodDay)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 1 {
		t.Errorf("Expected a just-created todo inside the day window, got total %d", stats.Total)
	}
	if stats.CompletionRate != 0 {
		t.Errorf("Expected completion rate 0, got %f", stats.CompletionRate)
	}

	if _, err := svc.Create(ctx, userID, &models.CreateTodoInput{
		Title:  "Done",
		Status: statusPtr(models.TodoStatusCompleted),
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	stats, err = svc.Stats(ctx, userID, models.StatsPeriodAll)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 2 || stats.CompletionRate != 0.5 {
		t.Errorf("Expected total 2 and completion rate 0.5, got %d/%f", stats.Total, stats.CompletionRate)
	}
}

func TestService_RoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	due := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	estimate := 90

	created, err := svc.Create(ctx, userID, &models.CreateTodoInput{
		Title:            "Round trip",
		Description:      "Persisted and read back",
		Priority:         priorityPtr(models.TodoPriorityHigh),
		DueDate:          &due,
		Tags:             []string{"alpha", "beta"},
		EstimatedMinutes: &estimate,
		Subtasks:         []models.SubtaskInput{{Title: "Step one"}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := svc.Get(ctx, userID, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !reflect.DeepEqual(created, got) {
		t.Errorf("Round trip mismatch:\ncreated: %+v\ngot:     %+v", created, got)
	}
}
