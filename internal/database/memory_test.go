package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/todoforge/todoforge/internal/models"
)

func statusPtr(s models.TodoStatus) *models.TodoStatus       { return &s }
func priorityPtr(p models.TodoPriority) *models.TodoPriority { return &p }
func categoryPtr(c models.TodoCategory) *models.TodoCategory { return &c }

func timePtr(t time.Time) *time.Time { return &t }

func newTestTodo(userID uuid.UUID, title string, createdAt time.Time) *models.Todo {
	return &models.Todo{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Priority:  models.TodoPriorityMedium,
		Status:    models.TodoStatusPending,
		Category:  models.TodoCategoryOther,
		Tags:      []string{},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func defaultFilter(userID uuid.UUID) *models.TodoFilter {
	return &models.TodoFilter{
		UserID:    userID,
		SortBy:    models.SortByCreatedAt,
		SortOrder: models.SortDesc,
		Page:      1,
		Limit:     20,
	}
}

func TestMemoryTodoRepository_CreateAndGet(t *testing.T) {
	t.Parallel()

	repo := NewMemoryTodoRepository()
	ctx := context.Background()
	userID := uuid.New()

	todo := newTestTodo(userID, "Write report", time.Now().UTC())
	todo.Subtasks = []*models.Subtask{
		{ID: uuid.New(), TodoID: todo.ID, Title: "Draft outline", OrderIndex: 0},
		{ID: uuid.New(), TodoID: todo.ID, Title: "Review", OrderIndex: 1},
	}

	if err := repo.Create(ctx, todo); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, userID, todo.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Write report" {
		t.Errorf("Expected title 'Write report', got '%s'", got.Title)
	}
	if len(got.Subtasks) != 2 {
		t.Fatalf("Expected 2 subtasks, got %d", len(got.Subtasks))
	}
	if got.Subtasks[0].Title != "Draft outline" {
		t.Errorf("Expected first subtask 'Draft outline', got '%s'", got.Subtasks[0].Title)
	}

	// Returned values must be copies, not aliases of stored state
	got.Title = "mutated"
	got.Subtasks[0].Title = "mutated"
	again, err := repo.GetByID(ctx, userID, todo.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if again.Title != "Write report" || again.Subtasks[0].Title != "Draft outline" {
		t.Error("Stored todo was mutated through a returned copy")
	}
}

func TestMemoryTodoRepository_GetByID_WrongUser(t *testing.T) {
	t.Parallel()

	repo := NewMemoryTodoRepository()
	ctx := context.Background()
	userID := uuid.New()

	todo := newTestTodo(userID, "Private", time.Now().UTC())
	if err := repo.Create(ctx, todo); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := repo.GetByID(ctx, uuid.New(), todo.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for other user, got %v", err)
	}
}

func TestMemoryTodoRepository_Delete_Cascades(t *testing.T) {
	t.Parallel()

	repo := NewMemoryTodoRepository()
	ctx := context.Background()
	userID := uuid.New()

	todo := newTestTodo(userID, "Doomed", time.Now().UTC())
	subtaskID := uuid.New()
	todo.Subtasks = []*models.Subtask{{ID: subtaskID, TodoID: todo.ID, Title: "Also doomed"}}
	if err := repo.Create(ctx, todo); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Delete(ctx, userID, todo.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, userID, todo.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if _, err := repo.GetSubtask(ctx, todo.ID, subtaskID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected subtask gone after cascade delete, got %v", err)
	}
	if err := repo.Delete(ctx, userID, todo.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on double delete, got %v", err)
	}
}

func TestMemoryTodoRepository_Update_KeepsSubtasks(t *testing.T) {
	t.Parallel()

	repo := NewMemoryTodoRepository()
	ctx := context.Background()
	userID := uuid.New()

	todo := newTestTodo(userID, "Original", time.Now().UTC())
	todo.Subtasks = []*models.Subtask{{ID: uuid.New(), TodoID: todo.ID, Title: "Keep me"}}
	if err := repo.Create(ctx, todo); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated := *todo
	updated.Title = "Renamed"
	updated.Subtasks = nil
	if err := repo.Update(ctx, &updated); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByID(ctx, userID, todo.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Renamed" {
		t.Errorf("Expected title 'Renamed', got '%s'", got.Title)
	}
	if len(got.Subtasks) != 1 || got.Subtasks[0].Title != "Keep me" {
		t.Error("Update should not touch the stored subtask set")
	}
}

func TestMemoryTodoRepository_ReplaceSubtasks(t *testing.T) {
	t.Parallel()

	repo := NewMemoryTodoRepository()
	ctx := context.Background()
	userID := uuid.New()

	todo := newTestTodo(userID, "Parent", time.Now().UTC())
	oldID := uuid.New()
	todo.Subtasks = []*models.Subtask{{ID: oldID, TodoID: todo.ID, Title: "Old"}}
	if err := repo.Create(ctx, todo); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	replacement := []*models.Subtask{
		{ID: uuid.New(), TodoID: todo.ID, Title: "New A", OrderIndex: 0},
		{ID: uuid.New(), TodoID: todo.ID, Title: "New B", OrderIndex: 1},
	}
	if err := repo.ReplaceSubtasks(ctx, todo.ID, replacement); err != nil {
		t.Fatalf("ReplaceSubtasks failed: %v", err)
	}

	got, err := repo.GetByID(ctx, userID, todo.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Subtasks) != 2 {
		t.Fatalf("Expected 2 subtasks after replacement, got %d", len(got.Subtasks))
	}
	if _, err := repo.GetSubtask(ctx, todo.ID, oldID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected old subtask gone after replacement, got %v", err)
	}
}

func TestMemoryTodoRepository_List_Filters(t *testing.T) {
	t.Parallel()

	repo := NewMemoryTodoRepository()
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now().UTC()

	groceries := newTestTodo(userID, "Buy groceries", now)
	groceries.Status = models.TodoStatusPending
	groceries.Priority = models.TodoPriorityHigh
	groceries.Category = models.TodoCategoryShopping
	groceries.Tags = []string{"errands", "food"}
	groceries.DueDate = timePtr(now.Add(24 * time.Hour))

	report := newTestTodo(userID, "Quarterly report", now.Add(time.Second))
	report.Status = models.TodoStatusInProgress
	report.Priority = models.TodoPriorityUrgent
	report.Category = models.TodoCategoryWork
	report.Description = "Financial summary for the quarter"
	report.Tags = []string{"finance"}

	dentist := newTestTodo(userID, "Dentist appointment", now.Add(2*time.Second))
	dentist.Status = models.TodoStatusCompleted
	dentist.Category = models.TodoCategoryHealth
	dentist.DueDate = timePtr(now.Add(72 * time.Hour))

	other := newTestTodo(uuid.New(), "Someone else's todo", now)

	for _, todo := range []*models.Todo{groceries, report, dentist, other} {
		if err := repo.Create(ctx, todo); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	tests := []struct {
		name       string
		mutate     func(*models.TodoFilter)
		wantTitles []string
	}{
		{
			name:       "user scoping only",
			mutate:     func(f *models.TodoFilter) {},
			wantTitles: []string{"Dentist appointment", "Quarterly report", "Buy groceries"},
		},
		{
			name: "status filter",
			mutate: func(f *models.TodoFilter) {
				f.Status = statusPtr(models.TodoStatusInProgress)
			},
			wantTitles: []string{"Quarterly report"},
		},
		{
			name: "priority filter",
			mutate: func(f *models.TodoFilter) {
				f.Priority = priorityPtr(models.TodoPriorityHigh)
			},
			wantTitles: []string{"Buy groceries"},
		},
		{
			name: "category filter",
			mutate: func(f *models.TodoFilter) {
				f.Category = categoryPtr(models.TodoCategoryHealth)
			},
			wantTitles: []string{"Dentist appointment"},
		},
		{
			name: "search matches title case-insensitively",
			mutate: func(f *models.TodoFilter) {
				f.Search = "GROCERIES"
			},
			wantTitles: []string{"Buy groceries"},
		},
		{
			name: "search matches description",
			mutate: func(f *models.TodoFilter) {
				f.Search = "financial"
			},
			wantTitles: []string{"Quarterly report"},
		},
		{
			name: "tag intersection",
			mutate: func(f *models.TodoFilter) {
				f.Tags = []string{"food", "missing"}
			},
			wantTitles: []string{"Buy groceries"},
		},
		{
			name: "due range excludes missing due dates",
			mutate: func(f *models.TodoFilter) {
				f.DueAfter = timePtr(now)
				f.DueBefore = timePtr(now.Add(48 * time.Hour))
			},
			wantTitles: []string{"Buy groceries"},
		},
		{
			name: "conjunctive criteria",
			mutate: func(f *models.TodoFilter) {
				f.Status = statusPtr(models.TodoStatusPending)
				f.Search = "report"
			},
			wantTitles: []string{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			filter := defaultFilter(userID)
			tt.mutate(filter)

			items, total, err := repo.List(ctx, filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if total != len(tt.wantTitles) {
				t.Errorf("Expected total %d, got %d", len(tt.wantTitles), total)
			}
			if len(items) != len(tt.wantTitles) {
				t.Fatalf("Expected %d items, got %d", len(tt.wantTitles), len(items))
			}
			for i, want := range tt.wantTitles {
				if items[i].Title != want {
					t.Errorf("Item %d: expected '%s', got '%s'", i, want, items[i].Title)
				}
			}
		})
	}
}

func TestMemoryTodoRepository_List_Sorting(t *testing.T) {
	t.Parallel()

	repo := NewMemoryTodoRepository()
	ctx := context.Background()
	userID := uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	low := newTestTodo(userID, "banana", base)
	low.Priority = models.TodoPriorityLow
	low.DueDate = timePtr(base.Add(48 * time.Hour))

	urgent := newTestTodo(userID, "apple", base.Add(time.Hour))
	urgent.Priority = models.TodoPriorityUrgent
	urgent.DueDate = timePtr(base.Add(24 * time.Hour))

	medium := newTestTodo(userID, "Cherry", base.Add(2*time.Hour))
	medium.Priority = models.TodoPriorityMedium
	// no due date: sorts last in both directions

	mediumLater := newTestTodo(userID, "date", base.Add(3*time.Hour))
	mediumLater.Priority = models.TodoPriorityMedium

	for _, todo := range []*models.Todo{medium, low, mediumLater, urgent} {
		if err := repo.Create(ctx, todo); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	tests := []struct {
		name       string
		sortBy     models.TodoSortKey
		order      models.SortOrder
		wantTitles []string
	}{
		{
			name:       "priority descending with createdAt tie-break",
			sortBy:     models.SortByPriority,
			order:      models.SortDesc,
			wantTitles: []string{"apple", "Cherry", "date", "banana"},
		},
		{
			name:       "priority ascending",
			sortBy:     models.SortByPriority,
			order:      models.SortAsc,
			wantTitles: []string{"banana", "Cherry", "date", "apple"},
		},
		{
			name:       "due date ascending puts missing dates last",
			sortBy:     models.SortByDueDate,
			order:      models.SortAsc,
			wantTitles: []string{"apple", "banana", "Cherry", "date"},
		},
		{
			name:       "due date descending still puts missing dates last",
			sortBy:     models.SortByDueDate,
			order:      models.SortDesc,
			wantTitles: []string{"banana", "apple", "Cherry", "date"},
		},
		{
			name:       "title ascending is case-insensitive",
			sortBy:     models.SortByTitle,
			order:      models.SortAsc,
			wantTitles: []string{"apple", "banana", "Cherry", "date"},
		},
		{
			name:       "created descending",
			sortBy:     models.SortByCreatedAt,
			order:      models.SortDesc,
			wantTitles: []string{"date", "Cherry", "apple", "banana"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			filter := defaultFilter(userID)
			filter.SortBy = tt.sortBy
			filter.SortOrder = tt.order

			items, _, err := repo.List(ctx, filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(items) != len(tt.wantTitles) {
				t.Fatalf("Expected %d items, got %d", len(tt.wantTitles), len(items))
			}
			for i, want := range tt.wantTitles {
				if items[i].Title != want {
					t.Errorf("Position %d: expected '%s', got '%s'", i, want, items[i].Title)
				}
			}
		})
	}
}

func TestMemoryTodoRepository_List_Pagination(t *testing.T) {
	t.Parallel()

	repo := NewMemoryTodoRepository()
	ctx := context.Background()
	userID := uuid.New()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		todo := newTestTodo(userID, "todo", base.Add(time.Duration(i)*time.Minute))
		if err := repo.Create(ctx, todo); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	filter := defaultFilter(userID)
	filter.SortOrder = models.SortAsc
	filter.Page = 2
	filter.Limit = 2

	items, total, err := repo.List(ctx, filter)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 5 {
		t.Errorf("Expected total 5, got %d", total)
	}
	if len(items) != 2 {
		t.Errorf("Expected 2 items on page 2, got %d", len(items))
	}

	// Last partial page
	filter.Page = 3
	items, _, err = repo.List(ctx, filter)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("Expected 1 item on page 3, got %d", len(items))
	}

	// Out-of-range page returns empty items, not an error
	filter.Page = 10
	items, total, err = repo.List(ctx, filter)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 5 {
		t.Errorf("Expected total 5 for out-of-range page, got %d", total)
	}
	if len(items) != 0 {
		t.Errorf("Expected empty page, got %d items", len(items))
	}
}

func TestMemoryTodoRepository_Stats_Empty(t *testing.T) {
	t.Parallel()

	repo := NewMemoryTodoRepository()

	stats, err := repo.Stats(context.Background(), uuid.New(), models.StatsPeriodAll, time.Now().UTC())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("Expected total 0, got %d", stats.Total)
	}
	if stats.CompletionRate != 0 {
		t.Errorf("Expected completion rate 0, got %f", stats.CompletionRate)
	}
	if len(stats.ByStatus) != 4 {
		t.Errorf("Expected all 4 status buckets present, got %d", len(stats.ByStatus))
	}
	if len(stats.ByPriority) != 4 {
		t.Errorf("Expected all 4 priority buckets present, got %d", len(stats.ByPriority))
	}
	if len(stats.ByCategory) != 6 {
		t.Errorf("Expected all 6 category buckets present, got %d", len(stats.ByCategory))
	}
}

func TestMemoryTodoRepository_Stats(t *testing.T) {
	t.Parallel()

	repo := NewMemoryTodoRepository()
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	done := newTestTodo(userID, "Done", now.Add(-2*time.Hour))
	done.Status = models.TodoStatusCompleted
	done.Priority = models.TodoPriorityHigh
	done.Category = models.TodoCategoryWork
	done.CompletedAt = timePtr(now.Add(-1 * time.Hour)) // completed in 60 minutes

	overdue := newTestTodo(userID, "Overdue", now.Add(-3*time.Hour))
	overdue.DueDate = timePtr(now.Add(-time.Hour))

	upcoming := newTestTodo(userID, "Upcoming", now.Add(-4*time.Hour))
	upcoming.DueDate = timePtr(now.Add(time.Hour))

	old := newTestTodo(userID, "Old", now.AddDate(0, 0, -30))

	for _, todo := range []*models.Todo{done, overdue, upcoming, old} {
		if err := repo.Create(ctx, todo); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	stats, err := repo.Stats(ctx, userID, models.StatsPeriodAll, now)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 4 {
		t.Errorf("Expected total 4, got %d", stats.Total)
	}
	if stats.ByStatus[models.TodoStatusCompleted] != 1 {
		t.Errorf("Expected 1 completed, got %d", stats.ByStatus[models.TodoStatusCompleted])
	}
	if stats.ByStatus[models.TodoStatusPending] != 3 {
		t.Errorf("Expected 3 pending, got %d", stats.ByStatus[models.TodoStatusPending])
	}
	if stats.ByPriority[models.TodoPriorityHigh] != 1 {
		t.Errorf("Expected 1 high priority, got %d", stats.ByPriority[models.TodoPriorityHigh])
	}
	if stats.ByCategory[models.TodoCategoryWork] != 1 {
		t.Errorf("Expected 1 work todo, got %d", stats.ByCategory[models.TodoCategoryWork])
	}
	if stats.Overdue != 1 {
		t.Errorf("Expected 1 overdue, got %d", stats.Overdue)
	}
	if stats.CompletionRate != 0.25 {
		t.Errorf("Expected completion rate 0.25, got %f", stats.CompletionRate)
	}
	if stats.AvgCompletionMinutes != 60 {
		t.Errorf("Expected avg completion 60 minutes, got %f", stats.AvgCompletionMinutes)
	}

	// The day window excludes the 30-day-old todo
	dayStats, err := repo.Stats(ctx, userID, models.StatsPeriodDay, now)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if dayStats.Total != 3 {
		t.Errorf("Expected total 3 in day window, got %d", dayStats.Total)
	}
}

func TestMemoryTodoRepository_SubtaskScoping(t *testing.T) {
	t.Parallel()

	repo := NewMemoryTodoRepository()
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now().UTC()

	parent := newTestTodo(userID, "Parent", now)
	subtask := &models.Subtask{ID: uuid.New(), TodoID: parent.ID, Title: "Child"}
	parent.Subtasks = []*models.Subtask{subtask}

	stranger := newTestTodo(userID, "Stranger", now)

	for _, todo := range []*models.Todo{parent, stranger} {
		if err := repo.Create(ctx, todo); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	// Correct parent finds it
	got, err := repo.GetSubtask(ctx, parent.ID, subtask.ID)
	if err != nil {
		t.Fatalf("GetSubtask failed: %v", err)
	}
	if got.Title != "Child" {
		t.Errorf("Expected title 'Child', got '%s'", got.Title)
	}

	// Wrong parent is not found
	if _, err := repo.GetSubtask(ctx, stranger.ID, subtask.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound under wrong parent, got %v", err)
	}
	if err := repo.DeleteSubtask(ctx, stranger.ID, subtask.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting under wrong parent, got %v", err)
	}

	// Delete under the right parent works exactly once
	if err := repo.DeleteSubtask(ctx, parent.ID, subtask.ID); err != nil {
		t.Fatalf("DeleteSubtask failed: %v", err)
	}
	if err := repo.DeleteSubtask(ctx, parent.ID, subtask.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}
