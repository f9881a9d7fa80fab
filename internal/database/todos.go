package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/todoforge/todoforge/internal/models"
)

// TodoRepository handles todo database operations against Postgres
type TodoRepository struct {
	db *DB
}

// NewTodoRepository creates a new todo repository
func NewTodoRepository(db *DB) *TodoRepository {
	return &TodoRepository{db: db}
}

// Create persists a todo and its inline subtasks inside one transaction so
// a failed subtask insert cannot leave a parent without its children.
func (r *TodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO todos (id, user_id, title, description, priority, status, category,
			due_date, completed_at, tags, estimated_minutes, actual_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = tx.ExecContext(ctx, query,
		todo.ID,
		todo.UserID,
		todo.Title,
		todo.Description,
		todo.Priority,
		todo.Status,
		todo.Category,
		nullTime(todo.DueDate),
		nullTime(todo.CompletedAt),
		pq.Array(todo.Tags),
		nullInt(todo.EstimatedMinutes),
		nullInt(todo.ActualMinutes),
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}

	for _, subtask := range todo.Subtasks {
		if err := insertSubtask(ctx, tx, subtask); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit todo creation: %w", err)
	}
	return nil
}

// GetByID retrieves a todo with its subtasks attached. Todos of other
// users are reported as not found rather than forbidden.
func (r *TodoRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Todo, error) {
	query := todoSelectColumns + ` FROM todos WHERE id = $1 AND user_id = $2`

	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}

	subtasks, err := r.loadSubtasks(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	todo.Subtasks = subtasks[id]
	if todo.Subtasks == nil {
		todo.Subtasks = []*models.Subtask{}
	}
	return todo, nil
}

// Update updates an existing todo row
func (r *TodoRepository) Update(ctx context.Context, todo *models.Todo) error {
	query := `
		UPDATE todos
		SET title = $3, description = $4, priority = $5, status = $6, category = $7,
			due_date = $8, completed_at = $9, tags = $10, estimated_minutes = $11,
			actual_minutes = $12, updated_at = $13
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.db.ExecContext(ctx, query,
		todo.ID,
		todo.UserID,
		todo.Title,
		todo.Description,
		todo.Priority,
		todo.Status,
		todo.Category,
		nullTime(todo.DueDate),
		nullTime(todo.CompletedAt),
		pq.Array(todo.Tags),
		nullInt(todo.EstimatedMinutes),
		nullInt(todo.ActualMinutes),
		todo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	return requireRow(result)
}

// ReplaceSubtasks swaps the entire subtask set of a todo inside one
// transaction. Existing subtask IDs and completion history are discarded.
func (r *TodoRepository) ReplaceSubtasks(ctx context.Context, todoID uuid.UUID, subtasks []*models.Subtask) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM subtasks WHERE todo_id = $1`, todoID); err != nil {
		return fmt.Errorf("failed to clear subtasks: %w", err)
	}
	for _, subtask := range subtasks {
		if err := insertSubtask(ctx, tx, subtask); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit subtask replacement: %w", err)
	}
	return nil
}

// Delete deletes a todo; the foreign key cascades to its subtasks
func (r *TodoRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return requireRow(result)
}

// List returns the filtered, sorted page of todos and the total match
// count. Filtering is conjunctive; the tag filter uses array overlap.
func (r *TodoRepository) List(ctx context.Context, filter *models.TodoFilter) ([]*models.Todo, int, error) {
	where := []string{"user_id = $1"}
	args := []any{filter.UserID}
	argIndex := 2

	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(*filter.Status))
		argIndex++
	}
	if filter.Priority != nil {
		where = append(where, fmt.Sprintf("priority = $%d", argIndex))
		args = append(args, string(*filter.Priority))
		argIndex++
	}
	if filter.Category != nil {
		where = append(where, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, string(*filter.Category))
		argIndex++
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		argIndex++
	}
	if len(filter.Tags) > 0 {
		where = append(where, fmt.Sprintf("tags && $%d", argIndex))
		args = append(args, pq.Array(filter.Tags))
		argIndex++
	}
	if filter.DueAfter != nil {
		where = append(where, fmt.Sprintf("due_date >= $%d", argIndex))
		args = append(args, *filter.DueAfter)
		argIndex++
	}
	if filter.DueBefore != nil {
		where = append(where, fmt.Sprintf("due_date <= $%d", argIndex))
		args = append(args, *filter.DueBefore)
		argIndex++
	}

	whereClause := " WHERE " + strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM todos` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count todos: %w", err)
	}

	query := todoSelectColumns + ` FROM todos` + whereClause +
		` ORDER BY ` + orderExpr(filter.SortBy, filter.SortOrder) +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, argIndex, argIndex+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	todos := []*models.Todo{}
	ids := []uuid.UUID{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
		ids = append(ids, todo.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating todos: %w", err)
	}

	subtasks, err := r.loadSubtasks(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, todo := range todos {
		todo.Subtasks = subtasks[todo.ID]
		if todo.Subtasks == nil {
			todo.Subtasks = []*models.Subtask{}
		}
	}

	return todos, total, nil
}

// Stats recomputes the aggregate snapshot from the backing set on every
// call. The period window selects todos by creation time.
func (r *TodoRepository) Stats(ctx context.Context, userID uuid.UUID, period models.StatsPeriod, now time.Time) (*models.TodoStats, error) {
	stats := models.NewTodoStats()

	where := "user_id = $1"
	args := []any{userID}
	start := period.WindowStart(now)
	if !start.IsZero() {
		where += " AND created_at >= $2"
		args = append(args, start)
	}

	for _, group := range []string{"status", "priority", "category"} {
		query := fmt.Sprintf(`SELECT %s, COUNT(*) FROM todos WHERE %s GROUP BY %s`, group, where, group)
		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate todos by %s: %w", group, err)
		}
		if err := scanGroupCounts(rows, group, stats); err != nil {
			return nil, err
		}
	}
	for _, count := range stats.ByStatus {
		stats.Total += count
	}

	overdueQuery := fmt.Sprintf(
		`SELECT COUNT(*) FROM todos WHERE %s AND due_date IS NOT NULL AND due_date < $%d AND status <> 'completed'`,
		where, len(args)+1)
	if err := r.db.QueryRowContext(ctx, overdueQuery, append(args, now)...).Scan(&stats.Overdue); err != nil {
		return nil, fmt.Errorf("failed to count overdue todos: %w", err)
	}

	avgQuery := fmt.Sprintf(
		`SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (completed_at - created_at)) / 60), 0)
		 FROM todos WHERE %s AND status = 'completed' AND completed_at IS NOT NULL`, where)
	if err := r.db.QueryRowContext(ctx, avgQuery, args...).Scan(&stats.AvgCompletionMinutes); err != nil {
		return nil, fmt.Errorf("failed to compute average completion time: %w", err)
	}

	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.ByStatus[models.TodoStatusCompleted]) / float64(stats.Total)
	}
	return stats, nil
}

// AddSubtask appends a subtask to an existing todo
func (r *TodoRepository) AddSubtask(ctx context.Context, subtask *models.Subtask) error {
	if err := insertSubtask(ctx, r.db.DB, subtask); err != nil {
		return err
	}
	return nil
}

// GetSubtask retrieves a subtask scoped to its parent todo. A subtask ID
// that exists under a different todo is reported as not found.
func (r *TodoRepository) GetSubtask(ctx context.Context, todoID, subtaskID uuid.UUID) (*models.Subtask, error) {
	query := `
		SELECT id, todo_id, title, completed, completed_at, order_index, created_at, updated_at
		FROM subtasks
		WHERE id = $1 AND todo_id = $2
	`
	subtask := &models.Subtask{}
	var completedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, subtaskID, todoID).Scan(
		&subtask.ID,
		&subtask.TodoID,
		&subtask.Title,
		&subtask.Completed,
		&completedAt,
		&subtask.OrderIndex,
		&subtask.CreatedAt,
		&subtask.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subtask: %w", err)
	}
	if completedAt.Valid {
		subtask.CompletedAt = &completedAt.Time
	}
	return subtask, nil
}

// UpdateSubtask updates a subtask, scoped to its parent todo
func (r *TodoRepository) UpdateSubtask(ctx context.Context, subtask *models.Subtask) error {
	query := `
		UPDATE subtasks
		SET title = $3, completed = $4, completed_at = $5, order_index = $6, updated_at = $7
		WHERE id = $1 AND todo_id = $2
	`
	result, err := r.db.ExecContext(ctx, query,
		subtask.ID,
		subtask.TodoID,
		subtask.Title,
		subtask.Completed,
		nullTime(subtask.CompletedAt),
		subtask.OrderIndex,
		subtask.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update subtask: %w", err)
	}
	return requireRow(result)
}

// DeleteSubtask deletes a subtask, scoped to its parent todo
func (r *TodoRepository) DeleteSubtask(ctx context.Context, todoID, subtaskID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM subtasks WHERE id = $1 AND todo_id = $2`, subtaskID, todoID)
	if err != nil {
		return fmt.Errorf("failed to delete subtask: %w", err)
	}
	return requireRow(result)
}

const todoSelectColumns = `
	SELECT id, user_id, title, description, priority, status, category,
		due_date, completed_at, tags, estimated_minutes, actual_minutes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	todo := &models.Todo{}
	var dueDate, completedAt sql.NullTime
	var estimated, actual sql.NullInt64

	err := row.Scan(
		&todo.ID,
		&todo.UserID,
		&todo.Title,
		&todo.Description,
		&todo.Priority,
		&todo.Status,
		&todo.Category,
		&dueDate,
		&completedAt,
		(*pq.StringArray)(&todo.Tags),
		&estimated,
		&actual,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		todo.DueDate = &dueDate.Time
	}
	if completedAt.Valid {
		todo.CompletedAt = &completedAt.Time
	}
	if estimated.Valid {
		v := int(estimated.Int64)
		todo.EstimatedMinutes = &v
	}
	if actual.Valid {
		v := int(actual.Int64)
		todo.ActualMinutes = &v
	}
	if todo.Tags == nil {
		todo.Tags = []string{}
	}
	return todo, nil
}

func (r *TodoRepository) loadSubtasks(ctx context.Context, todoIDs []uuid.UUID) (map[uuid.UUID][]*models.Subtask, error) {
	result := make(map[uuid.UUID][]*models.Subtask, len(todoIDs))
	if len(todoIDs) == 0 {
		return result, nil
	}

	ids := make([]string, len(todoIDs))
	for i, id := range todoIDs {
		ids[i] = id.String()
	}
	query := `
		SELECT id, todo_id, title, completed, completed_at, order_index, created_at, updated_at
		FROM subtasks
		WHERE todo_id = ANY($1)
		ORDER BY todo_id, order_index, created_at
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query subtasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		subtask := &models.Subtask{}
		var completedAt sql.NullTime
		err := rows.Scan(
			&subtask.ID,
			&subtask.TodoID,
			&subtask.Title,
			&subtask.Completed,
			&completedAt,
			&subtask.OrderIndex,
			&subtask.CreatedAt,
			&subtask.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subtask: %w", err)
		}
		if completedAt.Valid {
			subtask.CompletedAt = &completedAt.Time
		}
		result[subtask.TodoID] = append(result[subtask.TodoID], subtask)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subtasks: %w", err)
	}
	return result, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertSubtask(ctx context.Context, db execer, subtask *models.Subtask) error {
	query := `
		INSERT INTO subtasks (id, todo_id, title, completed, completed_at, order_index, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := db.ExecContext(ctx, query,
		subtask.ID,
		subtask.TodoID,
		subtask.Title,
		subtask.Completed,
		nullTime(subtask.CompletedAt),
		subtask.OrderIndex,
		subtask.CreatedAt,
		subtask.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subtask: %w", err)
	}
	return nil
}

func scanGroupCounts(rows *sql.Rows, group string, stats *models.TodoStats) error {
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan %s count: %w", group, err)
		}
		switch group {
		case "status":
			stats.ByStatus[models.TodoStatus(key)] = count
		case "priority":
			stats.ByPriority[models.TodoPriority(key)] = count
		case "category":
			stats.ByCategory[models.TodoCategory(key)] = count
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating %s counts: %w", group, err)
	}
	return nil
}

// orderExpr builds the ORDER BY expression. Ties are always broken by
// creation time ascending so equal sort keys order deterministically.
func orderExpr(sortBy models.TodoSortKey, order models.SortOrder) string {
	direction := "ASC"
	if order == models.SortDesc {
		direction = "DESC"
	}
	var expr string
	switch sortBy {
	case models.SortByUpdatedAt:
		expr = "updated_at"
	case models.SortByDueDate:
		expr = "due_date"
	case models.SortByPriority:
		expr = "CASE priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 WHEN 'urgent' THEN 4 ELSE 0 END"
	case models.SortByTitle:
		expr = "LOWER(title)"
	default:
		expr = "created_at"
	}
	return fmt.Sprintf("%s %s NULLS LAST, created_at ASC", expr, direction)
}

// escapeLike escapes LIKE metacharacters in user-supplied search text
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
