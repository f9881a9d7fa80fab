package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/todoforge/todoforge/internal/models"
	"github.com/todoforge/todoforge/internal/request"
	"github.com/todoforge/todoforge/internal/services/todos"
	"github.com/todoforge/todoforge/internal/validation"
	"go.uber.org/zap"
)

// TodoHandler handles todo-related requests
type TodoHandler struct {
	service *todos.Service
	logger  *zap.Logger
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(service *todos.Service, logger *zap.Logger) *TodoHandler {
	return &TodoHandler{service: service, logger: logger}
}

// RegisterRoutes registers todo routes on the given router. The router
// should already carry the /todos prefix. The stats route is registered
// before /{id} so "stats" is never captured as an ID.
func (h *TodoHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTodos).Methods("GET")
	r.HandleFunc("", h.CreateTodo).Methods("POST")
	r.HandleFunc("/stats", h.GetStats).Methods("GET")
	r.HandleFunc("/{id}", h.GetTodo).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTodo).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTodo).Methods("DELETE")
	r.HandleFunc("/{id}/subtasks", h.AddSubtask).Methods("POST")
	r.HandleFunc("/{id}/subtasks/{subtaskId}", h.UpdateSubtask).Methods("PATCH")
	r.HandleFunc("/{id}/subtasks/{subtaskId}", h.DeleteSubtask).Methods("DELETE")
}

// ListTodos lists todos for the authenticated user with filtering,
// sorting, and pagination
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	user := request.User(r.Context())
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	filter, err := parseTodoFilter(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	filter.UserID = user.ID

	if err := validation.Validate.Struct(filter); err != nil {
		respondValidationError(w, err)
		return
	}

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed_to_list_todos", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve todos")
		return
	}

	respondJSON(w, http.StatusOK, page)
}

// CreateTodo creates a new todo, with optional inline subtasks
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	user := request.User(r.Context())
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var input models.CreateTodoInput
	if !decodeBody(w, r, &input) {
		return
	}
	if err := validation.Validate.Struct(&input); err != nil {
		respondValidationError(w, err)
		return
	}

	todo, err := h.service.Create(r.Context(), user.ID, &input)
	if err != nil {
		h.logger.Error("failed_to_create_todo", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create todo")
		return
	}

	respondJSON(w, http.StatusCreated, todo)
}

// GetTodo retrieves a todo by ID
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	user := request.User(r.Context())
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	todo, err := h.service.Get(r.Context(), user.ID, id)
	if err != nil {
		respondStoreError(w, err, "Todo")
		return
	}

	respondJSON(w, http.StatusOK, todo)
}

// UpdateTodo applies a partial update to a todo. Supplying a subtasks
// array replaces the existing subtask set wholesale.
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	user := request.User(r.Context())
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var input models.UpdateTodoInput
	if !decodeBody(w, r, &input) {
		return
	}
	if err := validation.Validate.Struct(&input); err != nil {
		respondValidationError(w, err)
		return
	}

	todo, err := h.service.Update(r.Context(), user.ID, id, &input)
	if err != nil {
		respondStoreError(w, err, "Todo")
		return
	}

	respondJSON(w, http.StatusOK, todo)
}

// DeleteTodo deletes a todo and its subtasks
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	user := request.User(r.Context())
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), user.ID, id); err != nil {
		respondStoreError(w, err, "Todo")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStats returns the aggregate snapshot, optionally windowed by period
func (h *TodoHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	user := request.User(r.Context())
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	period := r.URL.Query().Get("period")
	if err := validation.ValidateStatsPeriod(period); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	stats, err := h.service.Stats(r.Context(), user.ID, models.StatsPeriod(period))
	if err != nil {
		h.logger.Error("failed_to_compute_stats", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to compute statistics")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// AddSubtask appends a subtask to a todo
func (h *TodoHandler) AddSubtask(w http.ResponseWriter, r *http.Request) {
	user := request.User(r.Context())
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var input models.SubtaskInput
	if !decodeBody(w, r, &input) {
		return
	}
	if err := validation.Validate.Struct(&input); err != nil {
		respondValidationError(w, err)
		return
	}

	subtask, err := h.service.AddSubtask(r.Context(), user.ID, id, &input)
	if err != nil {
		respondStoreError(w, err, "Todo")
		return
	}

	respondJSON(w, http.StatusCreated, subtask)
}

// UpdateSubtask updates a subtask scoped to its parent todo
func (h *TodoHandler) UpdateSubtask(w http.ResponseWriter, r *http.Request) {
	user := request.User(r.Context())
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	todoID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	subtaskID, ok := pathID(w, r, "subtaskId")
	if !ok {
		return
	}

	var input models.UpdateSubtaskInput
	if !decodeBody(w, r, &input) {
		return
	}
	if err := validation.Validate.Struct(&input); err != nil {
		respondValidationError(w, err)
		return
	}

	subtask, err := h.service.UpdateSubtask(r.Context(), user.ID, todoID, subtaskID, &input)
	if err != nil {
		respondStoreError(w, err, "Subtask")
		return
	}

	respondJSON(w, http.StatusOK, subtask)
}

// DeleteSubtask deletes a subtask scoped to its parent todo
func (h *TodoHandler) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	user := request.User(r.Context())
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	todoID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	subtaskID, ok := pathID(w, r, "subtaskId")
	if !ok {
		return
	}

	if err := h.service.DeleteSubtask(r.Context(), user.ID, todoID, subtaskID); err != nil {
		respondStoreError(w, err, "Subtask")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseTodoFilter builds a filter from list query parameters
func parseTodoFilter(r *http.Request) (*models.TodoFilter, error) {
	q := r.URL.Query()
	filter := &models.TodoFilter{
		Page:  1,
		Limit: todos.DefaultPageSize,
	}

	if p := q.Get("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("invalid page: %s", p)
		}
		filter.Page = parsed
	}
	if l := q.Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("invalid limit: %s", l)
		}
		if parsed > todos.MaxPageSize {
			parsed = todos.MaxPageSize
		}
		filter.Limit = parsed
	}

	if s := q.Get("status"); s != "" {
		if err := validation.ValidateTodoStatus(s); err != nil {
			return nil, err
		}
		status := models.TodoStatus(s)
		filter.Status = &status
	}
	if p := q.Get("priority"); p != "" {
		if err := validation.ValidateTodoPriority(p); err != nil {
			return nil, err
		}
		priority := models.TodoPriority(p)
		filter.Priority = &priority
	}
	if c := q.Get("category"); c != "" {
		if err := validation.ValidateTodoCategory(c); err != nil {
			return nil, err
		}
		category := models.TodoCategory(c)
		filter.Category = &category
	}

	filter.Search = q.Get("search")
	if tags := q.Get("tags"); tags != "" {
		filter.Tags = strings.Split(tags, ",")
	}

	if sortBy := q.Get("sortBy"); sortBy != "" {
		if err := validation.ValidateSortKey(sortBy); err != nil {
			return nil, err
		}
		filter.SortBy = models.TodoSortKey(sortBy)
	}
	if sortOrder := q.Get("sortOrder"); sortOrder != "" {
		if sortOrder != string(models.SortAsc) && sortOrder != string(models.SortDesc) {
			return nil, fmt.Errorf("invalid sortOrder: %s (must be 'asc' or 'desc')", sortOrder)
		}
		filter.SortOrder = models.SortOrder(sortOrder)
	}

	var err error
	if filter.DueAfter, err = parseTimeParam(q.Get("dueAfter"), "dueAfter"); err != nil {
		return nil, err
	}
	if filter.DueBefore, err = parseTimeParam(q.Get("dueBefore"), "dueBefore"); err != nil {
		return nil, err
	}

	return filter, nil
}

func parseTimeParam(value, name string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: must be an RFC 3339 timestamp", name)
	}
	return &t, nil
}

// decodeBody decodes a JSON request body, responding on failure
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}
	return true
}

// pathID parses a UUID path variable, responding on failure
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
