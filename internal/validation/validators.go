package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/todoforge/todoforge/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums and demonstration refinements.
	// Registration can only fail for empty tag names, so panic on error.
	for tag, fn := range map[string]validator.Func{
		"todo_status":         validateTodoStatus,
		"todo_priority":       validateTodoPriority,
		"todo_category":       validateTodoCategory,
		"stats_period":        validateStatsPeriod,
		"password_complexity": validatePasswordComplexity,
	} {
		if err := Validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register %s validator: %v", tag, err))
		}
	}

	// Cross-field refinement: a due-date range must not be inverted
	Validate.RegisterStructValidation(validateTodoFilter, models.TodoFilter{})
}

func validateTodoStatus(fl validator.FieldLevel) bool {
	return ValidateTodoStatus(fl.Field().String()) == nil
}

func validateTodoPriority(fl validator.FieldLevel) bool {
	return ValidateTodoPriority(fl.Field().String()) == nil
}

func validateTodoCategory(fl validator.FieldLevel) bool {
	return ValidateTodoCategory(fl.Field().String()) == nil
}

func validateStatsPeriod(fl validator.FieldLevel) bool {
	return ValidateStatsPeriod(fl.Field().String()) == nil
}

// validatePasswordComplexity requires at least one lowercase letter, one
// uppercase letter, and one digit. Length bounds are separate tags.
func validatePasswordComplexity(fl validator.FieldLevel) bool {
	var hasLower, hasUpper, hasDigit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLower && hasUpper && hasDigit
}

func validateTodoFilter(sl validator.StructLevel) {
	filter := sl.Current().Interface().(models.TodoFilter)
	if filter.DueAfter != nil && filter.DueBefore != nil && filter.DueAfter.After(*filter.DueBefore) {
		sl.ReportError(filter.DueBefore, "DueBefore", "dueBefore", "daterange", "")
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing
// control characters except newline and tab.
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateTodoStatus validates a TodoStatus string value
func ValidateTodoStatus(value string) error {
	switch models.TodoStatus(value) {
	case models.TodoStatusPending, models.TodoStatusInProgress, models.TodoStatusCompleted, models.TodoStatusCancelled:
		return nil
	default:
		return fmt.Errorf("invalid status: %s (must be 'pending', 'in_progress', 'completed', or 'cancelled')", value)
	}
}

// ValidateTodoPriority validates a TodoPriority string value
func ValidateTodoPriority(value string) error {
	switch models.TodoPriority(value) {
	case models.TodoPriorityLow, models.TodoPriorityMedium, models.TodoPriorityHigh, models.TodoPriorityUrgent:
		return nil
	default:
		return fmt.Errorf("invalid priority: %s (must be 'low', 'medium', 'high', or 'urgent')", value)
	}
}

// ValidateTodoCategory validates a TodoCategory string value
func ValidateTodoCategory(value string) error {
	switch models.TodoCategory(value) {
	case models.TodoCategoryPersonal, models.TodoCategoryWork, models.TodoCategoryShopping,
		models.TodoCategoryHealth, models.TodoCategoryLearning, models.TodoCategoryOther:
		return nil
	default:
		return fmt.Errorf("invalid category: %s (must be 'personal', 'work', 'shopping', 'health', 'learning', or 'other')", value)
	}
}

// ValidateSortKey validates a TodoSortKey string value
func ValidateSortKey(value string) error {
	switch models.TodoSortKey(value) {
	case models.SortByCreatedAt, models.SortByUpdatedAt, models.SortByDueDate, models.SortByPriority, models.SortByTitle:
		return nil
	default:
		return fmt.Errorf("invalid sortBy: %s (must be 'createdAt', 'updatedAt', 'dueDate', 'priority', or 'title')", value)
	}
}

// ValidateStatsPeriod validates a StatsPeriod string value; empty means all time
func ValidateStatsPeriod(value string) error {
	switch models.StatsPeriod(value) {
	case models.StatsPeriodAll, models.StatsPeriodDay, models.StatsPeriodWeek, models.StatsPeriodMonth, models.StatsPeriodYear:
		return nil
	default:
		return fmt.Errorf("invalid period: %s (must be 'day', 'week', 'month', or 'year')", value)
	}
}

// NormalizeTags case-folds, trims, and de-duplicates a tag list while
// preserving first-seen order. Empty entries are dropped.
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	normalized := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		folded := strings.ToLower(strings.TrimSpace(tag))
		if folded == "" {
			continue
		}
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		normalized = append(normalized, folded)
	}
	return normalized
}

// FieldErrors flattens a validator error into client-facing per-field
// messages keyed by the JSON field name. Non-validation errors produce a
// single "request" entry.
func FieldErrors(err error) map[string]string {
	fields := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		fields["request"] = "invalid request"
		return fields
	}
	for _, fe := range validationErrors {
		fields[fieldName(fe)] = fieldMessage(fe)
	}
	return fields
}

func fieldName(fe validator.FieldError) string {
	// Namespace is like "CreateTodoInput.Subtasks[0].Title"; drop the
	// struct name and lower-case the leading segment characters.
	name := fe.Namespace()
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	parts := strings.Split(name, ".")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToLower(part[:1]) + part[1:]
	}
	return strings.Join(parts, ".")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "unique":
		return "must not contain duplicate entries"
	case "todo_status":
		return "must be 'pending', 'in_progress', 'completed', or 'cancelled'"
	case "todo_priority":
		return "must be 'low', 'medium', 'high', or 'urgent'"
	case "todo_category":
		return "must be 'personal', 'work', 'shopping', 'health', 'learning', or 'other'"
	case "stats_period":
		return "must be 'day', 'week', 'month', or 'year'"
	case "password_complexity":
		return "must contain a lowercase letter, an uppercase letter, and a digit"
	case "daterange":
		return "must not be before dueAfter"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
