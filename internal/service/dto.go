package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Tomlord1122/todo-tracker/internal/domain"
)

// Optional tells an absent JSON field apart from an explicit null. Set is
// true whenever the key was present; Value is nil for null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a present Optional holding null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// CreateTodoRequest holds the data needed to create a new todo.
type CreateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"due_date"`
	CategoryID  *uint   `json:"category_id"`
}

// UpdateTodoRequest holds a partial update. Absent fields are left alone;
// null clears optional fields.
type UpdateTodoRequest struct {
	Title       Optional[string] `json:"title"`
	Description Optional[string] `json:"description"`
	Priority    Optional[string] `json:"priority"`
	DueDate     Optional[string] `json:"due_date"`
	CategoryID  Optional[uint]   `json:"category_id"`
	IsCompleted Optional[bool]   `json:"is_completed"`
}

// CreateCategoryRequest holds the data needed to create a category. A
// missing color falls back to domain.DefaultCategoryColor.
type CreateCategoryRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// UpdateCategoryRequest is a partial category update.
type UpdateCategoryRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// RegisterRequest holds a new account. ConfirmPassword must equal Password.
type RegisterRequest struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// CategoryResponse is the wire form of a category.
type CategoryResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	UserID    uint   `json:"user_id"`
	CreatedAt string `json:"created_at"`
	TodoCount *int64 `json:"todo_count,omitempty"`
}

// TodoResponse is the wire form of a todo, derived fields included.
type TodoResponse struct {
	ID           uint              `json:"id"`
	Title        string            `json:"title"`
	Description  *string           `json:"description"`
	IsCompleted  bool              `json:"is_completed"`
	Priority     string            `json:"priority"`
	DueDate      *string           `json:"due_date"`
	CompletedAt  *string           `json:"completed_at"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
	UserID       uint              `json:"user_id"`
	CategoryID   *uint             `json:"category_id"`
	Category     *CategoryResponse `json:"category"`
	IsOverdue    bool              `json:"is_overdue"`
	DaysUntilDue *int              `json:"days_until_due"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// NewCategoryResponse converts a category for the API.
func NewCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Color:     c.Color,
		UserID:    c.UserID,
		CreatedAt: formatTime(c.CreatedAt),
	}
}

// NewTodoResponse converts a todo for the API, evaluating derived fields at
// now.
func NewTodoResponse(t *domain.Todo, now time.Time) TodoResponse {
	resp := TodoResponse{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		IsCompleted:  t.IsCompleted,
		Priority:     t.Priority.String(),
		DueDate:      formatTimePtr(t.DueDate),
		CompletedAt:  formatTimePtr(t.CompletedAt),
		CreatedAt:    formatTime(t.CreatedAt),
		UpdatedAt:    formatTime(t.UpdatedAt),
		UserID:       t.UserID,
		CategoryID:   t.CategoryID,
		IsOverdue:    t.IsOverdue(now),
		DaysUntilDue: t.DaysUntilDue(now),
	}
	if t.Category != nil {
		c := NewCategoryResponse(t.Category)
		resp.Category = &c
	}
	return resp
}

// NewTodoResponses converts a list of todos.
func NewTodoResponses(todos []domain.Todo, now time.Time) []TodoResponse {
	out := make([]TodoResponse, 0, len(todos))
	for i := range todos {
		out = append(out, NewTodoResponse(&todos[i], now))
	}
	return out
}

// NewUserResponse converts an account for the API.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: formatTime(u.CreatedAt),
	}
}

// dueDateLayouts are tried in order. Layouts without a zone are read as UTC.
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDueDate accepts ISO-8601 style timestamps. An empty string means no
// due date.
func ParseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
	}
	return nil, fmt.Errorf("unrecognised date %q", s)
}
