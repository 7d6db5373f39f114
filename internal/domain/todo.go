package domain

import (
	"math"
	"time"
)

// Todo is a single task owned by exactly one user.
type Todo struct {
	ID          uint       `gorm:"primaryKey"`
	Title       string     `gorm:"size:100;not null"`
	Description *string    `gorm:"type:text"`
	IsCompleted bool       `gorm:"not null;default:false;index"`
	Priority    Priority   `gorm:"size:10;not null;default:'medium';index"`
	DueDate     *time.Time `gorm:"index"`
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      uint      `gorm:"not null;index"`
	CategoryID  *uint     `gorm:"index"`
	Category    *Category `gorm:"constraint:OnDelete:SET NULL"`
}

// TodoParams is the full set of fields accepted when creating a todo.
type TodoParams struct {
	Title       string
	Description *string
	Priority    Priority
	DueDate     *time.Time
	UserID      uint
	CategoryID  *uint
}

// NewTodo builds an unsaved todo. An empty priority falls back to medium and
// an empty description is stored as NULL.
func NewTodo(p TodoParams) *Todo {
	priority := p.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	t := &Todo{
		Title:      p.Title,
		Priority:   priority,
		UserID:     p.UserID,
		CategoryID: p.CategoryID,
	}
	t.SetDescription(p.Description)
	t.SetDueDate(p.DueDate)
	return t
}

// SetDescription stores nil for a missing or empty description.
func (t *Todo) SetDescription(desc *string) {
	if desc == nil || *desc == "" {
		t.Description = nil
		return
	}
	d := *desc
	t.Description = &d
}

// SetDueDate normalises the due date to UTC.
func (t *Todo) SetDueDate(due *time.Time) {
	if due == nil {
		t.DueDate = nil
		return
	}
	d := due.UTC()
	t.DueDate = &d
}

// ToggleComplete flips the completion flag and keeps CompletedAt in step
// with it.
func (t *Todo) ToggleComplete(now time.Time) {
	t.SetCompleted(!t.IsCompleted, now)
}

// SetCompleted sets the completion flag. CompletedAt is stamped with now when
// completing and cleared when reopening.
func (t *Todo) SetCompleted(completed bool, now time.Time) {
	t.IsCompleted = completed
	if completed {
		ts := now.UTC()
		t.CompletedAt = &ts
		return
	}
	t.CompletedAt = nil
}

// IsOverdue reports whether the todo has a due date strictly before now and
// is still open.
func (t *Todo) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.IsCompleted {
		return false
	}
	return t.DueDate.Before(now)
}

// DaysUntilDue returns the whole number of days from now until the due date,
// rounded towards negative infinity, so anything already past is negative.
// It is nil for completed todos and todos without a due date.
func (t *Todo) DaysUntilDue(now time.Time) *int {
	if t.DueDate == nil || t.IsCompleted {
		return nil
	}
	days := int(math.Floor(t.DueDate.Sub(now).Hours() / 24))
	return &days
}

// DescriptionText returns the description or an empty string.
func (t *Todo) DescriptionText() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}
