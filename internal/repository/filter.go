package repository

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-tracker/internal/domain"
	"github.com/Tomlord1122/todo-tracker/internal/validation"
)

// Status keywords accepted by the status filter.
const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
	StatusOverdue   = "overdue"
)

// Order selects one of the two deterministic orderings.
type Order int

const (
	// OrderNewest sorts by creation time, newest first.
	OrderNewest Order = iota
	// OrderDashboard puts open work first: completed last, then priority
	// (urgent first), then due date (missing last), then newest.
	OrderDashboard
)

// TodoFilter narrows a todo listing. The zero value returns everything the
// owner has, newest first.
type TodoFilter struct {
	Completed  *bool
	Priority   *domain.Priority
	CategoryID *uint
	// Search is matched case-insensitively against the title, and also the
	// description when SearchDescription is set.
	Search            string
	SearchDescription bool
	Status            string
	Order             Order
	// Now is the clock used by the overdue status. Zero means time.Now.
	Now time.Time
}

// FilterError reports a filter parameter that could not be parsed.
type FilterError struct {
	Param string
	Value string
	msg   string
}

func (e *FilterError) Error() string {
	return e.msg
}

// ParseTodoFilter reads completed, priority, category_id, search and status
// from query parameters. Empty parameters are ignored; malformed ones are
// reported as a *FilterError.
func ParseTodoFilter(values url.Values) (TodoFilter, error) {
	var f TodoFilter

	if v := strings.TrimSpace(values.Get("completed")); v != "" {
		completed, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			return f, &FilterError{Param: "completed", Value: v, msg: "Invalid completed value"}
		}
		f.Completed = &completed
	}

	if v := strings.TrimSpace(values.Get("priority")); v != "" {
		p, err := domain.ParsePriority(v)
		if err != nil {
			return f, &FilterError{Param: "priority", Value: v, msg: "Invalid priority level"}
		}
		f.Priority = &p
	}

	if v := strings.TrimSpace(values.Get("category_id")); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			return f, &FilterError{Param: "category_id", Value: v, msg: "Invalid category id"}
		}
		cid := uint(id)
		f.CategoryID = &cid
	}

	if ok, msg := validation.Query(values.Get("search")); !ok {
		return f, &FilterError{Param: "search", Value: values.Get("search"), msg: msg}
	}
	f.Search = validation.SanitizeQuery(values.Get("search"))

	switch v := strings.ToLower(strings.TrimSpace(values.Get("status"))); v {
	case "", "all":
	case StatusCompleted, StatusPending, StatusOverdue:
		f.Status = v
	default:
		return f, &FilterError{Param: "status", Value: v, msg: "Invalid status filter"}
	}

	return f, nil
}

// priorityRank is a SQL expression ranking todos.priority like
// domain.Priority.Rank.
var priorityRank = func() string {
	var b strings.Builder
	b.WriteString("CASE todos.priority")
	for _, p := range domain.Priorities {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", p, p.Rank())
	}
	b.WriteString(" ELSE 0 END")
	return b.String()
}()

// escapeLike escapes LIKE wildcards so user input only matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// scope applies the owner restriction, every supplied predicate and the
// requested ordering. Ties always break on id so results are a total order.
func (f TodoFilter) scope(db *gorm.DB, ownerID uint) *gorm.DB {
	q := db.Where("todos.user_id = ?", ownerID)

	if f.Completed != nil {
		q = q.Where("todos.is_completed = ?", *f.Completed)
	}
	if f.Priority != nil {
		q = q.Where("todos.priority = ?", string(*f.Priority))
	}
	if f.CategoryID != nil {
		q = q.Where("todos.category_id = ?", *f.CategoryID)
	}
	if f.Search != "" {
		// Both sides fold in the database so they fold the same way.
		pattern := "%" + escapeLike(f.Search) + "%"
		if f.SearchDescription {
			q = q.Where(`(LOWER(todos.title) LIKE LOWER(?) ESCAPE '\' OR LOWER(COALESCE(todos.description, '')) LIKE LOWER(?) ESCAPE '\')`, pattern, pattern)
		} else {
			q = q.Where(`LOWER(todos.title) LIKE LOWER(?) ESCAPE '\'`, pattern)
		}
	}

	switch f.Status {
	case StatusCompleted:
		q = q.Where("todos.is_completed = ?", true)
	case StatusPending:
		q = q.Where("todos.is_completed = ?", false)
	case StatusOverdue:
		now := f.Now
		if now.IsZero() {
			now = time.Now()
		}
		q = q.Where("todos.is_completed = ? AND todos.due_date IS NOT NULL AND todos.due_date < ?", false, now.UTC())
	}

	switch f.Order {
	case OrderDashboard:
		q = q.Order("todos.is_completed ASC").
			Order(priorityRank + " DESC").
			Order("CASE WHEN todos.due_date IS NULL THEN 1 ELSE 0 END ASC").
			Order("todos.due_date ASC").
			Order("todos.created_at DESC").
			Order("todos.id ASC")
	default:
		q = q.Order("todos.created_at DESC").Order("todos.id ASC")
	}
	return q
}
