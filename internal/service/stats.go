package service

import (
	"math"
	"sort"
	"time"

	"github.com/Tomlord1122/todo-tracker/internal/domain"
)

const (
	dueSoonDays     = 3
	dashboardListed = 5
)

// Stats summarises a user's todos.
type Stats struct {
	Total             int            `json:"total"`
	Completed         int            `json:"completed"`
	Pending           int            `json:"pending"`
	CompletionRate    float64        `json:"completion_rate"`
	PriorityBreakdown map[string]int `json:"priority_breakdown"`
	Overdue           int            `json:"overdue"`
	DueSoon           int            `json:"due_soon"`
}

// CategoryBucket counts todos under one category. ID is zero for the
// uncategorised bucket.
type CategoryBucket struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
}

// Dashboard is Stats plus per-category counts and two short lists.
type Dashboard struct {
	Stats
	Categories        []CategoryBucket `json:"categories"`
	RecentlyCompleted []domain.Todo    `json:"-"`
	Upcoming          []domain.Todo    `json:"-"`
}

// ComputeStats aggregates todos as of now. The priority breakdown only
// counts pending todos and always carries all four levels.
func ComputeStats(todos []domain.Todo, now time.Time) Stats {
	s := Stats{
		Total:             len(todos),
		PriorityBreakdown: make(map[string]int, len(domain.Priorities)),
	}
	for _, p := range domain.Priorities {
		s.PriorityBreakdown[p.String()] = 0
	}

	for i := range todos {
		t := &todos[i]
		if t.IsCompleted {
			s.Completed++
			continue
		}
		s.PriorityBreakdown[t.Priority.String()]++
		if t.IsOverdue(now) {
			s.Overdue++
		}
		if d := t.DaysUntilDue(now); d != nil && *d >= 0 && *d <= dueSoonDays {
			s.DueSoon++
		}
	}
	s.Pending = s.Total - s.Completed
	if s.Total > 0 {
		s.CompletionRate = math.Round(float64(s.Completed)/float64(s.Total)*1000) / 10
	}
	return s
}

// ComputeDashboard builds the dashboard view. Categories keep the order they
// are given in; the uncategorised bucket is appended only when non-empty.
func ComputeDashboard(todos []domain.Todo, categories []domain.Category, now time.Time) *Dashboard {
	d := &Dashboard{Stats: ComputeStats(todos, now)}

	index := make(map[uint]int, len(categories))
	d.Categories = make([]CategoryBucket, 0, len(categories)+1)
	for _, c := range categories {
		index[c.ID] = len(d.Categories)
		d.Categories = append(d.Categories, CategoryBucket{ID: c.ID, Name: c.Name, Color: c.Color})
	}
	uncategorised := CategoryBucket{Name: "Uncategorized", Color: domain.DefaultCategoryColor}

	var completed, upcoming []domain.Todo
	for _, t := range todos {
		bucket := &uncategorised
		if t.CategoryID != nil {
			if i, ok := index[*t.CategoryID]; ok {
				bucket = &d.Categories[i]
			}
		}
		bucket.Total++
		if t.IsCompleted {
			bucket.Completed++
			if t.CompletedAt != nil {
				completed = append(completed, t)
			}
		} else if t.DueDate != nil && !t.DueDate.Before(now) {
			upcoming = append(upcoming, t)
		}
	}
	if uncategorised.Total > 0 {
		d.Categories = append(d.Categories, uncategorised)
	}

	sort.SliceStable(completed, func(i, j int) bool {
		a, b := completed[i], completed[j]
		if !a.CompletedAt.Equal(*b.CompletedAt) {
			return a.CompletedAt.After(*b.CompletedAt)
		}
		return a.ID < b.ID
	})
	sort.SliceStable(upcoming, func(i, j int) bool {
		a, b := upcoming[i], upcoming[j]
		if !a.DueDate.Equal(*b.DueDate) {
			return a.DueDate.Before(*b.DueDate)
		}
		return a.ID < b.ID
	})
	d.RecentlyCompleted = firstN(completed, dashboardListed)
	d.Upcoming = firstN(upcoming, dashboardListed)
	return d
}

func firstN(todos []domain.Todo, n int) []domain.Todo {
	if len(todos) > n {
		return todos[:n]
	}
	return todos
}
