package domain

import (
	"fmt"
	"strings"
)

// Priority is the importance level of a todo. The zero value is not a valid
// priority; use PriorityMedium as the default.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every level from lowest to highest rank.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// ParsePriority maps a wire value onto a Priority. Matching is exact, the
// same way the stored enum values are compared.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("invalid priority %q", s)
	}
	return p, nil
}

// Valid reports whether p is one of the four known levels.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities: low=1 < medium=2 < high=3 < urgent=4. Unknown
// values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	default:
		return 0
	}
}

func (p Priority) String() string {
	return string(p)
}

// Label is the capitalised form shown in the web UI.
func (p Priority) Label() string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}
