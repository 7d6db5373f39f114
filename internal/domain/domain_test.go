package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func ptrTime(t time.Time) *time.Time { return &t }

func TestNewTodoDefaults(t *testing.T) {
	empty := ""
	todo := NewTodo(TodoParams{Title: "Buy milk", Description: &empty, UserID: 7})

	assert.Equal(t, PriorityMedium, todo.Priority)
	assert.Nil(t, todo.Description)
	assert.Nil(t, todo.DueDate)
	assert.False(t, todo.IsCompleted)
	assert.Equal(t, uint(7), todo.UserID)
}

func TestNewTodoNormalisesDueDateToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	due := time.Date(2026, 3, 11, 14, 0, 0, 0, loc)

	todo := NewTodo(TodoParams{Title: "x", DueDate: &due})

	require.NotNil(t, todo.DueDate)
	assert.Equal(t, time.UTC, todo.DueDate.Location())
	assert.True(t, todo.DueDate.Equal(due))
}

func TestToggleCompleteRestoresState(t *testing.T) {
	todo := NewTodo(TodoParams{Title: "x"})

	todo.ToggleComplete(fixedNow)
	assert.True(t, todo.IsCompleted)
	require.NotNil(t, todo.CompletedAt)
	assert.True(t, todo.CompletedAt.Equal(fixedNow))

	todo.ToggleComplete(fixedNow.Add(time.Minute))
	assert.False(t, todo.IsCompleted)
	assert.Nil(t, todo.CompletedAt)
}

func TestToggleCompleteFromCompleted(t *testing.T) {
	todo := NewTodo(TodoParams{Title: "x"})
	todo.SetCompleted(true, fixedNow)

	todo.ToggleComplete(fixedNow)
	assert.False(t, todo.IsCompleted)
	assert.Nil(t, todo.CompletedAt)

	todo.ToggleComplete(fixedNow)
	assert.True(t, todo.IsCompleted)
	assert.NotNil(t, todo.CompletedAt)
}

func TestIsOverdue(t *testing.T) {
	tests := []struct {
		name      string
		due       *time.Time
		completed bool
		want      bool
	}{
		{"no due date", nil, false, false},
		{"past and open", ptrTime(fixedNow.Add(-time.Hour)), false, true},
		{"past but completed", ptrTime(fixedNow.Add(-time.Hour)), true, false},
		{"exactly now", ptrTime(fixedNow), false, false},
		{"future", ptrTime(fixedNow.Add(time.Hour)), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			todo := NewTodo(TodoParams{Title: "x", DueDate: tt.due})
			todo.IsCompleted = tt.completed
			assert.Equal(t, tt.want, todo.IsOverdue(fixedNow))
		})
	}
}

func TestDaysUntilDue(t *testing.T) {
	tests := []struct {
		name string
		due  time.Duration
		want int
	}{
		{"later today", 2 * time.Hour, 0},
		{"tomorrow", 24 * time.Hour, 1},
		{"in a day and a half", 36 * time.Hour, 1},
		{"three days", 72 * time.Hour, 3},
		{"two hours ago", -2 * time.Hour, -1},
		{"two days ago", -48 * time.Hour, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			todo := NewTodo(TodoParams{Title: "x", DueDate: ptrTime(fixedNow.Add(tt.due))})
			days := todo.DaysUntilDue(fixedNow)
			require.NotNil(t, days)
			assert.Equal(t, tt.want, *days)
		})
	}
}

func TestDaysUntilDueNil(t *testing.T) {
	todo := NewTodo(TodoParams{Title: "x"})
	assert.Nil(t, todo.DaysUntilDue(fixedNow))

	todo.SetDueDate(ptrTime(fixedNow.Add(48 * time.Hour)))
	todo.SetCompleted(true, fixedNow)
	assert.Nil(t, todo.DaysUntilDue(fixedNow))
}

func TestPriorityParseAndRank(t *testing.T) {
	for i, p := range Priorities {
		parsed, err := ParsePriority(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
		assert.Equal(t, i+1, p.Rank())
	}

	_, err := ParsePriority("critical")
	assert.Error(t, err)
	_, err = ParsePriority("HIGH")
	assert.Error(t, err)
	assert.False(t, Priority("").Valid())
	assert.Equal(t, "Urgent", PriorityUrgent.Label())
}

func TestPasswordHashing(t *testing.T) {
	u := &User{Username: "alice"}
	require.NoError(t, u.SetPassword("secret1"))

	assert.NotEqual(t, "secret1", u.PasswordHash)
	assert.True(t, u.CheckPassword("secret1"))
	assert.False(t, u.CheckPassword("secret2"))
	assert.False(t, u.CheckPassword(""))
}

func TestPasswordTooLong(t *testing.T) {
	u := &User{}
	assert.Error(t, u.SetPassword(strings.Repeat("a", MaxPasswordBytes+1)))
	assert.NoError(t, u.SetPassword(strings.Repeat("a", MaxPasswordBytes)))
}

func TestSessionExpired(t *testing.T) {
	s := &Session{ExpiresAt: fixedNow}
	assert.True(t, s.Expired(fixedNow))
	assert.False(t, s.Expired(fixedNow.Add(-time.Second)))
}
