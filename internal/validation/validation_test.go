package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		ok    bool
		msg   string
	}{
		{"simple", "Buy milk", true, ""},
		{"exactly 100", strings.Repeat("a", 100), true, ""},
		{"101 chars", strings.Repeat("a", 101), false, "Title must be 100 characters or less"},
		{"100 multibyte runes", strings.Repeat("é", 100), true, ""},
		{"empty", "", false, "Title is required"},
		{"spaces only", "    ", false, "Title cannot contain only whitespace characters"},
		{"tabs and newlines", "\t\n ", false, "Title cannot contain only whitespace characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := Title(tt.title)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestDescription(t *testing.T) {
	ok, _ := Description("")
	assert.True(t, ok)
	ok, _ = Description(strings.Repeat("d", 1000))
	assert.True(t, ok)
	ok, msg := Description(strings.Repeat("d", 1001))
	assert.False(t, ok)
	assert.Equal(t, "Description must be 1000 characters or less", msg)
}

func TestDueDateAcceptsAnyInstant(t *testing.T) {
	past := time.Now().Add(-365 * 24 * time.Hour)
	ok, _ := DueDate(&past)
	assert.True(t, ok)
	ok, _ = DueDate(nil)
	assert.True(t, ok)
}

func TestCategoryName(t *testing.T) {
	ok, _ := CategoryName("Work")
	assert.True(t, ok)
	ok, _ = CategoryName(strings.Repeat("n", 50))
	assert.True(t, ok)
	ok, _ = CategoryName(strings.Repeat("n", 51))
	assert.False(t, ok)
	ok, msg := CategoryName("  ")
	assert.False(t, ok)
	assert.Equal(t, "Category name cannot contain only whitespace characters", msg)
	ok, msg = CategoryName("")
	assert.False(t, ok)
	assert.Equal(t, "Category name is required", msg)
}

func TestCategoryColor(t *testing.T) {
	for _, c := range []string{"#1a2b3c", "#FFFFFF", "#000000", "#6366f1"} {
		ok, msg := CategoryColor(c)
		assert.True(t, ok, c)
		assert.Empty(t, msg)
	}
	for _, c := range []string{"#1a2b3", "1a2b3c", "#zzzzzz", "#1a2b3c4", " #1a2b3c", ""} {
		ok, msg := CategoryColor(c)
		assert.False(t, ok, c)
		assert.NotEmpty(t, msg)
	}
}

func TestUsername(t *testing.T) {
	ok, _ := Username("bob")
	assert.True(t, ok)
	ok, msg := Username("al")
	assert.False(t, ok)
	assert.Equal(t, "Username must be at least 3 characters", msg)
	ok, _ = Username(strings.Repeat("u", 80))
	assert.True(t, ok)
	ok, _ = Username(strings.Repeat("u", 81))
	assert.False(t, ok)
	ok, _ = Username("     ")
	assert.False(t, ok)
}

func TestEmail(t *testing.T) {
	ok, _ := Email("alice@x.com")
	assert.True(t, ok)
	for _, e := range []string{"", "alice", "alice@", "alice@x", "@x.com", "alice@x.c"} {
		ok, _ := Email(e)
		assert.False(t, ok, e)
	}
	long := strings.Repeat("a", 115) + "@x.com"
	ok, msg := Email(long)
	assert.False(t, ok)
	assert.Equal(t, "Email must be 120 characters or less", msg)
}

func TestPassword(t *testing.T) {
	ok, _ := Password("secret")
	assert.True(t, ok)
	ok, msg := Password("short")
	assert.False(t, ok)
	assert.Equal(t, "Password must be at least 6 characters", msg)
	ok, _ = Password("")
	assert.False(t, ok)
	ok, _ = Password(strings.Repeat("p", 72))
	assert.True(t, ok)
	ok, _ = Password(strings.Repeat("p", 73))
	assert.False(t, ok)
	// 25 three-byte runes are 75 bytes.
	ok, _ = Password(strings.Repeat("€", 25))
	assert.False(t, ok)
}

func TestQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		ok    bool
	}{
		{"empty", "", true},
		{"blank", "   ", true},
		{"at limit", strings.Repeat("ü", MaxQueryLength), true},
		{"at limit with padding", "  " + strings.Repeat("q", MaxQueryLength) + "  ", true},
		{"over limit", strings.Repeat("ü", MaxQueryLength+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := Query(tt.query)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Equal(t, "Search query must be 500 characters or less", msg)
			}
		})
	}
}

func TestSanitizeQuery(t *testing.T) {
	assert.Equal(t, "", SanitizeQuery(""))
	assert.Equal(t, "", SanitizeQuery("   \t"))
	assert.Equal(t, "milk", SanitizeQuery("  milk  "))

	long := strings.Repeat("q", 600)
	assert.Equal(t, 500, len(SanitizeQuery(long)))

	// "e" followed by a combining acute accent composes to a single "é".
	assert.Equal(t, "caf\u00e9", SanitizeQuery("cafe\u0301"))
}
