// Package validation checks user input before it reaches the store.
//
// Every check returns (ok, message). Invalid input is an expected outcome,
// so nothing here returns an error or panics.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/Tomlord1122/todo-tracker/internal/domain"
)

const (
	MaxTitleLength        = 100
	MaxDescriptionLength  = 1000
	MaxCategoryNameLength = 50
	MinUsernameLength     = 3
	MaxUsernameLength     = 80
	MaxEmailLength        = 120
	MinPasswordLength     = 6
	MaxPasswordBytes      = domain.MaxPasswordBytes
	MaxQueryLength        = 500
)

var (
	hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

func length(s string) int {
	return utf8.RuneCountInString(s)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Title validates a todo title.
func Title(title string) (bool, string) {
	if title == "" {
		return false, "Title is required"
	}
	if blank(title) {
		return false, "Title cannot contain only whitespace characters"
	}
	if length(title) > MaxTitleLength {
		return false, fmt.Sprintf("Title must be %d characters or less", MaxTitleLength)
	}
	return true, ""
}

// Description validates an optional todo description.
func Description(desc string) (bool, string) {
	if length(desc) > MaxDescriptionLength {
		return false, fmt.Sprintf("Description must be %d characters or less", MaxDescriptionLength)
	}
	return true, ""
}

// DueDate accepts any instant, past ones included: overdue is a state, not
// an input error.
func DueDate(_ *time.Time) (bool, string) {
	return true, ""
}

// CategoryName validates a category name.
func CategoryName(name string) (bool, string) {
	if name == "" {
		return false, "Category name is required"
	}
	if blank(name) {
		return false, "Category name cannot contain only whitespace characters"
	}
	if length(name) > MaxCategoryNameLength {
		return false, fmt.Sprintf("Category name must be %d characters or less", MaxCategoryNameLength)
	}
	return true, ""
}

// CategoryColor validates a #RRGGBB color.
func CategoryColor(color string) (bool, string) {
	if color == "" {
		return false, "Color is required"
	}
	if !hexColorPattern.MatchString(color) {
		return false, "Color must be in hex format (#RRGGBB, e.g., #FF5733)"
	}
	return true, ""
}

// Username validates a username for registration.
func Username(username string) (bool, string) {
	if username == "" {
		return false, "Username is required"
	}
	if blank(username) {
		return false, "Username cannot contain only whitespace characters"
	}
	if length(username) < MinUsernameLength {
		return false, fmt.Sprintf("Username must be at least %d characters", MinUsernameLength)
	}
	if length(username) > MaxUsernameLength {
		return false, fmt.Sprintf("Username must be %d characters or less", MaxUsernameLength)
	}
	return true, ""
}

// Email validates an email address.
func Email(email string) (bool, string) {
	if email == "" {
		return false, "Email is required"
	}
	if !emailPattern.MatchString(email) {
		return false, "Invalid email format"
	}
	if length(email) > MaxEmailLength {
		return false, fmt.Sprintf("Email must be %d characters or less", MaxEmailLength)
	}
	return true, ""
}

// Password validates a new password. The upper bound is in bytes because
// that is what bcrypt limits.
func Password(password string) (bool, string) {
	if password == "" {
		return false, "Password is required"
	}
	if length(password) < MinPasswordLength {
		return false, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return false, fmt.Sprintf("Password must be %d bytes or less", MaxPasswordBytes)
	}
	return true, ""
}

// Query rejects a search query longer than MaxQueryLength characters.
// Blank queries are fine: they mean "no filter".
func Query(query string) (bool, string) {
	if length(strings.TrimSpace(query)) > MaxQueryLength {
		return false, fmt.Sprintf("Search query must be %d characters or less", MaxQueryLength)
	}
	return true, ""
}

// SanitizeQuery trims, truncates to MaxQueryLength characters and
// NFC-normalises a search query. An empty result means "no filter".
func SanitizeQuery(query string) string {
	q := strings.TrimSpace(query)
	if q == "" {
		return ""
	}
	if length(q) > MaxQueryLength {
		q = string([]rune(q)[:MaxQueryLength])
	}
	return norm.NFC.String(q)
}
