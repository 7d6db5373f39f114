package domain

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt hashes without truncation.
const MaxPasswordBytes = 72

// User is an account that owns categories, todos and sessions.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:80;not null;uniqueIndex"`
	Email        string `gorm:"size:120;not null;uniqueIndex"`
	PasswordHash string `gorm:"size:128;not null"`
	CreatedAt    time.Time
}

// SetPassword replaces the stored hash. Passwords longer than
// MaxPasswordBytes are refused rather than silently truncated.
func (u *User) SetPassword(password string) error {
	if len(password) > MaxPasswordBytes {
		return errors.New("password exceeds 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Session binds a browser or API client to a user until it expires or is
// deleted at logout.
type Session struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    uint   `gorm:"not null;index"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"not null;index"`
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
