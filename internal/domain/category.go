package domain

import "time"

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#6366f1"

// Category groups a user's todos under a colored label.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:50;not null"`
	Color     string `gorm:"size:7;not null;default:'#6366f1'"`
	UserID    uint   `gorm:"not null;index"`
	CreatedAt time.Time
}
