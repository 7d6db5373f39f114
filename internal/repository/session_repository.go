package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-tracker/internal/domain"
)

// SessionRepository stores login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	FindByID(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type gormSessionRepository struct {
	db *gorm.DB
}

func (r *gormSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *gormSessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, notFound(err)
	}
	return &session, nil
}

// Delete removes a session. Deleting an unknown session is not an error so
// logout stays idempotent.
func (r *gormSessionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Session{}).Error
}

func (r *gormSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&domain.Session{})
	return result.RowsAffected, result.Error
}
