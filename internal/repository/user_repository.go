package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-tracker/internal/domain"
)

// UserRepository defines the data operations on accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	// FindByUsername matches the username exactly (case-sensitive).
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	// Delete removes the user and everything the user owns. Run it inside a
	// transaction so the cascade is all-or-nothing.
	Delete(ctx context.Context, id uint) error
}

type gormUserRepository struct {
	db *gorm.DB
}

// Create returns ErrDuplicate when the username or email is already taken.
func (r *gormUserRepository) Create(ctx context.Context, user *domain.User) error {
	return duplicate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *gormUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *gormUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *gormUserRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *gormUserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *gormUserRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormUserRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ?", id).Delete(&domain.Session{}).Error; err != nil {
		return err
	}
	if err := (&gormTodoRepository{db: r.db}).DeleteByOwner(ctx, id); err != nil {
		return err
	}
	if err := (&gormCategoryRepository{db: r.db}).DeleteByOwner(ctx, id); err != nil {
		return err
	}
	result := db.Delete(&domain.User{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
