package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-tracker/internal/domain"
)

// CategoryRepository defines the data operations on categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	FindByID(ctx context.Context, ownerID, id uint) (*domain.Category, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]domain.Category, error)
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, ownerID, id uint) error
	DeleteByOwner(ctx context.Context, ownerID uint) error
}

type gormCategoryRepository struct {
	db *gorm.DB
}

func (r *gormCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *gormCategoryRepository) FindByID(ctx context.Context, ownerID, id uint) (*domain.Category, error) {
	var category domain.Category
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&category).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// ListByOwner returns the owner's categories alphabetically.
func (r *gormCategoryRepository) ListByOwner(ctx context.Context, ownerID uint) ([]domain.Category, error) {
	var categories []domain.Category
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("name ASC").
		Order("id ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *gormCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	result := r.db.WithContext(ctx).Model(&domain.Category{}).
		Where("id = ? AND user_id = ?", category.ID, category.UserID).
		Updates(map[string]any{
			"name":  category.Name,
			"color": category.Color,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one category. It does not check for referencing todos;
// callers guard that.
func (r *gormCategoryRepository) Delete(ctx context.Context, ownerID, id uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&domain.Category{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormCategoryRepository) DeleteByOwner(ctx context.Context, ownerID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", ownerID).Delete(&domain.Category{}).Error
}
