package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/todo-tracker/internal/domain"
)

// TodoRepository defines the data operations on todos. Every method is
// scoped to an owner so one user can never reach another user's rows.
type TodoRepository interface {
	Create(ctx context.Context, todo *domain.Todo) error
	FindByID(ctx context.Context, ownerID, id uint) (*domain.Todo, error)
	ListByOwner(ctx context.Context, ownerID uint, filter TodoFilter) ([]domain.Todo, error)
	Update(ctx context.Context, todo *domain.Todo) error
	Delete(ctx context.Context, ownerID, id uint) error
	// CountByCategory returns how many of the owner's todos reference each
	// category.
	CountByCategory(ctx context.Context, ownerID uint) (map[uint]int64, error)
	DeleteByOwner(ctx context.Context, ownerID uint) error
}

// gormTodoRepository implements TodoRepository using GORM
type gormTodoRepository struct {
	db *gorm.DB
}

// NewGormTodoRepository creates a new GORM todo repository
func NewGormTodoRepository(db *gorm.DB) TodoRepository {
	return &gormTodoRepository{db: db}
}

// Create inserts the todo. Associations are never written through a todo.
func (r *gormTodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(todo).Error
}

// FindByID loads one todo with its category.
func (r *gormTodoRepository) FindByID(ctx context.Context, ownerID, id uint) (*domain.Todo, error) {
	var todo domain.Todo
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&todo).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &todo, nil
}

// ListByOwner runs a filtered, ordered query over the owner's todos.
func (r *gormTodoRepository) ListByOwner(ctx context.Context, ownerID uint, filter TodoFilter) ([]domain.Todo, error) {
	var todos []domain.Todo
	err := filter.scope(r.db.WithContext(ctx).Model(&domain.Todo{}), ownerID).
		Preload("Category").
		Find(&todos).Error
	if err != nil {
		return nil, err
	}
	return todos, nil
}

// Update writes every mutable column in one statement and refreshes
// UpdatedAt on the passed todo.
func (r *gormTodoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	now := r.db.NowFunc()
	result := r.db.WithContext(ctx).Model(&domain.Todo{}).
		Where("id = ? AND user_id = ?", todo.ID, todo.UserID).
		Updates(map[string]any{
			"title":        todo.Title,
			"description":  todo.Description,
			"is_completed": todo.IsCompleted,
			"priority":     string(todo.Priority),
			"due_date":     todo.DueDate,
			"completed_at": todo.CompletedAt,
			"category_id":  todo.CategoryID,
			"updated_at":   now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	todo.UpdatedAt = now
	return nil
}

// Delete removes one todo.
func (r *gormTodoRepository) Delete(ctx context.Context, ownerID, id uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&domain.Todo{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormTodoRepository) CountByCategory(ctx context.Context, ownerID uint) (map[uint]int64, error) {
	var rows []struct {
		CategoryID uint
		Total      int64
	}
	err := r.db.WithContext(ctx).Model(&domain.Todo{}).
		Select("category_id, COUNT(*) AS total").
		Where("user_id = ? AND category_id IS NOT NULL", ownerID).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Total
	}
	return counts, nil
}

func (r *gormTodoRepository) DeleteByOwner(ctx context.Context, ownerID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", ownerID).Delete(&domain.Todo{}).Error
}
