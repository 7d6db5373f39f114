package service

import (
	"context"
	"strings"

	"github.com/Tomlord1122/todo-tracker/internal/domain"
	"github.com/Tomlord1122/todo-tracker/internal/repository"
	"github.com/Tomlord1122/todo-tracker/internal/validation"
)

// CategoryWithCount pairs a category with the number of todos that use it.
type CategoryWithCount struct {
	domain.Category
	TodoCount int64
}

// CategoryService defines the operations on a user's categories.
type CategoryService interface {
	ListCategories(ctx context.Context, userID uint) ([]CategoryWithCount, error)
	GetCategory(ctx context.Context, userID, id uint) (*domain.Category, error)
	CreateCategory(ctx context.Context, userID uint, req CreateCategoryRequest) (*domain.Category, error)
	UpdateCategory(ctx context.Context, userID, id uint, req UpdateCategoryRequest) (*domain.Category, error)
	// DeleteCategory fails with ErrCategoryInUse while any todo references
	// the category.
	DeleteCategory(ctx context.Context, userID, id uint) error
}

type categoryService struct {
	store repository.Store
}

func NewCategoryService(store repository.Store) CategoryService {
	return &categoryService{store: store}
}

func (s *categoryService) ListCategories(ctx context.Context, userID uint) ([]CategoryWithCount, error) {
	categories, err := s.store.Categories().ListByOwner(ctx, userID)
	if err != nil {
		return nil, logUnexpected("ListCategories", err)
	}
	counts, err := s.store.Todos().CountByCategory(ctx, userID)
	if err != nil {
		return nil, logUnexpected("ListCategories", err)
	}
	out := make([]CategoryWithCount, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryWithCount{Category: c, TodoCount: counts[c.ID]})
	}
	return out, nil
}

func (s *categoryService) GetCategory(ctx context.Context, userID, id uint) (*domain.Category, error) {
	category, err := s.store.Categories().FindByID(ctx, userID, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return category, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, userID uint, req CreateCategoryRequest) (*domain.Category, error) {
	category := &domain.Category{UserID: userID, Color: domain.DefaultCategoryColor}
	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Color != nil {
		category.Color = strings.TrimSpace(*req.Color)
	}
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	if err := s.store.Categories().Create(ctx, category); err != nil {
		return nil, logUnexpected("CreateCategory", err)
	}
	return category, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, userID, id uint, req UpdateCategoryRequest) (*domain.Category, error) {
	var updated *domain.Category
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		category, err := tx.Categories().FindByID(ctx, userID, id)
		if err != nil {
			return err
		}
		if req.Name != nil {
			category.Name = *req.Name
		}
		if req.Color != nil {
			category.Color = strings.TrimSpace(*req.Color)
		}
		if err := validateCategory(category); err != nil {
			return err
		}
		if err := tx.Categories().Update(ctx, category); err != nil {
			return err
		}
		updated = category
		return nil
	})
	if err != nil {
		return nil, logUnexpected("UpdateCategory", err)
	}
	return updated, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, userID, id uint) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Categories().FindByID(ctx, userID, id); err != nil {
			return err
		}
		counts, err := tx.Todos().CountByCategory(ctx, userID)
		if err != nil {
			return err
		}
		if counts[id] > 0 {
			return ErrCategoryInUse
		}
		return tx.Categories().Delete(ctx, userID, id)
	})
	if err != nil {
		return logUnexpected("DeleteCategory", err)
	}
	return nil
}

func validateCategory(c *domain.Category) error {
	verr := &ValidationError{}
	ok, msg := validation.CategoryName(c.Name)
	verr.Check("name", ok, msg)
	ok, msg = validation.CategoryColor(c.Color)
	verr.Check("color", ok, msg)
	return verr.Err()
}
