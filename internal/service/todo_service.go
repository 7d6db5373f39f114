package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Tomlord1122/todo-tracker/internal/domain"
	"github.com/Tomlord1122/todo-tracker/internal/repository"
	"github.com/Tomlord1122/todo-tracker/internal/validation"
)

// TodoService defines the operations for managing todos.
// Every method is scoped to the calling user.
type TodoService interface {
	// ListTodos returns the user's todos matching filter.
	ListTodos(ctx context.Context, userID uint, filter repository.TodoFilter) ([]domain.Todo, error)

	// GetTodo returns one todo, or ErrNotFound if it is missing or not the
	// user's.
	GetTodo(ctx context.Context, userID, id uint) (*domain.Todo, error)

	// CreateTodo validates and stores a new todo.
	CreateTodo(ctx context.Context, userID uint, req CreateTodoRequest) (*domain.Todo, error)

	// UpdateTodo applies a partial update.
	UpdateTodo(ctx context.Context, userID, id uint, req UpdateTodoRequest) (*domain.Todo, error)

	// ToggleTodo flips completion and stamps or clears CompletedAt.
	ToggleTodo(ctx context.Context, userID, id uint) (*domain.Todo, error)

	// DeleteTodo removes a todo.
	DeleteTodo(ctx context.Context, userID, id uint) error

	// Stats aggregates counts over all of the user's todos.
	Stats(ctx context.Context, userID uint) (Stats, error)

	// Dashboard extends Stats with category buckets and short lists.
	Dashboard(ctx context.Context, userID uint) (*Dashboard, error)

	// Now is the clock used for derived fields.
	Now() time.Time
}

// todoService implements the TodoService interface.
type todoService struct {
	store repository.Store
	now   func() time.Time
}

// NewTodoService creates a TodoService. A nil clock means time.Now.
func NewTodoService(store repository.Store, now func() time.Time) TodoService {
	if now == nil {
		now = time.Now
	}
	return &todoService{store: store, now: now}
}

func (s *todoService) Now() time.Time {
	return s.now().UTC()
}

func (s *todoService) ListTodos(ctx context.Context, userID uint, filter repository.TodoFilter) ([]domain.Todo, error) {
	if filter.Now.IsZero() {
		filter.Now = s.Now()
	}
	todos, err := s.store.Todos().ListByOwner(ctx, userID, filter)
	if err != nil {
		return nil, logUnexpected("ListTodos", err)
	}
	return todos, nil
}

func (s *todoService) GetTodo(ctx context.Context, userID, id uint) (*domain.Todo, error) {
	todo, err := s.store.Todos().FindByID(ctx, userID, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return todo, nil
}

func (s *todoService) CreateTodo(ctx context.Context, userID uint, req CreateTodoRequest) (*domain.Todo, error) {
	// 1. Validate every field before touching the store
	verr := &ValidationError{}
	title := ""
	if req.Title != nil {
		title = *req.Title
	}
	ok, msg := validation.Title(title)
	verr.Check("title", ok, msg)

	if req.Description != nil {
		ok, msg := validation.Description(*req.Description)
		verr.Check("description", ok, msg)
	}

	priority := domain.PriorityMedium
	if req.Priority != nil {
		p, err := domain.ParsePriority(*req.Priority)
		if err != nil {
			verr.Add("priority", "Invalid priority level")
		}
		priority = p
	}

	var due *time.Time
	if req.DueDate != nil {
		d, err := ParseDueDate(*req.DueDate)
		if err != nil {
			verr.Add("due_date", "Due date must be a valid datetime")
		}
		ok, msg := validation.DueDate(d)
		verr.Check("due_date", ok, msg)
		due = d
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}

	// 2. Prepare domain model
	todo := domain.NewTodo(domain.TodoParams{
		Title:       title,
		Description: req.Description,
		Priority:    priority,
		DueDate:     due,
		UserID:      userID,
		CategoryID:  req.CategoryID,
	})

	// 3. Persist and reload with the category in one transaction
	var created *domain.Todo
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := checkCategory(ctx, tx, userID, todo.CategoryID); err != nil {
			return err
		}
		if err := tx.Todos().Create(ctx, todo); err != nil {
			return fmt.Errorf("create todo: %w", err)
		}
		var err error
		created, err = tx.Todos().FindByID(ctx, userID, todo.ID)
		return err
	})
	if err != nil {
		return nil, logUnexpected("CreateTodo", err)
	}
	return created, nil
}

func (s *todoService) UpdateTodo(ctx context.Context, userID, id uint, req UpdateTodoRequest) (*domain.Todo, error) {
	var updated *domain.Todo
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		// 1. Fetch the existing todo to ensure it exists and is the user's
		todo, err := tx.Todos().FindByID(ctx, userID, id)
		if err != nil {
			return err
		}

		// 2. Apply and validate the supplied fields
		if err := applyTodoUpdate(todo, req, s.Now()); err != nil {
			return err
		}
		if req.CategoryID.Set {
			if err := checkCategory(ctx, tx, userID, todo.CategoryID); err != nil {
				return err
			}
		}

		// 3. Save and reload
		if err := tx.Todos().Update(ctx, todo); err != nil {
			return err
		}
		updated, err = tx.Todos().FindByID(ctx, userID, id)
		return err
	})
	if err != nil {
		return nil, logUnexpected("UpdateTodo", err)
	}
	return updated, nil
}

func applyTodoUpdate(todo *domain.Todo, req UpdateTodoRequest, now time.Time) error {
	verr := &ValidationError{}

	if req.Title.Set {
		title := ""
		if req.Title.Value != nil {
			title = *req.Title.Value
		}
		ok, msg := validation.Title(title)
		verr.Check("title", ok, msg)
		todo.Title = title
	}
	if req.Description.Set {
		if req.Description.Value != nil {
			ok, msg := validation.Description(*req.Description.Value)
			verr.Check("description", ok, msg)
		}
		todo.SetDescription(req.Description.Value)
	}
	if req.Priority.Set {
		if req.Priority.Value == nil {
			verr.Add("priority", "Invalid priority level")
		} else if p, err := domain.ParsePriority(*req.Priority.Value); err != nil {
			verr.Add("priority", "Invalid priority level")
		} else {
			todo.Priority = p
		}
	}
	if req.DueDate.Set {
		var due *time.Time
		if req.DueDate.Value != nil {
			d, err := ParseDueDate(*req.DueDate.Value)
			if err != nil {
				verr.Add("due_date", "Due date must be a valid datetime")
			}
			due = d
		}
		todo.SetDueDate(due)
	}
	if req.CategoryID.Set {
		todo.CategoryID = req.CategoryID.Value
	}
	if req.IsCompleted.Set {
		if req.IsCompleted.Value == nil {
			verr.Add("is_completed", "is_completed must be true or false")
		} else if *req.IsCompleted.Value != todo.IsCompleted {
			todo.SetCompleted(*req.IsCompleted.Value, now)
		}
	}
	return verr.Err()
}

// checkCategory rejects a category id that is unknown or not the user's.
func checkCategory(ctx context.Context, tx repository.Store, userID uint, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	if _, err := tx.Categories().FindByID(ctx, userID, *categoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("category_id", "Invalid category")
		}
		return err
	}
	return nil
}

func (s *todoService) ToggleTodo(ctx context.Context, userID, id uint) (*domain.Todo, error) {
	var toggled *domain.Todo
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		todo, err := tx.Todos().FindByID(ctx, userID, id)
		if err != nil {
			return err
		}
		todo.ToggleComplete(s.Now())
		if err := tx.Todos().Update(ctx, todo); err != nil {
			return err
		}
		toggled = todo
		return nil
	})
	if err != nil {
		return nil, logUnexpected("ToggleTodo", err)
	}
	return toggled, nil
}

func (s *todoService) DeleteTodo(ctx context.Context, userID, id uint) error {
	if err := s.store.Todos().Delete(ctx, userID, id); err != nil {
		return logUnexpected("DeleteTodo", err)
	}
	return nil
}

func (s *todoService) Stats(ctx context.Context, userID uint) (Stats, error) {
	todos, err := s.store.Todos().ListByOwner(ctx, userID, repository.TodoFilter{})
	if err != nil {
		return Stats{}, logUnexpected("Stats", err)
	}
	return ComputeStats(todos, s.Now()), nil
}

func (s *todoService) Dashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	todos, err := s.store.Todos().ListByOwner(ctx, userID, repository.TodoFilter{})
	if err != nil {
		return nil, logUnexpected("Dashboard", err)
	}
	categories, err := s.store.Categories().ListByOwner(ctx, userID)
	if err != nil {
		return nil, logUnexpected("Dashboard", err)
	}
	return ComputeDashboard(todos, categories, s.Now()), nil
}

// mapNotFound turns the repository's not-found into the service's.
func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// logUnexpected passes expected errors through and logs anything else. The
// caller decides what the client sees.
func logUnexpected(op string, err error) error {
	err = mapNotFound(err)
	var verr *ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrCategoryInUse),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUnauthenticated):
		return err
	}
	log.Printf("Error in %s: %v", op, err)
	return fmt.Errorf("%s: %w", op, err)
}
