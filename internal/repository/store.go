package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a row is absent or belongs to another owner.
// The two cases are deliberately indistinguishable to callers.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a write collides with a unique index.
var ErrDuplicate = errors.New("duplicate record")

// Store groups the repositories that share one connection or transaction.
type Store interface {
	Todos() TodoRepository
	Categories() CategoryRepository
	Users() UserRepository
	Sessions() SessionRepository

	// Transaction runs fn with a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back on an error or
	// panic.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Todos() TodoRepository {
	return NewGormTodoRepository(s.db)
}

func (s *gormStore) Categories() CategoryRepository {
	return &gormCategoryRepository{db: s.db}
}

func (s *gormStore) Users() UserRepository {
	return &gormUserRepository{db: s.db}
}

func (s *gormStore) Sessions() SessionRepository {
	return &gormSessionRepository{db: s.db}
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// notFound maps GORM's missing-row error onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// duplicate maps a unique-index violation from either driver onto
// ErrDuplicate.
func duplicate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	var liteErr *moderncsqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return ErrDuplicate
		}
	}
	return err
}
