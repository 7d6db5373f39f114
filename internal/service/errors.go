package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound covers both missing rows and rows owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrCategoryInUse is returned when deleting a category that todos
	// still reference.
	ErrCategoryInUse = errors.New("category is still used by one or more todos")
	// ErrInvalidCredentials never says which half of the pair was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("authentication required")
)

// ValidationError carries one message per rejected field.
type ValidationError struct {
	Fields map[string]string
}

// Add records msg for field unless the field already has a message.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Check records msg for field when ok is false.
func (e *ValidationError) Check(field string, ok bool, msg string) {
	if !ok {
		e.Add(field, msg)
	}
}

// Err returns e when it holds at least one message, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Error joins the messages in field-name order.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

func invalid(field, msg string) error {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}
