package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("record not found")
	// ErrStorage matches every *Error via errors.Is.
	ErrStorage = errors.New("storage error")
)

// Error wraps a failed database operation. It is fatal to the request that
// triggered it and is never retried locally.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

func (e *Error) Is(target error) bool { return target == ErrStorage }

func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return &Error{Op: op, Err: err}
}
