package remote

import (
	"errors"
	"fmt"
)

// Error codes follow PostgreSQL / PostgREST so both backends report alike.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeUndefinedTable      = "42P01"
	CodeUndefinedColumn     = "42703"
	CodeTableNotInCache     = "PGRST205"
	CodeUnreachable         = "unreachable"
)

var (
	ErrSchemaMissing   = errors.New("remote: table or schema missing")
	ErrDuplicate       = errors.New("remote: duplicate key")
	ErrUnreachable     = errors.New("remote: store unreachable")
	ErrUnfilteredWrite = errors.New("remote: refusing update or delete without a filter")
)

// Error is a failure reported by the remote store.
type Error struct {
	Code    string // machine-checkable code, see Code* constants
	Message string
	Status  int // HTTP status, 0 for local backends
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code == "" {
		return "remote: " + msg
	}
	return fmt.Sprintf("remote: %s (%s)", msg, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is maps codes onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrSchemaMissing:
		return e.Code == CodeUndefinedTable || e.Code == CodeTableNotInCache
	case ErrDuplicate:
		return e.Code == CodeUniqueViolation
	case ErrUnreachable:
		return e.Code == CodeUnreachable
	}
	return false
}
