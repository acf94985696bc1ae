package workorder

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Wrap them with E so errors.Is matches the kind while the
// message keeps the operation and cause.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrStorage      = errors.New("storage failure")
	ErrValidation   = errors.New("invalid input")
	ErrArchived     = errors.New("work order is archived")
)

// ErrorClassifier lets errors declare a stable classification string.
type ErrorClassifier interface {
	ErrorKind() string
}

// Error carries the failed operation, its kind, and the underlying cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

// E constructs an *Error. A nil err records only the kind.
func E(op string, kind error, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Kind == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// ErrorKind implements ErrorClassifier.
func (e *Error) ErrorKind() string {
	return kindName(e.Kind)
}

// KindOf classifies any error into one of the taxonomy names. Unclassified
// errors are reported as "storage" since they originate below the engine.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		if kind := classifier.ErrorKind(); kind != "" {
			return kind
		}
	}
	for _, kind := range []error{ErrUnauthorized, ErrNotFound, ErrConflict, ErrValidation, ErrArchived, ErrStorage} {
		if errors.Is(err, kind) {
			return kindName(kind)
		}
	}
	return kindName(ErrStorage)
}

func kindName(kind error) string {
	switch kind {
	case ErrUnauthorized:
		return "unauthorized"
	case ErrNotFound:
		return "not_found"
	case ErrConflict:
		return "conflict"
	case ErrStorage:
		return "storage"
	case ErrValidation:
		return "validation"
	case ErrArchived:
		return "archived"
	default:
		return ""
	}
}
