package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies failures across the import pipeline.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindExternalService Kind = "external_service"
	KindIO              Kind = "io"
	KindSerialization   Kind = "serialization"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindInternal        Kind = "internal"
)

// Error carries a Kind alongside the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with a formatted message.
func New(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(op, format string, args ...any) error {
	return New(KindValidation, op, format, args...)
}

func NotFound(op, format string, args ...any) error {
	return New(KindNotFound, op, format, args...)
}

func Conflict(op, format string, args ...any) error {
	return New(KindConflict, op, format, args...)
}

func Internal(op, format string, args ...any) error {
	return New(KindInternal, op, format, args...)
}

func External(op string, err error) error { return Wrap(KindExternalService, op, err) }

func IO(op string, err error) error { return Wrap(KindIO, op, err) }

func Serialization(op string, err error) error { return Wrap(KindSerialization, op, err) }

// KindOf returns the kind of the outermost *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
