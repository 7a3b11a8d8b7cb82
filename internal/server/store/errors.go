package store

import (
	"errors"
	"fmt"
)

// Kind classifies a storage failure into one of the closed set of
// backend-independent categories. Backend adapters map every native
// failure into exactly one Kind before it crosses the Store boundary.
type Kind int

const (
	// KindUnknown is the catch-all for failures outside the other
	// classes. Not retryable; the diagnostic message must be logged,
	// never silently swallowed.
	KindUnknown Kind = iota

	// KindConnectionFailed covers unreachable backends, exhausted
	// pools and I/O failures. Transient; the caller may retry.
	KindConnectionFailed

	// KindRecordNotFound means the targeted record does not exist.
	// Returned by lookups only; existence checks report absence as a
	// false result instead.
	KindRecordNotFound

	// KindInvalidSyntax means the backend rejected the operation as
	// malformed (constraint violation, bad query shape). A caller or
	// schema bug; not retryable.
	KindInvalidSyntax
)

func (k Kind) String() string {
	switch k {
	case KindConnectionFailed:
		return "connection failed"
	case KindRecordNotFound:
		return "record not found"
	case KindInvalidSyntax:
		return "invalid syntax"
	default:
		return "unknown"
	}
}

// Error is the only error type Store operations return. Msg carries the
// backend's diagnostic text for KindUnknown; Err preserves the native
// cause for logging and is reachable via errors.Unwrap.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("store: %s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("store: %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a store Error of the given kind wrapping the native
// cause.
func NewError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// KindOf returns the Kind of a Store error, or KindUnknown when err was
// not produced by a backend adapter.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsConnectionFailed reports whether err is a transient connectivity
// failure the caller may retry.
func IsConnectionFailed(err error) bool {
	return is(err, KindConnectionFailed)
}

// IsNotFound reports whether err means the targeted record does not
// exist.
func IsNotFound(err error) bool {
	return is(err, KindRecordNotFound)
}

// IsInvalidSyntax reports whether the backend rejected the operation as
// malformed.
func IsInvalidSyntax(err error) bool {
	return is(err, KindInvalidSyntax)
}

func is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
