// Package common defines sentinel errors and small helpers shared by the
// service and transport layers of the homeserver. Callers should use
// errors.Is to match the sentinel values.
package common

import "errors"

var (
	// Service-level errors (generic flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Registration errors.
	ErrorUserInUse       = errors.New("user id already taken")
	ErrorInvalidUsername = errors.New("invalid username")
	ErrorMissingPassword = errors.New("missing password")

	// Lookup errors.
	ErrorNotFound = errors.New("not found")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
