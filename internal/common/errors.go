// Package common defines shared constants and sentinel errors used across
// client and server layers of gophauth. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Credential errors. Unknown email and wrong password share one message.
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrAccountDeactivated     = errors.New("your account has been deactivated, please contact administrator")
	ErrEmailAlreadyRegistered = errors.New("user with this email already exists")
	ErrIncorrectPassword      = errors.New("current password is incorrect")
	ErrEmptyPassword          = errors.New("password must not be empty")

	// Auth errors. Every token rejection reason wraps ErrInvalidToken.
	ErrInvalidToken   = errors.New("invalid or expired credential token")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenSignature = errors.New("token signature is invalid")
	ErrTokenExpired   = errors.New("token expired")

	// The token was valid but the identity behind it is no longer eligible.
	ErrorUnauthorized = errors.New("unauthorized")

	// Authorization predicate denials.
	ErrForbiddenAction = errors.New("forbidden action")

	// Validation errors.
	ErrorValidation = errors.New("validation error")
)
