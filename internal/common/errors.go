// Package common defines shared constants and sentinel errors used across
// the flowday auth core. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound            = errors.New("not found")
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// Environment errors (missing crypto primitives — fatal).
	ErrUnsupportedEnvironment = errors.New("unsupported environment")

	// Data-integrity errors (non-retryable).
	ErrMalformedCipherText = errors.New("malformed cipher text")
	ErrCorruptData         = errors.New("corrupt data")
	ErrCorruptAccount      = errors.New("corrupt account")

	// Business-rule rejections (recoverable, user can correct input).
	ErrAlreadyRegistered = errors.New("already registered")

	// Deliberately covers both "account not found" and "wrong password"
	// so login failures do not leak which factor was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Policy rejection on mutating operations while in guest mode.
	ErrGuestNotAllowed = errors.New("not allowed in guest mode")

	// Generic internal flow control.
	ErrInternal = errors.New("internal error")
)
