// Package common defines shared sentinel errors used across the service
// layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Credential errors.
	ErrorUserExists         = errors.New("user already exists")
	ErrorMissingCredentials = errors.New("missing credentials")
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorAccountInactive    = errors.New("account inactive")
	ErrorMissingPasswords   = errors.New("missing passwords")
	ErrorInvalidPassword    = errors.New("invalid password")
	ErrorWeakPassword       = errors.New("weak password")
	ErrorNoUpdates          = errors.New("no updates")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")

	// Authorization errors.
	ErrNotAuthenticated        = errors.New("not authenticated")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)
