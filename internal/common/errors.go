// Package common defines sentinel errors and small helpers shared by the
// account core. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrIntegrity marks an unwrapped key of the wrong length or otherwise
	// inconsistent cryptographic output. Always fatal to the current operation.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrAuthentication covers password mismatch, email mismatch and
	// "no matching record". Recoverable; the caller may retry.
	ErrAuthentication = errors.New("authentication failed")

	// ErrPersistence marks a missing or corrupt user table or session file.
	ErrPersistence = errors.New("persistence error")

	// ErrSessionExpired is returned when a restored session is past expires_at.
	ErrSessionExpired = errors.New("session expired")

	// Validation / settings errors.
	ErrValidation         = errors.New("validation error")
	ErrKeybindingConflict = errors.New("keybinding conflict")

	// ErrNotConnected is returned by operations that need a connected user.
	ErrNotConnected = errors.New("no connected user")
)
