// Package common defines sentinel errors and small helpers shared by the
// workly server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// Authentication errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrRefreshRejected    = errors.New("refresh rejected")
	ErrForbidden          = errors.New("forbidden")

	// Account errors.
	ErrEmailTaken   = errors.New("email already taken")
	ErrUserNotFound = errors.New("user not found")

	// Contract errors.
	ErrContractExists    = errors.New("contract already exists")
	ErrContractNotFound  = errors.New("contract not found")
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrValidation marks malformed client input.
	ErrValidation = errors.New("validation error")

	// ErrStorage wraps any failure of the persistence layer.
	ErrStorage = errors.New("storage failure")
)
