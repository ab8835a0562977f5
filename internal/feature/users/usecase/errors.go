// Package usecase implements the business logic for the users feature.
package usecase

import "errors"

var (
	// ErrUserNotFound is returned when a user cannot be found by email or ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned when another user already owns the email.
	// Both the pre-check and the store's unique constraint surface this error.
	ErrEmailAlreadyExists = errors.New("email already exists")
)
