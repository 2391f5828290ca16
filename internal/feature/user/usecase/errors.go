// Package usecase implements the business logic for the user feature.
package usecase

import "errors"

var (
	// ErrUserNotFound is returned when a user cannot be found by ID or email.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists is returned when a user with the same ID is already stored.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrInvalidUser is returned when a candidate record fails the required-field check.
	ErrInvalidUser = errors.New("invalid user")

	// ErrUserDeleted is returned when an operation targets a soft-deleted user.
	ErrUserDeleted = errors.New("user is deleted")

	// ErrUserInactive is returned when an operation requires an active user.
	ErrUserInactive = errors.New("user is inactive")
)
