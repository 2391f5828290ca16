// Package usecase implements the business logic for the auth feature.
package usecase

import "errors"

var (
	// ErrEmailAlreadyExists is returned when signing up with an email held by a non-deleted user.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrInvalidCredentials is returned for an unknown email, a wrong password or a deleted account.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrWeakPassword is returned when a password does not meet the length requirement.
	ErrWeakPassword = errors.New("password too short")

	// ErrSessionNotFound is returned when a session cannot be found by ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionRevoked is returned when attempting to use a revoked session.
	ErrSessionRevoked = errors.New("session has been revoked")

	// ErrSessionExpired is returned when attempting to use an expired session.
	ErrSessionExpired = errors.New("session has expired")

	// ErrProviderNotConfigured is returned when an identity provider is not registered.
	ErrProviderNotConfigured = errors.New("identity provider not configured")

	// ErrIdentityIncomplete is returned when a provider callback lacks a subject or email.
	ErrIdentityIncomplete = errors.New("identity is missing subject or email")
)
