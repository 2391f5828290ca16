// Package entity defines the domain entities for the user feature.
package entity

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Status is the lifecycle state of a user, derived from the persisted flags.
type Status string

const (
	StatusActive      Status = "active"
	StatusDeactivated Status = "deactivated"
	StatusDeleted     Status = "deleted"
)

// ParseStatus converts a string into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusDeactivated, StatusDeleted:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown user status %q", s)
}

var (
	// ErrAlreadyDeleted is returned by transitions that are not allowed on a soft-deleted user.
	ErrAlreadyDeleted = errors.New("user is deleted")
)

// User represents one registered account.
// Users are never physically removed; removal is a soft delete through the status flags.
type User struct {
	// ID is the opaque identifier. It is never reused.
	ID string

	// Email is always present. Uniqueness is enforced by the callers that need it.
	Email string

	CreatedAt time.Time
	UpdatedAt time.Time

	FirstName *string
	LastName  *string
	ImageURL  *string

	// HashedPassword is nil when authentication is delegated to an external provider.
	HashedPassword *string

	IsEmailVerified bool
	IsActive        bool
	IsDeleted       bool
}

// Status reports the lifecycle state. The flags are not assumed to be mutually exclusive:
// a deleted flag always wins, then an inactive flag.
func (u *User) Status() Status {
	switch {
	case u.IsDeleted:
		return StatusDeleted
	case !u.IsActive:
		return StatusDeactivated
	default:
		return StatusActive
	}
}

// HasPassword reports whether a local password credential is set.
func (u *User) HasPassword() bool {
	return u.HashedPassword != nil && *u.HashedPassword != ""
}

// DisplayName returns the best human-readable name for the user.
func (u *User) DisplayName() string {
	first, last := deref(u.FirstName), deref(u.LastName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	default:
		return u.Email
	}
}

// Touch refreshes UpdatedAt. Every mutation must call it.
func (u *User) Touch(now time.Time) {
	u.UpdatedAt = now
}

// MarkEmailVerified flags the email as verified.
func (u *User) MarkEmailVerified(now time.Time) error {
	if u.IsDeleted {
		return ErrAlreadyDeleted
	}
	u.IsEmailVerified = true
	u.Touch(now)
	return nil
}

// Deactivate moves an active user to deactivated.
func (u *User) Deactivate(now time.Time) error {
	if u.IsDeleted {
		return ErrAlreadyDeleted
	}
	u.IsActive = false
	u.Touch(now)
	return nil
}

// Reactivate moves a deactivated user back to active. Deleted users stay deleted.
func (u *User) Reactivate(now time.Time) error {
	if u.IsDeleted {
		return ErrAlreadyDeleted
	}
	u.IsActive = true
	u.Touch(now)
	return nil
}

// SoftDelete marks the user as deleted. Deleted users are also inactive.
func (u *User) SoftDelete(now time.Time) error {
	if u.IsDeleted {
		return ErrAlreadyDeleted
	}
	u.IsDeleted = true
	u.IsActive = false
	u.Touch(now)
	return nil
}

// NewUserParams is a candidate record for creating a User.
// Nil fields are omitted and receive their defaults in NewUser.
type NewUserParams struct {
	ID    string `validate:"required"`
	Email string `validate:"required"`

	CreatedAt *time.Time
	UpdatedAt *time.Time

	FirstName      *string
	LastName       *string
	ImageURL       *string
	HashedPassword *string

	IsEmailVerified *bool
	IsActive        *bool
	IsDeleted       *bool
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate performs the required-field check. It does not check email format.
func (p NewUserParams) Validate() error {
	if err := structValidator().Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return &ValidationError{Fields: fields}
		}
		return err
	}
	return nil
}

// ValidationError lists the candidate fields that failed the required-field check.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid user: missing required fields %v", e.Fields)
}

// NewUser validates the candidate and applies creation defaults:
// CreatedAt defaults to now, UpdatedAt to CreatedAt, IsEmailVerified to false,
// IsActive to true and IsDeleted to false.
func NewUser(p NewUserParams, now time.Time) (*User, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	createdAt := now
	if p.CreatedAt != nil {
		createdAt = *p.CreatedAt
	}
	updatedAt := createdAt
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	return &User{
		ID:              p.ID,
		Email:           p.Email,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		ImageURL:        p.ImageURL,
		HashedPassword:  p.HashedPassword,
		IsEmailVerified: boolOr(p.IsEmailVerified, false),
		IsActive:        boolOr(p.IsActive, true),
		IsDeleted:       boolOr(p.IsDeleted, false),
	}, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
