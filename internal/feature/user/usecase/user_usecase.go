package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"startup_boilerplate/internal/feature/user/domain/entity"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// UserRepository abstracts the persistence layer for user entities.
// Users are never hard-deleted, so there is no delete operation.
type UserRepository interface {
	// Create persists a new user. It returns ErrUserAlreadyExists on a duplicate ID.
	Create(ctx context.Context, user *entity.User) error

	// FindByID retrieves a user by ID, including soft-deleted users.
	FindByID(ctx context.Context, id string) (*entity.User, error)

	// FindByEmail retrieves the oldest non-deleted user with the given email.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// Update writes every mutable column of the user. It returns ErrUserNotFound if no row matched.
	Update(ctx context.Context, user *entity.User) error

	// List returns users matching the filter ordered by creation time.
	List(ctx context.Context, filter ListFilter) ([]*entity.User, error)
}

// ListFilter narrows List results. A nil Status lists every user.
type ListFilter struct {
	Status *entity.Status
	Limit  int
	Offset int
}

// ProfileUpdate carries optional profile changes.
// A nil field is left unchanged; an empty string clears the column.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	ImageURL  *string
}

// userUsecase implements the user lifecycle.
type userUsecase struct {
	users UserRepository
	now   func() time.Time
}

// NewUserUsecase creates a new instance of userUsecase.
func NewUserUsecase(users UserRepository) *userUsecase {
	return &userUsecase{users: users, now: time.Now}
}

// Create validates the candidate, applies the creation defaults and stores the user.
func (u *userUsecase) Create(ctx context.Context, params entity.NewUserParams) (*entity.User, error) {
	user, err := entity.NewUser(params, u.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidUser, err)
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	slog.Info("user created", "user_id", user.ID)
	return user, nil
}

// Get returns the user with the given ID.
func (u *userUsecase) Get(ctx context.Context, id string) (*entity.User, error) {
	if id == "" {
		return nil, ErrUserNotFound
	}
	return u.users.FindByID(ctx, id)
}

// FindByEmail returns the non-deleted user with the given email.
func (u *userUsecase) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if email == "" {
		return nil, ErrUserNotFound
	}
	return u.users.FindByEmail(ctx, email)
}

// List returns a page of users.
func (u *userUsecase) List(ctx context.Context, filter ListFilter) ([]*entity.User, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return u.users.List(ctx, filter)
}

// EnsureFromIdentity returns the user for an identity event, creating it on first sign-in.
// The boolean reports whether the user was created. Existing users are returned unchanged;
// soft-deleted users yield ErrUserDeleted.
func (u *userUsecase) EnsureFromIdentity(ctx context.Context, params entity.NewUserParams) (*entity.User, bool, error) {
	existing, err := u.users.FindByID(ctx, params.ID)
	switch {
	case err == nil:
		if existing.IsDeleted {
			return nil, false, ErrUserDeleted
		}
		return existing, false, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, false, err
	}

	created, err := u.Create(ctx, params)
	if errors.Is(err, ErrUserAlreadyExists) {
		// Lost a race against a concurrent first sign-in.
		existing, err := u.users.FindByID(ctx, params.ID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// UpdateProfile applies profile changes and refreshes UpdatedAt. Only active users may edit.
func (u *userUsecase) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*entity.User, error) {
	return u.mutate(ctx, id, func(user *entity.User, now time.Time) error {
		if user.IsDeleted {
			return entity.ErrAlreadyDeleted
		}
		if !user.IsActive {
			return ErrUserInactive
		}
		if in.FirstName != nil {
			user.FirstName = nullable(*in.FirstName)
		}
		if in.LastName != nil {
			user.LastName = nullable(*in.LastName)
		}
		if in.ImageURL != nil {
			user.ImageURL = nullable(*in.ImageURL)
		}
		user.Touch(now)
		return nil
	})
}

// MarkEmailVerified flags the user's email as verified.
func (u *userUsecase) MarkEmailVerified(ctx context.Context, id string) (*entity.User, error) {
	return u.mutate(ctx, id, func(user *entity.User, now time.Time) error {
		return user.MarkEmailVerified(now)
	})
}

// Deactivate moves the user to the deactivated state.
func (u *userUsecase) Deactivate(ctx context.Context, id string) (*entity.User, error) {
	user, err := u.mutate(ctx, id, func(user *entity.User, now time.Time) error {
		return user.Deactivate(now)
	})
	if err == nil {
		slog.Info("user deactivated", "user_id", id)
	}
	return user, err
}

// Reactivate moves a deactivated user back to active.
func (u *userUsecase) Reactivate(ctx context.Context, id string) (*entity.User, error) {
	user, err := u.mutate(ctx, id, func(user *entity.User, now time.Time) error {
		return user.Reactivate(now)
	})
	if err == nil {
		slog.Info("user reactivated", "user_id", id)
	}
	return user, err
}

// SoftDelete marks the user as deleted. The row is kept.
func (u *userUsecase) SoftDelete(ctx context.Context, id string) (*entity.User, error) {
	user, err := u.mutate(ctx, id, func(user *entity.User, now time.Time) error {
		return user.SoftDelete(now)
	})
	if err == nil {
		slog.Info("user soft-deleted", "user_id", id)
	}
	return user, err
}

// mutate loads the user, applies fn and writes the result back.
func (u *userUsecase) mutate(ctx context.Context, id string, fn func(*entity.User, time.Time) error) (*entity.User, error) {
	user, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(user, u.now().UTC()); err != nil {
		if errors.Is(err, entity.ErrAlreadyDeleted) {
			return nil, ErrUserDeleted
		}
		return nil, err
	}
	if err := u.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// nullable maps an empty string to a NULL column.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
