// Package adapters provides the repository implementations for the user feature.
package adapters

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"startup_boilerplate/internal/feature/user/domain/entity"
	"startup_boilerplate/internal/feature/user/usecase"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for a unique constraint violation.
const pgUniqueViolation = "23505"

// userGorm is the GORM implementation of usecase.UserRepository.
type userGorm struct {
	db *gorm.DB
}

var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm creates a repository backed by the given connection.
// The connection should be opened with gorm.Config{TranslateError: true}.
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// Create inserts the user. A duplicate ID yields usecase.ErrUserAlreadyExists.
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	m := UserModelFromEntity(u)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicateKey(err) {
			return usecase.ErrUserAlreadyExists
		}
		return err
	}
	*u = *m.ToEntity()
	return nil
}

// FindByID returns the user with the given ID, deleted or not.
func (r *userGorm) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// FindByEmail returns the oldest non-deleted user with the given email.
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var m UserModel
	err := r.db.WithContext(ctx).
		Where("email = ? AND is_deleted = ?", email, false).
		Order("created_at ASC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// Update writes every mutable column. CreatedAt is never rewritten.
func (r *userGorm) Update(ctx context.Context, u *entity.User) error {
	res := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"email":             u.Email,
			"first_name":        u.FirstName,
			"last_name":         u.LastName,
			"image_url":         u.ImageURL,
			"hashed_password":   u.HashedPassword,
			"is_email_verified": u.IsEmailVerified,
			"is_active":         u.IsActive,
			"is_deleted":        u.IsDeleted,
			"updated_at":        u.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

// List returns users ordered by creation time, optionally filtered by status.
func (r *userGorm) List(ctx context.Context, f usecase.ListFilter) ([]*entity.User, error) {
	q := r.db.WithContext(ctx).Model(&UserModel{})
	if f.Status != nil {
		switch *f.Status {
		case entity.StatusActive:
			q = q.Where("is_deleted = ? AND is_active = ?", false, true)
		case entity.StatusDeactivated:
			q = q.Where("is_deleted = ? AND is_active = ?", false, false)
		case entity.StatusDeleted:
			q = q.Where("is_deleted = ?", true)
		}
	}

	var models []UserModel
	if err := q.Order("created_at ASC").Order("id ASC").
		Limit(f.Limit).Offset(f.Offset).
		Find(&models).Error; err != nil {
		return nil, err
	}

	users := make([]*entity.User, 0, len(models))
	for i := range models {
		users = append(users, models[i].ToEntity())
	}
	return users, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
