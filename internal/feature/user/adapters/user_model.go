package adapters

import (
	"time"

	"startup_boilerplate/internal/feature/user/domain/entity"
)

// UserModel is the GORM model for the users table.
// The flags are pointers so an omitted value falls back to the column default
// while an explicit false is still written.
type UserModel struct {
	ID              string    `gorm:"primaryKey;size:255"`
	Email           string    `gorm:"size:320;not null;index"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
	FirstName       *string   `gorm:"size:255"`
	LastName        *string   `gorm:"size:255"`
	ImageURL        *string   `gorm:"size:2048"`
	HashedPassword  *string   `gorm:"size:255"`
	IsEmailVerified *bool     `gorm:"not null;default:false"`
	IsActive        *bool     `gorm:"not null;default:true"`
	IsDeleted       *bool     `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// ToEntity converts the GORM model to a domain entity.
func (m *UserModel) ToEntity() *entity.User {
	return &entity.User{
		ID:              m.ID,
		Email:           m.Email,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		ImageURL:        m.ImageURL,
		HashedPassword:  m.HashedPassword,
		IsEmailVerified: boolValue(m.IsEmailVerified, false),
		IsActive:        boolValue(m.IsActive, true),
		IsDeleted:       boolValue(m.IsDeleted, false),
	}
}

// UserModelFromEntity converts a domain entity to a GORM model.
func UserModelFromEntity(u *entity.User) *UserModel {
	verified, active, deleted := u.IsEmailVerified, u.IsActive, u.IsDeleted
	return &UserModel{
		ID:              u.ID,
		Email:           u.Email,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		ImageURL:        u.ImageURL,
		HashedPassword:  u.HashedPassword,
		IsEmailVerified: &verified,
		IsActive:        &active,
		IsDeleted:       &deleted,
	}
}

func boolValue(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
