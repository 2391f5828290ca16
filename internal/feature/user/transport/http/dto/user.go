// Package dto defines data transfer objects for the user feature's HTTP transport layer.
package dto

import (
	"time"

	"startup_boilerplate/internal/feature/user/domain/entity"
)

// UserRes is the public view of a user. The password hash is never included.
type UserRes struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FirstName       *string   `json:"firstName"`
	LastName        *string   `json:"lastName"`
	ImageURL        *string   `json:"imageUrl"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	IsActive        bool      `json:"isActive"`
	IsDeleted       bool      `json:"isDeleted"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewUserRes converts a domain user into its response form.
func NewUserRes(u *entity.User) UserRes {
	return UserRes{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		ImageURL:        u.ImageURL,
		IsEmailVerified: u.IsEmailVerified,
		IsActive:        u.IsActive,
		IsDeleted:       u.IsDeleted,
		Status:          string(u.Status()),
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// UserListRes wraps a page of users.
type UserListRes struct {
	Users []UserRes `json:"users"`
}

// NewUserListRes converts a page of domain users.
func NewUserListRes(users []*entity.User) UserListRes {
	out := make([]UserRes, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserRes(u))
	}
	return UserListRes{Users: out}
}

// UpdateProfileReq is the body of PATCH /api/me.
// Omitted fields are kept; an empty string clears the field.
type UpdateProfileReq struct {
	FirstName *string `json:"firstName" binding:"omitempty,max=100"`
	LastName  *string `json:"lastName" binding:"omitempty,max=100"`
	ImageURL  *string `json:"imageUrl" binding:"omitempty,max=2048"`
}

// ListUsersQuery holds the query parameters of GET /api/users.
type ListUsersQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=active deactivated deleted"`
	Limit  int    `form:"limit" binding:"omitempty,min=0"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}
