// Package handler provides HTTP handlers for the user feature.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"startup_boilerplate/internal/feature/user/domain/entity"
	"startup_boilerplate/internal/feature/user/transport/http/dto"
	"startup_boilerplate/internal/feature/user/usecase"
	jwtmw "startup_boilerplate/internal/platform/jwt"
)

// UserUsecase is the part of the user lifecycle exposed over HTTP.
type UserUsecase interface {
	Get(ctx context.Context, id string) (*entity.User, error)
	List(ctx context.Context, filter usecase.ListFilter) ([]*entity.User, error)
	UpdateProfile(ctx context.Context, id string, in usecase.ProfileUpdate) (*entity.User, error)
}

// UserHandler serves the /api/me and /api/users endpoints.
type UserHandler struct {
	users UserUsecase
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users UserUsecase) *UserHandler {
	return &UserHandler{users: users}
}

// Me returns the authenticated user.
func (h *UserHandler) Me(c *gin.Context) {
	id, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, "get current user failed", err)
		return
	}
	if user.IsDeleted {
		writeError(c, "get current user failed", usecase.ErrUserDeleted)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserRes(user))
}

// UpdateMe applies a partial profile update to the authenticated user.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	id, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req dto.UpdateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("profile update validation failed", "error", err, "user_id", id)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), id, usecase.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ImageURL:  req.ImageURL,
	})
	if err != nil {
		writeError(c, "profile update failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserRes(user))
}

// List returns a page of users, optionally filtered by status.
func (h *UserHandler) List(c *gin.Context) {
	var q dto.ListUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter := usecase.ListFilter{Limit: q.Limit, Offset: q.Offset}
	if q.Status != "" {
		status, err := entity.ParseStatus(q.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.Status = &status
	}

	users, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, "list users failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserListRes(users))
}

// Get returns one user by ID. Soft-deleted users are returned with status "deleted".
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "get user failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserRes(user))
}

// writeError maps user errors to status codes. Unknown errors become 500 without detail.
func writeError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, usecase.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, usecase.ErrUserDeleted):
		c.JSON(http.StatusGone, gin.H{"error": "user is deleted"})
	case errors.Is(err, usecase.ErrUserInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": "user is inactive"})
	case errors.Is(err, usecase.ErrInvalidUser):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user"})
	default:
		slog.Error(msg, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
