// Package handler provides HTTP handlers for the auth feature.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"startup_boilerplate/internal/feature/auth/domain/entity"
	"startup_boilerplate/internal/feature/auth/transport/http/dto"
	"startup_boilerplate/internal/feature/auth/usecase"
	userentity "startup_boilerplate/internal/feature/user/domain/entity"
	userdto "startup_boilerplate/internal/feature/user/transport/http/dto"
	useruc "startup_boilerplate/internal/feature/user/usecase"
	jwtmw "startup_boilerplate/internal/platform/jwt"
)

// AuthUsecase defines the authentication operations used by the handler.
// Following Go convention, the consumer (handler) owns the interface.
type AuthUsecase interface {
	Signup(ctx context.Context, email, password string) (*userentity.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	CompleteExternalSignIn(ctx context.Context, id usecase.ExternalIdentity, meta usecase.SessionMeta) (*entity.Session, *userentity.User, error)
	SignOut(ctx context.Context, sessionID string) error
	DeactivateAccount(ctx context.Context, userID string) (*userentity.User, error)
	CloseAccount(ctx context.Context, userID string) (*userentity.User, error)
}

// IdentityGateway runs the browser redirect flow against an identity provider.
type IdentityGateway interface {
	AuthURL(w http.ResponseWriter, r *http.Request, provider string) (string, error)
	Complete(w http.ResponseWriter, r *http.Request, provider string) (usecase.ExternalIdentity, error)
	Logout(w http.ResponseWriter, r *http.Request) error
}

// SignInRecorder counts sign-in outcomes.
type SignInRecorder interface {
	SignIn(provider, result string)
}

// CookieConfig controls the browser session cookie.
type CookieConfig struct {
	Name            string
	Secure          bool
	TTL             time.Duration
	AfterSignOutURL string
}

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	auth    AuthUsecase
	gateway IdentityGateway
	cookie  CookieConfig
	metrics SignInRecorder
}

// NewAuthHandler creates a new AuthHandler. metrics may be nil.
func NewAuthHandler(auth AuthUsecase, gateway IdentityGateway, cookie CookieConfig, metrics SignInRecorder) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "session"
	}
	if cookie.AfterSignOutURL == "" {
		cookie.AfterSignOutURL = "/"
	}
	return &AuthHandler{auth: auth, gateway: gateway, cookie: cookie, metrics: metrics}
}

// Signup handles the user registration API endpoint.
// - 400 on validation failure or a weak password
// - 409 when the email is taken
// - 201 on success
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: err.Error()})
		return
	}
	if _, err := h.auth.Signup(c.Request.Context(), req.Email, req.Password); err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmailAlreadyExists):
			slog.Warn("signup failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
			c.JSON(http.StatusConflict, dto.ErrorRes{Error: "email already exists"})
		case errors.Is(err, usecase.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: err.Error()})
		default:
			slog.Error("signup failed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal server error"})
		}
		return
	}
	slog.Info("user signup successful", "email", req.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, dto.MessageRes{Message: "ok"})
}

// Login handles the password login API endpoint and returns a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: err.Error()})
		return
	}
	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.recordSignIn("password", "failure")
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			// Do not reveal whether the email exists.
			slog.Warn("login failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
			c.JSON(http.StatusUnauthorized, dto.ErrorRes{Error: "invalid email or password"})
			return
		}
		slog.Error("login failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal server error"})
		return
	}
	h.recordSignIn("password", "success")
	slog.Info("user login successful", "email", req.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.TokenRes{Token: token})
}

// BeginProviderAuth redirects the browser to the provider's consent page.
func (h *AuthHandler) BeginProviderAuth(c *gin.Context) {
	provider := c.Param("provider")
	url, err := h.gateway.AuthURL(c.Writer, c.Request, provider)
	if err != nil {
		if errors.Is(err, usecase.ErrProviderNotConfigured) {
			c.JSON(http.StatusNotFound, dto.ErrorRes{Error: "unknown provider"})
			return
		}
		slog.Error("begin provider auth failed", "provider", provider, "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal server error"})
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// ProviderCallback completes the provider flow, opens a session and returns to the landing page.
func (h *AuthHandler) ProviderCallback(c *gin.Context) {
	provider := c.Param("provider")
	identity, err := h.gateway.Complete(c.Writer, c.Request, provider)
	if err != nil {
		if errors.Is(err, usecase.ErrProviderNotConfigured) {
			c.JSON(http.StatusNotFound, dto.ErrorRes{Error: "unknown provider"})
			return
		}
		h.recordSignIn(provider, "failure")
		slog.Warn("provider callback failed", "provider", provider, "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnauthorized, dto.ErrorRes{Error: "authentication failed"})
		return
	}

	session, _, err := h.auth.CompleteExternalSignIn(c.Request.Context(), identity, usecase.SessionMeta{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		h.recordSignIn(provider, "failure")
		switch {
		case errors.Is(err, useruc.ErrUserDeleted):
			c.JSON(http.StatusForbidden, dto.ErrorRes{Error: "account is closed"})
		case errors.Is(err, usecase.ErrIdentityIncomplete):
			c.JSON(http.StatusUnauthorized, dto.ErrorRes{Error: "authentication failed"})
		default:
			slog.Error("external sign-in failed", "provider", provider, "error", err)
			c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal server error"})
		}
		return
	}

	h.recordSignIn(provider, "success")
	h.setSessionCookie(c, session.ID, int(h.cookie.TTL.Seconds()))
	c.Redirect(http.StatusFound, "/")
}

// Logout revokes the browser session and redirects to the post-sign-out target.
func (h *AuthHandler) Logout(c *gin.Context) {
	if sid, err := c.Cookie(h.cookie.Name); err == nil && sid != "" {
		if err := h.auth.SignOut(c.Request.Context(), sid); err != nil {
			slog.Error("sign out failed", "error", err)
			c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal server error"})
			return
		}
	}
	h.setSessionCookie(c, "", -1)
	if err := h.gateway.Logout(c.Writer, c.Request); err != nil {
		slog.Warn("clear provider state failed", "error", err)
	}
	c.Redirect(http.StatusSeeOther, h.cookie.AfterSignOutURL)
}

// Deactivate deactivates the authenticated user and revokes their sessions.
func (h *AuthHandler) Deactivate(c *gin.Context) {
	h.accountTransition(c, "deactivate account failed", h.auth.DeactivateAccount)
}

// CloseAccount soft-deletes the authenticated user and revokes their sessions.
func (h *AuthHandler) CloseAccount(c *gin.Context) {
	h.accountTransition(c, "close account failed", h.auth.CloseAccount)
}

func (h *AuthHandler) accountTransition(c *gin.Context, msg string, fn func(context.Context, string) (*userentity.User, error)) {
	id, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorRes{Error: "unauthorized"})
		return
	}
	user, err := fn(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, useruc.ErrUserNotFound):
			c.JSON(http.StatusNotFound, dto.ErrorRes{Error: "user not found"})
		case errors.Is(err, useruc.ErrUserDeleted):
			c.JSON(http.StatusGone, dto.ErrorRes{Error: "user is deleted"})
		default:
			slog.Error(msg, "user_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, userdto.NewUserRes(user))
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) recordSignIn(provider, result string) {
	if h.metrics != nil {
		h.metrics.SignIn(provider, result)
	}
}
