// Package handler serves the landing page over HTTP.
package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"startup_boilerplate/internal/feature/auth/usecase"
	"startup_boilerplate/internal/feature/landing"
	userentity "startup_boilerplate/internal/feature/user/domain/entity"
	useruc "startup_boilerplate/internal/feature/user/usecase"
)

// SessionResolver returns the active user behind a browser session.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionID string) (*userentity.User, error)
}

// PageRenderer renders the landing page.
type PageRenderer interface {
	Render(w io.Writer, v landing.View) error
}

// LandingHandler builds the landing View from the request and renders it.
type LandingHandler struct {
	renderer   PageRenderer
	sessions   SessionResolver
	cookieName string
	links      landing.Links
	providers  []landing.Provider
}

// NewLandingHandler creates a new LandingHandler.
func NewLandingHandler(renderer PageRenderer, sessions SessionResolver, cookieName string, links landing.Links, providers []landing.Provider) *LandingHandler {
	return &LandingHandler{
		renderer:   renderer,
		sessions:   sessions,
		cookieName: cookieName,
		links:      links,
		providers:  providers,
	}
}

// Show handles GET /.
func (h *LandingHandler) Show(c *gin.Context) {
	view := landing.View{Links: h.links, Providers: h.providers}
	if user := h.visitor(c); user != nil {
		view.Visitor = landing.Visitor{
			SignedIn:    true,
			DisplayName: user.DisplayName(),
		}
		if user.ImageURL != nil {
			view.Visitor.ImageURL = *user.ImageURL
		}
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, view); err != nil {
		slog.Error("render landing page failed", "error", err)
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// visitor resolves the session cookie. Any failure renders the signed-out view;
// a cookie that can never resolve again is cleared.
func (h *LandingHandler) visitor(c *gin.Context) *userentity.User {
	sid, err := c.Cookie(h.cookieName)
	if err != nil || sid == "" {
		return nil
	}
	user, err := h.sessions.ResolveSession(c.Request.Context(), sid)
	if err == nil {
		return user
	}

	if isStale(err) {
		http.SetCookie(c.Writer, &http.Cookie{Name: h.cookieName, Path: "/", MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	} else {
		slog.Warn("resolve session failed", "error", err)
	}
	return nil
}

func isStale(err error) bool {
	return errors.Is(err, usecase.ErrSessionNotFound) ||
		errors.Is(err, usecase.ErrSessionRevoked) ||
		errors.Is(err, usecase.ErrSessionExpired) ||
		errors.Is(err, useruc.ErrUserDeleted) ||
		errors.Is(err, useruc.ErrUserInactive) ||
		errors.Is(err, useruc.ErrUserNotFound)
}
