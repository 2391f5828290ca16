// Package router assembles the gin engine.
package router

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	authhandler "startup_boilerplate/internal/feature/auth/transport/handler"
	authmw "startup_boilerplate/internal/feature/auth/transport/middleware"
	landinghandler "startup_boilerplate/internal/feature/landing/transport/handler"
	userhandler "startup_boilerplate/internal/feature/user/transport/handler"
	"startup_boilerplate/internal/platform/http/handler"
	"startup_boilerplate/internal/platform/http/middleware"
	"startup_boilerplate/internal/shared/ratelimiter"
)

// Handlers are the feature handlers mounted on the engine.
type Handlers struct {
	Landing *landinghandler.LandingHandler
	Auth    *authhandler.AuthHandler
	User    *userhandler.UserHandler
	Ready   gin.HandlerFunc
}

// Options carry the cross-cutting settings.
type Options struct {
	// Principals resolves API callers from a bearer token or the session cookie.
	Principals        authmw.PrincipalResolver
	JWTSecret         string
	SessionCookieName string
	// AdminUserIDs may call /api/users. Empty locks the directory.
	AdminUserIDs []string
	// TrustedProxies may set the client IP through X-Forwarded-For. Empty trusts none.
	TrustedProxies []string
	CORSOrigins    []string
	// Limiter guards /signup and /login. Nil disables limiting.
	Limiter ratelimiter.Limiter
	Metrics *middleware.Metrics
	Logger  *slog.Logger
}

// NewRouter builds the engine with every route.
func NewRouter(h Handlers, opts Options) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(opts.Logger))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
			ExposeHeaders:    []string{middleware.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Public
	r.GET("/", h.Landing.Show)
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.OPTIONS("/healthz", handler.Health)
	if h.Ready != nil {
		r.GET("/readyz", h.Ready)
	}
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	credentials := r.Group("/")
	if opts.Limiter != nil {
		credentials.Use(middleware.RateLimit(opts.Limiter, "credentials", middleware.KeyByIP, opts.Metrics))
	}
	credentials.POST("/signup", h.Auth.Signup)
	credentials.POST("/login", h.Auth.Login)

	// Browser sign-in with an identity provider
	r.GET("/auth/:provider", h.Auth.BeginProviderAuth)
	r.GET("/auth/:provider/callback", h.Auth.ProviderCallback)
	r.POST("/auth/logout", h.Auth.Logout)

	// Active user required, by bearer JWT or session cookie
	api := r.Group("/api")
	api.Use(authmw.Authenticate(opts.Principals, authmw.Config{
		JWTSecret:  opts.JWTSecret,
		CookieName: opts.SessionCookieName,
	}))
	{
		api.GET("/me", h.User.Me)
		api.PATCH("/me", h.User.UpdateMe)
		api.POST("/me/deactivate", h.Auth.Deactivate)
		api.DELETE("/me", h.Auth.CloseAccount)

		admin := api.Group("/users", authmw.RequireAdmin(opts.AdminUserIDs))
		admin.GET("", h.User.List)
		admin.GET("/:id", h.User.Get)
	}

	return r, nil
}
