package di

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"startup_boilerplate/internal/feature/auth/adapters/oauth"
	"startup_boilerplate/internal/platform/config"
	platformhttp "startup_boilerplate/internal/platform/http"
)

// oauthStateMaxAge bounds how long a sign-in redirect may take, in seconds.
const oauthStateMaxAge = 600

// NewIdentityGateway registers the configured providers. The OAuth state cookie is
// signed with SESSION_SECRET.
func NewIdentityGateway(cfg *config.Config) *oauth.Gateway {
	if cfg.SessionSecret == "" {
		slog.Warn("SESSION_SECRET is not set; provider sign-in state cannot be verified across restarts")
	}
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   oauthStateMaxAge,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}

	gw := oauth.NewGateway(oauth.Config{
		BaseURL: cfg.BaseURL,
		Google:  oauth.ProviderCredentials{ClientID: cfg.GoogleClientID, ClientSecret: cfg.GoogleClientSecret},
		GitHub:  oauth.ProviderCredentials{ClientID: cfg.GitHubClientID, ClientSecret: cfg.GitHubClientSecret},
	}, store, platformhttp.NewHTTPClient(cfg.OAuthHTTPTimeout))

	if len(gw.Providers()) == 0 {
		slog.Warn("no identity providers configured; provider sign-in is disabled")
	}
	return gw
}
