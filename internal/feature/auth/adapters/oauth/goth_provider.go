// Package oauth adapts markbates/goth identity providers to the auth usecase.
package oauth

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/google"

	"startup_boilerplate/internal/feature/auth/usecase"
)

// ProviderCredentials are the OAuth client credentials for one provider.
type ProviderCredentials struct {
	ClientID     string
	ClientSecret string
}

// Config lists the providers to register. Providers with an empty ClientID are skipped.
type Config struct {
	BaseURL string
	Google  ProviderCredentials
	GitHub  ProviderCredentials
}

// Gateway drives the redirect-based sign-in flow for the registered providers.
type Gateway struct {
	names []string
}

// NewGateway registers the configured providers with goth and installs store as the
// gothic state store. client is used for token exchange and profile requests.
func NewGateway(cfg Config, store sessions.Store, client *http.Client) *Gateway {
	gothic.Store = store

	base := strings.TrimRight(cfg.BaseURL, "/")
	var providers []goth.Provider
	if cfg.Google.ClientID != "" {
		p := google.New(cfg.Google.ClientID, cfg.Google.ClientSecret, base+"/auth/google/callback", "email", "profile")
		p.HTTPClient = client
		providers = append(providers, p)
	}
	if cfg.GitHub.ClientID != "" {
		p := github.New(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, base+"/auth/github/callback", "read:user", "user:email")
		p.HTTPClient = client
		providers = append(providers, p)
	}

	goth.ClearProviders()
	goth.UseProviders(providers...)

	g := &Gateway{}
	for _, p := range providers {
		g.names = append(g.names, p.Name())
	}
	sort.Strings(g.names)
	return g
}

// Providers returns the registered provider names in sorted order.
func (g *Gateway) Providers() []string {
	return append([]string(nil), g.names...)
}

// AuthURL starts the flow and returns the provider consent URL to redirect to.
func (g *Gateway) AuthURL(w http.ResponseWriter, r *http.Request, provider string) (string, error) {
	if _, err := goth.GetProvider(provider); err != nil {
		return "", fmt.Errorf("%w: %s", usecase.ErrProviderNotConfigured, provider)
	}
	return gothic.GetAuthURL(w, withProvider(r, provider))
}

// Complete finishes the flow on the callback request and returns the normalized identity.
func (g *Gateway) Complete(w http.ResponseWriter, r *http.Request, provider string) (usecase.ExternalIdentity, error) {
	if _, err := goth.GetProvider(provider); err != nil {
		return usecase.ExternalIdentity{}, fmt.Errorf("%w: %s", usecase.ErrProviderNotConfigured, provider)
	}
	user, err := gothic.CompleteUserAuth(w, withProvider(r, provider))
	if err != nil {
		return usecase.ExternalIdentity{}, fmt.Errorf("complete %s auth: %w", provider, err)
	}
	return IdentityFromGothUser(user), nil
}

// Logout clears the gothic state cookie.
func (g *Gateway) Logout(w http.ResponseWriter, r *http.Request) error {
	return gothic.Logout(w, r)
}

// IdentityFromGothUser maps a goth profile onto an ExternalIdentity.
func IdentityFromGothUser(u goth.User) usecase.ExternalIdentity {
	first, last := u.FirstName, u.LastName
	if first == "" && last == "" && u.Name != "" {
		first, last, _ = strings.Cut(strings.TrimSpace(u.Name), " ")
	}
	return usecase.ExternalIdentity{
		Provider:      u.Provider,
		Subject:       u.UserID,
		Email:         strings.TrimSpace(u.Email),
		FirstName:     first,
		LastName:      strings.TrimSpace(last),
		ImageURL:      u.AvatarURL,
		EmailVerified: emailVerified(u.RawData),
	}
}

// emailVerified reads the provider's verification claim; absent means unverified.
func emailVerified(raw map[string]interface{}) bool {
	for _, key := range []string{"email_verified", "verified_email"} {
		switch v := raw[key].(type) {
		case bool:
			return v
		case string:
			return strings.EqualFold(v, "true")
		}
	}
	return false
}

// withProvider exposes the provider name where gothic looks for it.
func withProvider(r *http.Request, provider string) *http.Request {
	q := r.URL.Query()
	q.Set("provider", provider)
	r.URL.RawQuery = q.Encode()
	return r
}
