// Package landing renders the public landing page.
package landing

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

// Title is the landing page heading.
const Title = "Welcome to Your Startup Boilerplate"

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// Visitor is the authentication state of the person viewing the page.
type Visitor struct {
	SignedIn    bool
	DisplayName string
	ImageURL    string
}

// Links are the identity endpoints the page points at.
type Links struct {
	SignInURL       string
	SignOutURL      string
	AfterSignOutURL string
}

// Provider is one sign-in option.
type Provider struct {
	Name  string
	Label string
	URL   string
}

// View is everything the page depends on.
type View struct {
	Visitor   Visitor
	Links     Links
	Providers []Provider
}

// NewProviders builds sign-in options pointing at /auth/{name}.
func NewProviders(names []string) []Provider {
	out := make([]Provider, 0, len(names))
	for _, n := range names {
		out = append(out, Provider{Name: n, Label: providerLabel(n), URL: "/auth/" + n})
	}
	return out
}

var labels = map[string]string{
	"google": "Google",
	"github": "GitHub",
}

func providerLabel(name string) string {
	if l, ok := labels[name]; ok {
		return l
	}
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// Renderer writes the landing page for a View.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/landing.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse landing template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the page. The output depends only on v.
func (r *Renderer) Render(w io.Writer, v View) error {
	if v.Links.SignOutURL == "" {
		v.Links.SignOutURL = "/auth/logout"
	}
	if v.Links.AfterSignOutURL == "" {
		v.Links.AfterSignOutURL = "/"
	}
	return r.tmpl.Execute(w, struct {
		Title string
		View
	}{Title: Title, View: v})
}
