package folio

import (
	"time"

	"github.com/fulfill3d/folio/blocks"
)

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string // Site name (default "Fulfill3D")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Default author for JSON-LD when a post names none

	Addr         string // Listen address (default ":3000")
	DatabasePath string // Optional SQLite content catalog; takes precedence over PostsPath
	PostsPath    string // Optional JSON posts document; embedded seed when empty
	ProfilePath  string // Optional YAML site profile; embedded seed when empty
	ImagesDir    string // Source images for /thumbs/ (default "static/images")

	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	PostCacheTTL   time.Duration // Post cache TTL (default 5min)
	HighlightStyle string        // chroma style for code blocks (default "github")
	APIRateLimit   int           // Fragment API requests per window per IP (default 60)
	APIRateWindow  time.Duration // Fragment API window (default 1min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Fulfill3D"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.ImagesDir == "" {
		c.ImagesDir = "static/images"
	}
	if c.PostCacheTTL <= 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.HighlightStyle == "" {
		c.HighlightStyle = "github"
	}
	if c.APIRateLimit <= 0 {
		c.APIRateLimit = 60
	}
	if c.APIRateWindow <= 0 {
		c.APIRateWindow = time.Minute
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithSource serves posts from src instead of the configured database or
// posts document.
func WithSource(src Source) Option {
	return func(a *App) {
		a.Source = src
	}
}

// WithProfile uses p instead of loading ProfilePath or the embedded profile.
func WithProfile(p Profile) Option {
	return func(a *App) {
		a.Profile = &p
	}
}

// WithHighlighter overrides the code highlighter built from HighlightStyle.
// A nil highlighter disables syntax colouring.
func WithHighlighter(hl *blocks.Highlighter) Option {
	return func(a *App) {
		a.Highlighter = hl
		a.highlighterSet = true
	}
}
