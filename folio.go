// Package folio serves a company portfolio site: a blog whose posts are
// ordered sequences of typed content blocks, plus company, people and project
// pages loaded from a YAML profile.
//
// Callers provide page templates via the ViewFuncs struct; folio owns the
// content sources, handlers, middleware and feeds.
package folio

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/fulfill3d/folio/blocks"
)

// ViewFuncs holds the templ components folio calls when rendering pages.
type ViewFuncs struct {
	Home        func(profile Profile, posts []Post, siteURL string) templ.Component
	About       func(profile Profile) templ.Component
	Projects    func(projects []Project, activeTag string) templ.Component
	ProjectWiki func(project Project) templ.Component
	Blog        func(posts []Post, activeTag string, tags []string, siteURL string) templ.Component
	BlogSection func(posts []Post, activeTag string, tags []string) templ.Component
	Post        func(post Post, body templ.Component, related []Post, siteURL string) templ.Component
	PostPartial func(post Post, body templ.Component, related []Post, siteURL string) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App wires together the content source, cache, handlers, middleware and
// user-provided templates.
type App struct {
	Config      SiteConfig
	Echo        *echo.Echo
	Source      Source
	Store       *Store // set when posts come from DatabasePath
	Cache       *PostCache
	Profile     *Profile
	Views       ViewFuncs
	Highlighter *blocks.Highlighter

	apiLimiter     *RateLimiter
	thumbs         *ThumbCache
	customRoutes   []func(*App)
	staticDir      string
	highlighterSet bool
}

// New creates an App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}
	a.Echo.HideBanner = true
	a.Echo.Logger.SetLevel(log.INFO)

	for _, opt := range opts {
		opt(a)
	}
	if !a.highlighterSet {
		a.Highlighter = blocks.NewHighlighter(a.Config.HighlightStyle)
	}
	return a
}

// Setup loads content, then registers middleware and routes. It is safe to
// serve a.Echo directly (for example from httptest) once Setup returns.
func (a *App) Setup() error {
	if a.Config.SessionSecret == "" {
		return errors.New("folio: SessionSecret is required")
	}
	if err := a.initSource(); err != nil {
		return err
	}
	if err := a.initProfile(); err != nil {
		return err
	}

	a.Cache = NewPostCache(a.Source, a.Config.PostCacheTTL)
	a.apiLimiter = NewRateLimiter(a.Config.APIRateLimit, a.Config.APIRateWindow)
	a.thumbs = NewThumbCache(a.Config.ImagesDir)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start runs Setup and serves until the server stops.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) initSource() error {
	if a.Source != nil {
		return nil
	}
	logger := a.Echo.Logger
	if a.Config.DatabasePath != "" {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("folio: init store: %w", err)
		}
		store.OnIssue = func(issue PostIssue) {
			logger.Warnf("dropped content block: %v", issue)
		}
		a.Store = store
		a.Source = store
		return nil
	}

	var (
		posts  []Post
		issues []PostIssue
		err    error
	)
	if a.Config.PostsPath != "" {
		posts, issues, err = DecodePostsFile(a.Config.PostsPath)
	} else {
		posts, issues, err = SeedPosts()
	}
	if err != nil {
		return fmt.Errorf("folio: load posts: %w", err)
	}
	for _, issue := range issues {
		logger.Warnf("posts: %v", issue)
	}
	logger.Infof("loaded %d posts", len(posts))
	a.Source = NewMemorySource(posts)
	return nil
}

func (a *App) initProfile() error {
	if a.Profile != nil {
		return nil
	}
	var (
		p   Profile
		err error
	)
	if a.Config.ProfilePath != "" {
		p, err = LoadProfileFile(a.Config.ProfilePath)
	} else {
		p, err = LoadProfile(seedProfile)
	}
	if err != nil {
		return fmt.Errorf("folio: load profile: %w", err)
	}
	a.Profile = &p
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/public/chroma.css", a.handleChromaCSS)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/thumbs/:file", a.handleThumb)

	e.GET("/", a.handleHome)
	e.GET("/about/", a.handleAbout)
	e.GET("/projects/", a.handleProjects)
	e.GET("/projects/:id/", a.handleProjectWiki)
	e.GET("/blog/", a.handleBlog)
	e.GET("/blog/:slug/", a.handlePost)
	e.POST("/theme/", a.handleTheme)

	api := e.Group("/api", a.rateLimit)
	api.GET("/posts/:slug/fragments", a.handleFragments)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.apiLimiter != nil {
		a.apiLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("folio: required environment variable %s is not set", key)
	}
	return v
}

// EnvBool parses key as a boolean, returning fallback when unset or invalid.
func EnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

// EnvDuration parses key as a time.Duration, returning fallback when unset or invalid.
func EnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
