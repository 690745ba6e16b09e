package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fulfill3d/folio"
	"github.com/fulfill3d/folio/views"
)

func serveCmd() *cobra.Command {
	cfg := folio.SiteConfig{}
	var staticDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Long: `Run the web server.

Every flag falls back to a FOLIO_* environment variable, for example
FOLIO_ADDR, FOLIO_DB and FOLIO_SESSION_SECRET.

Examples:
  # Serve the embedded sample content
  FOLIO_SESSION_SECRET=change-me folio serve

  # Serve a SQLite catalog behind TLS
  folio serve --db data/folio.db --url https://fulfill3d.com --cookie-secure`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.SessionSecret == "" {
				cfg.SessionSecret = folio.MustEnv("FOLIO_SESSION_SECRET")
			}
			return runServe(cmd.Context(), cfg, staticDir)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", folio.EnvOr("FOLIO_ADDR", ":3000"), "Listen address")
	f.StringVar(&cfg.Name, "name", folio.EnvOr("FOLIO_SITE_NAME", ""), "Site name")
	f.StringVar(&cfg.URL, "url", folio.EnvOr("FOLIO_SITE_URL", ""), "Canonical site URL")
	f.StringVar(&cfg.Description, "description", folio.EnvOr("FOLIO_SITE_DESCRIPTION", ""), "Site description")
	f.StringVar(&cfg.Author, "author", folio.EnvOr("FOLIO_SITE_AUTHOR", ""), "Default post author")
	f.StringVar(&cfg.DatabasePath, "db", folio.EnvOr("FOLIO_DB", ""), "SQLite content catalog")
	f.StringVar(&cfg.PostsPath, "posts", folio.EnvOr("FOLIO_POSTS", ""), "JSON posts document")
	f.StringVar(&cfg.ProfilePath, "profile", folio.EnvOr("FOLIO_PROFILE", ""), "YAML site profile")
	f.StringVar(&cfg.ImagesDir, "images", folio.EnvOr("FOLIO_IMAGES", ""), "Directory of card images")
	f.StringVar(&cfg.SessionSecret, "session-secret", "", "Session secret (default $FOLIO_SESSION_SECRET)")
	f.BoolVar(&cfg.CookieSecure, "cookie-secure", folio.EnvBool("FOLIO_COOKIE_SECURE", false), "Mark cookies Secure")
	f.DurationVar(&cfg.PostCacheTTL, "cache-ttl", folio.EnvDuration("FOLIO_CACHE_TTL", 5*time.Minute), "Post cache TTL")
	f.StringVar(&cfg.HighlightStyle, "highlight-style", folio.EnvOr("FOLIO_HIGHLIGHT_STYLE", "github"), "chroma style for code blocks")
	f.IntVar(&cfg.APIRateLimit, "api-rate", 60, "Fragment API requests per window per IP")
	f.DurationVar(&cfg.APIRateWindow, "api-window", time.Minute, "Fragment API rate window")
	f.StringVar(&staticDir, "static", folio.EnvOr("FOLIO_STATIC", "public"), "Static assets directory")

	return cmd
}

func runServe(ctx context.Context, cfg folio.SiteConfig, staticDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := folio.New(cfg, folio.ViewFuncs{}, folio.WithStaticDir(staticDir))
	defer app.Close()
	app.Echo.Logger = logger
	// Views read the config after defaults are applied.
	app.Views = views.New(app.Config)
	if err := app.Setup(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", app.Config.Addr)
		if err := app.Echo.Start(app.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Echo.Shutdown(shutdownCtx)
}
