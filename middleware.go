package folio

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	sessionName = "folio_prefs"
	themeKey    = "theme"
)

// Theme is the colour scheme a visitor picked.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// RequestState is the per-request data templates need but handlers do not
// pass explicitly.
type RequestState struct {
	Theme     Theme
	CSRFToken string
	Path      string
}

type stateKey struct{}

// StateFromContext returns the RequestState stored by the state middleware.
// Outside a request it returns the light theme and no token.
func StateFromContext(ctx context.Context) RequestState {
	if s, ok := ctx.Value(stateKey{}).(RequestState); ok {
		return s
	}
	return RequestState{Theme: ThemeLight}
}

// WithState returns a copy of ctx carrying s.
func WithState(ctx context.Context, s RequestState) context.Context {
	return context.WithValue(ctx, stateKey{}, s)
}

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Pre(middleware.NonWWWRedirect())

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.HasPrefix(path, "/thumbs/") ||
				(strings.HasPrefix(path, "/public/") && path != "/public/chroma.css")
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; font-src 'self'; connect-src 'self'; frame-ancestors 'none'",
		HSTSMaxAge:            31536000,
		HSTSExcludeSubdomains: false,
	}))

	e.Use(session.Middleware(a.newSessionStore()))

	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		ContextKey:  middleware.DefaultCSRFConfig.ContextKey,
		TokenLookup: "header:X-CSRF-Token,form:_csrf",
		CookieName:  "_csrf",
		CookiePath:  "/",
		CookieSameSite: func() http.SameSite {
			return http.SameSiteLaxMode
		}(),
		CookieSecure: a.Config.CookieSecure,
		Skipper: func(c echo.Context) bool {
			return isMachinePath(c.Request().URL.Path)
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	}))

	e.Use(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			return isMachinePath(c.Request().URL.Path)
		},
	}))

	e.Use(stateMiddleware)
	e.Use(cacheControlMiddleware)
}

// isMachinePath reports paths that are fetched by clients other than
// browsers rendering pages: assets, feeds and the JSON API.
func isMachinePath(path string) bool {
	return strings.HasPrefix(path, "/public") ||
		strings.HasPrefix(path, "/thumbs/") ||
		strings.HasPrefix(path, "/api/") ||
		path == "/sitemap.xml" || path == "/feed.xml" || path == "/robots.txt"
}

// stateMiddleware copies the theme preference and CSRF token into the
// request context so templates can read them with StateFromContext.
func stateMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		s := RequestState{
			Theme:     CurrentTheme(c),
			CSRFToken: CsrfToken(c),
			Path:      req.URL.Path,
		}
		c.SetRequest(req.WithContext(WithState(req.Context(), s)))
		return next(c)
	}
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		switch {
		case path == "/public/chroma.css":
			c.Response().Header().Set("Cache-Control", "public, max-age=86400")
		case strings.HasPrefix(path, "/public/"), strings.HasPrefix(path, "/thumbs/"):
			c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		case path == "/sitemap.xml" || path == "/feed.xml" || path == "/robots.txt":
			c.Response().Header().Set("Cache-Control", "public, max-age=86400")
		case strings.HasPrefix(path, "/api/"):
			c.Response().Header().Set("Cache-Control", "public, max-age=300")
		case path == "/theme/":
			c.Response().Header().Set("Cache-Control", "no-store")
		default:
			// Pages embed the visitor's theme and CSRF token.
			c.Response().Header().Set("Cache-Control", "private, max-age=600")
		}
		return next(c)
	}
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 24 * 365,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// CurrentTheme returns the theme saved in the visitor's session, or light.
func CurrentTheme(c echo.Context) Theme {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return ThemeLight
	}
	if t, ok := sess.Values[themeKey].(string); ok && Theme(t) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

func setTheme(c echo.Context, t Theme) error {
	// A cookie signed with an old secret yields a fresh session and an
	// error; overwrite it rather than fail.
	sess, err := session.Get(sessionName, c)
	if sess == nil {
		return err
	}
	sess.Values[themeKey] = string(t)
	return sess.Save(c.Request(), c.Response())
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
