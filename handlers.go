package folio

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fulfill3d/folio/blocks"
)

// homePostCount is how many recent posts the home page lists.
const homePostCount = 3

func (a *App) handleHome(c echo.Context) error {
	posts, err := a.Cache.ListPosts("")
	if err != nil {
		return err
	}
	if len(posts) > homePostCount {
		posts = posts[:homePostCount]
	}
	return Render(c, a.Views.Home(*a.Profile, posts, a.Config.URL))
}

func (a *App) handleAbout(c echo.Context) error {
	return Render(c, a.Views.About(*a.Profile))
}

func (a *App) handleProjects(c echo.Context) error {
	tag := c.QueryParam("tag")
	return Render(c, a.Views.Projects(FilterProjectsByTag(a.Profile.Projects, tag), tag))
}

func (a *App) handleProjectWiki(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	project, ok := a.Profile.Project(id)
	if !ok || !project.WikiReady {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	return Render(c, a.Views.ProjectWiki(project))
}

func (a *App) handleBlog(c echo.Context) error {
	tag := c.QueryParam("tag")
	posts, err := a.Cache.ListPosts(tag)
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListTags()
	if err != nil {
		return err
	}
	return renderPage(c, "blog",
		a.Views.Blog(posts, tag, tags, a.Config.URL),
		a.Views.BlogSection(posts, tag, tags))
}

func (a *App) handlePost(c echo.Context) error {
	post, frags, err := a.Cache.GetRendered(c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	posts, err := a.Cache.ListPosts("")
	if err != nil {
		return err
	}
	related := FilterRelatedPosts(post, posts)
	body := blocks.View(frags, a.Highlighter)
	return renderPage(c, "post",
		a.Views.Post(post, body, related, a.Config.URL),
		a.Views.PostPartial(post, body, related, a.Config.URL))
}

// handleTheme stores the requested theme, or flips the current one when the
// form names none, then sends the visitor back where they came from.
func (a *App) handleTheme(c echo.Context) error {
	next := Theme(c.FormValue("theme"))
	if next != ThemeLight && next != ThemeDark {
		next = ThemeDark
		if CurrentTheme(c) == ThemeDark {
			next = ThemeLight
		}
	}
	if err := setTheme(c, next); err != nil {
		return err
	}
	if c.Request().Header.Get("HX-Request") == "true" {
		c.Response().Header().Set("HX-Refresh", "true")
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, localReferer(c.Request()))
}

// localReferer returns the path of a same-origin Referer, or "/".
func localReferer(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return "/"
	}
	if ref.Host != "" && ref.Host != r.Host {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}

func (a *App) handleChromaCSS(c echo.Context) error {
	if a.Highlighter == nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	c.Response().Header().Set(echo.HeaderContentType, "text/css; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return a.Highlighter.WriteCSS(c.Response())
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPosts("")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts("")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

// handleRobots serves robots.txt from the static directory when present and
// a permissive default pointing at the sitemap otherwise.
func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.staticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	body := fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s\n", strings.TrimSuffix(a.Config.URL, "/")+"/sitemap.xml")
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
