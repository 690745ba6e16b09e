package folio_test

import (
	"encoding/json"
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulfill3d/folio"
	"github.com/fulfill3d/folio/blocks"
	"github.com/fulfill3d/folio/views"
)

func newTestApp(t *testing.T, mutate func(*folio.SiteConfig)) *folio.App {
	t.Helper()
	cfg := folio.SiteConfig{
		URL:           "https://fulfill3d.com",
		SessionSecret: "test-secret-test-secret-test-secret",
		ImagesDir:     t.TempDir(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	app := folio.New(cfg, folio.ViewFuncs{}, folio.WithStaticDir(t.TempDir()))
	app.Views = views.New(app.Config)
	require.NoError(t, app.Setup())
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func get(app *folio.App, target string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	return rec
}

func TestSetupRequiresSessionSecret(t *testing.T) {
	app := folio.New(folio.SiteConfig{}, folio.ViewFuncs{})
	assert.Error(t, app.Setup())
}

func TestHomePage(t *testing.T) {
	app := newTestApp(t, nil)
	rec := get(app, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Welcome to Fulfill3D")
	assert.Contains(t, body, `href="/blog/slicer-profiles-as-code/"`)
	assert.NotContains(t, body, "returns-workflow", "drafts are not listed")
	assert.Contains(t, body, `"@type":"Organization"`)
	assert.Equal(t, "private, max-age=600", rec.Header().Get("Cache-Control"))
}

func TestTrailingSlashRedirect(t *testing.T) {
	app := newTestApp(t, nil)
	rec := get(app, "/blog")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/blog/", rec.Header().Get("Location"))
}

func TestBlogPage(t *testing.T) {
	app := newTestApp(t, nil)

	rec := get(app, "/blog/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<!doctype html>")
	assert.Less(t,
		strings.Index(body, "Slicer Profiles as Code"),
		strings.Index(body, "Queue-Backed Order Intake"),
		"newest post first")

	rec = get(app, "/blog/?tag=sql&partial=blog", "HX-Request", "true")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `<section id="blog-section">`), body)
	assert.Contains(t, body, "Tracking Filament Stock in SQL")
	assert.NotContains(t, body, "Slicer Profiles as Code")
}

func TestPostPage(t *testing.T) {
	app := newTestApp(t, nil)

	rec := get(app, "/blog/tracking-filament-stock-in-sql/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>The schema</h1>")
	assert.Contains(t, body, "<h3>Appendix</h3>", "deep headings are clamped")
	assert.NotContains(t, body, "<h5>")
	assert.Contains(t, body, `class="chroma"`)
	assert.Contains(t, body, `code-lang-sql`)
	assert.Contains(t, body, `"@type":"BlogPosting"`)

	rec = get(app, "/blog/queue-backed-order-intake/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(),
		`<a href="https://learn.microsoft.com/azure/service-bus-messaging/message-sessions" target="_blank" rel="noopener noreferrer">`)
}

func TestPostPartial(t *testing.T) {
	app := newTestApp(t, nil)
	rec := get(app, "/blog/slicer-profiles-as-code/?partial=post", "HX-Request", "true")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `<article class="post`), body)
	assert.Contains(t, rec.Header().Values("Vary"), "HX-Request")
	assert.NotContains(t, body, "timelapse.mp4", "unsupported blocks are dropped")
	assert.Contains(t, body, "Our repositories")
}

func TestPostNotFound(t *testing.T) {
	app := newTestApp(t, nil)
	for _, path := range []string{"/blog/returns-workflow/", "/blog/no-such-post/", "/nowhere/"} {
		rec := get(app, path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "Page not found", path)
	}
}

func TestProjectPages(t *testing.T) {
	app := newTestApp(t, nil)

	rec := get(app, "/projects/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Print Queue")
	assert.Contains(t, body, "Spool Tracker")
	assert.Contains(t, body, `href="/projects/6f1c2f3e-9a41-4c7b-8d2e-1b5e7c9a0d11/"`)

	rec = get(app, "/projects/6f1c2f3e-9a41-4c7b-8d2e-1b5e7c9a0d11/")
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, path := range []string{
		"/projects/0b7d5a8c-3e2f-4f6a-9c1d-7e8f9a0b1c22/", // wiki not ready
		"/projects/not-a-uuid/",
		"/projects/00000000-0000-0000-0000-000000000000/",
	} {
		assert.Equal(t, http.StatusNotFound, get(app, path).Code, path)
	}
}

func TestAboutPage(t *testing.T) {
	app := newTestApp(t, nil)
	rec := get(app, "/about/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `aria-current="page"`)
	assert.Contains(t, body, "Alex Morgan")
}

func TestFragmentsAPI(t *testing.T) {
	app := newTestApp(t, nil)

	rec := get(app, "/api/posts/slicer-profiles-as-code/fragments")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))

	var resp folio.FragmentsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "slicer-profiles-as-code", resp.Slug)
	require.Len(t, resp.Fragments, 4)
	for i, f := range resp.Fragments {
		assert.Equal(t, i, f.Key)
	}
	assert.Equal(t, blocks.KindHyperlink, resp.Fragments[3].Kind)
	assert.Equal(t, blocks.ExternalRel, resp.Fragments[3].Rel)

	rec = get(app, "/api/posts/returns-workflow/fragments")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"post not found"}`, rec.Body.String())
}

func TestFragmentsAPIRateLimit(t *testing.T) {
	app := newTestApp(t, func(cfg *folio.SiteConfig) {
		cfg.APIRateLimit = 2
		cfg.APIRateWindow = time.Minute
	})

	path := "/api/posts/queue-backed-order-intake/fragments"
	assert.Equal(t, http.StatusOK, get(app, path).Code)
	assert.Equal(t, http.StatusOK, get(app, path).Code)

	rec := get(app, path)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Pages are not limited.
	assert.Equal(t, http.StatusOK, get(app, "/").Code)
}

func TestFeed(t *testing.T) {
	app := newTestApp(t, nil)
	rec := get(app, "/feed.xml")
	require.Equal(t, http.StatusOK, rec.Code)

	var feed struct {
		Items []struct {
			Title string `xml:"title"`
			Link  string `xml:"link"`
		} `xml:"channel>item"`
	}
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed.Items, 3)
	assert.Equal(t, "https://fulfill3d.com/blog/slicer-profiles-as-code/", feed.Items[0].Link)
}

func TestSitemap(t *testing.T) {
	app := newTestApp(t, nil)
	rec := get(app, "/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<loc>https://fulfill3d.com/about/</loc>")
	assert.Contains(t, body, "<loc>https://fulfill3d.com/blog/tracking-filament-stock-in-sql/</loc>")
	assert.Contains(t, body, "<loc>https://fulfill3d.com/projects/6f1c2f3e-9a41-4c7b-8d2e-1b5e7c9a0d11/</loc>")
	assert.NotContains(t, body, "0b7d5a8c-3e2f-4f6a-9c1d-7e8f9a0b1c22")
	assert.NotContains(t, body, "returns-workflow")
}

func TestRobots(t *testing.T) {
	app := newTestApp(t, nil)
	rec := get(app, "/robots.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sitemap: https://fulfill3d.com/sitemap.xml")
}

func TestChromaCSS(t *testing.T) {
	app := newTestApp(t, nil)
	rec := get(app, "/public/chroma.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, rec.Body.String(), ".chroma")
}

func TestThumbPlaceholder(t *testing.T) {
	app := newTestApp(t, nil)
	rec := get(app, "/thumbs/missing.png?w=320")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}

func TestThemeToggle(t *testing.T) {
	app := newTestApp(t, nil)

	// Without a token the form is rejected.
	req := httptest.NewRequest(http.MethodPost, "/theme/", strings.NewReader("theme=dark"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// A page view issues the CSRF cookie.
	page := get(app, "/about/")
	var csrf *http.Cookie
	for _, c := range page.Result().Cookies() {
		if c.Name == "_csrf" {
			csrf = c
		}
	}
	require.NotNil(t, csrf)

	form := url.Values{"theme": {"dark"}, "_csrf": {csrf.Value}}
	req = httptest.NewRequest(http.MethodPost, "/theme/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "http://example.com/about/")
	req.AddCookie(csrf)
	rec = httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/about/", rec.Header().Get("Location"))

	var prefs *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "folio_prefs" {
			prefs = c
		}
	}
	require.NotNil(t, prefs)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(prefs)
	rec = httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<html lang="en" class="dark">`)
}

func TestWithSourceAndProfile(t *testing.T) {
	profile, err := folio.LoadProfile([]byte("company: {companyName: Test Co}"))
	require.NoError(t, err)
	src := folio.NewMemorySource([]folio.Post{{
		ID: 1, Title: "Only post", Slug: "only-post", Date: "2024-01-01",
		Status: folio.StatusPublished,
		Blocks: []blocks.Block{blocks.Paragraph{Text: "<b>literal</b>"}},
	}})

	cfg := folio.SiteConfig{SessionSecret: "s3cret-s3cret-s3cret-s3cret-s3cret"}
	app := folio.New(cfg, folio.ViewFuncs{}, folio.WithSource(src), folio.WithProfile(profile))
	app.Views = views.New(app.Config)
	require.NoError(t, app.Setup())
	t.Cleanup(func() { _ = app.Close() })

	rec := get(app, "/blog/only-post/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<p>&lt;b&gt;literal&lt;/b&gt;</p>")

	rec = get(app, "/")
	assert.Contains(t, rec.Body.String(), "Welcome to Test Co")
}
