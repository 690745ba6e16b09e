package folio

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// IsPartial reports an htmx request for the named part of a page
// (?partial=name) rather than the whole document.
func IsPartial(c echo.Context, name string) bool {
	return c.Request().Header.Get("HX-Request") == "true" && c.QueryParam("partial") == name
}

// renderPage writes partial when htmx asks for it by name and full otherwise.
// Both share a URL, so responses vary on HX-Request.
func renderPage(c echo.Context, name string, full, partial templ.Component) error {
	c.Response().Header().Add(echo.HeaderVary, "HX-Request")
	if IsPartial(c, name) {
		return Render(c, partial)
	}
	return Render(c, full)
}
