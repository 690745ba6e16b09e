package folio

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fulfill3d/folio/blocks"
)

// FragmentsResponse is the JSON body of GET /api/posts/:slug/fragments.
type FragmentsResponse struct {
	Slug      string            `json:"slug"`
	Title     string            `json:"title"`
	Date      string            `json:"date"`
	Fragments []blocks.Fragment `json:"fragments"`
}

type apiError struct {
	Error string `json:"error"`
}

// rateLimit rejects clients that exceed the configured API rate with 429.
func (a *App) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ip := c.RealIP()
		if !a.apiLimiter.Allow(ip) {
			wait := a.apiLimiter.RetryAfter(ip)
			c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			return c.JSON(http.StatusTooManyRequests, apiError{Error: "rate limit exceeded"})
		}
		return next(c)
	}
}

func (a *App) handleFragments(c echo.Context) error {
	post, frags, err := a.Cache.GetRendered(c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, apiError{Error: "post not found"})
		}
		return err
	}
	return c.JSON(http.StatusOK, FragmentsResponse{
		Slug:      post.Slug,
		Title:     post.Title,
		Date:      post.Date,
		Fragments: frags,
	})
}
