package salonpress

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/salonpress/views"
)

func (a *App) handleSitemap(c echo.Context) error {
	return a.renderSitemap(c, a.Blog.List(BlogFilter{Status: StatusPublished}))
}

func (a *App) handleFeed(c echo.Context) error {
	return a.renderRSS(c, a.Blog.List(BlogFilter{Status: StatusPublished}))
}

// handleRobots serves <static>/robots.txt when present and a permissive
// default pointing at the sitemap otherwise.
func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.Config.StaticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	body := "User-agent: *\nDisallow: /admin/\nDisallow: /api/\n\nSitemap: " + strings.TrimRight(a.Config.URL, "/") + "/sitemap.xml" + "\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		msg := http.StatusText(code)
		if he != nil && code < 500 {
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		}
		_ = jsonError(c, code, strings.ToLower(msg))
		return
	}

	switch {
	case code == http.StatusNotFound:
		_ = RenderStatus(c, code, views.NotFound())
	case code >= 500:
		_ = RenderStatus(c, code, views.ServerError())
	default:
		a.Echo.DefaultHTTPErrorHandler(err, c)
	}
}
