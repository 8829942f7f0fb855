package salonpress

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/eringen/salonpress/views"
)

const dashboardTimeLayout = "2 Jan 2006 15:04"

func (a *App) siteView() views.SiteConfig {
	return views.SiteConfig{Name: a.Config.Name, URL: a.Config.URL}
}

func (a *App) loginPage(c echo.Context, msg string) templ.Component {
	return views.LoginPage(a.siteView(), msg)
}

func (a *App) handleLoginPage(c echo.Context) error {
	if a.IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if !a.Config.authConfigured() {
		return RenderStatus(c, http.StatusServiceUnavailable, a.loginPage(c, "login is not available"))
	}
	return Render(c, a.loginPage(c, ""))
}

func (a *App) handleDashboard(c echo.Context) error {
	claims, _ := a.verifySession(c)
	posts := a.Blog.List(BlogFilter{})
	events := a.Events.List(EventFilter{})

	d := views.Dashboard{
		Site:      a.siteView(),
		Posts:     make([]views.PostRow, 0, len(posts)),
		Events:    make([]views.EventRow, 0, len(events)),
		CSRFToken: CsrfToken(c),
	}
	if !claims.ExpiresAt.IsZero() {
		d.ExpiresAt = claims.ExpiresAt.UTC().Format(dashboardTimeLayout) + " UTC"
	}
	for _, p := range posts {
		d.Posts = append(d.Posts, views.PostRow{
			ID:        p.ID,
			Title:     p.Title,
			Status:    string(p.Status),
			UpdatedAt: p.UpdatedAt.UTC().Format(dashboardTimeLayout),
		})
	}
	for _, ev := range events {
		d.Events = append(d.Events, views.EventRow{
			ID:       ev.ID,
			Title:    ev.Title,
			Date:     ev.Date,
			ImageSrc: ev.ImageSrc,
		})
	}
	return Render(c, views.DashboardPage(d))
}

func (a *App) handleAdminLogout(c echo.Context) error {
	if claims, ok := a.verifySession(c); ok {
		a.revoked.add(claims.ID, claims.ExpiresAt, a.now())
	}
	if err := clearSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/login/")
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
