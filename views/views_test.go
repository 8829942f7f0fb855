package views

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	if err := c.Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	return b.String()
}

func TestLoginPageEscapesMessage(t *testing.T) {
	out := render(t, LoginPage(SiteConfig{Name: "Glow & Co"}, "<b>nope</b>"))
	if strings.Contains(out, "<b>nope</b>") {
		t.Fatalf("error message was not escaped:\n%s", out)
	}
	if !strings.Contains(out, "Glow &amp; Co") {
		t.Fatalf("site name missing or unescaped:\n%s", out)
	}
	if !strings.Contains(out, `action="/api/auth/login"`) {
		t.Fatalf("form should post to the login API:\n%s", out)
	}
}

func TestLoginPageWithoutMessage(t *testing.T) {
	out := render(t, LoginPage(SiteConfig{Name: "Glow"}, ""))
	if strings.Contains(out, `role="alert"`) {
		t.Fatalf("no alert expected without a message")
	}
}

func TestDashboardPage(t *testing.T) {
	out := render(t, DashboardPage(Dashboard{
		Site:      SiteConfig{Name: "Glow"},
		Posts:     []PostRow{{ID: "p1", Title: "Brows <3", Status: "draft"}},
		Events:    []EventRow{{ID: "e1", Title: "Open Day", ImageSrc: "/public/uploads/events/open-day-1.jpg"}},
		CSRFToken: "tok123",
	}))
	for _, want := range []string{"Brows &lt;3", "Open Day", `value="tok123"`, `src="/public/uploads/events/open-day-1.jpg"`} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}

	empty := render(t, DashboardPage(Dashboard{Site: SiteConfig{Name: "Glow"}}))
	if !strings.Contains(empty, "No posts yet.") || !strings.Contains(empty, "No events yet.") {
		t.Errorf("empty dashboard should say so:\n%s", empty)
	}
}

func TestErrorPages(t *testing.T) {
	if out := render(t, NotFound()); !strings.Contains(out, "Page not found") {
		t.Errorf("NotFound = %s", out)
	}
	if out := render(t, ServerError()); !strings.Contains(out, "Something went wrong") {
		t.Errorf("ServerError = %s", out)
	}
}
