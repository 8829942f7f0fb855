// Package views renders the admin console pages as templ components.
package views

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

const styles = `body{font-family:system-ui,sans-serif;margin:0;background:#faf7f5;color:#2b2220}` +
	`main{max-width:56rem;margin:3rem auto;padding:0 1.5rem}` +
	`table{width:100%;border-collapse:collapse;margin-bottom:2rem}` +
	`th,td{text-align:left;padding:.5rem;border-bottom:1px solid #e7ddd8}` +
	`.error{color:#a3261b}.badge{font-size:.75rem;text-transform:uppercase;letter-spacing:.08em}` +
	`input{display:block;margin:.25rem 0 1rem;padding:.5rem;width:100%;max-width:20rem}`

func esc(s string) string {
	return templ.EscapeString(s)
}

func layout(title string, body func(*strings.Builder)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		b.WriteString(`<meta name="robots" content="noindex">`)
		b.WriteString(`<title>` + esc(title) + `</title><style>` + styles + `</style></head><body><main>`)
		body(&b)
		b.WriteString(`</main></body></html>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// LoginPage renders the admin sign-in form. errMsg is shown above the form
// when non-empty.
func LoginPage(site SiteConfig, errMsg string) templ.Component {
	return layout(site.Name+" admin", func(b *strings.Builder) {
		b.WriteString(`<h1>` + esc(site.Name) + ` admin</h1>`)
		if errMsg != "" {
			b.WriteString(`<p class="error" role="alert">` + esc(errMsg) + `</p>`)
		}
		b.WriteString(`<form method="post" action="/api/auth/login">`)
		b.WriteString(`<label>Username<input name="username" autocomplete="username" required></label>`)
		b.WriteString(`<label>Password<input name="password" type="password" autocomplete="current-password" required></label>`)
		b.WriteString(`<button type="submit">Sign in</button></form>`)
	})
}

// DashboardPage lists posts and events with a logout form.
func DashboardPage(d Dashboard) templ.Component {
	return layout(d.Site.Name+" admin", func(b *strings.Builder) {
		b.WriteString(`<h1>` + esc(d.Site.Name) + ` admin</h1>`)
		if d.ExpiresAt != "" {
			b.WriteString(`<p>Session expires ` + esc(d.ExpiresAt) + `</p>`)
		}
		b.WriteString(`<h2>Blog posts</h2>`)
		if len(d.Posts) == 0 {
			b.WriteString(`<p>No posts yet.</p>`)
		} else {
			b.WriteString(`<table><thead><tr><th>Title</th><th>Status</th><th>Updated</th></tr></thead><tbody>`)
			for _, p := range d.Posts {
				b.WriteString(`<tr data-id="` + esc(p.ID) + `"><td>` + esc(p.Title) + `</td><td class="badge">` +
					esc(p.Status) + `</td><td>` + esc(p.UpdatedAt) + `</td></tr>`)
			}
			b.WriteString(`</tbody></table>`)
		}
		b.WriteString(`<h2>Events</h2>`)
		if len(d.Events) == 0 {
			b.WriteString(`<p>No events yet.</p>`)
		} else {
			b.WriteString(`<table><thead><tr><th>Title</th><th>Date</th><th>Image</th></tr></thead><tbody>`)
			for _, e := range d.Events {
				b.WriteString(`<tr data-id="` + esc(e.ID) + `"><td>` + esc(e.Title) + `</td><td>` + esc(e.Date) + `</td><td>`)
				if e.ImageSrc != "" {
					b.WriteString(`<img src="` + esc(e.ImageSrc) + `" alt="" width="96" loading="lazy">`)
				}
				b.WriteString(`</td></tr>`)
			}
			b.WriteString(`</tbody></table>`)
		}
		b.WriteString(`<form method="post" action="/admin/logout/">`)
		b.WriteString(`<input type="hidden" name="_csrf" value="` + esc(d.CSRFToken) + `">`)
		b.WriteString(`<button type="submit">Sign out</button></form>`)
	})
}

// NotFound renders the 404 page.
func NotFound() templ.Component {
	return layout("Not found", func(b *strings.Builder) {
		b.WriteString(`<h1>Page not found</h1><p><a href="/">Back to the homepage</a></p>`)
	})
}

// ServerError renders the 500 page.
func ServerError() templ.Component {
	return layout("Something went wrong", func(b *strings.Builder) {
		b.WriteString(`<h1>Something went wrong</h1><p>Please try again in a moment.</p>`)
	})
}
