package views

// SiteConfig carries the site-wide values the admin pages display.
type SiteConfig struct {
	Name string
	URL  string
}

// PostRow is one blog post line on the dashboard.
type PostRow struct {
	ID        string
	Title     string
	Status    string
	UpdatedAt string
}

// EventRow is one event line on the dashboard.
type EventRow struct {
	ID       string
	Title    string
	Date     string
	ImageSrc string
}

// Dashboard is everything the admin dashboard renders.
type Dashboard struct {
	Site      SiteConfig
	Posts     []PostRow
	Events    []EventRow
	ExpiresAt string
	CSRFToken string
}
