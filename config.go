package salonpress

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eringen/salonpress/attempts"
)

// SiteConfig holds all configuration for a salonpress site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name, also the meta title brand (default "Salon")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS
	Author      string `yaml:"author"`      // Default blog post author (default Name)

	Addr      string `yaml:"addr"`       // Listen address (default ":3000")
	DataDir   string `yaml:"data_dir"`   // Directory holding blog.json and events.json (default "data")
	StaticDir string `yaml:"static_dir"` // Public assets and uploads (default "public")

	AdminUsername     string `yaml:"admin_username"`
	AdminPassword     string `yaml:"admin_password"`
	AdminPasswordHash string `yaml:"admin_password_hash"` // bcrypt; takes precedence over AdminPassword
	SessionSecret     string `yaml:"session_secret"`
	CookieSecure      bool   `yaml:"cookie_secure"` // Force Secure cookies even without TLS at the app

	Development     bool          `yaml:"development"`       // Disables the content cache
	ContentCacheTTL time.Duration `yaml:"content_cache_ttl"` // Read cache TTL (default 5s, 0 in development)
	LogLevel        string        `yaml:"log_level"`         // debug, info, warn or error (default "info")

	Login  LoginConfig  `yaml:"login"`
	Images ImagesConfig `yaml:"images"`
}

// LoginConfig tunes the login rate limiter and its backing store.
type LoginConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"`   // default 5
	Lockout       time.Duration `yaml:"lockout"`        // default 15m
	SweepInterval time.Duration `yaml:"sweep_interval"` // default 5m
	Store         string        `yaml:"store"`          // memory, sqlite or postgres (default memory)
	StoreDSN      string        `yaml:"store_dsn"`      // sqlite path or postgres DSN
}

// ImagesConfig holds the rendition bounds per content type.
type ImagesConfig struct {
	Blog   ImageConstraints `yaml:"blog"`
	Events ImageConstraints `yaml:"events"`
}

// LoadConfig reads a YAML config file. A missing file yields an empty config
// so deployments can rely on environment variables alone.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields with any of the supported environment variables
// that are set.
func (c *SiteConfig) ApplyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.Name, "SITE_NAME")
	setString(&c.URL, "SITE_URL")
	setString(&c.Description, "SITE_DESCRIPTION")
	setString(&c.Author, "SITE_AUTHOR")
	setString(&c.Addr, "ADDR")
	setString(&c.DataDir, "DATA_DIR")
	setString(&c.StaticDir, "STATIC_DIR")
	setString(&c.AdminUsername, "ADMIN_USERNAME")
	setString(&c.AdminPassword, "ADMIN_PASSWORD")
	setString(&c.AdminPasswordHash, "ADMIN_PASSWORD_HASH")
	setString(&c.SessionSecret, "ADMIN_SESSION_SECRET")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Login.Store, "ATTEMPT_STORE")
	setString(&c.Login.StoreDSN, "ATTEMPT_STORE_DSN")
	if v, err := strconv.ParseBool(os.Getenv("COOKIE_SECURE")); err == nil {
		c.CookieSecure = v
	}
	if env := strings.ToLower(os.Getenv("APP_ENV")); env != "" {
		c.Development = env == "development" || env == "dev"
	}
	if v, err := time.ParseDuration(os.Getenv("CONTENT_CACHE_TTL")); err == nil {
		c.ContentCacheTTL = v
	}
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Salon"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Author == "" {
		c.Author = c.Name
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Development {
		c.ContentCacheTTL = 0
	} else if c.ContentCacheTTL == 0 {
		c.ContentCacheTTL = 5 * time.Second
	}
	if c.Login.MaxAttempts == 0 {
		c.Login.MaxAttempts = 5
	}
	if c.Login.Lockout == 0 {
		c.Login.Lockout = 15 * time.Minute
	}
	if c.Login.SweepInterval == 0 {
		c.Login.SweepInterval = 5 * time.Minute
	}
	if c.Login.Store == "sqlite" && c.Login.StoreDSN == "" {
		c.Login.StoreDSN = c.DataDir + "/attempts.db"
	}
	if c.Images.Blog == (ImageConstraints{}) {
		c.Images.Blog = ImageConstraints{MaxWidth: 1200, MaxHeight: 800, Quality: 82}
	}
	if c.Images.Events == (ImageConstraints{}) {
		c.Images.Events = ImageConstraints{MaxWidth: 1920, MaxHeight: 1080, Quality: 85}
	}
}

// authConfigured reports whether the login path can run at all.
func (c SiteConfig) authConfigured() bool {
	return c.AdminUsername != "" &&
		(c.AdminPassword != "" || c.AdminPasswordHash != "") &&
		c.SessionSecret != ""
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir overrides the directory for static assets and uploads.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.StaticDir = dir
	}
}

// WithClock replaces time.Now for sessions, the limiter and content timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// WithAttemptStore supplies the login attempt store instead of opening one
// from Login.Store.
func WithAttemptStore(s attempts.Store) Option {
	return func(a *App) {
		a.attemptStore = s
	}
}
