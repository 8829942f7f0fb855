package salonpress

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `name: Glow Studio
url: https://glow.example
admin_username: owner
content_cache_ttl: 30s
login:
  max_attempts: 3
  lockout: 5m
  store: sqlite
images:
  events:
    max_width: 800
    max_height: 600
    crop: true
    quality: 70
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.setDefaults()

	if cfg.Name != "Glow Studio" || cfg.URL != "https://glow.example" || cfg.AdminUsername != "owner" {
		t.Errorf("site fields = %q %q %q", cfg.Name, cfg.URL, cfg.AdminUsername)
	}
	if cfg.ContentCacheTTL != 30*time.Second {
		t.Errorf("ContentCacheTTL = %v", cfg.ContentCacheTTL)
	}
	if cfg.Login.MaxAttempts != 3 || cfg.Login.Lockout != 5*time.Minute {
		t.Errorf("Login = %+v", cfg.Login)
	}
	if cfg.Login.StoreDSN != "data/attempts.db" {
		t.Errorf("sqlite DSN default = %q", cfg.Login.StoreDSN)
	}
	if !cfg.Images.Events.Crop || cfg.Images.Events.MaxWidth != 800 {
		t.Errorf("Images.Events = %+v", cfg.Images.Events)
	}
	if cfg.Images.Blog.MaxWidth != 1200 {
		t.Errorf("Images.Blog default = %+v", cfg.Images.Blog)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg.Name != "" {
		t.Fatalf("expected an empty config, got %+v", cfg)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("name: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "env-owner")
	t.Setenv("ADMIN_PASSWORD", "env-pass")
	t.Setenv("ADMIN_SESSION_SECRET", "env-secret")
	t.Setenv("SITE_NAME", "Env Salon")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("APP_ENV", "development")
	t.Setenv("ATTEMPT_STORE", "postgres")
	t.Setenv("ATTEMPT_STORE_DSN", "postgres://localhost/salon")

	cfg := SiteConfig{Name: "File Salon", ContentCacheTTL: time.Minute}
	cfg.ApplyEnv()
	cfg.setDefaults()

	if cfg.Name != "Env Salon" || cfg.AdminUsername != "env-owner" {
		t.Errorf("env did not override: %q %q", cfg.Name, cfg.AdminUsername)
	}
	if !cfg.CookieSecure || !cfg.Development {
		t.Errorf("CookieSecure=%v Development=%v", cfg.CookieSecure, cfg.Development)
	}
	if cfg.ContentCacheTTL != 0 {
		t.Errorf("development should disable the cache, got %v", cfg.ContentCacheTTL)
	}
	if cfg.Login.Store != "postgres" || cfg.Login.StoreDSN != "postgres://localhost/salon" {
		t.Errorf("Login = %+v", cfg.Login)
	}
	if !cfg.authConfigured() {
		t.Error("expected auth to be configured from the environment")
	}
}

func TestDefaults(t *testing.T) {
	var cfg SiteConfig
	cfg.setDefaults()
	if cfg.Name != "Salon" || cfg.Author != "Salon" || cfg.Addr != ":3000" {
		t.Errorf("defaults = %q %q %q", cfg.Name, cfg.Author, cfg.Addr)
	}
	if cfg.ContentCacheTTL != 5*time.Second {
		t.Errorf("ContentCacheTTL = %v, want 5s", cfg.ContentCacheTTL)
	}
	if cfg.Login.MaxAttempts != 5 || cfg.Login.Lockout != 15*time.Minute {
		t.Errorf("Login = %+v", cfg.Login)
	}
	if cfg.authConfigured() {
		t.Error("auth must not be configured without credentials")
	}
}
