package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderScaffold(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "glow-studio")
	if err := renderScaffold(dir); err != nil {
		t.Fatalf("renderScaffold: %v", err)
	}

	for _, name := range []string{"config.yaml", ".env.example", "data/blog.json", "data/events.json", "public/robots.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}

	cfg, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(cfg), `name: "Glow Studio"`) {
		t.Errorf("config.yaml missing site name:\n%s", cfg)
	}

	env, err := os.ReadFile(filepath.Join(dir, ".env.example"))
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range strings.Split(string(env), "\n") {
		if strings.HasPrefix(line, "ADMIN_SESSION_SECRET=") && len(line) != len("ADMIN_SESSION_SECRET=")+64 {
			t.Errorf("session secret not 32 hex-encoded bytes: %q", line)
		}
	}

	blog, err := os.ReadFile(filepath.Join(dir, "data", "blog.json"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(blog)) != "[]" {
		t.Errorf("blog.json = %q, want []", blog)
	}
}

func TestToTitle(t *testing.T) {
	tests := []struct{ in, want string }{
		{"glow-studio", "Glow Studio"},
		{"salon", "Salon"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := toTitle(tt.in); got != tt.want {
			t.Errorf("toTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRunHashPassword(t *testing.T) {
	var out strings.Builder
	if err := runHashPassword(strings.NewReader("hunter2\n"), &out); err != nil {
		t.Fatalf("runHashPassword: %v", err)
	}
	if !strings.HasPrefix(out.String(), "$2") {
		t.Errorf("output %q is not a bcrypt hash", out.String())
	}
	if err := runHashPassword(strings.NewReader(""), &out); err == nil {
		t.Error("expected error for empty password")
	}
}
