package salonpress

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// testClock is a manually advanced clock shared by every component under test.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func discardLogger() echo.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

// testConfig returns defaults rooted in a fresh temp dir.
func testConfig(t *testing.T) SiteConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := SiteConfig{
		Name:      "Glow Studio",
		DataDir:   dir + "/data",
		StaticDir: dir + "/public",
	}
	cfg.setDefaults()
	return cfg
}

// pngBytes encodes a w x h image filled with c.
func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func strPtr(s string) *string { return &s }

func statusPtr(s Status) *Status { return &s }
