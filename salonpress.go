// Package salonpress is the backend of a salon marketing site: an admin
// console behind a signed session cookie, JSON file backed blog posts and
// events, and an image pipeline that normalizes uploads.
package salonpress

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/eringen/salonpress/attempts"
)

// App wires configuration, repositories, the login limiter and the Echo
// server together.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Blog   *BlogRepository
	Events *EventRepository
	Images *ImagePipeline

	loginLimiter *LoginLimiter
	attemptStore attempts.Store
	revoked      *tokenDenylist
	now          func() time.Time
	customRoutes []func(*App)
	stopCleanup  func()
}

// New creates an App. Call Setup (or Start) before serving.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true

	a := &App{
		Config: cfg,
		Echo:   e,
	}

	for _, opt := range opts {
		opt(a)
	}
	if a.now == nil {
		a.now = time.Now
	}

	return a
}

// Setup builds the repositories, opens the attempt store and registers
// middleware and routes. It is safe to serve a.Echo afterwards.
func (a *App) Setup() error {
	a.Echo.Logger.SetLevel(parseLogLevel(a.Config.LogLevel))
	logger := a.Echo.Logger

	if !a.Config.authConfigured() {
		logger.Warn("admin login disabled: set ADMIN_USERNAME, ADMIN_PASSWORD (or ADMIN_PASSWORD_HASH) and ADMIN_SESSION_SECRET")
	}

	a.Images = NewImagePipeline(a.Config.StaticDir, a.now, logger)
	a.Blog = NewBlogRepository(a.Config, a.Images, a.now, logger)
	a.Events = NewEventRepository(a.Config, a.Images, a.now, logger)

	if a.attemptStore == nil {
		store, err := attempts.Open(a.Config.Login.Store, a.Config.Login.StoreDSN)
		if err != nil {
			return fmt.Errorf("salonpress: open attempt store: %w", err)
		}
		a.attemptStore = store
	}
	a.loginLimiter = NewLoginLimiter(a.attemptStore, a.Config.Login.MaxAttempts, a.Config.Login.Lockout, a.now, logger)
	a.stopCleanup = a.loginLimiter.StartCleanup(a.Config.Login.SweepInterval)
	a.revoked = newTokenDenylist()

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start runs Setup and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and releases
// resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.Config.StaticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	api := e.Group("/api")
	api.POST("/auth/login", a.handleLogin)
	api.POST("/auth/logout", a.handleLogout)
	api.GET("/auth/session", a.handleSessionStatus)

	api.GET("/content/:type", a.handleContentGet)
	writes := api.Group("/content", a.requireAdminAPI, middleware.BodyLimit("12M"))
	writes.POST("/blog/preview", a.handlePreview)
	writes.POST("/:type", a.handleContentCreate)
	writes.PUT("/:type", a.handleContentUpdate)
	writes.DELETE("/:type", a.handleContentDelete)

	admin := e.Group("/admin", a.requireAdminPage)
	admin.GET("/login/", a.handleLoginPage)
	admin.GET("/", a.handleDashboard)
	admin.POST("/logout/", a.handleAdminLogout)
}

// Close stops the limiter sweep and closes the attempt store.
func (a *App) Close() error {
	if a.stopCleanup != nil {
		a.stopCleanup()
		a.stopCleanup = nil
	}
	if a.attemptStore != nil {
		err := a.attemptStore.Close()
		a.attemptStore = nil
		return err
	}
	return nil
}

func parseLogLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
