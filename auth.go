package salonpress

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// constantTimeEqual compares SHA-256 digests so the running time depends on
// neither the position of the first difference nor the input lengths.
func constantTimeEqual(a, b string) int {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:])
}

// credentialsMatch checks a login against the configured admin. Both the
// username and the password are always evaluated.
func (a *App) credentialsMatch(username, password string) bool {
	userOK := constantTimeEqual(username, a.Config.AdminUsername)
	var passOK int
	if a.Config.AdminPasswordHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(a.Config.AdminPasswordHash), []byte(password)) == nil {
			passOK = 1
		}
	} else {
		passOK = constantTimeEqual(password, a.Config.AdminPassword)
	}
	return userOK&passOK == 1
}

// HashPassword returns a bcrypt hash suitable for admin_password_hash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (a *App) handleLogin(c echo.Context) error {
	form := isFormRequest(c)
	if !a.Config.authConfigured() {
		c.Logger().Error("login rejected: admin credentials or session secret not configured")
		return a.loginFailure(c, form, http.StatusServiceUnavailable, "login is not available")
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return a.loginFailure(c, form, http.StatusBadRequest, "invalid request")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return a.loginFailure(c, form, http.StatusBadRequest, "username and password are required")
	}

	addr := c.RealIP()
	decision, err := a.loginLimiter.Attempt(addr)
	if err != nil {
		return fmt.Errorf("count login attempt: %w", err)
	}
	if !decision.Allowed {
		mins := decision.RetryAfterMinutes()
		c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(decision.RetryAfter.Seconds()))))
		msg := fmt.Sprintf("Too many login attempts. Try again in %d minute", mins)
		if mins != 1 {
			msg += "s"
		}
		if form {
			return RenderStatus(c, http.StatusTooManyRequests, a.loginPage(c, msg+"."))
		}
		return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
			"error":      msg + ".",
			"retryAfter": mins * 60,
		})
	}

	if !a.credentialsMatch(req.Username, req.Password) {
		c.Logger().Warnf("failed admin login from %s", addr)
		return a.loginFailure(c, form, http.StatusUnauthorized, "invalid credentials")
	}

	if err := a.loginLimiter.Reset(addr); err != nil {
		c.Logger().Errorf("reset login limiter: %v", err)
	}
	if _, err := a.issueSession(c); err != nil {
		return fmt.Errorf("issue session: %w", err)
	}
	if form {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (a *App) loginFailure(c echo.Context, form bool, code int, msg string) error {
	if form {
		return RenderStatus(c, code, a.loginPage(c, msg))
	}
	return jsonError(c, code, msg)
}

func (a *App) handleLogout(c echo.Context) error {
	if claims, ok := a.verifySession(c); ok {
		a.revoked.add(claims.ID, claims.ExpiresAt, a.now())
	}
	if err := clearSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (a *App) handleSessionStatus(c echo.Context) error {
	claims, ok := a.verifySession(c)
	if !ok {
		return c.JSON(http.StatusOK, map[string]bool{"authenticated": false})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"expiresAt":     claims.ExpiresAt.UTC(),
	})
}

func isFormRequest(c echo.Context) bool {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEApplicationForm)
}
