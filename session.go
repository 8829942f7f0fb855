package salonpress

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	sessionName  = "admin_session"
	sessionTTL   = 12 * time.Hour
	adminSubject = "admin"
	adminRole    = "admin"
	clockSkew    = time.Minute
)

// sessionClaims are the values carried in the signed session cookie.
type sessionClaims struct {
	Subject   string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

func (a *App) newSessionStore() *sessions.CookieStore {
	key := []byte(a.Config.SessionSecret)
	if len(key) == 0 {
		// Login is disabled without a secret; a throwaway key keeps the
		// middleware working while rejecting every cookie.
		key = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   a.Config.CookieSecure,
	}
	store.MaxAge(int(sessionTTL.Seconds()))
	return store
}

// issueSession stores fresh admin claims in the session cookie.
func (a *App) issueSession(c echo.Context) (sessionClaims, error) {
	// A stale or tampered cookie yields a fresh session alongside the decode
	// error; that session is what we overwrite.
	sess, err := session.Get(sessionName, c)
	if sess == nil {
		return sessionClaims{}, err
	}
	now := a.now()
	claims := sessionClaims{
		Subject:   adminSubject,
		Role:      adminRole,
		IssuedAt:  now,
		ExpiresAt: now.Add(sessionTTL),
		ID:        uuid.NewString(),
	}
	sess.Values = map[interface{}]interface{}{
		"sub":  claims.Subject,
		"role": claims.Role,
		"iat":  claims.IssuedAt.Unix(),
		"exp":  claims.ExpiresAt.Unix(),
		"jti":  claims.ID,
	}
	opts := *sess.Options
	opts.Secure = a.Config.CookieSecure || isSecureRequest(c)
	opts.MaxAge = int(sessionTTL.Seconds())
	sess.Options = &opts
	return claims, sess.Save(c.Request(), c.Response())
}

// clearSession tells the client to drop the session cookie.
func clearSession(c echo.Context) error {
	sess, _ := session.Get(sessionName, c)
	if sess == nil {
		return nil
	}
	sess.Values = map[interface{}]interface{}{}
	opts := *sess.Options
	opts.MaxAge = -1
	sess.Options = &opts
	return sess.Save(c.Request(), c.Response())
}

// verifySession returns the admin claims of the current request. Every
// failure (no cookie, bad signature, malformed or expired claims, revoked
// id) reports false.
func (a *App) verifySession(c echo.Context) (sessionClaims, bool) {
	if !a.Config.authConfigured() {
		return sessionClaims{}, false
	}
	sess, err := session.Get(sessionName, c)
	if err != nil || sess == nil || sess.IsNew {
		return sessionClaims{}, false
	}
	sub, _ := sess.Values["sub"].(string)
	role, _ := sess.Values["role"].(string)
	jti, _ := sess.Values["jti"].(string)
	iat, okIat := sess.Values["iat"].(int64)
	exp, okExp := sess.Values["exp"].(int64)
	if sub != adminSubject || role != adminRole || jti == "" || !okIat || !okExp {
		return sessionClaims{}, false
	}
	claims := sessionClaims{
		Subject:   sub,
		Role:      role,
		IssuedAt:  time.Unix(iat, 0),
		ExpiresAt: time.Unix(exp, 0),
		ID:        jti,
	}
	now := a.now()
	if !now.Before(claims.ExpiresAt) || claims.IssuedAt.After(now.Add(clockSkew)) {
		return sessionClaims{}, false
	}
	if a.revoked.contains(claims.ID, now) {
		return sessionClaims{}, false
	}
	return claims, true
}

// IsAdmin reports whether the request carries a valid admin session.
func (a *App) IsAdmin(c echo.Context) bool {
	_, ok := a.verifySession(c)
	return ok
}

func isSecureRequest(c echo.Context) bool {
	return c.IsTLS() || c.Scheme() == "https"
}

// tokenDenylist remembers logged-out session ids until they would have
// expired anyway. It is process-local like the default attempt store.
type tokenDenylist struct {
	mu  sync.Mutex
	ids map[string]time.Time
}

func newTokenDenylist() *tokenDenylist {
	return &tokenDenylist{ids: make(map[string]time.Time)}
}

func (d *tokenDenylist) add(id string, expires, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, exp := range d.ids {
		if !now.Before(exp) {
			delete(d.ids, k)
		}
	}
	d.ids[id] = expires
}

func (d *tokenDenylist) contains(id string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.ids[id]
	return ok && now.Before(exp)
}
