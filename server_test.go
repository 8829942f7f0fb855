package salonpress

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/eringen/salonpress/attempts"
)

const (
	testUser     = "owner"
	testPassword = "correct horse battery"
	testSecret   = "0123456789abcdef0123456789abcdef"
)

func newTestApp(t *testing.T, configure ...func(*SiteConfig)) (*App, *testClock) {
	t.Helper()
	cfg := testConfig(t)
	cfg.AdminUsername = testUser
	cfg.AdminPassword = testPassword
	cfg.SessionSecret = testSecret
	for _, fn := range configure {
		fn(&cfg)
	}
	clock := newTestClock()
	app := New(cfg, WithClock(clock.Now), WithAttemptStore(attempts.NewMemoryStore()))
	app.Echo.Logger.SetOutput(io.Discard)
	if err := app.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app, clock
}

func serve(app *App, req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(method, target string, vals url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if image != nil {
		fw, err := w.CreateFormFile("image", "upload.png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func login(t *testing.T, app *App) *http.Cookie {
	t.Helper()
	body := `{"username":"` + testUser + `","password":"` + testPassword + `"}`
	rec := serve(app, jsonRequest(http.MethodPost, "/api/auth/login", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body)
	}
	c := findCookie(rec, sessionName)
	if c == nil {
		t.Fatalf("login did not set the %s cookie", sessionName)
	}
	return c
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func getRequest(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}
