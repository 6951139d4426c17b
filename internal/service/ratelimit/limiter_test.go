package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestAllowRefills(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New()
	l.now = func() time.Time { return now }

	if !l.Allow("k", 2, 1) || !l.Allow("k", 2, 1) {
		t.Fatalf("full bucket should allow capacity requests")
	}
	if l.Allow("k", 2, 1) {
		t.Fatalf("empty bucket should deny")
	}
	if !l.Allow("other", 2, 1) {
		t.Fatalf("keys must not share buckets")
	}
	now = now.Add(time.Second)
	if !l.Allow("k", 2, 1) {
		t.Fatalf("bucket should refill one token per second")
	}
}

func TestSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New()
	l.now = func() time.Time { return now }
	l.Allow("old", 1, 1)
	now = now.Add(time.Hour)
	l.Allow("new", 1, 1)

	if n := l.Sweep(10 * time.Minute); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
}

func TestMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(Middleware(New(), 1, 0.0001, "/health"))
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/api/news", ok)
	e.GET("/health", ok)

	do := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := do("/api/news"); code != http.StatusOK {
		t.Fatalf("first request = %d", code)
	}
	if code := do("/api/news"); code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", code)
	}
	for i := 0; i < 3; i++ {
		if code := do("/health"); code != http.StatusOK {
			t.Fatalf("skipped path limited: %d", code)
		}
	}
}
