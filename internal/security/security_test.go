package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"nomorewaste/internal/auth"
)

func TestViewerThrottle_Allow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	throttle := NewViewerThrottle(1, 2)
	throttle.now = func() time.Time { return now }

	if !throttle.Allow("a") || !throttle.Allow("a") {
		t.Fatal("burst requests rejected")
	}
	if throttle.Allow("a") {
		t.Error("request past burst allowed")
	}
	if !throttle.Allow("b") {
		t.Error("second viewer shares the first viewer's budget")
	}

	now = now.Add(time.Second)
	if !throttle.Allow("a") {
		t.Error("token not refilled after one second")
	}
}

func TestViewerThrottle_DropsIdleViewers(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	throttle := NewViewerThrottle(1, 1)
	throttle.now = func() time.Time { return now }

	throttle.Allow("a")
	now = now.Add(time.Hour)
	throttle.Allow("b")

	throttle.mu.Lock()
	defer throttle.mu.Unlock()
	if _, ok := throttle.limiters["a"]; ok {
		t.Error("idle viewer limiter kept")
	}
}

func TestViewerThrottle_Middleware(t *testing.T) {
	t.Parallel()

	throttle := NewViewerThrottle(0.001, 1)
	e := echo.New()
	withViewer := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth.WithViewer(c, auth.Viewer{ID: c.QueryParam("viewer")})
			return next(c)
		}
	}
	e.GET("/feed", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, withViewer, throttle.Middleware)

	do := func(viewer string) int {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed?viewer="+viewer, nil))
		return rec.Code
	}

	if code := do("v1"); code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", code)
	}
	if code := do("v1"); code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", code)
	}
	if code := do("v2"); code != http.StatusOK {
		t.Errorf("other viewer status = %d, want 200", code)
	}
}
