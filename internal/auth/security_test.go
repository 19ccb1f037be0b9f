package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RateLimitMiddleware(NewRateLimiter(2)))

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := do("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, code)
		}
	}
	if code := do("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("over-limit status = %d, want 429", code)
	}
	if code := do("10.0.0.2"); code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", code)
	}
}

func TestEchoValidator(t *testing.T) {
	t.Parallel()

	type body struct {
		Name string `validate:"required,nonblank"`
	}

	v := EchoValidator{}
	if err := v.Validate(&body{Name: "x"}); err != nil {
		t.Errorf("Validate(valid) error = %v", err)
	}
	for _, name := range []string{"", "   "} {
		err := v.Validate(&body{Name: name})
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusBadRequest {
			t.Errorf("Validate(%q) error = %v, want 400", name, err)
		}
	}
}
