package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	SessionCookieName = "session"
	viewerContextKey  = "viewer"
)

// CredentialFromRequest prefers the session cookie set at login and falls
// back to an Authorization bearer token.
func CredentialFromRequest(r *http.Request) Credential {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return Credential{Kind: CredentialSession, Value: cookie.Value}
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && strings.TrimSpace(parts[1]) != "" {
		return Credential{Kind: CredentialBearer, Value: strings.TrimSpace(parts[1])}
	}
	return Credential{Kind: CredentialNone}
}

func Authenticate(provider IdentityProvider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cred := CredentialFromRequest(c.Request())
			if cred.Kind == CredentialNone {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
			}

			viewer, err := provider.Resolve(c.Request().Context(), cred)
			if errors.Is(err, ErrUnauthenticated) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
			}
			if err != nil {
				slog.Error("failed to resolve caller identity", slog.Any("error", err))
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Identity service unavailable"})
			}

			c.Set(viewerContextKey, viewer)
			return next(c)
		}
	}
}

func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		viewer, ok := ViewerFrom(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
		}
		if !viewer.Administrative {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Admin access required"})
		}
		return next(c)
	}
}

func ViewerFrom(c echo.Context) (Viewer, bool) {
	viewer, ok := c.Get(viewerContextKey).(Viewer)
	if !ok || !viewer.Authenticated() {
		return Viewer{}, false
	}
	return viewer, true
}

// WithViewer stores a resolved viewer on the context.
func WithViewer(c echo.Context, viewer Viewer) {
	c.Set(viewerContextKey, viewer)
}
