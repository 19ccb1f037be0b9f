package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"nomorewaste/internal/auth"
	"nomorewaste/internal/config"
	"nomorewaste/internal/metrics"
	"nomorewaste/internal/routes"
	"nomorewaste/internal/security"
)

type Server struct {
	config *config.Config
	echo   *echo.Echo
}

func NewServer(cfg *config.Config, h routes.Handlers, identity auth.IdentityProvider) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = auth.EchoValidator{}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				slog.Error("request failed", append(attrs, slog.Any("error", v.Error))...)
				return nil
			}
			slog.Info("request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(metrics.Middleware)
	e.Use(auth.RateLimitMiddleware(auth.NewRateLimiter(cfg.RateLimitPerMinute)))

	throttle := security.NewViewerThrottle(cfg.FeedPollRate, cfg.FeedPollBurst)
	routes.SetupRoutes(e, h, identity, throttle)

	return &Server{config: cfg, echo: e}
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	addr := ":" + s.config.Port
	slog.Info("Starting HTTP server", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
