package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nomorewaste/internal/auth"
	"nomorewaste/internal/handlers"
	"nomorewaste/internal/security"
)

type Handlers struct {
	Notifications *handlers.NotificationHandler
	Donations     *handlers.DonationHandler
	Verification  *handlers.VerificationHandler
	Audit         *handlers.AuditHandler
}

func SetupRoutes(e *echo.Echo, h Handlers, identity auth.IdentityProvider, throttle *security.ViewerThrottle) {
	// Public routes
	e.GET("/health", handlers.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Protected routes
	api := e.Group("/api", auth.Authenticate(identity))

	notifications := api.Group("/notifications")
	notifications.GET("/list", h.Notifications.List, throttle.Middleware)
	notifications.POST("/mark-read", h.Notifications.MarkRead)
	notifications.POST("/create", h.Notifications.Create, auth.RequireAdmin)
	notifications.POST("/check-expiring", h.Notifications.CheckExpiring, auth.RequireAdmin)
	notifications.GET("/check-expiring/:id", h.Notifications.CheckExpiringStatus, auth.RequireAdmin)

	donations := api.Group("/donations")
	donations.POST("/update-status", h.Donations.UpdateStatus)

	// Admin routes
	admin := api.Group("/admin", auth.RequireAdmin)
	admin.POST("/users/verify", h.Verification.VerifyUser)

	audit := api.Group("/audit", auth.RequireAdmin)
	audit.GET("/logs", h.Audit.List)
}
