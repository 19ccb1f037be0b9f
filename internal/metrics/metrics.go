package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// feed builds by outcome: ok, degraded
	FeedBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_feed_builds_total",
			Help: "Total number of notification feed builds",
		},
		[]string{"result"},
	)

	FeedBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notification_feed_build_duration_seconds",
			Help:    "Notification feed build duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
	)

	// entries per feed by source: persisted, synthetic
	FeedEntries = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_feed_entries",
			Help:    "Number of entries per notification feed",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200},
		},
		[]string{"source"},
	)

	// mark-read requests by outcome: ok, noop, failed
	MarkReadRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_mark_read_requests_total",
			Help: "Total number of mark-read requests",
		},
		[]string{"result"},
	)

	NotificationsMarked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_marked_read_total",
			Help: "Total number of persisted notifications flipped to read",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of persisted notifications created",
		},
		[]string{"type"},
	)

	ExpirySweeps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_expiry_sweeps_total",
			Help: "Total number of expiry sweep runs",
		},
		[]string{"result"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

// Middleware records HTTPRequestDuration keyed by the matched route path.
func Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}
		HTTPRequestDuration.WithLabelValues(
			c.Request().Method,
			c.Path(),
			strconv.Itoa(status),
		).Observe(time.Since(start).Seconds())

		return err
	}
}
