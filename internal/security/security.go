package security

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"nomorewaste/internal/auth"
)

// ViewerThrottle limits how often a single viewer may poll the feed.
// Limiters idle for longer than idleTTL are dropped on the next sweep.
type ViewerThrottle struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	limiters map[string]*viewerLimiter
	lastGC   time.Time
}

type viewerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewViewerThrottle(perSecond float64, burst int) *ViewerThrottle {
	if burst < 1 {
		burst = 1
	}
	return &ViewerThrottle{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
		limiters: make(map[string]*viewerLimiter),
	}
}

// Allow reports whether the viewer may make another request now.
func (t *ViewerThrottle) Allow(viewerID string) bool {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.lastGC) > t.idleTTL {
		for id, vl := range t.limiters {
			if now.Sub(vl.lastSeen) > t.idleTTL {
				delete(t.limiters, id)
			}
		}
		t.lastGC = now
	}

	vl, ok := t.limiters[viewerID]
	if !ok {
		vl = &viewerLimiter{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.limiters[viewerID] = vl
	}
	vl.lastSeen = now
	return vl.limiter.AllowN(now, 1)
}

// Middleware must run after auth.Authenticate. Requests without a viewer
// fall back to the client IP.
func (t *ViewerThrottle) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.RealIP()
		if viewer, ok := auth.ViewerFrom(c); ok {
			key = viewer.ID
		}

		if !t.Allow(key) {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded. Please try again later.",
			})
		}

		return next(c)
	}
}
