package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"

	"nomorewaste/internal/auth"
	"nomorewaste/internal/handlers"
	"nomorewaste/internal/models"
	"nomorewaste/internal/notification"
	"nomorewaste/internal/security"
)

type tokenIdentity map[string]auth.Viewer

func (m tokenIdentity) Resolve(_ context.Context, cred auth.Credential) (auth.Viewer, error) {
	if v, ok := m[cred.Value]; ok {
		return v, nil
	}
	return auth.Viewer{}, auth.ErrUnauthenticated
}

type countingFeed struct{ calls int }

func (f *countingFeed) BuildFeed(context.Context, auth.Viewer) (notification.Feed, error) {
	f.calls++
	return notification.Feed{}, nil
}

func (f *countingFeed) MarkRead(context.Context, auth.Viewer, []string) (int, error) {
	f.calls++
	return 0, nil
}

type nopSender struct{}

func (nopSender) SendNotification(_ context.Context, req *notification.NotificationRequest) (*notification.Notification, error) {
	return &notification.Notification{ID: "auto1", RecipientID: req.RecipientID}, nil
}

type nopEnqueuer struct{}

func (nopEnqueuer) EnqueueExpirySweep(context.Context) (string, error) { return "task-1", nil }

func (nopEnqueuer) GetTaskStatus(id string) (*asynq.TaskInfo, error) {
	return &asynq.TaskInfo{ID: id, State: asynq.TaskStatePending}, nil
}

type nopAudit struct{}

func (nopAudit) AddAuditLog(context.Context, models.AuditLog) error { return nil }

func (nopAudit) ListAuditLogs(context.Context, int) ([]models.AuditLog, error) { return nil, nil }

func newTestEcho(feed *countingFeed) *echo.Echo {
	e := echo.New()
	e.Validator = auth.EchoValidator{}

	identity := tokenIdentity{
		"admin":  {ID: "admin-1", Administrative: true},
		"vendor": {ID: "vendor-1"},
	}
	SetupRoutes(e, Handlers{
		Notifications: handlers.NewNotificationHandler(feed, nopSender{}, nopEnqueuer{}),
		Donations:     handlers.NewDonationHandler(nil, nopSender{}, nopAudit{}, "admin"),
		Verification:  handlers.NewVerificationHandler(nil, nopSender{}, nopAudit{}),
		Audit:         handlers.NewAuditHandler(nopAudit{}),
	}, identity, security.NewViewerThrottle(100, 100))
	return e
}

func TestRoutes_Access(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method     string
		path       string
		token      string
		body       string
		wantStatus int
	}{
		{method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK},
		{method: http.MethodGet, path: "/api/notifications/list", wantStatus: http.StatusUnauthorized},
		{method: http.MethodPost, path: "/api/notifications/mark-read", body: `{"notificationIds":[]}`, wantStatus: http.StatusUnauthorized},
		{method: http.MethodGet, path: "/api/notifications/list", token: "vendor", wantStatus: http.StatusOK},
		{method: http.MethodPost, path: "/api/notifications/mark-read", token: "vendor", body: `{"notificationIds":[]}`, wantStatus: http.StatusOK},
		{method: http.MethodPost, path: "/api/notifications/create", token: "vendor", body: `{}`, wantStatus: http.StatusForbidden},
		{method: http.MethodPost, path: "/api/notifications/check-expiring", token: "vendor", wantStatus: http.StatusForbidden},
		{method: http.MethodPost, path: "/api/notifications/check-expiring", token: "admin", wantStatus: http.StatusAccepted},
		{method: http.MethodGet, path: "/api/notifications/check-expiring/task-1", token: "vendor", wantStatus: http.StatusForbidden},
		{method: http.MethodGet, path: "/api/notifications/check-expiring/task-1", token: "admin", wantStatus: http.StatusOK},
		{method: http.MethodPost, path: "/api/admin/users/verify", token: "vendor", body: `{}`, wantStatus: http.StatusForbidden},
		{method: http.MethodGet, path: "/api/audit/logs", token: "vendor", wantStatus: http.StatusForbidden},
		{method: http.MethodGet, path: "/api/audit/logs", token: "admin", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path+" "+tt.token, func(t *testing.T) {
			t.Parallel()

			feed := &countingFeed{}
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			newTestEcho(feed).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusUnauthorized && feed.calls != 0 {
				t.Error("feed reached without authentication")
			}
		})
	}
}
