package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"

	"nomorewaste/internal/auth"
	"nomorewaste/internal/notification"
	"nomorewaste/internal/queue"
)

type FeedService interface {
	BuildFeed(ctx context.Context, viewer auth.Viewer) (notification.Feed, error)
	MarkRead(ctx context.Context, viewer auth.Viewer, ids []string) (int, error)
}

type NotificationSender interface {
	SendNotification(ctx context.Context, req *notification.NotificationRequest) (*notification.Notification, error)
}

type SweepEnqueuer interface {
	EnqueueExpirySweep(ctx context.Context) (string, error)
	GetTaskStatus(taskID string) (*asynq.TaskInfo, error)
}

type MarkReadRequest struct {
	NotificationIDs []string `json:"notificationIds" validate:"required"`
}

type NotificationHandler struct {
	feed   FeedService
	sender NotificationSender
	sweeps SweepEnqueuer
}

func NewNotificationHandler(feed FeedService, sender NotificationSender, sweeps SweepEnqueuer) *NotificationHandler {
	return &NotificationHandler{feed: feed, sender: sender, sweeps: sweeps}
}

// List returns the viewer's feed. A degraded feed is still a 200 so
// polling clients keep their last good state.
func (h *NotificationHandler) List(c echo.Context) error {
	viewer, ok := auth.ViewerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
	}

	feed, err := h.feed.BuildFeed(c.Request().Context(), viewer)
	switch {
	case errors.Is(err, notification.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
	case err != nil:
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success":       false,
			"degraded":      true,
			"notifications": notification.Feed{},
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":       true,
		"notifications": feed,
	})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	viewer, ok := auth.ViewerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
	}

	var req MarkReadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "notificationIds must be an array of strings"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "notificationIds is required"})
	}

	marked, err := h.feed.MarkRead(c.Request().Context(), viewer, req.NotificationIDs)
	switch {
	case errors.Is(err, notification.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
	case errors.Is(err, notification.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case err != nil:
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Failed to mark notifications as read"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"marked":  marked,
	})
}

func (h *NotificationHandler) Create(c echo.Context) error {
	var req notification.NotificationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "recipientId, type, title and message are required"})
	}

	if req.SenderID == "" {
		if viewer, ok := auth.ViewerFrom(c); ok {
			req.SenderID = viewer.ID
		}
	}

	created, err := h.sender.SendNotification(c.Request().Context(), &req)
	if errors.Is(err, notification.ErrInvalidRequest) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err != nil {
		slog.Error("failed to create notification", "recipient_id", req.RecipientID, slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create notification"})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success":      true,
		"notification": created,
	})
}

func (h *NotificationHandler) CheckExpiring(c echo.Context) error {
	taskID, err := h.sweeps.EnqueueExpirySweep(c.Request().Context())
	if errors.Is(err, queue.ErrAlreadyQueued) {
		return c.JSON(http.StatusAccepted, map[string]interface{}{
			"success": true,
			"message": "Expiry check already queued",
		})
	}
	if err != nil {
		slog.Error("failed to enqueue expiry sweep", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to queue expiry check"})
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"success": true,
		"task_id": taskID,
	})
}

// CheckExpiringStatus reports the state of a sweep queued by CheckExpiring.
func (h *NotificationHandler) CheckExpiringStatus(c echo.Context) error {
	taskID := c.Param("id")
	if taskID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Task ID is required"})
	}

	info, err := h.sweeps.GetTaskStatus(taskID)
	if errors.Is(err, queue.ErrTaskNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Task not found"})
	}
	if err != nil {
		slog.Error("failed to get expiry sweep status", "task_id", taskID, slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get task status"})
	}

	resp := map[string]interface{}{
		"success": true,
		"task_id": info.ID,
		"state":   info.State.String(),
		"retried": info.Retried,
	}
	if info.LastErr != "" {
		resp["last_error"] = info.LastErr
	}
	if !info.CompletedAt.IsZero() {
		resp["completed_at"] = info.CompletedAt
	}
	return c.JSON(http.StatusOK, resp)
}
