package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"nomorewaste/internal/auth"
	"nomorewaste/internal/db"
	"nomorewaste/internal/models"
	"nomorewaste/internal/notification"
)

const defaultRejectionReason = "Verification documents do not meet requirements"

type VerificationStore interface {
	GetUser(ctx context.Context, uid string) (models.User, error)
	ApplyVerification(ctx context.Context, d db.VerificationDecision) error
}

type VerifyUserRequest struct {
	UserID string `json:"userId" validate:"required,nonblank"`
	Action string `json:"action" validate:"required,oneof=approve reject"`
	Reason string `json:"reason"`
}

type VerificationHandler struct {
	users  VerificationStore
	sender NotificationSender
	audit  AuditLogger
}

func NewVerificationHandler(users VerificationStore, sender NotificationSender, audit AuditLogger) *VerificationHandler {
	return &VerificationHandler{users: users, sender: sender, audit: audit}
}

func (h *VerificationHandler) VerifyUser(c echo.Context) error {
	admin, ok := auth.ViewerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
	}

	var req VerifyUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "userId and a valid action are required"})
	}

	ctx := c.Request().Context()
	user, err := h.users.GetUser(ctx, req.UserID)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}
	if err != nil {
		slog.Error("failed to load user for verification", "user_id", req.UserID, slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to process verification"})
	}

	approve := req.Action == "approve"
	reason := req.Reason
	if !approve && reason == "" {
		reason = defaultRejectionReason
	}

	err = h.users.ApplyVerification(ctx, db.VerificationDecision{
		UserID:  req.UserID,
		AdminID: admin.ID,
		Approve: approve,
		Reason:  reason,
	})
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}
	if err != nil {
		slog.Error("failed to apply verification", "user_id", req.UserID, "action", req.Action, slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to process verification"})
	}

	notice := &notification.NotificationRequest{
		RecipientID: req.UserID,
		SenderID:    admin.ID,
		EntityID:    req.UserID,
		Metadata:    map[string]interface{}{"recipientEmail": user.Email},
	}
	entry := models.AuditLog{
		UserID:    admin.ID,
		Category:  "Verification",
		IPAddress: clientIP(c),
		UserAgent: userAgent(c),
	}
	if approve {
		notice.Type = notification.TypeAccountVerified
		notice.Title = "Account Verified"
		notice.Message = "Your account has been successfully verified! You can now access all features."
		entry.Action = "User verification approved"
		entry.Details = fmt.Sprintf("Approved verification for %s (UID: %s)", user.Label(), req.UserID)
	} else {
		notice.Type = notification.TypeAccountRejected
		notice.Title = "Verification Rejected, Update Required"
		notice.Message = "We were unable to verify your account with the current documentation. Please review and update your submitted documents, then contact our support team for assistance with the verification process."
		entry.Action = "User verification rejected"
		entry.Details = fmt.Sprintf("Rejected verification for %s (UID: %s). Reason: %s", user.Label(), req.UserID, reason)
	}

	if _, err := h.sender.SendNotification(ctx, notice); err != nil {
		slog.Warn("failed to notify user of verification decision", "user_id", req.UserID, slog.Any("error", err))
	}
	if err := h.audit.AddAuditLog(ctx, entry); err != nil {
		slog.Warn("failed to write audit log", "action", entry.Action, slog.Any("error", err))
	}

	slog.Info("user verification decided", "user_id", req.UserID, "action", req.Action, "admin_id", admin.ID)

	verb := "rejected"
	if approve {
		verb = "approved"
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("User verification %s successfully", verb),
	})
}

func clientIP(c echo.Context) string {
	if ip := c.RealIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func userAgent(c echo.Context) string {
	if ua := c.Request().UserAgent(); ua != "" {
		return ua
	}
	return "unknown"
}
