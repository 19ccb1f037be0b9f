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

type DonationStore interface {
	UpdateDonationStatus(ctx context.Context, id string, status models.DonationStatus) (models.Donation, error)
}

type AuditLogger interface {
	AddAuditLog(ctx context.Context, entry models.AuditLog) error
}

type UpdateStatusRequest struct {
	DonationID string `json:"donationId" validate:"required,nonblank"`
	Status     string `json:"status" validate:"required,nonblank"`
}

type DonationHandler struct {
	donations    DonationStore
	sender       NotificationSender
	audit        AuditLogger
	adminChannel string
}

func NewDonationHandler(donations DonationStore, sender NotificationSender, audit AuditLogger, adminChannel string) *DonationHandler {
	return &DonationHandler{
		donations:    donations,
		sender:       sender,
		audit:        audit,
		adminChannel: adminChannel,
	}
}

// UpdateStatus moves a donation to a new status. Pickup and delivery also
// notify the admin channel and land in the audit trail.
func (h *DonationHandler) UpdateStatus(c echo.Context) error {
	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
	}

	actorID := notification.SystemSender
	if viewer, ok := auth.ViewerFrom(c); ok {
		actorID = viewer.ID
	}

	ctx := c.Request().Context()
	status := models.DonationStatus(req.Status)

	donation, err := h.donations.UpdateDonationStatus(ctx, req.DonationID, status)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Donation not found"})
	}
	if err != nil {
		slog.Error("failed to update donation status", "donation_id", req.DonationID, "status", req.Status, slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update status"})
	}

	vendor := donation.VendorName
	if vendor == "" {
		vendor = "Vendor"
	}
	title := donation.Title
	if title == "" {
		title = "Donation"
	}

	switch status {
	case models.DonationInTransit:
		h.notify(ctx, notification.TypePickupComplete, "Pickup Completed",
			fmt.Sprintf("%s donation %q picked up", vendor, title), req.DonationID, vendor)
		h.record(ctx, models.AuditLog{
			UserID:   actorID,
			Action:   "Donation Pickup",
			Details:  fmt.Sprintf("Pickup completed for %s from %s", title, vendor),
			Category: "Logistics",
		})
	case models.DonationCompleted:
		h.notify(ctx, notification.TypeDeliveryComplete, "Delivery Completed",
			fmt.Sprintf("Donation %q successfully delivered", title), req.DonationID, vendor)
		h.record(ctx, models.AuditLog{
			UserID:   actorID,
			Action:   "Donation Delivered",
			Details:  fmt.Sprintf("Donation %s delivered successfully", title),
			Category: "Logistics",
		})
	}

	slog.Info("donation status updated", "donation_id", req.DonationID, "from", donation.Status, "to", status, "actor_id", actorID)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Donation status updated",
	})
}

// notify and record run after the status write has committed, so their
// failures are logged rather than returned.
func (h *DonationHandler) notify(ctx context.Context, t notification.NotificationType, title, message, donationID, vendor string) {
	_, err := h.sender.SendNotification(ctx, &notification.NotificationRequest{
		RecipientID: h.adminChannel,
		Type:        t,
		Title:       title,
		Message:     message,
		EntityID:    donationID,
		LinkTo:      notification.DonationsLink,
		Metadata: map[string]interface{}{
			"donationId": donationID,
			"vendorName": vendor,
		},
	})
	if err != nil {
		slog.Warn("failed to send donation notification", "donation_id", donationID, "type", t, slog.Any("error", err))
	}
}

func (h *DonationHandler) record(ctx context.Context, entry models.AuditLog) {
	if err := h.audit.AddAuditLog(ctx, entry); err != nil {
		slog.Warn("failed to write audit log", "action", entry.Action, slog.Any("error", err))
	}
}
