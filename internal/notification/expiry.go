package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nomorewaste/internal/metrics"
	"nomorewaste/internal/models"
)

type AvailableDonationSource interface {
	ListDonationsByStatus(ctx context.Context, status models.DonationStatus) ([]models.Donation, error)
}

type EntityNotificationLookup interface {
	// HasNotificationForEntity reports whether a persisted notification of
	// type t already references entityID.
	HasNotificationForEntity(ctx context.Context, t NotificationType, entityID string) (bool, error)
}

// ExpirySweeper persists one donation_expiring notification per available
// donation that enters the expiry window.
type ExpirySweeper struct {
	donations AvailableDonationSource
	existing  EntityNotificationLookup
	sender    *NotificationService
	channel   string
	now       func() time.Time
}

func NewExpirySweeper(donations AvailableDonationSource, existing EntityNotificationLookup, sender *NotificationService, channel string) *ExpirySweeper {
	return &ExpirySweeper{
		donations: donations,
		existing:  existing,
		sender:    sender,
		channel:   channel,
		now:       time.Now,
	}
}

func (s *ExpirySweeper) Sweep(ctx context.Context) (int, error) {
	donations, err := s.donations.ListDonationsByStatus(ctx, models.DonationAvailable)
	if err != nil {
		metrics.ExpirySweeps.WithLabelValues("failed").Inc()
		return 0, fmt.Errorf("failed to list available donations: %w", err)
	}

	now := s.now()
	created := 0
	for _, d := range donations {
		remaining, ok := TimeUntilExpiry(d.ExpiryTime, now, ExpiryWindow)
		if !ok {
			continue
		}

		exists, err := s.existing.HasNotificationForEntity(ctx, TypeDonationExpiring, d.ID)
		if err != nil {
			metrics.ExpirySweeps.WithLabelValues("failed").Inc()
			return created, fmt.Errorf("failed to check existing notification for donation %s: %w", d.ID, err)
		}
		if exists {
			continue
		}

		hours := int(remaining.Hours())
		unit := "hours"
		if hours == 1 {
			unit = "hour"
		}
		vendor := d.VendorName
		if vendor == "" {
			vendor = "Vendor"
		}

		_, err = s.sender.SendNotification(ctx, &NotificationRequest{
			RecipientID: s.channel,
			Type:        TypeDonationExpiring,
			Title:       "Donation Expiring Soon",
			Message:     fmt.Sprintf("%q from %s expires in %d %s", d.Title, vendor, hours, unit),
			EntityID:    d.ID,
			LinkTo:      DonationsLink,
			Metadata: map[string]interface{}{
				"donationId":     d.ID,
				"expiryTime":     d.ExpiryTime.UTC().Format(time.RFC3339),
				"hoursRemaining": hours,
			},
		})
		if err != nil {
			metrics.ExpirySweeps.WithLabelValues("failed").Inc()
			return created, err
		}
		created++
	}

	metrics.ExpirySweeps.WithLabelValues("ok").Inc()
	slog.Info("expiry sweep finished", "scanned", len(donations), "created", created)
	return created, nil
}
