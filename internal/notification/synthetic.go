package notification

import (
	"fmt"
	"math"
	"time"

	"nomorewaste/internal/models"
)

// ExpiryWindow is how far ahead an available donation counts as expiring.
const ExpiryWindow = 24 * time.Hour

// TimeUntilExpiry returns the remaining time and whether it lies in (0, window].
func TimeUntilExpiry(expiry, now time.Time, window time.Duration) (time.Duration, bool) {
	if expiry.IsZero() {
		return 0, false
	}
	remaining := expiry.Sub(now)
	return remaining, remaining > 0 && remaining <= window
}

func pendingUserEntries(users []models.User, channel string, now time.Time) []Notification {
	entries := make([]Notification, 0, len(users))
	for _, u := range users {
		createdAt := u.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		entries = append(entries, Notification{
			ID:          SyntheticID(KindPendingUser, u.ID).String(),
			RecipientID: channel,
			SenderID:    SystemSender,
			Type:        TypeAccountPending,
			Title:       "Pending Verification",
			Message:     fmt.Sprintf("%s has registered and is waiting for approval", u.Label()),
			EntityID:    stringPtr(u.ID),
			CreatedAt:   createdAt,
			Synthetic:   true,
		})
	}
	return entries
}

func donationEntries(donations []models.Donation, channel string, now time.Time) []Notification {
	var entries []Notification
	for _, d := range donations {
		entries = append(entries, donationEntry(d, channel, now)...)
	}
	return entries
}

// donationEntry projects one donation. Status is single valued so at most
// one status entry applies; expiry is only considered while available.
func donationEntry(d models.Donation, channel string, now time.Time) []Notification {
	title := d.Title
	if title == "" {
		title = "Unknown"
	}
	changedAt := d.LastChanged()
	if changedAt.IsZero() {
		changedAt = now
	}

	base := Notification{
		RecipientID: channel,
		SenderID:    SystemSender,
		EntityID:    stringPtr(d.ID),
		LinkTo:      stringPtr(DonationsLink),
		Synthetic:   true,
	}

	switch d.Status {
	case models.DonationCompleted:
		n := base
		n.ID = SyntheticID(KindDonationCompleted, d.ID).String()
		n.Type = TypeDeliveryComplete
		n.Title = "Delivery Completed"
		n.Message = fmt.Sprintf("Donation %q has been delivered successfully", title)
		n.CreatedAt = changedAt
		return []Notification{n}

	case models.DonationInTransit:
		vendor := d.VendorName
		if vendor == "" {
			vendor = "Vendor"
		}
		n := base
		n.ID = SyntheticID(KindDonationTransit, d.ID).String()
		n.Type = TypePickupComplete
		n.Title = "Pickup Completed"
		n.Message = fmt.Sprintf("Driver has picked up %q from %s", title, vendor)
		n.CreatedAt = changedAt
		return []Notification{n}

	case models.DonationAvailable:
		remaining, ok := TimeUntilExpiry(d.ExpiryTime, now, ExpiryWindow)
		if !ok {
			return nil
		}
		n := base
		n.ID = SyntheticID(KindDonationExpiring, d.ID).String()
		n.Type = TypeExpiringSoon
		n.Title = "Donation Expiring Soon"
		n.Message = fmt.Sprintf("%q expires in %d hours", title, int(math.Ceil(remaining.Hours())))
		n.CreatedAt = now
		return []Notification{n}
	}
	return nil
}
