package notification

import (
	"errors"
	"time"

	"nomorewaste/internal/auth"
)

type NotificationType string

const (
	TypeAccountPending   NotificationType = "accountPending"
	TypeAccountVerified  NotificationType = "accountVerified"
	TypeAccountRejected  NotificationType = "accountRejected"
	TypeDeliveryComplete NotificationType = "delivery_complete"
	TypePickupComplete   NotificationType = "pickup_complete"
	TypeExpiringSoon     NotificationType = "expiring_soon"
	TypeDonationExpiring NotificationType = "donation_expiring"
)

const (
	SystemSender   = "system"
	DonationsLink  = "/dashboard/donations"
	maxMarkReadIDs = 500
)

var (
	ErrUnauthenticated = auth.ErrUnauthenticated
	ErrFeedUnavailable = errors.New("notification feed unavailable")
	ErrInvalidRequest  = errors.New("invalid notification request")
	ErrReservedID      = errors.New("notification id uses a reserved synthetic prefix")
)

// Notification is one feed entry. Persisted entries are stored in the
// notifications collection; synthetic ones are rebuilt on every read.
type Notification struct {
	ID          string                 `firestore:"id" json:"id"`
	RecipientID string                 `firestore:"recipientId" json:"recipientId"`
	SenderID    string                 `firestore:"senderId" json:"senderId"`
	Type        NotificationType       `firestore:"type" json:"type"`
	Title       string                 `firestore:"title" json:"title"`
	Message     string                 `firestore:"message" json:"message"`
	EntityID    *string                `firestore:"entityId" json:"entityId"`
	LinkTo      *string                `firestore:"linkTo" json:"linkTo,omitempty"`
	Metadata    map[string]interface{} `firestore:"metadata" json:"metadata,omitempty"`
	IsRead      bool                   `firestore:"isRead" json:"isRead"`
	CreatedAt   time.Time              `firestore:"createdAt" json:"createdAt"`
	Synthetic   bool                   `firestore:"-" json:"synthetic,omitempty"`
}

// Feed is ordered newest first.
type Feed []Notification

type NotificationRequest struct {
	RecipientID string                 `json:"recipientId" validate:"required,nonblank"`
	SenderID    string                 `json:"senderId"`
	Type        NotificationType       `json:"type" validate:"required,nonblank"`
	Title       string                 `json:"title" validate:"required,nonblank"`
	Message     string                 `json:"message" validate:"required,nonblank"`
	EntityID    string                 `json:"entityId,omitempty"`
	LinkTo      string                 `json:"linkTo,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
