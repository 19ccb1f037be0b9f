// Package models holds the document shapes shared by the store adapter and
// the services built on it.
package models

import "time"

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// User is a platform account (vendor, NGO, volunteer or admin).
type User struct {
	ID                 string
	DisplayName        string
	Email              string
	Role               string
	IsSuperAdmin       bool
	VerificationStatus VerificationStatus
	CreatedAt          time.Time
}

// Label is the human name used in notification messages.
func (u User) Label() string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Email != "":
		return u.Email
	default:
		return "New User"
	}
}

type DonationStatus string

const (
	DonationAvailable DonationStatus = "available"
	DonationInTransit DonationStatus = "in-transit"
	DonationCompleted DonationStatus = "completed"
)

// Donation timestamps are zero when the document does not carry them.
type Donation struct {
	ID         string
	Title      string
	VendorName string
	Status     DonationStatus
	ExpiryTime time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LastChanged is updatedAt, else createdAt, else the zero time.
func (d Donation) LastChanged() time.Time {
	if !d.UpdatedAt.IsZero() {
		return d.UpdatedAt
	}
	return d.CreatedAt
}

type AuditLog struct {
	ID        string    `firestore:"-" json:"id"`
	UserID    string    `firestore:"userId" json:"userId"`
	Action    string    `firestore:"action" json:"action"`
	Details   string    `firestore:"details" json:"details"`
	Category  string    `firestore:"category" json:"category"`
	IPAddress string    `firestore:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	UserAgent string    `firestore:"userAgent,omitempty" json:"userAgent,omitempty"`
	Timestamp time.Time `firestore:"timestamp" json:"timestamp"`
}
