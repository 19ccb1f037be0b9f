package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"nomorewaste/internal/metrics"
)

// NotificationWriter persists producer notifications.
type NotificationWriter interface {
	// NewID reserves a store-generated document id.
	NewID() string
	Create(ctx context.Context, n *Notification) error
}

type NotificationService struct {
	store NotificationWriter
	now   func() time.Time
}

func NewNotificationService(store NotificationWriter) *NotificationService {
	return &NotificationService{
		store: store,
		now:   time.Now,
	}
}

// SendNotification writes the full persisted field set. The id comes from
// the store and must stay outside the synthetic prefix space.
func (s *NotificationService) SendNotification(ctx context.Context, req *NotificationRequest) (*Notification, error) {
	if strings.TrimSpace(req.RecipientID) == "" || req.Type == "" || req.Title == "" || req.Message == "" {
		return nil, fmt.Errorf("%w: recipientId, type, title and message are required", ErrInvalidRequest)
	}

	id := s.store.NewID()
	if id == "" || HasReservedPrefix(id) {
		return nil, fmt.Errorf("%w: %q", ErrReservedID, id)
	}

	sender := req.SenderID
	if sender == "" {
		sender = SystemSender
	}

	notification := &Notification{
		ID:          id,
		RecipientID: req.RecipientID,
		SenderID:    sender,
		Type:        req.Type,
		Title:       req.Title,
		Message:     req.Message,
		EntityID:    stringPtr(req.EntityID),
		LinkTo:      stringPtr(req.LinkTo),
		Metadata:    req.Metadata,
		IsRead:      false,
		CreatedAt:   s.now(),
	}

	if err := s.store.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to send notification: %w", err)
	}

	metrics.NotificationsSent.WithLabelValues(string(req.Type)).Inc()
	slog.Info("notification created", "recipient_id", req.RecipientID, "type", req.Type, "notification_id", id)
	return notification, nil
}
