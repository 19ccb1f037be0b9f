package db

import (
	"context"
	"fmt"
	"slices"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"nomorewaste/internal/notification"
)

func notificationFromDoc(doc *firestore.DocumentSnapshot) notification.Notification {
	data := doc.Data()
	metadata, _ := data["metadata"].(map[string]interface{})
	return notification.Notification{
		ID:          doc.Ref.ID,
		RecipientID: toString(data["recipientId"]),
		SenderID:    toString(data["senderId"]),
		Type:        notification.NotificationType(toString(data["type"])),
		Title:       toString(data["title"]),
		Message:     toString(data["message"]),
		EntityID:    toStringPtr(data["entityId"]),
		LinkTo:      toStringPtr(data["linkTo"]),
		Metadata:    metadata,
		IsRead:      toBool(data["isRead"]),
		CreatedAt:   toTime(data["createdAt"]),
	}
}

func collectNotifications(iter *firestore.DocumentIterator) ([]notification.Notification, error) {
	defer iter.Stop()

	var result []notification.Notification
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get notifications: %w", err)
		}
		result = append(result, notificationFromDoc(doc))
	}
	return result, nil
}

func (s *Store) NewID() string {
	return s.client.Collection(notificationsCollection).NewDoc().ID
}

func (s *Store) Create(ctx context.Context, n *notification.Notification) error {
	_, err := s.client.Collection(notificationsCollection).Doc(n.ID).Create(ctx, n)
	if err != nil {
		return fmt.Errorf("failed to create notification %s: %w", n.ID, err)
	}
	return nil
}

// ListByRecipients uses an "in" filter; Firestore caps its operand at 30
// values, far above the two recipients a viewer has.
func (s *Store) ListByRecipients(ctx context.Context, recipients []string, limit int) ([]notification.Notification, error) {
	query := s.client.Collection(notificationsCollection).Where("recipientId", "in", recipients)
	if limit > 0 {
		query = query.Limit(limit)
	}
	return collectNotifications(query.Documents(ctx))
}

// ListRecent returns the newest notifications across all recipients.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]notification.Notification, error) {
	query := s.client.Collection(notificationsCollection).OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	return collectNotifications(query.Documents(ctx))
}

func (s *Store) MarkRead(ctx context.Context, storeIDs []string, recipients []string) (int, error) {
	coll := s.client.Collection(notificationsCollection)
	refs := make([]*firestore.DocumentRef, 0, len(storeIDs))
	for _, id := range storeIDs {
		refs = append(refs, coll.Doc(id))
	}

	var marked int
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snapshots, err := tx.GetAll(refs)
		if err != nil {
			return err
		}

		count := 0
		for _, snap := range snapshots {
			if !snap.Exists() {
				continue
			}
			n := notificationFromDoc(snap)
			if n.IsRead || !slices.Contains(recipients, n.RecipientID) {
				continue
			}
			if err := tx.Update(snap.Ref, []firestore.Update{{Path: "isRead", Value: true}}); err != nil {
				return err
			}
			count++
		}
		marked = count
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return marked, nil
}

func (s *Store) HasNotificationForEntity(ctx context.Context, t notification.NotificationType, entityID string) (bool, error) {
	iter := s.client.Collection(notificationsCollection).
		Where("type", "==", string(t)).
		Where("entityId", "==", entityID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query notifications for entity %s: %w", entityID, err)
	}
	return true, nil
}
