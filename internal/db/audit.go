package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"nomorewaste/internal/models"
)

func (s *Store) AddAuditLog(ctx context.Context, entry models.AuditLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	if _, _, err := s.client.Collection(auditLogsCollection).Add(ctx, entry); err != nil {
		return fmt.Errorf("failed to add audit log: %w", err)
	}
	return nil
}

func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error) {
	iter := s.client.Collection(auditLogsCollection).
		OrderBy("timestamp", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var logs []models.AuditLog
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list audit logs: %w", err)
		}
		data := doc.Data()
		logs = append(logs, models.AuditLog{
			ID:        doc.Ref.ID,
			UserID:    toString(data["userId"]),
			Action:    toString(data["action"]),
			Details:   toString(data["details"]),
			Category:  toString(data["category"]),
			IPAddress: toString(data["ipAddress"]),
			UserAgent: toString(data["userAgent"]),
			Timestamp: toTime(data["timestamp"]),
		})
	}
	return logs, nil
}
