package db

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
)

const (
	notificationsCollection = "notifications"
	usersCollection         = "users"
	donationsCollection     = "donations"
	auditLogsCollection     = "auditLogs"
)

var ErrNotFound = errors.New("document not found")

// Store is the Firestore-backed document store.
type Store struct {
	client *firestore.Client
	now    func() time.Time
}

func NewStore(client *firestore.Client) *Store {
	return &Store{client: client, now: time.Now}
}

// doc rejects ids that cannot name a single document.
func (s *Store) doc(collection, id string) (*firestore.DocumentRef, error) {
	if strings.TrimSpace(id) == "" || strings.Contains(id, "/") {
		return nil, fmt.Errorf("invalid document id %q: %w", id, ErrNotFound)
	}
	return s.client.Collection(collection).Doc(id), nil
}

// Documents in these collections are written by several clients, so
// timestamps arrive as Firestore timestamps, ISO strings, epoch millis or
// serialized {_seconds} maps.
func toTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t != nil {
			return *t
		}
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
		if ms, err := strconv.ParseInt(t, 10, 64); err == nil {
			return time.UnixMilli(ms)
		}
	case int64:
		return time.UnixMilli(t)
	case float64:
		return time.UnixMilli(int64(t))
	case map[string]interface{}:
		for _, key := range []string{"_seconds", "seconds"} {
			switch secs := t[key].(type) {
			case int64:
				return time.Unix(secs, 0)
			case float64:
				return time.Unix(int64(secs), 0)
			}
		}
	}
	return time.Time{}
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func toStringPtr(v interface{}) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func toBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}
