package notification

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"nomorewaste/internal/models"
)

type memoryStore struct {
	mu      sync.Mutex
	docs    map[string]Notification
	order   []string
	nextID  int
	failIn  error
	failAll error
	failW   error
	creates int
}

func newMemoryStore(docs ...Notification) *memoryStore {
	s := &memoryStore{docs: make(map[string]Notification)}
	for _, d := range docs {
		s.docs[d.ID] = d
		s.order = append(s.order, d.ID)
	}
	return s
}

func (s *memoryStore) ListByRecipients(_ context.Context, recipients []string, limit int) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIn != nil {
		return nil, s.failIn
	}
	var out []Notification
	for _, id := range s.order {
		n := s.docs[id]
		if slices.Contains(recipients, n.RecipientID) {
			out = append(out, n)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memoryStore) ListRecent(_ context.Context, limit int) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	var out []Notification
	for _, id := range s.order {
		out = append(out, s.docs[id])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memoryStore) MarkRead(_ context.Context, storeIDs []string, recipients []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failW != nil {
		return 0, s.failW
	}
	marked := 0
	for _, id := range storeIDs {
		n, ok := s.docs[id]
		if !ok || n.IsRead || !slices.Contains(recipients, n.RecipientID) {
			continue
		}
		n.IsRead = true
		s.docs[id] = n
		marked++
	}
	return marked, nil
}

func (s *memoryStore) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return fmt.Sprintf("auto%016d", s.nextID)
}

func (s *memoryStore) Create(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failW != nil {
		return s.failW
	}
	if _, exists := s.docs[n.ID]; exists {
		return fmt.Errorf("document %s already exists", n.ID)
	}
	s.docs[n.ID] = *n
	s.order = append(s.order, n.ID)
	s.creates++
	return nil
}

func (s *memoryStore) HasNotificationForEntity(_ context.Context, t NotificationType, entityID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.docs {
		if n.Type == t && n.EntityID != nil && *n.EntityID == entityID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) get(id string) Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[id]
}

type memoryEntities struct {
	users       []models.User
	donations   []models.Donation
	failUsers   error
	failDonates error
	calls       int
}

func (e *memoryEntities) ListPendingUsers(context.Context) ([]models.User, error) {
	e.calls++
	if e.failUsers != nil {
		return nil, e.failUsers
	}
	var out []models.User
	for _, u := range e.users {
		if u.VerificationStatus == models.VerificationPending {
			out = append(out, u)
		}
	}
	return out, nil
}

func (e *memoryEntities) ListDonations(_ context.Context, limit int) ([]models.Donation, error) {
	e.calls++
	if e.failDonates != nil {
		return nil, e.failDonates
	}
	if limit > 0 && len(e.donations) > limit {
		return e.donations[:limit], nil
	}
	return e.donations, nil
}

func (e *memoryEntities) ListDonationsByStatus(_ context.Context, status models.DonationStatus) ([]models.Donation, error) {
	if e.failDonates != nil {
		return nil, e.failDonates
	}
	var out []models.Donation
	for _, d := range e.donations {
		if d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}
