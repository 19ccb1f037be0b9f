package notification

import (
	"fmt"
	"strings"
)

// SyntheticKind names a class of derived feed entries. Its id prefix is
// reserved: no persisted notification may carry it.
type SyntheticKind string

const (
	KindPendingUser       SyntheticKind = "pending_user"
	KindDonationCompleted SyntheticKind = "donation_completed"
	KindDonationTransit   SyntheticKind = "donation_transit"
	KindDonationExpiring  SyntheticKind = "donation_expiring"
)

var syntheticKinds = []SyntheticKind{
	KindPendingUser,
	KindDonationCompleted,
	KindDonationTransit,
	KindDonationExpiring,
}

func (k SyntheticKind) prefix() string {
	return string(k) + "_"
}

// ID is either Persisted(storeID) or Synthetic(kind, sourceID).
type ID struct {
	storeID  string
	kind     SyntheticKind
	sourceID string
}

func PersistedID(storeID string) ID {
	return ID{storeID: storeID}
}

func SyntheticID(kind SyntheticKind, sourceID string) ID {
	return ID{kind: kind, sourceID: sourceID}
}

func (id ID) IsSynthetic() bool {
	return id.kind != ""
}

func (id ID) StoreID() (string, bool) {
	if id.IsSynthetic() {
		return "", false
	}
	return id.storeID, true
}

func (id ID) Synthetic() (SyntheticKind, string, bool) {
	if !id.IsSynthetic() {
		return "", "", false
	}
	return id.kind, id.sourceID, true
}

func (id ID) String() string {
	if id.IsSynthetic() {
		return id.kind.prefix() + id.sourceID
	}
	return id.storeID
}

// HasReservedPrefix reports whether raw falls in the synthetic id space.
func HasReservedPrefix(raw string) bool {
	_, ok := syntheticKindOf(raw)
	return ok
}

func syntheticKindOf(raw string) (SyntheticKind, bool) {
	for _, k := range syntheticKinds {
		if strings.HasPrefix(raw, k.prefix()) {
			return k, true
		}
	}
	return "", false
}

// ParseID classifies a caller-supplied id. Ids that could not name a
// Firestore document are rejected with ErrInvalidRequest.
func ParseID(raw string) (ID, error) {
	if strings.TrimSpace(raw) == "" {
		return ID{}, fmt.Errorf("%w: empty notification id", ErrInvalidRequest)
	}

	if kind, ok := syntheticKindOf(raw); ok {
		source := strings.TrimPrefix(raw, kind.prefix())
		if source == "" {
			return ID{}, fmt.Errorf("%w: synthetic id %q has no source entity", ErrInvalidRequest, raw)
		}
		return SyntheticID(kind, source), nil
	}

	if strings.Contains(raw, "/") || raw == "." || raw == ".." || len(raw) > 1500 || isReservedDocID(raw) {
		return ID{}, fmt.Errorf("%w: malformed notification id %q", ErrInvalidRequest, raw)
	}
	return PersistedID(raw), nil
}

// isReservedDocID matches Firestore's reserved __name__ form.
func isReservedDocID(raw string) bool {
	return len(raw) >= 4 && strings.HasPrefix(raw, "__") && strings.HasSuffix(raw, "__")
}
