package notification

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"nomorewaste/internal/auth"
	"nomorewaste/internal/metrics"
	"nomorewaste/internal/models"
)

// NotificationStore is the persisted side of the feed.
type NotificationStore interface {
	// ListByRecipients returns up to limit notifications whose recipientId is
	// one of recipients.
	ListByRecipients(ctx context.Context, recipients []string, limit int) ([]Notification, error)
	// ListRecent returns up to limit notifications without a recipient filter.
	ListRecent(ctx context.Context, limit int) ([]Notification, error)
	// MarkRead atomically sets isRead on every listed document that exists,
	// is addressed to one of recipients and is unread. It returns how many
	// documents changed.
	MarkRead(ctx context.Context, storeIDs []string, recipients []string) (int, error)
}

// EntitySource supplies the live entity state synthetic entries project.
type EntitySource interface {
	ListPendingUsers(ctx context.Context) ([]models.User, error)
	ListDonations(ctx context.Context, limit int) ([]models.Donation, error)
}

type FeedOptions struct {
	AdminChannel      string
	FetchLimit        int
	DonationScanLimit int
	Timeout           time.Duration
}

func DefaultFeedOptions() FeedOptions {
	return FeedOptions{
		AdminChannel:      "admin",
		FetchLimit:        100,
		DonationScanLimit: 50,
		Timeout:           5 * time.Second,
	}
}

type FeedBuilder struct {
	notifications NotificationStore
	entities      EntitySource
	opts          FeedOptions
	now           func() time.Time
}

func NewFeedBuilder(notifications NotificationStore, entities EntitySource, opts FeedOptions) *FeedBuilder {
	return &FeedBuilder{
		notifications: notifications,
		entities:      entities,
		opts:          opts,
		now:           time.Now,
	}
}

// Recipients lists the recipientId values addressed to viewer. Channel
// access follows the viewer's role only: a non-administrative viewer whose
// id equals the channel id gets no recipients at all.
func (b *FeedBuilder) Recipients(viewer auth.Viewer) []string {
	switch {
	case viewer.Administrative && viewer.ID != b.opts.AdminChannel:
		return []string{viewer.ID, b.opts.AdminChannel}
	case viewer.ID == b.opts.AdminChannel && !viewer.Administrative:
		return nil
	}
	return []string{viewer.ID}
}

// BuildFeed merges the viewer's persisted notifications with synthetic
// entries (administrative viewers only), newest first. On any store failure
// it returns an empty feed and an error wrapping ErrFeedUnavailable.
func (b *FeedBuilder) BuildFeed(ctx context.Context, viewer auth.Viewer) (Feed, error) {
	if !viewer.Authenticated() {
		return nil, ErrUnauthenticated
	}

	start := time.Now()
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	feed, err := b.buildFeed(ctx, viewer)
	metrics.FeedBuildDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FeedBuilds.WithLabelValues("degraded").Inc()
		slog.Warn("notification feed degraded", "viewer_id", viewer.ID, slog.Any("error", err))
		return Feed{}, fmt.Errorf("%w: %w", ErrFeedUnavailable, err)
	}

	metrics.FeedBuilds.WithLabelValues("ok").Inc()
	return feed, nil
}

func (b *FeedBuilder) buildFeed(ctx context.Context, viewer auth.Viewer) (Feed, error) {
	recipients := b.Recipients(viewer)

	persisted, err := b.fetchPersisted(ctx, recipients)
	if err != nil {
		return nil, err
	}
	metrics.FeedEntries.WithLabelValues("persisted").Observe(float64(len(persisted)))

	entries := persisted
	if viewer.Administrative {
		now := b.now()

		pending, err := b.entities.ListPendingUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list pending users: %w", err)
		}
		donations, err := b.entities.ListDonations(ctx, b.opts.DonationScanLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list donations: %w", err)
		}

		synthetic := pendingUserEntries(pending, b.opts.AdminChannel, now)
		synthetic = append(synthetic, donationEntries(donations, b.opts.AdminChannel, now)...)
		metrics.FeedEntries.WithLabelValues("synthetic").Observe(float64(len(synthetic)))

		entries = append(entries, synthetic...)
	}

	return mergeFeed(entries), nil
}

// fetchPersisted falls back to a bounded unfiltered page when the
// recipient query fails. Results past FetchLimit may be missed either way.
func (b *FeedBuilder) fetchPersisted(ctx context.Context, recipients []string) ([]Notification, error) {
	if len(recipients) == 0 {
		return nil, nil
	}
	list, err := b.notifications.ListByRecipients(ctx, recipients, b.opts.FetchLimit)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("failed to list notifications: %w", err)
		}
		slog.Warn("recipient query failed, falling back to recent page", "recipients", recipients, slog.Any("error", err))
		list, err = b.notifications.ListRecent(ctx, b.opts.FetchLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list recent notifications: %w", err)
		}
	}

	out := make([]Notification, 0, len(list))
	for _, n := range list {
		if !slices.Contains(recipients, n.RecipientID) {
			continue
		}
		n.Synthetic = false
		out = append(out, n)
	}
	return out, nil
}

// mergeFeed drops repeated ids, keeping the first, then stable-sorts by
// createdAt descending.
func mergeFeed(entries []Notification) Feed {
	seen := make(map[string]struct{}, len(entries))
	feed := make(Feed, 0, len(entries))
	for _, n := range entries {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		feed = append(feed, n)
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})
	return feed
}

// MarkRead flips the persisted ids in rawIDs to read in one atomic write.
// Synthetic ids are accepted and ignored. The count covers persisted
// documents that actually changed.
func (b *FeedBuilder) MarkRead(ctx context.Context, viewer auth.Viewer, rawIDs []string) (int, error) {
	if !viewer.Authenticated() {
		return 0, ErrUnauthenticated
	}
	if len(rawIDs) > maxMarkReadIDs {
		return 0, fmt.Errorf("%w: at most %d ids per request", ErrInvalidRequest, maxMarkReadIDs)
	}

	var storeIDs []string
	seen := make(map[string]struct{}, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := ParseID(raw)
		if err != nil {
			return 0, err
		}
		storeID, ok := id.StoreID()
		if !ok {
			continue
		}
		if _, dup := seen[storeID]; dup {
			continue
		}
		seen[storeID] = struct{}{}
		storeIDs = append(storeIDs, storeID)
	}

	recipients := b.Recipients(viewer)
	if len(storeIDs) == 0 || len(recipients) == 0 {
		metrics.MarkReadRequests.WithLabelValues("noop").Inc()
		return 0, nil
	}

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	marked, err := b.notifications.MarkRead(ctx, storeIDs, recipients)
	if err != nil {
		metrics.MarkReadRequests.WithLabelValues("failed").Inc()
		slog.Error("failed to mark notifications read", "viewer_id", viewer.ID, "count", len(storeIDs), slog.Any("error", err))
		return 0, fmt.Errorf("%w: %w", ErrFeedUnavailable, err)
	}

	metrics.MarkReadRequests.WithLabelValues("ok").Inc()
	metrics.NotificationsMarked.Add(float64(marked))
	return marked, nil
}

func (b *FeedBuilder) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.opts.Timeout)
}
