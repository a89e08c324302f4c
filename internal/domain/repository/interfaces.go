package repository

import (
	"context"

	"MacroPulse/internal/domain/models"
)

// QuoteSource provides price history for a symbol in two granularities:
// Daily covers one year of daily closes (YTD / drawdown math), Hourly covers
// one day of hourly closes (short-window change / sparkline).
type QuoteSource interface {
	Daily(ctx context.Context, symbol string) (*models.PriceHistory, error)
	Hourly(ctx context.Context, symbol string) (*models.PriceHistory, error)
}

// NewsSource fetches current items from one feed. A returned error covers
// the whole feed; malformed individual entries are skipped inside the
// implementation.
type NewsSource interface {
	Fetch(ctx context.Context, name, url string) ([]*models.NewsItem, error)
}

// SocialSource fetches recent posts for one account handle.
type SocialSource interface {
	Fetch(ctx context.Context, account string) ([]*models.SocialPost, error)
}

// SnapshotStore keeps the latest published snapshot. Replace swaps the
// current snapshot and persists it; Current reports ok=false before the
// first successful refresh of a cold start.
type SnapshotStore interface {
	Current() (*models.Snapshot, bool)
	Replace(snap *models.Snapshot) error
}

// Broadcaster pushes a refresh notice to all connected subscribers.
type Broadcaster interface {
	Broadcast(n *models.UpdateNotice)
}

// NoticePublisher mirrors refresh notices to an external channel.
type NoticePublisher interface {
	Publish(ctx context.Context, n *models.UpdateNotice) error
	Close() error
}

type Metrics interface {
	RecordRefresh(trigger, status string)
	RecordFetchError(source string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	SetSubscribers(n int)
}
