package usecase

import (
	"context"
	"time"

	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/domain/repository"
	xlogger "MacroPulse/pkg/logger"
)

// Triggers reported to metrics and logs.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
	TriggerStartup   = "startup"
)

// Refresher runs one full refresh cycle: aggregate, publish to the store,
// notify subscribers. The published snapshot is never mutated afterwards.
type Refresher struct {
	agg       *Aggregator
	store     repository.SnapshotStore
	broadcast repository.Broadcaster
	notices   repository.NoticePublisher // optional
	metrics   repository.Metrics
	logger    *xlogger.Logger
	next      func(after time.Time) time.Time
	timeout   time.Duration
}

func NewRefresher(
	agg *Aggregator,
	store repository.SnapshotStore,
	broadcast repository.Broadcaster,
	notices repository.NoticePublisher,
	metrics repository.Metrics,
	logger *xlogger.Logger,
	next func(after time.Time) time.Time,
	timeout time.Duration,
) *Refresher {
	return &Refresher{
		agg:       agg,
		store:     store,
		broadcast: broadcast,
		notices:   notices,
		metrics:   metrics,
		logger:    logger,
		next:      next,
		timeout:   timeout,
	}
}

// Run executes one refresh attempt. Section-level failures are embedded in
// the snapshot; only a store write failure fails the run as a whole.
func (r *Refresher) Run(ctx context.Context, trigger string) (*models.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	snap := r.agg.Aggregate(ctx)
	snap.NextUpdate = r.next(snap.Timestamp)

	if err := r.store.Replace(snap); err != nil {
		r.metrics.RecordRefresh(trigger, "error")
		r.logger.Error("snapshot publish failed", xlogger.String("trigger", trigger), xlogger.Error(err))
		r.notify(ctx, &models.UpdateNotice{Status: models.NoticeError, Message: err.Error()})
		return nil, err
	}

	r.metrics.RecordRefresh(trigger, "success")
	r.metrics.RecordLatency("refresh", time.Since(started).Seconds())
	r.logger.Info("snapshot published",
		xlogger.String("trigger", trigger),
		xlogger.Duration("took", time.Since(started)),
		xlogger.Any("next_update", snap.NextUpdate),
	)
	r.notify(ctx, &models.UpdateNotice{Status: models.NoticeSuccess})
	return snap, nil
}

func (r *Refresher) notify(ctx context.Context, n *models.UpdateNotice) {
	r.broadcast.Broadcast(n)
	if r.notices == nil {
		return
	}
	if err := r.notices.Publish(ctx, n); err != nil {
		r.logger.Warn("notice publish failed", xlogger.Error(err))
	}
}
