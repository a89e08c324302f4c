package scheduler

import (
	"context"
	"sync"

	"MacroPulse/internal/domain/models"
)

// RunFunc executes one refresh attempt.
type RunFunc func(ctx context.Context, trigger string) (*models.Snapshot, error)

// Trigger serializes refresh runs. A caller that fires while a run is already
// in flight attaches to that run and receives its result; it never starts a
// second concurrent run.
type Trigger struct {
	run RunFunc

	mu       sync.Mutex
	inflight *flight
}

type flight struct {
	done chan struct{}
	snap *models.Snapshot
	err  error
}

func NewTrigger(run RunFunc) *Trigger {
	return &Trigger{run: run}
}

// Fire runs a refresh or joins the one in flight. The run itself executes
// under a detached context so a caller going away cannot cancel it for
// everyone attached; ctx bounds only this caller's wait. There is no way to
// cancel an in-flight run.
func (t *Trigger) Fire(ctx context.Context, trigger string) (*models.Snapshot, error) {
	t.mu.Lock()
	f := t.inflight
	if f == nil {
		f = &flight{done: make(chan struct{})}
		t.inflight = f
		go func() {
			f.snap, f.err = t.run(context.Background(), trigger)
			t.mu.Lock()
			t.inflight = nil
			t.mu.Unlock()
			close(f.done)
		}()
	}
	t.mu.Unlock()

	select {
	case <-f.done:
		return f.snap, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
