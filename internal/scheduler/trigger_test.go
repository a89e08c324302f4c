package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"MacroPulse/internal/domain/models"
)

func TestFireCoalescesConcurrentCallers(t *testing.T) {
	var runs int32
	release := make(chan struct{})
	started := make(chan struct{})

	tr := NewTrigger(func(ctx context.Context, trigger string) (*models.Snapshot, error) {
		atomic.AddInt32(&runs, 1)
		close(started)
		<-release
		return &models.Snapshot{Timestamp: time.Unix(42, 0)}, nil
	})

	var wg sync.WaitGroup
	results := make([]*models.Snapshot, 5)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = tr.Fire(context.Background(), "scheduled")
	}()
	<-started

	for i := 1; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = tr.Fire(context.Background(), "manual")
		}(i)
	}
	// Give the joiners time to attach before the run completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&runs); got != 1 {
		t.Fatalf("expected 1 run, got %d", got)
	}
	for i, snap := range results {
		if snap == nil || snap.Timestamp.Unix() != 42 {
			t.Fatalf("caller %d got wrong snapshot %+v", i, snap)
		}
	}
}

func TestFireRunsAgainAfterCompletion(t *testing.T) {
	var runs int32
	tr := NewTrigger(func(ctx context.Context, trigger string) (*models.Snapshot, error) {
		atomic.AddInt32(&runs, 1)
		return &models.Snapshot{}, nil
	})

	for i := 0; i < 3; i++ {
		if _, err := tr.Fire(context.Background(), "manual"); err != nil {
			t.Fatalf("fire %d: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&runs); got != 3 {
		t.Fatalf("expected 3 runs, got %d", got)
	}
}

func TestFireJoinRespectsContext(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	tr := NewTrigger(func(ctx context.Context, trigger string) (*models.Snapshot, error) {
		close(started)
		<-release
		return &models.Snapshot{}, nil
	})

	go tr.Fire(context.Background(), "scheduled")
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.Fire(ctx, "manual"); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	close(release)
}

func TestFireRunSurvivesStarterCancel(t *testing.T) {
	var runs int32
	started := make(chan struct{})
	release := make(chan struct{})
	runErr := make(chan error, 1)
	tr := NewTrigger(func(ctx context.Context, trigger string) (*models.Snapshot, error) {
		if atomic.AddInt32(&runs, 1) == 1 {
			close(started)
		}
		<-release
		runErr <- ctx.Err()
		return &models.Snapshot{Timestamp: time.Unix(7, 0)}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	fireErr := make(chan error, 1)
	go func() {
		_, err := tr.Fire(ctx, "manual")
		fireErr <- err
	}()
	<-started

	cancel()
	if err := <-fireErr; err != context.Canceled {
		t.Fatalf("expected starter to stop waiting, got %v", err)
	}

	close(release)
	if err := <-runErr; err != nil {
		t.Fatalf("starter cancel must not reach the run, got %v", err)
	}

	// The completed run releases the slot for the next trigger.
	snap, err := tr.Fire(context.Background(), "manual")
	if err != nil || snap == nil || snap.Timestamp.Unix() != 7 {
		t.Fatalf("unexpected follow-up result %+v err=%v", snap, err)
	}
}
