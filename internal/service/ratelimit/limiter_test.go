package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestAllowConsumesTokens(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("quotes", 3, 0) {
			t.Fatalf("expected token %d to be granted", i)
		}
	}
	if l.Allow("quotes", 3, 0) {
		t.Fatalf("expected bucket to be empty")
	}
}

func TestAllowIsolatesKeys(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0) {
		t.Fatalf("expected grant for a")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatalf("expected grant for b")
	}
	if l.Allow("a", 1, 0) {
		t.Fatalf("expected a to be exhausted")
	}
}

func TestWaitServesBurstBeyondCapacity(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	errs := make([]error, 15)
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			errs[i] = l.Wait(ctx, "chart", 10, 200)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d denied: %v", i, err)
		}
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l := New()
	if err := l.Wait(context.Background(), "slow", 1, 0.001); err != nil {
		t.Fatalf("first token: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "slow", 1, 0.001); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestWaitWithoutRefillFailsFast(t *testing.T) {
	l := New()
	if err := l.Wait(context.Background(), "fixed", 1, 0); err != nil {
		t.Fatalf("first token: %v", err)
	}
	if err := l.Wait(context.Background(), "fixed", 1, 0); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}
