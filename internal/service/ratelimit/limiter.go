package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrExhausted is returned by Wait when the bucket is empty and has no
// refill rate, so no amount of waiting could produce a token.
var ErrExhausted = errors.New("ratelimit: bucket exhausted")

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

// Limiter is a per-key token bucket.
type Limiter struct {
	mu sync.Mutex
	m  map[string]*bucket
}

func New() *Limiter { return &Limiter{m: make(map[string]*bucket)} }

// Allow returns true if one token can be consumed for key without waiting.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	ok, _ := l.reserve(key, capacity, refillPerSec)
	return ok
}

// Wait consumes one token for key, sleeping for refill when the bucket is
// empty. A burst larger than the bucket capacity is smoothed out rather than
// rejected. Returns the ctx error if ctx expires before a token is available,
// or ErrExhausted when the bucket cannot refill at all.
func (l *Limiter) Wait(ctx context.Context, key string, capacity, refillPerSec float64) error {
	for {
		ok, retry := l.reserve(key, capacity, refillPerSec)
		if ok {
			return nil
		}
		if retry < 0 {
			return ErrExhausted
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve consumes a token if one is available. Otherwise it reports how long
// until the bucket refills to one token, or a negative duration when it never
// will.
func (l *Limiter) reserve(key string, capacity, refillPerSec float64) (bool, time.Duration) {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
		l.m[key] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if b.refillRate <= 0 {
		return false, -1
	}
	return false, time.Duration((1 - b.tokens) / b.refillRate * float64(time.Second))
}
