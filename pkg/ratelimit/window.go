package ratelimit

import (
	"context"
	"sync"
	"time"
)

// WindowStore records admissions and decides whether another one fits.
type WindowStore interface {
	// Reserve records an admission at now and returns 0 when fewer than
	// policy.Limit admissions lie in (now-policy.Interval, now]. Otherwise
	// nothing is recorded and the returned duration is how long until the
	// oldest admission leaves the window.
	Reserve(ctx context.Context, now time.Time, policy Policy) (time.Duration, error)
}

// MemoryWindow is an in-process WindowStore.
type MemoryWindow struct {
	mu     sync.Mutex
	stamps []time.Time
}

// NewMemoryWindow creates an empty in-process window.
func NewMemoryWindow() *MemoryWindow {
	return &MemoryWindow{}
}

// Reserve implements WindowStore.
func (w *MemoryWindow) Reserve(_ context.Context, now time.Time, policy Policy) (time.Duration, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-policy.Interval)
	expired := 0
	for expired < len(w.stamps) && !w.stamps[expired].After(cutoff) {
		expired++
	}
	if expired > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[expired:]...)
	}

	if len(w.stamps) < policy.Limit {
		w.stamps = append(w.stamps, now)
		return 0, nil
	}

	return w.stamps[0].Add(policy.Interval).Sub(now), nil
}

// Len returns the number of admissions currently remembered.
func (w *MemoryWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.stamps)
}
