package ratelimit

import (
	"context"
	"testing"
	"time"
)

// admit drives a store the way Throttle does: on a refusal it jumps the
// clock forward by the returned wait and asks again.
func admit(t *testing.T, store WindowStore, policy Policy, calls int, start time.Time) []time.Time {
	t.Helper()

	ctx := context.Background()
	now := start
	admitted := make([]time.Time, 0, calls)
	for i := 0; i < calls; i++ {
		for {
			wait, err := store.Reserve(ctx, now, policy)
			if err != nil {
				t.Fatalf("Reserve() error = %v", err)
			}
			if wait <= 0 {
				break
			}
			now = now.Add(wait)
		}
		admitted = append(admitted, now)
	}
	return admitted
}

// maxInWindow returns the largest number of admissions in any half-open
// window (t-interval, t].
func maxInWindow(admitted []time.Time, interval time.Duration) int {
	maxCount := 0
	lo := 0
	for hi := range admitted {
		for !admitted[lo].After(admitted[hi].Add(-interval)) {
			lo++
		}
		if n := hi - lo + 1; n > maxCount {
			maxCount = n
		}
	}
	return maxCount
}

func TestMemoryWindow_DefaultPolicyCeiling(t *testing.T) {
	policy := DefaultPolicy()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	admitted := admit(t, NewMemoryWindow(), policy, 300, start)

	if got := maxInWindow(admitted, policy.Interval); got > policy.Limit {
		t.Errorf("max admissions in a %s window = %d, want <= %d", policy.Interval, got, policy.Limit)
	}

	// The first 250 go through immediately, the rest wait a full interval.
	if !admitted[249].Equal(start) {
		t.Errorf("admission 250 at %v, want %v", admitted[249], start)
	}
	if want := start.Add(policy.Interval); !admitted[250].Equal(want) {
		t.Errorf("admission 251 at %v, want %v", admitted[250], want)
	}
}

func TestMemoryWindow_Reserve(t *testing.T) {
	policy := Policy{Limit: 2, Interval: time.Second}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		offset   time.Duration
		wantWait time.Duration
	}{
		{name: "first admission", offset: 0, wantWait: 0},
		{name: "second admission", offset: 100 * time.Millisecond, wantWait: 0},
		{name: "window full", offset: 200 * time.Millisecond, wantWait: 800 * time.Millisecond},
		{name: "oldest still inside at boundary minus one", offset: 999 * time.Millisecond, wantWait: time.Millisecond},
		{name: "oldest leaves exactly at interval", offset: time.Second, wantWait: 0},
		{name: "full again until second admission leaves", offset: time.Second, wantWait: 100 * time.Millisecond},
	}

	window := NewMemoryWindow()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wait, err := window.Reserve(context.Background(), start.Add(tt.offset), policy)
			if err != nil {
				t.Fatalf("Reserve() error = %v", err)
			}
			if wait != tt.wantWait {
				t.Errorf("Reserve() wait = %v, want %v", wait, tt.wantWait)
			}
		})
	}

	if got := window.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{name: "default", policy: DefaultPolicy(), wantErr: false},
		{name: "zero limit", policy: Policy{Limit: 0, Interval: time.Second}, wantErr: true},
		{name: "negative interval", policy: Policy{Limit: 1, Interval: -time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.policy.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRedisWindow_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedisWindow should panic with nil redis client")
		}
	}()
	NewRedisWindow(nil, "")
}
