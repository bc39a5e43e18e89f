package ratelimit

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for throttling.
var (
	throttleWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gathercontent_throttle_waits_total",
		Help: "Total number of times a request had to wait for window capacity",
	})

	throttleWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gathercontent_throttle_wait_seconds",
		Help:    "Time spent queued in the throttle before admission",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60},
	})
)

// Throttle admits calls at no more than Policy.Limit per Policy.Interval.
// Waiting callers are admitted one at a time in arrival order.
type Throttle struct {
	policy Policy
	store  WindowStore
	clock  Clock
	logger zerolog.Logger

	// turn has capacity 1; holding it means "my admission is being decided".
	turn chan struct{}
}

// NewThrottle creates a throttle. A nil store or clock selects the
// in-memory window and the real clock.
func NewThrottle(policy Policy, store WindowStore, clock Clock, logger zerolog.Logger) *Throttle {
	if store == nil {
		store = NewMemoryWindow()
	}
	if clock == nil {
		clock = RealClock()
	}
	return &Throttle{
		policy: policy,
		store:  store,
		clock:  clock,
		logger: logger,
		turn:   make(chan struct{}, 1),
	}
}

// Policy returns the configured ceiling.
func (t *Throttle) Policy() Policy {
	return t.policy
}

// Wait blocks until the call may proceed or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	start := t.clock.Now()

	select {
	case t.turn <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-t.turn }()

	waited := false
	for {
		wait, err := t.store.Reserve(ctx, t.clock.Now(), t.policy)
		if err != nil {
			return fmt.Errorf("reserve throttle slot: %w", err)
		}
		if wait <= 0 {
			break
		}

		if !waited {
			throttleWaitsTotal.Inc()
			waited = true
		}
		t.logger.Debug().
			Dur("wait", wait).
			Int("limit", t.policy.Limit).
			Dur("interval", t.policy.Interval).
			Msg("Throttle window full, waiting")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.clock.After(wait):
		}
	}

	if waited {
		elapsed := t.clock.Now().Sub(start)
		throttleWaitSeconds.Observe(elapsed.Seconds())
		if elapsed.Seconds() >= 1 {
			t.logger.Warn().Dur("duration", elapsed).Msg("Request delayed by throttle")
		}
	}

	return nil
}
