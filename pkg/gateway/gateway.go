// Package gateway is the single admission point for outbound GatherContent
// calls. It throttles every attempt through a shared window and retries
// transient failures with jittered exponential backoff.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Sternrassler/gathercontent-resolver/pkg/logging"
	"github.com/Sternrassler/gathercontent-resolver/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for gateway operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gathercontent_requests_total",
		Help: "Total GatherContent requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gathercontent_request_duration_seconds",
		Help:    "GatherContent request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gathercontent_errors_total",
		Help: "Total GatherContent errors by class",
	}, []string{"class"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gathercontent_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gathercontent_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gathercontent_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// Operation performs exactly one HTTP call.
type Operation func(ctx context.Context) (*http.Response, error)

// Config holds the gateway configuration.
type Config struct {
	// Policy is the request-rate ceiling shared by every call.
	Policy ratelimit.Policy

	// Retry controls how transient failures are repeated.
	Retry RetryConfig

	// Store holds the throttle window. Nil selects an in-memory window.
	Store ratelimit.WindowStore

	// Clock drives throttle and backoff waits. Nil selects the real clock.
	Clock ratelimit.Clock
}

// DefaultConfig returns the GatherContent defaults: 250 requests per 15s,
// two retries, in-memory window.
func DefaultConfig() Config {
	return Config{
		Policy: ratelimit.DefaultPolicy(),
		Retry:  DefaultRetryConfig(),
	}
}

// Gateway throttles and retries outbound calls. It is safe for concurrent
// use and is meant to be shared by every client talking to one account.
type Gateway struct {
	throttle *ratelimit.Throttle
	retry    RetryConfig
	clock    ratelimit.Clock
	logger   zerolog.Logger
}

// New creates a gateway.
func New(cfg Config) (*Gateway, error) {
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if cfg.Retry.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0 (got %d)", cfg.Retry.Retries)
	}
	if cfg.Clock == nil {
		cfg.Clock = ratelimit.RealClock()
	}

	logger := logging.NewLogger("gateway")

	return &Gateway{
		throttle: ratelimit.NewThrottle(cfg.Policy, cfg.Store, cfg.Clock, logger),
		retry:    cfg.Retry,
		clock:    cfg.Clock,
		logger:   logger,
	}, nil
}

// Policy returns the throttle ceiling this gateway enforces.
func (g *Gateway) Policy() ratelimit.Policy {
	return g.throttle.Policy()
}

// Execute runs op through the throttle, retrying transient failures.
//
// The response body is never read on success or on a non-retryable status;
// the caller owns it. When a retryable status (5xx, 429) is still returned
// by the final attempt, that last response is handed back unread so the
// caller can report the upstream message. Failures without any response
// end in a *TransportError.
func (g *Gateway) Execute(ctx context.Context, endpoint string, op Operation) (*http.Response, error) {
	attempts := g.retry.Retries + 1
	backoff := g.retry.InitialBackoff

	for attempt := 1; ; attempt++ {
		if err := g.throttle.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, &TransportError{Endpoint: endpoint, Class: ErrorClassNetwork, Attempts: attempt - 1,
					Err: fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())}
			}
			return nil, fmt.Errorf("throttle: %w", err)
		}

		g.logger.Debug().
			Str("endpoint", endpoint).
			Int("attempt", attempt).
			Msg("Executing GatherContent request")

		start := g.clock.Now()
		resp, err := op(ctx)
		if resp == nil && err == nil {
			err = errors.New("operation returned no response")
		}
		requestDuration.WithLabelValues(endpoint).Observe(g.clock.Now().Sub(start).Seconds())

		class := classify(resp, err)
		if class == "" {
			requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
			if attempt > 1 {
				g.logger.Info().
					Str("endpoint", endpoint).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return resp, nil
		}

		errorsTotal.WithLabelValues(string(class)).Inc()
		if err != nil {
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		} else {
			requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		}

		if err != nil && ctx.Err() != nil {
			return nil, &TransportError{Endpoint: endpoint, Class: class, Attempts: attempt,
				Err: fmt.Errorf("%w: %w", ErrContextCancelled, err)}
		}

		if !shouldRetry(class) {
			return resp, nil
		}

		if attempt >= attempts {
			retryExhaustedTotal.WithLabelValues(string(class)).Inc()
			event := g.logger.Error().
				Str("endpoint", endpoint).
				Str("error_class", string(class)).
				Int("attempts", attempt)
			if err != nil {
				event.Err(err).Msg("Retry attempts exhausted")
				return nil, &TransportError{Endpoint: endpoint, Class: class, Attempts: attempt,
					Err: fmt.Errorf("%w: %w", ErrRetryExhausted, err)}
			}
			event.Int("status", resp.StatusCode).Msg("Retry attempts exhausted")
			return resp, nil
		}

		if resp != nil {
			drainAndClose(resp)
		}

		wait := jitter(backoffForClass(backoff, class))
		retriesTotal.WithLabelValues(string(class)).Inc()
		retryBackoffSeconds.WithLabelValues(string(class)).Observe(wait.Seconds())

		logEvent := g.logger.Warn().
			Str("endpoint", endpoint).
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("backoff", wait)
		if err != nil {
			logEvent = logEvent.Err(err)
		} else {
			logEvent = logEvent.Int("status", resp.StatusCode)
		}
		logEvent.Msg("Retrying request after backoff")

		select {
		case <-ctx.Done():
			return nil, &TransportError{Endpoint: endpoint, Class: class, Attempts: attempt,
				Err: fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())}
		case <-g.clock.After(wait):
		}

		backoff = g.retry.nextBackoff(backoff)
	}
}

// classify categorizes the outcome of one attempt. An empty class means success.
func classify(resp *http.Response, err error) ErrorClass {
	if err != nil || resp == nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// drainAndClose discards a response that is about to be retried so the
// connection can be reused.
func drainAndClose(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
