package gateway

import (
	"math/rand/v2"
	"time"
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// Retries is the number of extra attempts after the first one.
	Retries int `yaml:"retries"`

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration `yaml:"initial_backoff"`

	// MaxBackoff caps the exponential growth.
	MaxBackoff time.Duration `yaml:"max_backoff"`

	// BackoffMultiplier is the growth factor between retries.
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
}

// DefaultRetryConfig returns the default retry configuration: two retries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Retries:           2,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// backoffForClass scales the base backoff by error class. Rate limit
// responses get a longer pause than server errors.
func backoffForClass(base time.Duration, class ErrorClass) time.Duration {
	switch class {
	case ErrorClassRateLimit:
		return base * 4
	case ErrorClassNetwork:
		return base * 2
	default:
		return base
	}
}

// jitter returns d scaled by a random factor in [0.8, 1.2).
func jitter(d time.Duration) time.Duration {
	return time.Duration(float64(d) * (0.8 + rand.Float64()*0.4))
}

// nextBackoff grows the backoff exponentially up to the configured cap.
func (c RetryConfig) nextBackoff(current time.Duration) time.Duration {
	multiplier := c.BackoffMultiplier
	if multiplier < 1 {
		multiplier = 1
	}
	next := time.Duration(float64(current) * multiplier)
	if c.MaxBackoff > 0 && next > c.MaxBackoff {
		next = c.MaxBackoff
	}
	return next
}
