package ratelimit

import (
	"fmt"
	"time"
)

// Policy is a request-rate ceiling: at most Limit admissions in any Interval.
type Policy struct {
	Limit    int           `yaml:"limit"`
	Interval time.Duration `yaml:"interval"`
}

// DefaultPolicy returns the documented GatherContent ceiling of 250
// requests per 15 seconds.
func DefaultPolicy() Policy {
	return Policy{
		Limit:    250,
		Interval: 15 * time.Second,
	}
}

// Validate reports whether the policy can admit anything at all.
func (p Policy) Validate() error {
	if p.Limit <= 0 {
		return fmt.Errorf("throttle limit must be > 0 (got %d)", p.Limit)
	}
	if p.Interval <= 0 {
		return fmt.Errorf("throttle interval must be > 0 (got %s)", p.Interval)
	}
	return nil
}
