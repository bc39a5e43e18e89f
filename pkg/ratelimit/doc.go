// Package ratelimit implements client-side admission control for the
// GatherContent API.
//
// GatherContent allows 250 requests every 15 seconds per account. A Throttle
// enforces a sliding-log window of Policy.Limit admissions per
// Policy.Interval: a call is admitted only when fewer than Limit admissions
// lie in the half-open window (now-Interval, now]. Excess callers are queued
// and delayed, never dropped.
//
// Window state lives behind the WindowStore interface:
//
//   - MemoryWindow keeps timestamps in-process.
//   - RedisWindow keeps them in a Redis sorted set so several processes
//     sharing one API account share one ceiling.
//
// Example:
//
//	throttle := ratelimit.NewThrottle(ratelimit.DefaultPolicy(),
//		ratelimit.NewMemoryWindow(), ratelimit.RealClock(), logger)
//	if err := throttle.Wait(ctx); err != nil {
//		return err
//	}
//	// perform one request
package ratelimit
