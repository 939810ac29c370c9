// Package ratelimit bounds how often one client may start expensive work,
// such as a full analysis that submits two remote search jobs.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one admission check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is set only when the request was refused.
	RetryAfter time.Duration
}

// Store counts requests per key over a sliding window.
type Store interface {
	// AllowN admits cost units for key when they fit within limit over the
	// trailing window, and records them only when admitted.
	AllowN(ctx context.Context, key string, cost, limit int, window time.Duration) (Result, error)
}
