package core

import (
	"context"
	"time"
)

// TimeProvider abstracts time operations for the domain. Every deadline the
// engine persists (payout schedules, auto-release eligibility, estimated
// delivery) is computed through this interface so tests can pin the clock.
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	Until(t time.Time) time.Duration
	WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc)
}
