package execution

import (
	"context"
	"time"
)

// WaitUntil invokes pred every interval until it returns true, the deadline
// passes, or ctx is cancelled. It reports whether pred succeeded. pred is
// evaluated once immediately so callers never wait a full interval for an
// already-true condition.
func WaitUntil(ctx context.Context, interval time.Duration, deadline time.Time, pred func() bool) bool {
	if pred() {
		return true
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return false
		case <-ticker.C:
			if pred() {
				return true
			}
		}
	}
}

// Sleep blocks for d or until ctx is cancelled, reporting whether the full
// duration elapsed.
func Sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
