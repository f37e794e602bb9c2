package client

import (
	"context"
	"time"
)

// Run periodically calls Refresh until ctx is cancelled, mirroring the
// Python client's _update_loop (sleep, refresh, repeat) with
// context.Context cancellation in place of asyncio.CancelledError.
// Cancellation is graceful: Run returns as soon as ctx is done, while
// waiting between ticks, and leaves the session's existing public data in
// place.
func (s *Session) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.log.Error("periodic refresh failed", "error", err)
			}
		}
	}
}
