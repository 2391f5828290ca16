// Package worker holds background loops started by cmd/server.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// SessionPurger removes expired sessions.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// RunSessionSweeper purges expired sessions every interval until ctx is done.
// A non-positive interval disables the sweeper.
func RunSessionSweeper(ctx context.Context, p SessionPurger, interval time.Duration) {
	if interval <= 0 {
		slog.Info("session sweeper disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(ctx, p)
		}
	}
}

func sweep(ctx context.Context, p SessionPurger) {
	n, err := p.PurgeExpiredSessions(ctx)
	if err != nil {
		slog.Warn("purge expired sessions failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("purged expired sessions", "count", n)
	}
}
