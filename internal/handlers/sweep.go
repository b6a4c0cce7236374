package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/brickify/internal/session"
)

// Sweep removes sessions that have been idle for longer than ttl
func (h *Handler) Sweep(now time.Time, ttl time.Duration) int {
	removed := h.sessions.DeleteFunc(func(_ string, sess *session.Orchestrator) bool {
		return sess.IdleFor(now) > ttl
	})
	if len(removed) == 0 {
		return 0
	}

	h.metrics.SetSessionsActive(h.sessions.Len())
	slog.Info("Removed idle sessions", "count", len(removed), "ttl", ttl, "session_ids", removed)
	return len(removed)
}

// StartSweeper runs Sweep every interval until ctx is done. A ttl <= 0
// keeps sessions until they are deleted.
func (h *Handler) StartSweeper(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				h.Sweep(now, ttl)
			}
		}
	}()
}
