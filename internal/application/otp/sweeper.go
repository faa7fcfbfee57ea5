package otp

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically removes expired codes so storage stays bounded even
// for codes that are never submitted.
type Sweeper struct {
	svc      Service
	interval time.Duration
}

func NewSweeper(svc Service, interval time.Duration) *Sweeper {
	return &Sweeper{svc: svc, interval: interval}
}

// Run blocks until ctx is cancelled. A non-positive interval disables it.
func (w *Sweeper) Run(ctx context.Context) {
	if w == nil || w.svc == nil || w.interval <= 0 {
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Sweeper) sweep(ctx context.Context) {
	n, err := w.svc.CleanupExpired(ctx)
	if err != nil {
		slog.Warn("otp sweep failed", "err", err)
		return
	}
	if n > 0 {
		slog.Info("otp sweep removed expired codes", "count", n)
	}
}
