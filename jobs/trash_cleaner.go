package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"nimbusdrive/models"
	"nimbusdrive/services"
)

// TrashCleaner periodically purges trash entries past their retention
// window.
type TrashCleaner struct {
	trash    *services.TrashService
	interval time.Duration
	logger   *zap.SugaredLogger
}

func NewTrashCleaner(trash *services.TrashService, interval time.Duration, logger *zap.SugaredLogger) *TrashCleaner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &TrashCleaner{trash: trash, interval: interval, logger: logger}
}

// Run sweeps immediately and then on every tick until the context is
// cancelled. A cancelled context also aborts an in-flight sweep between
// nodes.
func (tc *TrashCleaner) Run(ctx context.Context) {
	tc.logger.Infow("trash cleaner started", "interval", tc.interval)

	tc.sweep(ctx)

	ticker := time.NewTicker(tc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			tc.logger.Infow("trash cleaner stopped")
			return
		case <-ticker.C:
			tc.sweep(ctx)
		}
	}
}

func (tc *TrashCleaner) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-models.TrashRetention)

	purged, err := tc.trash.SweepExpired(ctx, cutoff)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		tc.logger.Errorw("trash sweep failed", "purged", purged, "error", err)
		return
	}
	if purged > 0 {
		tc.logger.Infow("trash sweep finished", "purged", purged, "cutoff", cutoff)
	}
}
