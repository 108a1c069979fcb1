package core

// sweep.go reports imports whose batch never finished.
//
// A batch that is cancelled or crashes rolls back and leaves its import in
// Mapping. The sweep lists such imports on a ticker and logs them; it never
// changes their status, so an operator can inspect and re-process them.

import (
	"context"
	"log/slog"
	"time"
)

// SweepConfig controls the stale import sweep.
type SweepConfig struct {
	Interval   time.Duration // how often to run (default: 15m)
	StaleAfter time.Duration // age in Mapping before an import is reported (default: 1h)
}

func (c SweepConfig) withDefaults() SweepConfig {
	if c.Interval <= 0 {
		c.Interval = 15 * time.Minute
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = time.Hour
	}
	return c
}

// RunStaleSweep runs SweepStale immediately and then every Interval until
// ctx is cancelled.
func RunStaleSweep(ctx context.Context, store Store, cfg SweepConfig) {
	cfg = cfg.withDefaults()
	slog.Info("stale import sweep started",
		"interval", cfg.Interval.String(),
		"stale_after", cfg.StaleAfter.String(),
	)

	SweepStale(ctx, store, cfg.StaleAfter, time.Now())

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stale import sweep stopped")
			return
		case now := <-ticker.C:
			SweepStale(ctx, store, cfg.StaleAfter, now)
		}
	}
}

// SweepStale logs every import still in Mapping that last changed before
// now-staleAfter and returns them.
func SweepStale(ctx context.Context, store Store, staleAfter time.Duration, now time.Time) []Import {
	stale, err := store.ListStaleImports(ctx, StatusMapping, now.Add(-staleAfter))
	if err != nil {
		slog.Error("stale import sweep failed", "error", err)
		return nil
	}

	for _, imp := range stale {
		slog.Warn("import stuck in mapping",
			"import_id", imp.ID.String(),
			"filename", imp.Filename,
			"since", imp.StatusChangedAt.Format(time.RFC3339),
		)
	}
	if len(stale) > 0 {
		slog.Info("stale import sweep completed", "stale_imports", len(stale))
	}
	return stale
}
