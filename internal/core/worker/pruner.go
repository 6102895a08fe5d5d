package worker

import (
	"context"
	"log/slog"
	"time"
)

// RunStore is the part of the run store the pruner needs.
type RunStore interface {
	DeleteRunsOlderThan(ctx context.Context, t time.Time) (int64, error)
}

// Pruner deletes stored runs past their retention period.
type Pruner struct {
	store     RunStore
	retention time.Duration
	log       *slog.Logger
	now       func() time.Time
}

// NewPruner creates a new Pruner worker.
func NewPruner(store RunStore, retention time.Duration, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:     store,
		retention: retention,
		log:       logger.With("component", "pruner"),
		now:       time.Now,
	}
}

// Interval is how often the pruner runs: a tenth of the retention period,
// clamped to [1m, 1h].
func (p *Pruner) Interval() time.Duration {
	interval := min(p.retention/10, time.Hour)
	return max(interval, time.Minute)
}

// Start runs the pruner loop until ctx is done.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	p.Prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Prune deletes once and returns how many runs went away.
func (p *Pruner) Prune(ctx context.Context) int64 {
	threshold := p.now().Add(-p.retention)

	n, err := p.store.DeleteRunsOlderThan(ctx, threshold)
	if err != nil {
		p.log.Error("Failed to prune runs", "error", err)
		return 0
	}
	if n > 0 {
		p.log.Info("Pruned old runs", "count", n, "before", threshold.Format(time.RFC3339))
	}
	return n
}
