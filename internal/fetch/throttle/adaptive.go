package throttle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vietddude/biofetch/internal/fetch/batch"
	"github.com/vietddude/biofetch/internal/fetch/metrics"
)

var (
	// ErrBatchSizeExhausted is returned when sizing drops below the minimum
	// batch size. The run gives up with no rows.
	ErrBatchSizeExhausted = errors.New("batch size below minimum, giving up")

	// ErrAttemptsExhausted is returned when every outer attempt produced
	// zero rows.
	ErrAttemptsExhausted = errors.New("no rows after all adaptive attempts")
)

// Fetcher is the plain orchestrator contract the adaptive layer wraps.
type Fetcher[R batch.Row] interface {
	Fetch(ctx context.Context, ids []string, batchSize int) (batch.Run[R], error)
}

// Adaptive re-runs a whole fetch at smaller batch sizes when an attempt
// yields nothing. Each attempt starts over from the first id; callers that
// need partial progress should use the orchestrator directly.
type Adaptive[R batch.Row] struct {
	fetcher Fetcher[R]
	config  AdaptiveConfig
	name    string
	logger  *slog.Logger
}

// NewAdaptive wraps fetcher. name labels logs and metrics.
func NewAdaptive[R batch.Row](name string, fetcher Fetcher[R], config AdaptiveConfig, logger *slog.Logger) (*Adaptive[R], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adaptive[R]{
		fetcher: fetcher,
		config:  config,
		name:    name,
		logger:  logger.With("backend", name, "mode", "adaptive"),
	}, nil
}

// Fetch runs the adaptive loop starting from baseBatchSize. Error counters
// live only for this call.
//
// It returns the first attempt that produced rows (or, unless
// RetryEmptyResults is set, had no failed batch), ErrBatchSizeExhausted,
// ErrAttemptsExhausted or a context error.
// The returned run carries the summary of the last attempt.
func (a *Adaptive[R]) Fetch(ctx context.Context, ids []string, baseBatchSize int) (batch.Run[R], error) {
	if baseBatchSize <= 0 {
		return batch.Run[R]{}, fmt.Errorf("%w: got %d", batch.ErrInvalidBatchSize, baseBatchSize)
	}

	ctrl := NewController(a.config)
	size := ctrl.BatchSize(len(ids), baseBatchSize)
	a.logger.Info("Starting adaptive fetch", "ids", len(ids), "batch_size", size)

	var last batch.Run[R]
	for attempt := 1; attempt <= a.config.MaxAttempts; attempt++ {
		size = min(size, ctrl.BatchSize(len(ids), baseBatchSize))
		if size < a.config.MinBatchSize && size < baseBatchSize {
			a.logger.Error("Batch size too small, giving up",
				"batch_size", size, "min", a.config.MinBatchSize, "attempt", attempt)
			return batch.Run[R]{Summary: last.Summary}, fmt.Errorf("%w: %d < %d", ErrBatchSizeExhausted, size, a.config.MinBatchSize)
		}
		metrics.BatchSize.WithLabelValues(a.name).Set(float64(size))

		run, err := a.fetcher.Fetch(ctx, ids, size)
		if err != nil {
			return run, err
		}
		last = run
		ctrl.Observe(run.Summary)

		if len(run.Rows) > 0 {
			a.logger.Info("Adaptive fetch succeeded",
				"rows", len(run.Rows), "batch_size", size, "attempt", attempt)
			return run, nil
		}
		if run.Summary.FailedBatches == 0 && !a.config.RetryEmptyResults {
			// Every batch answered with an empty match set.
			return run, nil
		}

		next := ctrl.Shrink(size, run.Summary)
		a.logger.Warn("No rows, shrinking batch size",
			"attempt", attempt,
			"max", a.config.MaxAttempts,
			"batch_size", size,
			"next_batch_size", next,
			"memory_errors", ctrl.MemoryErrors(),
			"connection_errors", ctrl.ConnectionErrors(),
		)
		size = next
	}

	a.logger.Error("Adaptive fetch failed", "attempts", a.config.MaxAttempts)
	return batch.Run[R]{Summary: last.Summary}, fmt.Errorf("%w: %d attempts", ErrAttemptsExhausted, a.config.MaxAttempts)
}
