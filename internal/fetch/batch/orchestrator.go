package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/biofetch/internal/core/domain"
	"github.com/vietddude/biofetch/internal/fetch/metrics"
	"github.com/vietddude/biofetch/internal/infra/rpc/retry"
)

// Config configures the orchestrator.
type Config struct {
	// InterBatchDelay is the pause between two batches. It is skipped
	// after the last batch.
	InterBatchDelay time.Duration
	Logger          *slog.Logger
}

// DefaultConfig returns a 2s courtesy delay between batches.
func DefaultConfig() Config {
	return Config{InterBatchDelay: 2 * time.Second}
}

// Orchestrator processes batches strictly one after another.
type Orchestrator[R Row] struct {
	backend Backend[R]
	sender  Sender
	delay   time.Duration
	logger  *slog.Logger
	onBatch func(Result[R])
}

// New creates an orchestrator for backend.
func New[R Row](backend Backend[R], sender Sender, cfg Config) *Orchestrator[R] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator[R]{
		backend: backend,
		sender:  sender,
		delay:   cfg.InterBatchDelay,
		logger:  logger.With("backend", backend.Name()),
	}
}

// SetOnBatch registers a callback invoked after every batch, in order.
func (o *Orchestrator[R]) SetOnBatch(fn func(Result[R])) {
	o.onBatch = fn
}

// Fetch retrieves ids in batches of batchSize. Failed batches contribute no
// rows and are reported in the summary; they never abort the run.
//
// The returned error is ErrInvalidBatchSize or the context error. On
// cancellation the rows gathered so far are still returned.
func (o *Orchestrator[R]) Fetch(ctx context.Context, ids []string, batchSize int) (Run[R], error) {
	start := time.Now()
	summary := domain.NewRunSummary(uuid.NewString(), o.backend.Name(), batchSize)

	batches, err := Partition(ids, batchSize)
	if err != nil {
		return Run[R]{Summary: summary}, fmt.Errorf("%w: got %d", err, batchSize)
	}
	summary.TotalBatches = len(batches)
	metrics.BatchSize.WithLabelValues(o.backend.Name()).Set(float64(batchSize))

	log := o.logger.With("run_id", summary.RunID)
	if len(batches) > 0 {
		log.Info("Starting fetch", "ids", len(ids), "batch_size", batchSize, "batches", len(batches))
	}

	var rows []R
	for i, batchIDs := range batches {
		if err := ctx.Err(); err != nil {
			return o.finish(log, rows, summary, start), err
		}

		res := o.fetchBatch(ctx, log, i, len(batches), batchIDs)
		if res.Succeeded {
			rows = append(rows, res.Rows...)
			summary.RecordSuccess(len(res.Rows))
			metrics.BatchesTotal.WithLabelValues(o.backend.Name(), "success").Inc()
			metrics.RowsTotal.WithLabelValues(o.backend.Name()).Add(float64(len(res.Rows)))
		} else {
			summary.RecordFailure(*res.Failure)
			metrics.BatchesTotal.WithLabelValues(o.backend.Name(), "failed").Inc()
		}

		log.Info("Progress",
			"batch", i+1,
			"total", len(batches),
			"successful", summary.SuccessfulBatches,
			"failed", summary.FailedBatches,
			"rows", summary.TotalRows,
		)

		if o.onBatch != nil {
			o.onBatch(res)
		}

		if err := ctx.Err(); err != nil {
			return o.finish(log, rows, summary, start), err
		}

		if i < len(batches)-1 && o.delay > 0 {
			timer := time.NewTimer(o.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return o.finish(log, rows, summary, start), ctx.Err()
			case <-timer.C:
			}
		}
	}

	return o.finish(log, rows, summary, start), nil
}

func (o *Orchestrator[R]) fetchBatch(ctx context.Context, log *slog.Logger, index, total int, ids []string) Result[R] {
	res := Result[R]{Index: index, Total: total, IDs: ids}
	log = log.With("batch", index+1, "total", total)

	fail := func(stage domain.FailureStage, class domain.ErrorClass, attempts int, err error) Result[R] {
		res.Failure = &domain.FailedBatch{
			Index:    index,
			IDs:      ids,
			Class:    class,
			Stage:    stage,
			Error:    err.Error(),
			Attempts: attempts,
		}
		log.Warn("Batch failed", "stage", stage, "class", class.String(), "attempts", attempts, "error", err)
		return res
	}

	op, err := o.backend.BuildOperation(ids)
	if err != nil {
		return fail(domain.FailureStageBuild, domain.ErrorClassMalformedQuery, 0, err)
	}

	body, err := o.sender.Send(ctx, op)
	if err != nil {
		class, attempts := domain.ErrorClassUnknown, 1
		var failure *retry.Failure
		if errors.As(err, &failure) {
			class, attempts = failure.Class, failure.Attempts
		}
		return fail(domain.FailureStageTransport, class, attempts, err)
	}

	rows, err := o.backend.Normalize(body)
	if err != nil {
		return fail(domain.FailureStageNormalize, domain.ErrorClassUnknown, 1, err)
	}

	res.Rows = rows
	res.Succeeded = true
	log.Debug("Batch succeeded", "ids", len(ids), "rows", len(rows))
	return res
}

func (o *Orchestrator[R]) finish(log *slog.Logger, rows []R, summary domain.RunSummary, start time.Time) Run[R] {
	summary.Duration = time.Since(start)
	if summary.TotalBatches > 0 {
		log.Info("Fetch completed",
			"successful_batches", summary.SuccessfulBatches,
			"failed_batches", summary.FailedBatches,
			"total_rows", summary.TotalRows,
			"duration", summary.Duration.Round(time.Millisecond),
		)
	}
	return Run[R]{Rows: rows, Summary: summary}
}
