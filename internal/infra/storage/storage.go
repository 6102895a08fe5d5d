// Package storage holds the output sinks that finished fetch runs are
// written to.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/biofetch/internal/core/domain"
	"github.com/vietddude/biofetch/internal/fetch/batch"
)

// RunMeta describes the run that produced a table.
type RunMeta struct {
	RunID             string
	Backend           string
	BatchSize         int
	TotalBatches      int
	SuccessfulBatches int
	FailedBatches     int
	TotalRows         int
	Duration          time.Duration
	FailureClasses    map[string]int
	FailedIDs         []string
}

// MetaFromSummary converts a run summary.
func MetaFromSummary(s domain.RunSummary) RunMeta {
	classes := make(map[string]int, len(s.FailureClasses))
	for class, n := range s.FailureClasses {
		classes[class.String()] = n
	}
	return RunMeta{
		RunID:             s.RunID,
		Backend:           s.Backend,
		BatchSize:         s.BatchSize,
		TotalBatches:      s.TotalBatches,
		SuccessfulBatches: s.SuccessfulBatches,
		FailedBatches:     s.FailedBatches,
		TotalRows:         s.TotalRows,
		Duration:          s.Duration,
		FailureClasses:    classes,
		FailedIDs:         s.FailedIDs(),
	}
}

// Table is a finished result set.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
	Run     RunMeta
}

// FromRun builds a table from a fetch run.
func FromRun[R batch.Row](name string, columns []string, run batch.Run[R]) Table {
	return Table{
		Name:    name,
		Columns: columns,
		Rows:    run.Records(),
		Run:     MetaFromSummary(run.Summary),
	}
}

// Sink writes finished tables somewhere.
type Sink interface {
	Write(ctx context.Context, t Table) error
	Close() error
}

// Multi writes every table to all of its sinks.
type Multi []Sink

func (m Multi) Write(ctx context.Context, t Table) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
