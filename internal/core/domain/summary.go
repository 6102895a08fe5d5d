package domain

import "time"

// RunSummary tallies one bulk fetch call. It lives only for the duration of
// that call and is handed to the caller with the rows.
type RunSummary struct {
	RunID             string
	Backend           string
	BatchSize         int
	TotalBatches      int
	SuccessfulBatches int
	FailedBatches     int
	TotalRows         int
	Duration          time.Duration
	FailureClasses    map[ErrorClass]int
	Failed            []FailedBatch
}

// NewRunSummary returns an all-zero summary.
func NewRunSummary(runID, backend string, batchSize int) RunSummary {
	return RunSummary{
		RunID:          runID,
		Backend:        backend,
		BatchSize:      batchSize,
		FailureClasses: make(map[ErrorClass]int),
	}
}

// RecordFailure counts a failed batch.
func (s *RunSummary) RecordFailure(fb FailedBatch) {
	s.FailedBatches++
	if s.FailureClasses == nil {
		s.FailureClasses = make(map[ErrorClass]int)
	}
	s.FailureClasses[fb.Class]++
	s.Failed = append(s.Failed, fb)
}

// RecordSuccess counts a successful batch and its rows.
func (s *RunSummary) RecordSuccess(rows int) {
	s.SuccessfulBatches++
	s.TotalRows += rows
}

// FailedIDs returns the ids of every failed batch, in batch order.
func (s RunSummary) FailedIDs() []string {
	var ids []string
	for _, fb := range s.Failed {
		ids = append(ids, fb.IDs...)
	}
	return ids
}

// Saw reports whether any batch failed with a class matching pred.
func (s RunSummary) Saw(pred func(ErrorClass) bool) bool {
	for class, n := range s.FailureClasses {
		if n > 0 && pred(class) {
			return true
		}
	}
	return false
}

// Count returns how many batches failed with a class matching pred.
func (s RunSummary) Count(pred func(ErrorClass) bool) int {
	total := 0
	for class, n := range s.FailureClasses {
		if pred(class) {
			total += n
		}
	}
	return total
}
