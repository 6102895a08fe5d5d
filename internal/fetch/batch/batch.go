// Package batch drives bulk fetches: it splits an id list into batches,
// sends each batch through a retrying client and keeps whatever succeeds.
package batch

import (
	"context"
	"errors"

	"github.com/vietddude/biofetch/internal/core/domain"
	"github.com/vietddude/biofetch/internal/infra/rpc/provider"
)

// ErrInvalidBatchSize is returned when the batch size is not positive.
var ErrInvalidBatchSize = errors.New("batch size must be positive")

// Row is one flat output record. Record returns the values in the order of
// the backend's Columns.
type Row interface {
	Record() []string
}

// Backend knows how to query one remote dataset and flatten its responses.
type Backend[R Row] interface {
	// Name labels logs, metrics and sink tables.
	Name() string

	// Columns is the fixed output schema.
	Columns() []string

	// BuildOperation builds the request for one batch of ids. It must not
	// depend on any other batch.
	BuildOperation(ids []string) (provider.Operation, error)

	// Normalize turns one successful response body into rows. A body that
	// parses but is missing a required key is an error.
	Normalize(body []byte) ([]R, error)
}

// Sender sends one operation with retries. *rpc.Client implements it.
type Sender interface {
	Send(ctx context.Context, op provider.Operation) ([]byte, error)
}

// Result is the outcome of one batch. A batch is atomic: Rows is empty
// unless Succeeded.
type Result[R Row] struct {
	Index     int
	Total     int
	IDs       []string
	Rows      []R
	Succeeded bool
	Failure   *domain.FailedBatch
}

// Run is the output of one bulk fetch.
type Run[R Row] struct {
	Rows    []R
	Summary domain.RunSummary
}

// Records flattens the rows for tabular sinks.
func (r Run[R]) Records() [][]string {
	out := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.Record()
	}
	return out
}

// Partition splits items into consecutive chunks of size; the last chunk
// may be shorter. Chunks share the backing array with items.
func Partition[T any](items []T, size int) ([][]T, error) {
	if size <= 0 {
		return nil, ErrInvalidBatchSize
	}
	if len(items) == 0 {
		return nil, nil
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks, nil
}
