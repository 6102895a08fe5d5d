// Package csv writes tables as CSV files.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/vietddude/biofetch/internal/fetch/metrics"
	"github.com/vietddude/biofetch/internal/infra/storage"
)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Sink writes each table to the writer returned by open.
type Sink struct {
	mu   sync.Mutex
	open func(table string) (io.WriteCloser, error)
}

// NewWriter writes every table to w, one after another. w is not closed.
func NewWriter(w io.Writer) *Sink {
	return &Sink{open: func(string) (io.WriteCloser, error) {
		return nopCloser{w}, nil
	}}
}

// NewFile writes to path, or to stdout when path is "-".
func NewFile(path string) *Sink {
	if path == "-" {
		return NewWriter(os.Stdout)
	}
	return &Sink{open: func(string) (io.WriteCloser, error) {
		return os.Create(path)
	}}
}

// NewDir writes each table to <dir>/<table>.csv.
func NewDir(dir string) *Sink {
	return &Sink{open: func(table string) (io.WriteCloser, error) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		return os.Create(filepath.Join(dir, table+".csv"))
	}}
}

// Write writes the header and every row.
func (s *Sink) Write(_ context.Context, t storage.Table) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.open(t.Name)
	if err != nil {
		return fmt.Errorf("open csv for %s: %w", t.Name, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close csv for %s: %w", t.Name, cerr)
		}
	}()

	w := csv.NewWriter(out)
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("row %d of %s has %d cells, want %d", i, t.Name, len(row), len(t.Columns))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	metrics.SinkRowsWritten.WithLabelValues("csv", t.Name).Add(float64(len(t.Rows)))
	return nil
}

// Close is a no-op. Files are closed after each Write.
func (s *Sink) Close() error { return nil }
