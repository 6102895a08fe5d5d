package control

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/vietddude/biofetch/internal/backend/pdb"
	"github.com/vietddude/biofetch/internal/backend/uniprot"
	"github.com/vietddude/biofetch/internal/core/config"
	"github.com/vietddude/biofetch/internal/core/domain"
	"github.com/vietddude/biofetch/internal/fetch/batch"
	"github.com/vietddude/biofetch/internal/fetch/throttle"
	"github.com/vietddude/biofetch/internal/infra/storage"
)

// Report is what a fetch command prints when it is done.
type Report struct {
	Backend string
	Meta    storage.RunMeta
	// GaveUp is set when adaptive sizing stopped without rows.
	GaveUp error
}

// PDBEntries fetches entry records.
func (a *App) PDBEntries(ctx context.Context, ids []string) (Report, error) {
	return fetchTable(ctx, a, pdb.NewEntries(), a.pdb, a.cfg.Batch.PDBEntries, ids, a.opts.Adaptive)
}

// PDBChains fetches chain to UniProt mappings.
func (a *App) PDBChains(ctx context.Context, ids []string) (Report, error) {
	return fetchTable(ctx, a, pdb.NewChains(), a.pdb, a.cfg.Batch.PDBChains, ids, a.opts.Adaptive)
}

// UniProtNames fetches review status and recommended names.
func (a *App) UniProtNames(ctx context.Context, ids []string) (Report, error) {
	return a.uniProtNames(ctx, ids, a.opts.Adaptive)
}

func (a *App) uniProtNames(ctx context.Context, ids []string, adaptive bool) (Report, error) {
	q, err := uniprot.NewNames()
	if err != nil {
		return Report{}, err
	}
	return fetchTable(ctx, a, q, a.uniprot, a.cfg.Batch.UniProt, a.accessions(ids), adaptive)
}

// UniProtSites fetches binding and active site annotations.
func (a *App) UniProtSites(ctx context.Context, ids []string) (Report, error) {
	q, err := uniprot.NewSites()
	if err != nil {
		return Report{}, err
	}
	return fetchTable(ctx, a, q, a.uniprot, a.cfg.Batch.UniProt, a.accessions(ids), a.opts.Adaptive)
}

// UniProtSequences fetches canonical sequences.
func (a *App) UniProtSequences(ctx context.Context, ids []string) (Report, error) {
	q, err := uniprot.NewSequences()
	if err != nil {
		return Report{}, err
	}
	return fetchTable(ctx, a, q, a.uniprot, a.cfg.Batch.UniProt, a.accessions(ids), a.opts.Adaptive)
}

// accessions drops ids that are not UniProt accessions so they cannot fail the
// batch they land in.
func (a *App) accessions(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !uniprot.ValidAccession(id) {
			a.log.Warn("Skipping invalid UniProt accession", "id", id)
			continue
		}
		out = append(out, id)
	}
	return out
}

// fetchTable runs one backend over ids and hands the result to the sinks and
// the failure queue. Only configuration, sink, queue and context errors are
// returned; a run that ends with failed batches is still a result.
func fetchTable[R batch.Row](ctx context.Context, a *App, backend batch.Backend[R], sender batch.Sender, bc config.BackendBatch, ids []string, adaptive bool) (Report, error) {
	name := backend.Name()
	log := a.log.With("backend", name)

	ids, queued, err := a.withQueued(ctx, name, ids)
	if err != nil {
		return Report{}, err
	}

	size := bc.Size
	if a.opts.BatchSize > 0 {
		size = a.opts.BatchSize
	}

	orch := batch.New(backend, sender, batch.Config{InterBatchDelay: bc.Delay, Logger: a.log})

	var fetcher throttle.Fetcher[R] = orch
	if adaptive {
		if fetcher, err = throttle.NewAdaptive[R](name, orch, a.cfg.Adaptive, a.log); err != nil {
			return Report{}, err
		}
	}

	report := Report{Backend: name}
	run, err := fetcher.Fetch(ctx, ids, size)
	switch {
	case errors.Is(err, throttle.ErrBatchSizeExhausted), errors.Is(err, throttle.ErrAttemptsExhausted):
		log.Warn("Adaptive fetch gave up", "error", err)
		report.GaveUp = err
	case err != nil:
		return report, err
	}

	if a.queue != nil && a.opts.RecordFailures {
		if err := a.queue.Record(ctx, name, run.Summary.Failed); err != nil {
			return report, err
		}
	}
	if len(queued) > 0 && report.GaveUp == nil {
		if err := a.resolveQueued(ctx, name, queued, run.Summary); err != nil {
			return report, err
		}
	}

	table := storage.FromRun(name, backend.Columns(), run)
	report.Meta = table.Run
	if err := a.sinks.Write(ctx, table); err != nil {
		return report, fmt.Errorf("write %s: %w", name, err)
	}
	return report, nil
}

// withQueued appends the queued failures of backend when RetryFailed is set.
// The queue is only read here; resolveQueued removes what came back.
func (a *App) withQueued(ctx context.Context, backend string, ids []string) ([]string, []string, error) {
	if a.queue == nil || !a.opts.RetryFailed {
		return ids, nil, nil
	}
	queued, err := a.queue.Peek(ctx, backend)
	if err != nil {
		return nil, nil, err
	}
	a.log.Info("Retrying queued ids", "backend", backend, "queued", len(queued))

	out := slices.Clone(ids)
	for _, id := range queued {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out, queued, nil
}

// resolveQueued drops the queued ids whose batch succeeded. Ids that failed
// again stay queued.
func (a *App) resolveQueued(ctx context.Context, backend string, queued []string, summary domain.RunSummary) error {
	failed := make(map[string]bool)
	for _, id := range summary.FailedIDs() {
		failed[id] = true
	}
	var done []string
	for _, id := range queued {
		if !failed[id] {
			done = append(done, id)
		}
	}
	return a.queue.Resolve(ctx, backend, done)
}
