package control

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/biofetch/internal/asd"
	"github.com/vietddude/biofetch/internal/backend/uniprot"
	"github.com/vietddude/biofetch/internal/core/domain"
	"github.com/vietddude/biofetch/internal/infra/storage"
)

// ParseArchive reads an ASD release and writes it as one table.
func (a *App) ParseArchive(ctx context.Context, path string) (storage.Table, error) {
	table := storage.Table{
		Name:    domain.BackendASD,
		Columns: asd.Columns,
		Run: storage.RunMeta{
			RunID:   uuid.NewString(),
			Backend: domain.BackendASD,
		},
	}

	stats, err := asd.ReadFile(ctx, path, a.log, func(r asd.Record) error {
		table.Rows = append(table.Rows, r.Record())
		return nil
	})
	if err != nil {
		return table, err
	}
	table.Run.TotalRows = stats.Records

	if err := a.sinks.Write(ctx, table); err != nil {
		return table, err
	}
	return table, nil
}

// ArchiveIDs collects the distinct PDB ids and valid UniProt accessions of
// an ASD table, in first-seen order.
func ArchiveIDs(table storage.Table) (pdbIDs, uniprotIDs []string) {
	pdbCol := slices.Index(table.Columns, "PDB ID")
	uniprotCol := slices.Index(table.Columns, "UniProt ID")

	seenPDB := map[string]bool{}
	seenUniProt := map[string]bool{}
	for _, row := range table.Rows {
		if id := strings.TrimSpace(row[pdbCol]); id != "" && !seenPDB[id] {
			seenPDB[id] = true
			pdbIDs = append(pdbIDs, id)
		}
		if id := strings.TrimSpace(row[uniprotCol]); uniprot.ValidAccession(id) && !seenUniProt[id] {
			seenUniProt[id] = true
			uniprotIDs = append(uniprotIDs, id)
		}
	}
	return pdbIDs, uniprotIDs
}

// Pipeline parses the archive, then fetches PDB entries and UniProt names for
// the ids it mentions. Names are always fetched with adaptive sizing. The two
// fetches run concurrently; a run that ends with failed batches does not stop
// the other.
func (a *App) Pipeline(ctx context.Context, archivePath string) ([]Report, error) {
	table, err := a.ParseArchive(ctx, archivePath)
	if err != nil {
		return nil, err
	}
	pdbIDs, uniprotIDs := ArchiveIDs(table)
	a.log.Info("Pipeline ids collected", "pdb", len(pdbIDs), "uniprot", len(uniprotIDs))

	reports := make([]Report, 2)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reports[0], err = a.PDBEntries(gctx, pdbIDs)
		return err
	})
	g.Go(func() error {
		var err error
		reports[1], err = a.uniProtNames(gctx, uniprotIDs, true)
		return err
	})
	if err := g.Wait(); err != nil {
		return reports, err
	}
	return reports, nil
}
