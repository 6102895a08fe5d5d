package asd

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/gzip"
)

// ArchiveStats tallies one pass over a release archive.
type ArchiveStats struct {
	Documents int
	Skipped   int
	Records   int
}

// ReadArchive streams a .tar.gz release and calls fn for every record. A
// member that fails to parse is logged and skipped; one with unreadable
// residue groups is logged and kept. An error from fn stops the
// stream and is returned.
func ReadArchive(ctx context.Context, r io.Reader, logger *slog.Logger, fn func(Record) error) (ArchiveStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var stats ArchiveStats

	gz, err := gzip.NewReader(r)
	if err != nil {
		return stats, fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return stats, fmt.Errorf("read %s: %w", hdr.Name, err)
		}

		records, err := ParseDocument(data)
		switch {
		case err == nil:
		case errors.Is(err, ErrMalformedResidue) && len(records) > 0:
			logger.Warn("Unreadable residues in document", "member", hdr.Name, "error", err)
		default:
			stats.Skipped++
			logger.Warn("Skipping unparseable document", "member", hdr.Name, "error", err)
			continue
		}
		stats.Documents++

		for _, rec := range records {
			if err := fn(rec); err != nil {
				return stats, err
			}
			stats.Records++
		}
	}

	logger.Info("Archive read",
		"documents", stats.Documents,
		"skipped", stats.Skipped,
		"records", stats.Records,
	)
	return stats, nil
}

// ReadFile is ReadArchive over a file on disk.
func ReadFile(ctx context.Context, path string, logger *slog.Logger, fn func(Record) error) (ArchiveStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return ArchiveStats{}, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()
	return ReadArchive(ctx, f, logger, fn)
}
