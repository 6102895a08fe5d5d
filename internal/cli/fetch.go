package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/biofetch/internal/control"
)

// fetchFlags are shared by every command that talks to a backend.
type fetchFlags struct {
	ids            string
	idsFile        string
	batchSize      int
	out            string
	outDir         string
	db             bool
	recordFailures bool
	retryFailed    bool
	adaptive       bool
	metricsPort    int
}

func (f *fetchFlags) register(cmd *cobra.Command, withIDs bool) {
	if withIDs {
		cmd.Flags().StringVar(&f.ids, "ids", "", "comma separated identifiers")
		cmd.Flags().StringVar(&f.idsFile, "ids-file", "", "file with one identifier per line (- for stdin)")
		cmd.Flags().IntVar(&f.batchSize, "batch-size", 0, "override the configured batch size")
	}
	cmd.Flags().StringVarP(&f.out, "out", "o", "-", "CSV output file (- for stdout)")
	cmd.Flags().StringVar(&f.outDir, "out-dir", "", "write one CSV per table into this directory")
	cmd.Flags().BoolVar(&f.db, "db", false, "also write results to PostgreSQL")
	cmd.Flags().BoolVar(&f.recordFailures, "record-failures", false, "queue ids of failed batches in Redis")
	cmd.Flags().BoolVar(&f.retryFailed, "retry-failed", false, "include previously queued ids")
	cmd.Flags().IntVar(&f.metricsPort, "metrics-port", 0, "serve /health and /metrics on this port")
}

func (f *fetchFlags) options() control.Options {
	return control.Options{
		Out:            f.out,
		OutDir:         f.outDir,
		DB:             f.db,
		RecordFailures: f.recordFailures,
		RetryFailed:    f.retryFailed,
		Adaptive:       f.adaptive,
		BatchSize:      f.batchSize,
		MetricsPort:    f.metricsPort,
	}
}

func (f *fetchFlags) collect() ([]string, error) {
	ids, err := collectIDs(f.ids, f.idsFile)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 && !f.retryFailed {
		return nil, errors.New("no ids given (use --ids, --ids-file or --retry-failed)")
	}
	return ids, nil
}

type fetchFunc func(app *control.App, ctx context.Context, ids []string) (control.Report, error)

// fetchCommand builds a subcommand that fetches one table.
func fetchCommand(use, short string, fn fetchFunc, withAdaptive bool) *cobra.Command {
	var flags fetchFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := flags.collect()
			if err != nil {
				return err
			}
			return withApp(flags.options(), func(ctx context.Context, app *control.App) error {
				report, err := fn(app, ctx, ids)
				if err != nil {
					return err
				}
				printReports(cmd.ErrOrStderr(), report)
				return nil
			})
		},
	}
	flags.register(cmd, true)
	if withAdaptive {
		cmd.Flags().BoolVar(&flags.adaptive, "adaptive", false, "shrink the batch size on memory and connection failures")
	}
	return cmd
}

// printReports writes a short summary per backend.
func printReports(w io.Writer, reports ...control.Report) {
	for _, r := range reports {
		m := r.Meta
		_, _ = fmt.Fprintf(w, "%s: %d rows, %d/%d batches ok (batch size %d) in %s\n",
			r.Backend, m.TotalRows, m.SuccessfulBatches, m.TotalBatches, m.BatchSize, m.Duration.Round(time.Millisecond))

		if len(m.FailureClasses) > 0 {
			classes := make([]string, 0, len(m.FailureClasses))
			for class, n := range m.FailureClasses {
				classes = append(classes, fmt.Sprintf("%s=%d", class, n))
			}
			sort.Strings(classes)
			_, _ = fmt.Fprintf(w, "  failures: %s\n", strings.Join(classes, " "))
		}
		if len(m.FailedIDs) > 0 {
			_, _ = fmt.Fprintf(w, "  failed ids: %d\n", len(m.FailedIDs))
		}
		if r.GaveUp != nil {
			_, _ = fmt.Fprintf(w, "  gave up: %v\n", r.GaveUp)
		}
	}
}

func init() {
	pdbCmd := &cobra.Command{
		Use:   "pdb",
		Short: "Fetch records from the RCSB PDB GraphQL API",
	}
	pdbCmd.AddCommand(
		fetchCommand("entries", "Fetch entry metadata", (*control.App).PDBEntries, true),
		fetchCommand("chains", "Fetch chain to UniProt mappings", (*control.App).PDBChains, true),
	)

	uniprotCmd := &cobra.Command{
		Use:   "uniprot",
		Short: "Fetch records from the UniProt SPARQL endpoint",
	}
	uniprotCmd.AddCommand(
		fetchCommand("names", "Fetch reviewed status and recommended names", (*control.App).UniProtNames, true),
		fetchCommand("sites", "Fetch binding and active site annotations", (*control.App).UniProtSites, true),
		fetchCommand("sequences", "Fetch canonical sequences", (*control.App).UniProtSequences, true),
	)

	rootCmd.AddCommand(pdbCmd, uniprotCmd)
}

