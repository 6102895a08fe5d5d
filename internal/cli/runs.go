package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/biofetch/internal/infra/storage/postgres"
)

var (
	runsBackend string
	runsLimit   int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent fetch runs stored in PostgreSQL",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsBackend, "backend", "", "only show runs of this backend")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return errors.New("database.url is not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	runs, err := postgres.NewSink(db).RecentRuns(ctx, runsBackend, runsLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "RUN\tBACKEND\tTABLE\tBATCH\tOK\tFAILED\tROWS\tDURATION\tFAILED IDS\tCREATED")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%d\t%s\n",
			r.RunID, r.Backend, r.Table, r.BatchSize, r.SuccessfulBatches, r.FailedBatches,
			r.TotalRows, time.Duration(r.DurationMS)*time.Millisecond, len(r.FailedIDs),
			r.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
