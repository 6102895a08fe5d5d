package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietddude/biofetch/internal/control"
)

func init() {
	var flags fetchFlags
	asdCmd := &cobra.Command{
		Use:   "asd",
		Short: "Work with AlloSteric Database archives",
	}
	parseCmd := &cobra.Command{
		Use:   "parse ARCHIVE",
		Short: "Flatten an ASD XML archive into a site table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags.options(), func(ctx context.Context, app *control.App) error {
				table, err := app.ParseArchive(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d rows\n", table.Name, len(table.Rows))
				return nil
			})
		},
	}
	flags.register(parseCmd, false)
	asdCmd.AddCommand(parseCmd)

	var (
		pflags  fetchFlags
		archive string
	)
	pipelineCmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Parse an ASD archive and fetch PDB entries and UniProt names for it",
		Long: `pipeline parses the archive, then fetches PDB entries and UniProt names
for the identifiers it references. The two fetches run concurrently; UniProt
names always use adaptive batch sizing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pflags.options()
			if opts.OutDir == "" {
				return fmt.Errorf("pipeline writes several tables, --out-dir is required")
			}
			return withApp(opts, func(ctx context.Context, app *control.App) error {
				reports, err := app.Pipeline(ctx, archive)
				printReports(cmd.ErrOrStderr(), reports...)
				return err
			})
		},
	}
	pipelineCmd.Flags().StringVar(&archive, "archive", "", "ASD .tar.gz archive")
	_ = pipelineCmd.MarkFlagRequired("archive")
	pflags.register(pipelineCmd, false)
	pipelineCmd.Flags().IntVar(&pflags.batchSize, "batch-size", 0, "override the configured batch size")

	rootCmd.AddCommand(asdCmd, pipelineCmd)
}
