package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/biofetch/internal/control"
	"github.com/vietddude/biofetch/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "biofetch",
	Short: "Resilient bulk retrieval from biological databases",
	Long: `biofetch fetches structure and protein records from the RCSB PDB and
UniProt in batches, retrying transient failures and keeping partial results.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// setup loads .env and the config file, then initializes logging.
func setup() (*config.AppConfig, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		return nil, err
	}

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// withApp builds the App, starts its background components and stops it
// when fn returns.
func withApp(opts control.Options, fn func(ctx context.Context, app *control.App) error) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	app, err := control.New(ctx, cfg, opts)
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		return err
	}
	app.Start(ctx)
	defer func() {
		if err := app.Stop(); err != nil {
			slog.Warn("Error during shutdown", "error", err)
		}
	}()

	return fn(ctx, app)
}
