// Package control wires configuration, clients, sinks and the failure queue
// into the fetch commands.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vietddude/biofetch/internal/core/config"
	"github.com/vietddude/biofetch/internal/core/domain"
	"github.com/vietddude/biofetch/internal/core/worker"
	"github.com/vietddude/biofetch/internal/fetch/health"
	redisclient "github.com/vietddude/biofetch/internal/infra/redis"
	"github.com/vietddude/biofetch/internal/infra/rpc"
	"github.com/vietddude/biofetch/internal/infra/storage"
	"github.com/vietddude/biofetch/internal/infra/storage/csv"
	"github.com/vietddude/biofetch/internal/infra/storage/postgres"
)

// Options are the per-invocation switches set by the CLI.
type Options struct {
	// Out is a CSV file path, "-" for stdout. Used by single-table commands.
	Out string

	// OutDir receives one CSV per table. Takes precedence over Out.
	OutDir string

	// DB writes every table to PostgreSQL as well.
	DB bool

	// RecordFailures pushes the ids of failed batches to the Redis queue.
	RecordFailures bool

	// RetryFailed adds the queued ids of a backend to the requested ids.
	RetryFailed bool

	// Adaptive wraps the fetch in adaptive batch sizing.
	Adaptive bool

	// BatchSize overrides the configured batch size when positive.
	BatchSize int

	// MetricsPort overrides the configured metrics port when positive.
	MetricsPort int
}

// App holds everything a fetch command needs.
type App struct {
	cfg  *config.AppConfig
	opts Options
	log  *slog.Logger

	pdb     *rpc.Client
	uniprot *rpc.Client

	sinks       storage.Multi
	db          *postgres.DB
	redisClient *redisclient.Client
	queue       *redisclient.FailureQueue

	healthServer *health.Server
}

// New creates an App with all dependencies initialized.
func New(ctx context.Context, cfg *config.AppConfig, opts Options) (*App, error) {
	a := &App{
		cfg:  cfg,
		opts: opts,
		log:  slog.Default(),
	}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	var err error
	pdbEndpoint := cfg.Endpoints.PDB.Endpoint("pdb", domain.ProtocolGraphQL)
	if a.pdb, err = rpc.NewClient(pdbEndpoint, cfg.Endpoints.PDB.Retry.Policy(), a.log); err != nil {
		return nil, err
	}
	uniprotEndpoint := cfg.Endpoints.UniProt.Endpoint("uniprot", domain.ProtocolSPARQL)
	if a.uniprot, err = rpc.NewClient(uniprotEndpoint, cfg.Endpoints.UniProt.Retry.Policy(), a.log); err != nil {
		return nil, err
	}

	// 1. Sinks
	switch {
	case opts.OutDir != "":
		a.sinks = append(a.sinks, csv.NewDir(opts.OutDir))
	case opts.Out != "":
		a.sinks = append(a.sinks, csv.NewFile(opts.Out))
	}

	if opts.DB {
		if cfg.Database.URL == "" {
			return nil, errors.New("--db requires database.url")
		}
		if a.db, err = postgres.NewDB(ctx, cfg.Database); err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := a.db.Migrate(ctx); err != nil {
			return nil, err
		}
		a.sinks = append(a.sinks, postgres.NewSink(a.db))
	}

	// 2. Failure queue
	if opts.RecordFailures || opts.RetryFailed {
		if cfg.Redis.URL == "" {
			return nil, errors.New("failure queue requires redis.url")
		}
		if a.redisClient, err = redisclient.NewClient(cfg.Redis); err != nil {
			return nil, err
		}
		a.queue = redisclient.NewFailureQueue(a.redisClient, cfg.Redis.TTL)
	}

	// 3. Health and metrics
	port := cfg.Metrics.Port
	if opts.MetricsPort > 0 {
		port = opts.MetricsPort
	}
	if port > 0 {
		monitor := health.NewMonitor([]health.Source{a.pdb, a.uniprot})
		if a.queue != nil {
			monitor.WithQueue(a.queue,
				domain.BackendPDBEntries,
				domain.BackendPDBChains,
				domain.BackendUniProtNames,
				domain.BackendUniProtSites,
				domain.BackendUniProtSequences,
			)
		}
		a.healthServer = health.NewServer(monitor, port)
	}

	ok = true
	return a, nil
}

// Start starts the background components. They stop when ctx is done.
func (a *App) Start(ctx context.Context) {
	if a.healthServer != nil {
		go a.healthServer.Run(ctx)
	}
	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
		if a.cfg.Database.Retention > 0 {
			pruner := worker.NewPruner(postgres.NewSink(a.db), a.cfg.Database.Retention, a.log)
			go pruner.Start(ctx)
		}
	}
}

// Stop releases every connection and logs the endpoint dashboards.
func (a *App) Stop() error {
	a.log.Debug("Endpoint status", "pdb", a.pdb.Dashboard(), "uniprot", a.uniprot.Dashboard())
	return a.close()
}

func (a *App) close() error {
	var errs []error
	if a.pdb != nil {
		errs = append(errs, a.pdb.Close())
	}
	if a.uniprot != nil {
		errs = append(errs, a.uniprot.Close())
	}
	errs = append(errs, a.sinks.Close())
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.redisClient != nil {
		errs = append(errs, a.redisClient.Close())
	}
	return errors.Join(errs...)
}

// Queue returns the failure queue, or nil when disabled.
func (a *App) Queue() *redisclient.FailureQueue {
	return a.queue
}
