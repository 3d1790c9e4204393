package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/tracelay/workspaced/account"
	"github.com/tracelay/workspaced/config"
	"github.com/tracelay/workspaced/errors"
	"github.com/tracelay/workspaced/fulltext"
	"github.com/tracelay/workspaced/lifecycle"
	"github.com/tracelay/workspaced/logger"
	"github.com/tracelay/workspaced/pipeline"
	"github.com/tracelay/workspaced/transactor"
	"github.com/tracelay/workspaced/version"
)

// RunCmd starts the lifecycle worker daemon.
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the lifecycle worker",
	Long: `Start the workspace lifecycle worker in foreground mode.

The worker will:
- Register with the account service (region, version, operation)
- Poll for pending workspaces up to the configured concurrency limit
- Drive each workspace through its lifecycle phase
- Run until interrupted (Ctrl+C), waiting for in-flight jobs to finish`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		workerVersion, err := resolveVersion(cfg)
		if err != nil {
			return err
		}

		suite, registry, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := registry.Close(context.Background()); err != nil {
				logger.Warnw("Failed to close adapter registry", "error", err)
			}
		}()

		cp := account.NewClient(cfg.Account.URL, cfg.Account.Token, logger.Logger)
		sessions := transactor.NewClient(cfg.Account.Token, logger.Logger)

		deps := lifecycle.Dependencies{
			ControlPlane: cp,
			Sessions:     sessions,
			Pipeline:     suite,
		}
		if cfg.Fulltext.URL != "" {
			deps.Fulltext = fulltext.NewClient(cfg.Fulltext.URL, cfg.Account.Token, logger.Logger)
		}

		worker, err := lifecycle.New(lifecycle.Options{
			Version:          workerVersion,
			Region:           cfg.Worker.Region,
			Limit:            cfg.Worker.Limit,
			Operation:        cfg.Worker.Operation,
			WaitTimeout:      time.Duration(cfg.Worker.WaitTimeout) * time.Millisecond,
			Brandings:        cfg.Brandings,
			Ignore:           cfg.Worker.IgnoredWorkspaces(),
			Force:            cfg.Worker.Force,
			Console:          cfg.Worker.Console,
			LogsDir:          cfg.Worker.LogsDir,
			DatabaseURL:      cfg.Database.URL,
			BackupStorage:    cfg.Backup.Storage,
			BackupBucket:     cfg.Backup.Bucket,
			MigrationCleanup: config.MigrationCleanupEnabled(),
		}, deps, logger.Logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Infow("Starting lifecycle worker",
			"version", workerVersion.String(),
			"region", cfg.Worker.Region,
			"operation", cfg.Worker.Operation)

		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Infow("Worker stopped")
		return nil
	},
}

func init() {
	RunCmd.Flags().StringP("config", "c", "", "Path to the TOML configuration file")
}

// resolveVersion picks the semantic version the worker registers with: the
// configured one, falling back to the build-time version tag.
func resolveVersion(cfg *config.Config) (*semver.Version, error) {
	raw := cfg.Worker.Version
	if raw == "" {
		raw = version.Version
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid worker version %q (set worker.version)", raw)
	}
	return v, nil
}

// buildPipeline assembles the adapter registry and external operation suite.
func buildPipeline(cfg *config.Config) (*pipeline.Suite, *pipeline.Registry, error) {
	ops, err := pipeline.NewExecOps(cfg.Pipeline)
	if err != nil {
		return nil, nil, err
	}

	registry := pipeline.NewRegistry()
	registry.RegisterStorage("file", pipeline.FileStorageFactory())

	if cfg.Database.URL != "" {
		pg := pipeline.NewPostgresDestroyer(cfg.Database.URL, logger.Logger)
		registry.RegisterDestroyer("postgresql", pg)
		registry.RegisterDestroyer("postgres", pg)

		mongo := pipeline.NewMongoDestroyer(cfg.Database.URL, logger.Logger)
		registry.RegisterDestroyer("mongodb", mongo)
		registry.AddCloser(mongo.Close)
	}

	return &pipeline.Suite{
		Registry: registry,
		Creator:  ops,
		Upgrader: ops,
		Backup:   ops,
		Restore:  ops,
	}, registry, nil
}
