// Package daemon assembles and runs the long-lived process: instance guard,
// dependency preflight, stores, and the pipeline coordinator.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"hound/internal/config"
	"hound/internal/deps"
	"hound/internal/guard"
	"hound/internal/history"
	"hound/internal/logging"
	"hound/internal/pipeline"
	"hound/internal/queue"
	"hound/internal/services"
)

// Daemon owns the process lifecycle.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs a daemon from validated configuration.
func New(cfg *config.Config, logger *slog.Logger) *Daemon {
	return &Daemon{cfg: cfg, logger: logging.NewComponentLogger(logger, "daemon")}
}

// Run starts the pipeline and blocks until ctx is cancelled. The instance
// lock is released deterministically on every exit path; cancellation is a
// clean shutdown, not an error.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	g, err := guard.Acquire(d.cfg.LockPath(), d.logger)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := g.Release(); releaseErr != nil {
			d.logger.Warn("failed to release instance lock", logging.Error(releaseErr))
		}
	}()

	if err := deps.Verify(d.cfg); err != nil {
		return err
	}
	if err := d.checkWatchRoots(); err != nil {
		return err
	}

	store, err := queue.Open(d.cfg.QueuePath(), queue.Windows{
		EncodingStale: d.cfg.EncodingStaleWindow(),
		ActiveStale:   d.cfg.ActiveStaleWindow(),
		Cooldown:      d.cfg.CooldownWindow(),
	}, d.logger)
	if err != nil {
		return err
	}

	hist, err := history.Open(d.cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := hist.Close(); closeErr != nil {
			d.logger.Warn("failed to close history store", logging.Error(closeErr))
		}
	}()

	d.logger.Info("daemon started", logging.String("queue", d.cfg.QueuePath()))

	err = pipeline.New(d.cfg, store, hist, d.logger).Run(ctx)
	if errors.Is(err, context.Canceled) {
		d.logger.Info("daemon stopped")
		return nil
	}
	return err
}

// checkWatchRoots fails startup when a watch root is missing or not a
// directory. A root that disappears later is a transient scan error, not a
// reason to exit.
func (d *Daemon) checkWatchRoots() error {
	for _, root := range d.cfg.Paths.WatchRoots {
		info, err := os.Stat(root)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "daemon", "preflight",
				fmt.Sprintf("watch root %s is not accessible", root), err)
		}
		if !info.IsDir() {
			return services.Wrap(services.ErrConfiguration, "daemon", "preflight",
				fmt.Sprintf("watch root %s is not a directory", root), nil)
		}
	}
	return nil
}
