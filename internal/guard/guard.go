// Package guard enforces single-instance daemon operation with an advisory
// file lock. The lock is held for the daemon's whole lifetime; a second
// instance fails fast instead of corrupting shared state.
package guard

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"

	"hound/internal/logging"
	"hound/internal/services"
)

// ErrAlreadyRunning is returned when another process holds the lock.
var ErrAlreadyRunning = fmt.Errorf("another instance is already running")

// Guard holds the instance lock until Release is called.
type Guard struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// Acquire takes the instance lock at path without blocking. If a previous
// instance crashed, the kernel has already dropped its lock and the stale
// file is simply taken over; a warning notes the takeover.
func Acquire(path string, logger *slog.Logger) (*Guard, error) {
	logger = logging.NewComponentLogger(logger, "guard")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "startup", "lock", "create lock directory", err)
	}

	_, statErr := os.Stat(path)
	existed := statErr == nil

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "startup", "lock", fmt.Sprintf("acquire instance lock %s", path), err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, "startup", "lock",
			fmt.Sprintf("instance lock %s is held", path), ErrAlreadyRunning)
	}

	if existed {
		logger.Warn("taking over lock file left by a previous instance", logging.String("path", path))
	}

	// Record the owner pid for operators poking around the log directory.
	// The lock itself is the flock, not the content.
	_ = os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)

	logger.Debug("instance lock acquired", logging.String("path", path))
	return &Guard{path: path, lock: lock, logger: logger}, nil
}

// Release drops the lock and removes the lock file. Safe to call once at
// shutdown; errors are returned so the daemon can log them.
func (g *Guard) Release() error {
	if g == nil || g.lock == nil {
		return nil
	}
	if err := g.lock.Unlock(); err != nil {
		return fmt.Errorf("release instance lock: %w", err)
	}
	g.lock = nil
	if err := os.Remove(g.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	g.logger.Debug("instance lock released", logging.String("path", g.path))
	return nil
}
