// Package readiness decides whether a discovered file is stable enough to
// enter the pipeline. The gate is stateless: a not-ready file is simply
// skipped for the current cycle and re-checked on the next one.
package readiness

import (
	"context"
	"os"
	"time"
)

// Gate performs the stability checks: minimum age since last write, shared
// read access, and a settle interval during which the size must not change.
type Gate struct {
	minAge      time.Duration
	settleDelay time.Duration

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// New constructs a gate with the given thresholds.
func New(minAge, settleDelay time.Duration) *Gate {
	return &Gate{
		minAge:      minAge,
		settleDelay: settleDelay,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// Check reports whether the file at path is ready. The returned reason is
// empty when ready and names the failed check otherwise. Errors are reserved
// for context cancellation; an unreadable file is reported as not ready.
func (g *Gate) Check(ctx context.Context, path string, size int64, modTime time.Time) (bool, string, error) {
	if age := g.now().Sub(modTime); age < g.minAge {
		return false, "file modified too recently", nil
	}

	handle, err := os.Open(path)
	if err != nil {
		return false, "file not readable (writer may hold it)", nil
	}
	_ = handle.Close()

	if g.settleDelay > 0 {
		if err := g.sleep(ctx, g.settleDelay); err != nil {
			return false, "", err
		}
		info, err := os.Stat(path)
		if err != nil {
			return false, "file vanished during settle wait", nil
		}
		if info.Size() != size {
			return false, "file size still changing", nil
		}
	}

	return true, "", nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
