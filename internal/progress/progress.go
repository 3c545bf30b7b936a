// Package progress maintains a best-effort snapshot of pipeline activity.
//
// The snapshot is a small JSON document rewritten atomically after each
// coordinator cycle. It exists for operators and the CLI status command; a
// failed write is logged and otherwise ignored so reporting can never stall
// the pipeline.
package progress

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"hound/internal/fileutil"
	"hound/internal/logging"
	"hound/internal/queue"
)

// Pointer records the most recent event of one kind.
type Pointer struct {
	Path    string    `json:"path"`
	Details string    `json:"details,omitempty"`
	At      time.Time `json:"at"`
}

// Snapshot is the on-disk progress document.
type Snapshot struct {
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Queued      int `json:"queued"`
	Downloading int `json:"downloading"`
	Encoding    int `json:"encoding"`
	Uploading   int `json:"uploading"`

	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`

	LastCompleted *Pointer `json:"last_completed,omitempty"`
	LastFailed    *Pointer `json:"last_failed,omitempty"`
	LastSkipped   *Pointer `json:"last_skipped,omitempty"`
}

// Reporter accumulates counters and persists the snapshot on Flush.
type Reporter struct {
	mu       sync.Mutex
	path     string
	snapshot Snapshot
	logger   *slog.Logger
	now      func() time.Time
}

// NewReporter creates a reporter writing to path.
func NewReporter(path string, logger *slog.Logger) *Reporter {
	r := &Reporter{
		path:   path,
		logger: logging.NewComponentLogger(logger, "progress"),
		now:    time.Now,
	}
	r.snapshot.StartedAt = r.now()
	return r
}

// SetQueueCounts mirrors the current queue composition into the snapshot.
func (r *Reporter) SetQueueCounts(stats queue.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot.Queued = stats.ByStatus[queue.StatusQueued]
	r.snapshot.Downloading = stats.ByStatus[queue.StatusDownloading]
	r.snapshot.Encoding = stats.ByStatus[queue.StatusEncoding]
	r.snapshot.Uploading = stats.ByStatus[queue.StatusUploading]
}

// RecordCompleted bumps the completed counter and pointer.
func (r *Reporter) RecordCompleted(path, details string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot.Completed++
	r.snapshot.LastCompleted = r.pointer(path, details)
}

// RecordFailed bumps the failed counter and pointer.
func (r *Reporter) RecordFailed(path, details string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot.Failed++
	r.snapshot.LastFailed = r.pointer(path, details)
}

// RecordSkipped bumps the skipped counter and pointer.
func (r *Reporter) RecordSkipped(path, details string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot.Skipped++
	r.snapshot.LastSkipped = r.pointer(path, details)
}

func (r *Reporter) pointer(path, details string) *Pointer {
	return &Pointer{Path: path, Details: details, At: r.now()}
}

// Flush writes the snapshot. Failures are logged and swallowed.
func (r *Reporter) Flush() {
	r.mu.Lock()
	r.snapshot.UpdatedAt = r.now()
	data, err := json.MarshalIndent(r.snapshot, "", "  ")
	r.mu.Unlock()
	if err != nil {
		r.logger.Warn("encode progress snapshot", logging.Error(err))
		return
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(r.path, data, 0o644); err != nil {
		r.logger.Warn("write progress snapshot", logging.Error(err))
	}
}

// Current returns a copy of the in-memory snapshot.
func (r *Reporter) Current() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

// Load reads a snapshot document from disk.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read progress snapshot: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("parse progress snapshot: %w", err)
	}
	return snapshot, nil
}
