package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"hound/internal/classify"
	"hound/internal/config"
	"hound/internal/fileutil"
	"hound/internal/history"
	"hound/internal/logging"
	"hound/internal/media"
	"hound/internal/progress"
	"hound/internal/queue"
	"hound/internal/readiness"
	"hound/internal/services"
	"hound/internal/transcoder"
)

// shutdownGrace bounds how long shutdown waits for child processes to die
// after their context is cancelled.
const shutdownGrace = 15 * time.Second

type encodeState struct {
	job  *Job
	proc *transcoder.Process
}

// skipStamp remembers a skip decision for a particular (size, modtime) so an
// unchanged file is not re-probed every cycle. Purely in-memory; a restart
// re-probes once and reaches the same verdict.
type skipStamp struct {
	size    int64
	modTime time.Time
}

// Coordinator owns the scan/admit/advance loop.
type Coordinator struct {
	cfg      *config.Config
	store    *queue.Store
	hist     *history.Store
	scanner  *media.Scanner
	gate     *readiness.Gate
	adapter  *transcoder.Adapter
	reporter *progress.Reporter
	logger   *slog.Logger

	classifyFile func(ctx context.Context, file media.File) (classify.Decision, error)

	downloads map[string]*downloadTask
	encodes   map[string]*encodeState
	ready     []*Job
	skipped   map[string]skipStamp
}

// New wires a coordinator from its stores. hist may be nil to disable
// history recording.
func New(cfg *config.Config, store *queue.Store, hist *history.Store, logger *slog.Logger) *Coordinator {
	classifier := classify.New(cfg, classify.NewAuditLog(cfg.SkipLogPath()), logger)
	return &Coordinator{
		cfg:          cfg,
		store:        store,
		hist:         hist,
		scanner:      media.NewScanner(cfg, logger),
		gate:         readiness.New(cfg.MinFileAge(), cfg.SettleDelay()),
		adapter:      transcoder.New(cfg, logger),
		reporter:     progress.NewReporter(cfg.ProgressPath(), logger),
		logger:       logging.NewComponentLogger(logger, "coordinator"),
		classifyFile: classifier.Classify,
		downloads:    make(map[string]*downloadTask),
		encodes:      make(map[string]*encodeState),
		skipped:      make(map[string]skipStamp),
	}
}

// Run executes cycles until ctx is cancelled, then drains in-flight work.
func (c *Coordinator) Run(ctx context.Context) error {
	c.logger.Info("pipeline started",
		logging.Int("download_buffer", c.cfg.Pipeline.DownloadBuffer),
		logging.Int("transcode_slots", c.cfg.Pipeline.TranscodeSlots),
		logging.Duration("poll_interval", c.cfg.PollInterval()),
	)

	ticker := time.NewTicker(c.cfg.PollInterval())
	defer ticker.Stop()

	for {
		c.cycle(ctx)
		select {
		case <-ctx.Done():
			c.drain()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// cycle runs one pass: reclaim, reconcile finished work, fill transcode
// slots, admit new files, publish progress. Nothing in here blocks on a
// child process.
func (c *Coordinator) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	c.reclaim()
	c.reconcileEncodes()
	c.reconcileDownloads()
	c.backfillEncodeSlots(ctx)
	c.admit(ctx)
	c.publishProgress()
}

func (c *Coordinator) reclaim() {
	report, err := c.store.ReclaimStale()
	if err != nil {
		c.logger.Warn("staleness reclaim failed", logging.Error(err))
		return
	}
	if len(report.Reclaimed) > 0 || len(report.Expired) > 0 {
		c.logger.Info("queue reclaim",
			logging.Int("reclaimed", len(report.Reclaimed)),
			logging.Int("expired", len(report.Expired)),
		)
	}
}

func (c *Coordinator) reconcileEncodes() {
	for path, enc := range c.encodes {
		if !enc.proc.Finished() {
			c.touch(path)
			continue
		}
		delete(c.encodes, path)

		result, err := c.adapter.Collect(enc.proc)
		if err != nil {
			c.fail(enc.job, queue.StatusEncoding, err.Error(), false)
			continue
		}
		c.upload(enc.job, result)
	}
}

func (c *Coordinator) reconcileDownloads() {
	for path, task := range c.downloads {
		if !task.finished() {
			c.touch(path)
			continue
		}
		delete(c.downloads, path)

		if task.err != nil {
			if errors.Is(task.err, context.Canceled) || services.IsTransient(task.err) {
				// Not the file's fault. Free the entry so the next cycle
				// can re-admit it.
				c.logger.Warn("download interrupted, releasing entry",
					logging.String("path", path), logging.Error(task.err))
				if removeErr := os.Remove(task.job.DownloadPath); removeErr != nil && !os.IsNotExist(removeErr) {
					c.logger.Warn("failed to remove download copy", logging.String("path", task.job.DownloadPath), logging.Error(removeErr))
				}
				if removeErr := c.store.Remove(path); removeErr != nil {
					c.logger.Warn("failed to release queue entry", logging.String("path", path), logging.Error(removeErr))
				}
				continue
			}
			c.fail(task.job, queue.StatusDownloading, fmt.Sprintf("download: %v", task.err), false)
			continue
		}
		c.ready = append(c.ready, task.job)
		c.touch(path)
	}
}

func (c *Coordinator) backfillEncodeSlots(ctx context.Context) {
	for len(c.encodes) < c.cfg.Pipeline.TranscodeSlots && len(c.ready) > 0 {
		job := c.ready[0]
		c.ready = c.ready[1:]

		var selection transcoder.Selection
		if job.Decision.Probe != nil {
			selection = transcoder.SelectTracks(&c.cfg.Transcoder, job.File.Path, job.Decision.Probe)
		}

		encodeCtx := services.WithJobPath(ctx, job.File.Path)
		encodeCtx = services.WithStage(encodeCtx, string(queue.StatusEncoding))
		encodeCtx = services.WithRequestID(encodeCtx, job.ID)
		proc, err := c.adapter.Start(encodeCtx, job.File.Path, job.DownloadPath, job.EncodePath, selection)
		if err != nil {
			c.fail(job, queue.StatusEncoding, err.Error(), false)
			continue
		}
		if _, err := c.store.UpdateStatus(job.File.Path, queue.StatusEncoding, ""); err != nil {
			c.logger.Warn("failed to mark entry encoding", logging.String("path", job.File.Path), logging.Error(err))
		}
		c.encodes[job.File.Path] = &encodeState{job: job, proc: proc}
	}
}

// admit runs discovery and starts downloads while buffer capacity remains.
// A file only reaches TryEnqueue after passing the readiness gate and the
// classifier; a skipped file never creates a queue entry.
func (c *Coordinator) admit(ctx context.Context) {
	if c.bufferUsed() >= c.cfg.Pipeline.DownloadBuffer {
		return
	}

	files, err := c.scanner.Scan(ctx)
	if err != nil {
		c.logger.Warn("scan failed, retrying next cycle", logging.Error(err))
		return
	}

	for _, file := range files {
		if ctx.Err() != nil {
			return
		}
		if c.bufferUsed() >= c.cfg.Pipeline.DownloadBuffer {
			return
		}
		if c.tracked(file.Path) || c.skippedUnchanged(file) {
			continue
		}
		if _, exists, err := c.store.Get(file.Path); err != nil {
			c.logger.Warn("queue lookup failed", logging.String("path", file.Path), logging.Error(err))
			continue
		} else if exists {
			// Active or cooling down; ReclaimStale frees the path later.
			continue
		}

		ready, reason, err := c.gate.Check(ctx, file.Path, file.Size, file.ModTime)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("readiness check failed", logging.String("path", file.Path), logging.Error(err))
			continue
		}
		if !ready {
			c.logger.Debug("file not ready", logging.String("path", file.Path), logging.String("reason", reason))
			continue
		}

		decision, err := c.classifyFile(ctx, file)
		if err != nil {
			// Soft failure: no record, the file is retried next cycle.
			c.logger.Warn("probe failed, skipping this cycle", logging.String("path", file.Path), logging.Error(err))
			continue
		}
		if !decision.Eligible {
			c.skipped[file.Path] = skipStamp{size: file.Size, modTime: file.ModTime}
			c.recordHistory(history.Record{
				SourcePath:  file.Path,
				Outcome:     history.OutcomeSkipped,
				Details:     decision.Reason,
				Codec:       decision.Codec,
				BitrateKbps: decision.BitrateKbps,
				InputBytes:  file.Size,
			})
			c.reporter.RecordSkipped(file.Path, decision.Reason)
			continue
		}

		entry, added, err := c.store.TryEnqueue(file.Path)
		if err != nil {
			c.logger.Warn("enqueue failed", logging.String("path", file.Path), logging.Error(err))
			continue
		}
		if !added {
			// Another process won the race for this path.
			c.logger.Debug("path already owned", logging.String("path", file.Path), logging.String("status", string(entry.Status)))
			continue
		}

		job := newJob(c.cfg, file, decision)
		if _, err := c.store.UpdateStatus(file.Path, queue.StatusDownloading, ""); err != nil {
			c.logger.Warn("failed to mark entry downloading", logging.String("path", file.Path), logging.Error(err))
		}
		c.downloads[file.Path] = startDownload(ctx, job)
		c.logger.Info("admitted file",
			logging.String("path", file.Path),
			logging.String("codec", decision.Codec),
			logging.Int("bitrate_kbps", decision.BitrateKbps),
		)
	}
}

// upload delivers the encoded artifact, replaces the source, and completes
// the entry. The destination write is write-then-rename so a partial file is
// never visible remotely.
func (c *Coordinator) upload(job *Job, result transcoder.Result) {
	path := job.File.Path
	if _, err := c.store.UpdateStatus(path, queue.StatusUploading, ""); err != nil {
		c.logger.Warn("failed to mark entry uploading", logging.String("path", path), logging.Error(err))
	}

	dest := job.DestinationPath(c.cfg.Paths.DestinationDir)
	if err := os.MkdirAll(job.File.DestinationDir(c.cfg.Paths.DestinationDir), 0o755); err != nil {
		c.failUpload(job, fmt.Sprintf("create destination: %v", err))
		return
	}
	if err := fileutil.MoveFileAtomic(job.EncodePath, dest); err != nil {
		c.failUpload(job, fmt.Sprintf("upload: %v", err))
		return
	}

	// Upload confirmed: retire the source and the staging copy.
	if err := os.Remove(path); err != nil {
		c.logger.Warn("failed to remove source after upload", logging.String("path", path), logging.Error(err))
	}
	if err := os.Remove(job.DownloadPath); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("failed to remove download copy", logging.String("path", job.DownloadPath), logging.Error(err))
	}

	details := fmt.Sprintf("%d -> %d bytes in %s", job.File.Size, result.OutputSize, result.Duration.Round(time.Second))
	if result.Rescued {
		details += " (rescued)"
	}
	if _, err := c.store.UpdateStatus(path, queue.StatusCompleted, details); err != nil {
		c.logger.Warn("failed to mark entry completed", logging.String("path", path), logging.Error(err))
	}
	c.recordHistory(history.Record{
		SourcePath:  path,
		Outcome:     history.OutcomeCompleted,
		Details:     details,
		Codec:       job.Decision.Codec,
		BitrateKbps: job.Decision.BitrateKbps,
		InputBytes:  job.File.Size,
		OutputBytes: result.OutputSize,
		Duration:    result.Duration,
	})
	c.reporter.RecordCompleted(path, details)
	c.logger.Info("completed file", logging.String("path", path), logging.String("details", details))
}

// failUpload marks the entry failed but deliberately retains the encoded
// artifact and the remote source for manual recovery.
func (c *Coordinator) failUpload(job *Job, details string) {
	c.fail(job, queue.StatusUploading, details, true)
}

func (c *Coordinator) fail(job *Job, stage queue.Status, details string, keepEncode bool) {
	path := job.File.Path
	if _, err := c.store.UpdateStatus(path, queue.StatusFailed, details); err != nil {
		c.logger.Warn("failed to mark entry failed", logging.String("path", path), logging.Error(err))
	}

	if err := os.Remove(job.DownloadPath); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("failed to remove download copy", logging.String("path", job.DownloadPath), logging.Error(err))
	}
	if !keepEncode {
		if err := os.Remove(job.EncodePath); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("failed to remove encode artifact", logging.String("path", job.EncodePath), logging.Error(err))
		}
	}

	c.recordHistory(history.Record{
		SourcePath: path,
		Outcome:    history.OutcomeFailed,
		Details:    details,
		Codec:      job.Decision.Codec,
		InputBytes: job.File.Size,
	})
	c.reporter.RecordFailed(path, details)
	c.logger.Error("file failed",
		logging.String("path", path),
		logging.String("stage", string(stage)),
		logging.String("details", details),
	)
}

func (c *Coordinator) publishProgress() {
	stats, err := c.store.Stats()
	if err != nil {
		c.logger.Warn("queue stats failed", logging.Error(err))
	} else {
		c.reporter.SetQueueCounts(stats)
	}
	c.reporter.Flush()
}

// drain joins outstanding work after cancellation. Child processes see the
// cancelled context and die; anything still alive past the grace period is
// left to the staleness reclaim of the next run.
func (c *Coordinator) drain() {
	for _, task := range c.downloads {
		task.wait()
	}
	deadline := time.After(shutdownGrace)
	for path, enc := range c.encodes {
		select {
		case <-enc.proc.Done():
		case <-deadline:
			c.logger.Warn("transcode still running at shutdown", logging.String("path", path))
		}
	}
	c.reporter.Flush()
	c.logger.Info("pipeline stopped")
}

func (c *Coordinator) touch(path string) {
	if err := c.store.Touch(path); err != nil {
		c.logger.Debug("touch failed", logging.String("path", path), logging.Error(err))
	}
}

func (c *Coordinator) bufferUsed() int {
	return len(c.downloads) + len(c.ready)
}

func (c *Coordinator) tracked(path string) bool {
	if _, ok := c.downloads[path]; ok {
		return true
	}
	if _, ok := c.encodes[path]; ok {
		return true
	}
	for _, job := range c.ready {
		if job.File.Path == path {
			return true
		}
	}
	return false
}

func (c *Coordinator) skippedUnchanged(file media.File) bool {
	stamp, ok := c.skipped[file.Path]
	return ok && stamp.size == file.Size && stamp.modTime.Equal(file.ModTime)
}

func (c *Coordinator) recordHistory(record history.Record) {
	if c.hist == nil {
		return
	}
	if err := c.hist.Append(context.Background(), record); err != nil {
		c.logger.Warn("history append failed", logging.String("path", record.SourcePath), logging.Error(err))
	}
}
