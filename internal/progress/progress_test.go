package progress

import (
	"path/filepath"
	"testing"

	"hound/internal/logging"
	"hound/internal/queue"
)

func TestFlushAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	reporter := NewReporter(path, logging.NewNop())

	reporter.SetQueueCounts(queue.Stats{ByStatus: map[queue.Status]int{
		queue.StatusQueued:   2,
		queue.StatusEncoding: 1,
	}})
	reporter.RecordCompleted("/watch/a.mkv", "1.2 GiB -> 600 MiB")
	reporter.RecordSkipped("/watch/b.mkv", "already compressed")
	reporter.RecordFailed("/watch/c.mkv", "transcoder exit 1")
	reporter.RecordCompleted("/watch/d.mkv", "")
	reporter.Flush()

	snapshot, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snapshot.Queued != 2 || snapshot.Encoding != 1 {
		t.Fatalf("queue counts: %+v", snapshot)
	}
	if snapshot.Completed != 2 || snapshot.Failed != 1 || snapshot.Skipped != 1 {
		t.Fatalf("counters: %+v", snapshot)
	}
	if snapshot.LastCompleted == nil || snapshot.LastCompleted.Path != "/watch/d.mkv" {
		t.Fatalf("LastCompleted = %+v", snapshot.LastCompleted)
	}
	if snapshot.LastFailed.Details != "transcoder exit 1" {
		t.Fatalf("LastFailed = %+v", snapshot.LastFailed)
	}
	if snapshot.UpdatedAt.IsZero() || snapshot.StartedAt.IsZero() {
		t.Fatal("timestamps must be set")
	}
}

func TestFlushUnwritablePathDoesNotPanic(t *testing.T) {
	reporter := NewReporter(filepath.Join(t.TempDir(), "missing", "nested", "progress.json"), logging.NewNop())
	reporter.RecordCompleted("/watch/a.mkv", "")
	// Best-effort: the write fails silently.
	reporter.Flush()

	if got := reporter.Current(); got.Completed != 1 {
		t.Fatalf("in-memory snapshot lost: %+v", got)
	}
}
