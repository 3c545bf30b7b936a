package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hound/internal/classify"
	"hound/internal/config"
	"hound/internal/history"
	"hound/internal/logging"
	"hound/internal/media"
	"hound/internal/media/ffprobe"
	"hound/internal/queue"
	"hound/internal/testsupport"
)

const okTranscoder = `#!/bin/sh
for a in "$@"; do out="$a"; done
echo "encoding" >&2
head -c 1024 /dev/zero > "$out"
exit 0
`

const failTranscoder = `#!/bin/sh
echo "boom" >&2
exit 1
`

func eligibleDecision() classify.Decision {
	return classify.Decision{
		Eligible:    true,
		Codec:       "h264",
		BitrateKbps: 12000,
		Probe: &ffprobe.Result{
			VideoCodec: "h264",
			Audio:      []ffprobe.Stream{{Index: 1, Codec: "ac3", Language: "eng"}},
		},
	}
}

func newTestCoordinator(t *testing.T, cfg *config.Config, transcoderScript string) (*Coordinator, *queue.Store, *history.Store) {
	t.Helper()
	cfg.Transcoder.TranscodeBinary = filepath.Join(t.TempDir(), "fake-transcoder")
	cfg.Transcoder.RescueHeuristic = false
	testsupport.StubBinary(t, cfg.Transcoder.TranscodeBinary, transcoderScript)

	store := testsupport.OpenStore(t, cfg)
	hist, err := history.Open(cfg.HistoryPath())
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { _ = hist.Close() })

	c := New(cfg, store, hist, logging.NewNop())
	c.classifyFile = func(context.Context, media.File) (classify.Decision, error) {
		return eligibleDecision(), nil
	}
	return c, store, hist
}

// runUntil drives cycles until the condition holds or the deadline passes.
func runUntil(t *testing.T, c *Coordinator, condition func() bool) {
	t.Helper()
	ctx := context.Background()
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		c.cycle(ctx)
		if condition() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not reached")
}

func entryStatus(t *testing.T, store *queue.Store, path string) (queue.Status, bool) {
	t.Helper()
	entry, ok, err := store.Get(path)
	if err != nil {
		t.Fatal(err)
	}
	return entry.Status, ok
}

func TestCoordinatorHappyPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(cfg.Paths.WatchRoots[0], "movies", "film.mkv")
	testsupport.WriteFile(t, source, 4096)

	c, store, hist := newTestCoordinator(t, cfg, okTranscoder)

	runUntil(t, c, func() bool {
		status, ok := entryStatus(t, store, source)
		return ok && status == queue.StatusCompleted
	})

	// Destination layout is destRoot/category/relative-dir.
	dest := filepath.Join(cfg.Paths.DestinationDir, "movies", "movies", "film.mkv")
	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("encoded file not delivered: %v", err)
	}
	if info.Size() != 1024 {
		t.Fatalf("delivered size = %d", info.Size())
	}

	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Fatal("source must be removed after confirmed upload")
	}
	for _, dir := range []string{cfg.Paths.DownloadDir, cfg.Paths.EncodeDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Fatalf("staging dir %s not cleaned: %v", dir, entries)
		}
	}

	records, err := hist.List(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Outcome != history.OutcomeCompleted {
		t.Fatalf("history: %+v", records)
	}
}

func TestCoordinatorTranscodeFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(cfg.Paths.WatchRoots[0], "movies", "film.mkv")
	testsupport.WriteFile(t, source, 4096)

	c, store, hist := newTestCoordinator(t, cfg, failTranscoder)

	runUntil(t, c, func() bool {
		status, ok := entryStatus(t, store, source)
		return ok && status == queue.StatusFailed
	})

	if _, err := os.Stat(source); err != nil {
		t.Fatalf("source must be untouched on failure: %v", err)
	}
	entries, err := os.ReadDir(cfg.Paths.DownloadDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("download staging not cleaned: %v", entries)
	}

	records, err := hist.List(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Outcome != history.OutcomeFailed {
		t.Fatalf("history: %+v", records)
	}
}

func TestCoordinatorSkipNeverEnqueues(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(cfg.Paths.WatchRoots[0], "movies", "old.mkv")
	testsupport.WriteFile(t, source, 4096)

	c, store, hist := newTestCoordinator(t, cfg, okTranscoder)
	probes := 0
	c.classifyFile = func(context.Context, media.File) (classify.Decision, error) {
		probes++
		return classify.Decision{Codec: "hevc", Reason: classify.ReasonAlreadyCompressed}, nil
	}

	ctx := context.Background()
	c.cycle(ctx)
	c.cycle(ctx)

	if _, ok := entryStatus(t, store, source); ok {
		t.Fatal("skipped file must not create a queue entry")
	}
	if probes != 1 {
		t.Fatalf("unchanged skipped file re-probed %d times", probes)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("skipped source must stay in place: %v", err)
	}

	records, err := hist.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Outcome != history.OutcomeSkipped {
		t.Fatalf("history: %+v", records)
	}
}

func TestCoordinatorBoundsDownloadBuffer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Pipeline.DownloadBuffer = 1
	cfg.Pipeline.TranscodeSlots = 1
	for _, name := range []string{"a.mkv", "b.mkv", "c.mkv"} {
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.WatchRoots[0], "movies", name), 2048)
	}

	c, _, _ := newTestCoordinator(t, cfg, okTranscoder)

	c.cycle(context.Background())
	if used := c.bufferUsed(); used > 1 {
		t.Fatalf("download buffer overcommitted: %d", used)
	}
}

func TestCoordinatorProbeFailureIsSoft(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(cfg.Paths.WatchRoots[0], "movies", "flaky.mkv")
	testsupport.WriteFile(t, source, 4096)

	c, store, _ := newTestCoordinator(t, cfg, okTranscoder)
	calls := 0
	c.classifyFile = func(context.Context, media.File) (classify.Decision, error) {
		calls++
		return classify.Decision{}, os.ErrDeadlineExceeded
	}

	ctx := context.Background()
	c.cycle(ctx)
	c.cycle(ctx)

	if _, ok := entryStatus(t, store, source); ok {
		t.Fatal("probe failure must not create a queue entry")
	}
	// Soft failures are retried every cycle, not memoized.
	if calls != 2 {
		t.Fatalf("expected a probe per cycle, got %d", calls)
	}
}
