// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"hound/internal/config"
	"hound/internal/logging"
	"hound/internal/queue"
)

// NewConfig returns a config rooted in per-test temp directories with
// thresholds collapsed so pipeline tests run instantly.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()

	cfg := config.Default()
	cfg.Paths.WatchRoots = []string{filepath.Join(base, "watch")}
	cfg.Paths.DownloadDir = filepath.Join(base, "staging", "download")
	cfg.Paths.EncodeDir = filepath.Join(base, "staging", "encode")
	cfg.Paths.DestinationDir = filepath.Join(base, "dest")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	cfg.Scan.MinSizeMiB = 0
	cfg.Scan.PollInterval = 1
	cfg.Scan.MinFileAge = 0
	cfg.Scan.SettleDelay = 0
	cfg.Transcoder.NiceLevel = 0

	for _, dir := range append([]string{cfg.Paths.DownloadDir, cfg.Paths.EncodeDir, cfg.Paths.DestinationDir, cfg.Paths.LogDir}, cfg.Paths.WatchRoots...) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return &cfg
}

// OpenStore opens a queue store against the config's queue path.
func OpenStore(t *testing.T, cfg *config.Config) *queue.Store {
	t.Helper()
	store, err := queue.Open(cfg.QueuePath(), queue.Windows{
		EncodingStale: cfg.EncodingStaleWindow(),
		ActiveStale:   cfg.ActiveStaleWindow(),
		Cooldown:      cfg.CooldownWindow(),
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("open queue store: %v", err)
	}
	return store
}

// WriteFile creates a file of the given size, with parents.
func WriteFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

// StubBinary writes an executable shell script.
func StubBinary(t *testing.T, path, script string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
}
