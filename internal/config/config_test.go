package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.WatchRoots = []string{filepath.Join(base, "incoming")}
	cfg.Paths.DownloadDir = filepath.Join(base, "download")
	cfg.Paths.EncodeDir = filepath.Join(base, "encode")
	cfg.Paths.DestinationDir = filepath.Join(base, "library")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return cfg
}

func TestLoadFillsUnsetFieldsWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		`[paths]`,
		`watch_roots = ["` + filepath.Join(dir, "in") + `"]`,
		`destination_dir = "` + filepath.Join(dir, "out") + `"`,
		`download_dir = "` + filepath.Join(dir, "dl") + `"`,
		`encode_dir = "` + filepath.Join(dir, "enc") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s to exist, got %s exists=%v", path, resolved, exists)
	}
	if cfg.Scan.PollInterval != defaultPollInterval {
		t.Fatalf("expected default poll interval, got %d", cfg.Scan.PollInterval)
	}
	if cfg.PollInterval() != time.Duration(defaultPollInterval)*time.Second {
		t.Fatalf("PollInterval() = %v", cfg.PollInterval())
	}
}

func TestLoadRejectsMissingWatchRoots(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[paths]\ndestination_dir = \""+dir+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected validation error for missing watch roots")
	}
}

func TestNormalizeExtensions(t *testing.T) {
	cfg := validConfig(t)
	cfg.Scan.Extensions = []string{"MKV", ".mp4", " .mp4 ", ""}
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []string{".mkv", ".mp4"}
	if len(cfg.Scan.Extensions) != len(want) {
		t.Fatalf("extensions = %v, want %v", cfg.Scan.Extensions, want)
	}
	for i, ext := range want {
		if cfg.Scan.Extensions[i] != ext {
			t.Fatalf("extensions = %v, want %v", cfg.Scan.Extensions, want)
		}
	}
}

func TestSkipThreshold(t *testing.T) {
	cfg := validConfig(t)
	cfg.Classify.TargetBitrateKbps = 6000
	cfg.Classify.SkipMultiplier = 1.3
	if got := cfg.SkipThresholdKbps(); got != 7800 {
		t.Fatalf("SkipThresholdKbps() = %d, want 7800", got)
	}
}

func TestValidateRejectsSharedStagingDir(t *testing.T) {
	cfg := validConfig(t)
	cfg.Paths.EncodeDir = cfg.Paths.DownloadDir
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when staging dirs collide")
	}
}

func TestValidateRescueHeuristic(t *testing.T) {
	cfg := validConfig(t)
	cfg.Transcoder.RescueMinSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero rescue duration floor")
	}
	cfg.Transcoder.RescueHeuristic = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("rescue thresholds should not be validated when disabled: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DownloadDir, cfg.Paths.EncodeDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s, err=%v", dir, err)
		}
	}
}

func TestStatePaths(t *testing.T) {
	cfg := validConfig(t)
	if got := cfg.QueuePath(); filepath.Dir(got) != cfg.Paths.LogDir {
		t.Fatalf("queue path %s not under log dir", got)
	}
	if filepath.Base(cfg.LockPath()) != "houndd.lock" {
		t.Fatalf("unexpected lock path %s", cfg.LockPath())
	}
}
