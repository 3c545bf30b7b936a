package deps

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hound/internal/config"
	"hound/internal/services"
)

func stubBinary(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestCheckBinaries(t *testing.T) {
	dir := t.TempDir()
	stubBinary(t, dir, "present")
	t.Setenv("PATH", dir)

	statuses := CheckBinaries([]Requirement{
		{Name: "present", Command: "present"},
		{Name: "missing", Command: "definitely-not-installed"},
		{Name: "blank", Command: "   "},
	})

	if !statuses[0].Available {
		t.Fatalf("present binary reported unavailable: %+v", statuses[0])
	}
	if statuses[1].Available || statuses[1].Detail == "" {
		t.Fatalf("missing binary must carry a detail: %+v", statuses[1])
	}
	if statuses[2].Available || statuses[2].Detail != "command not configured" {
		t.Fatalf("blank command: %+v", statuses[2])
	}
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	stubBinary(t, dir, "ffprobe")
	t.Setenv("PATH", dir)

	cfg := config.Default()
	cfg.Transcoder.ProbeBinary = "ffprobe"
	cfg.Transcoder.TranscodeBinary = "definitely-not-installed"

	err := Verify(&cfg)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}

	stubBinary(t, dir, "ffmpeg")
	cfg.Transcoder.TranscodeBinary = "ffmpeg"
	if err := Verify(&cfg); err != nil {
		t.Fatalf("Verify with both binaries present: %v", err)
	}
}
