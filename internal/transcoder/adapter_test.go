package transcoder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"hound/internal/config"
	"hound/internal/logging"
	"hound/internal/services"
)

// stubTranscoder writes a script that ignores its flags, writes size bytes to
// the final argument, emits a stderr line, and exits with code.
func stubTranscoder(t *testing.T, size, code int) string {
	t.Helper()
	script := `#!/bin/sh
for a in "$@"; do out="$a"; done
echo "progress: working" >&2
head -c ` + strconv.Itoa(size) + ` /dev/zero > "$out"
exit ` + strconv.Itoa(code) + `
`
	path := filepath.Join(t.TempDir(), "fake-transcoder")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func adapterWith(t *testing.T, binary string, mutate func(*config.Config)) *Adapter {
	t.Helper()
	cfg := config.Default()
	cfg.Transcoder.TranscodeBinary = binary
	cfg.Transcoder.NiceLevel = 0
	if mutate != nil {
		mutate(&cfg)
	}
	return New(&cfg, logging.NewNop())
}

func runToCompletion(t *testing.T, adapter *Adapter, output string) *Process {
	t.Helper()
	proc, err := adapter.Start(context.Background(), "/watch/in.mkv", "/staging/in.mkv", output, Selection{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-proc.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("transcode stub did not finish")
	}
	return proc
}

func TestStartAndCollectSuccess(t *testing.T) {
	binary := stubTranscoder(t, 2048, 0)
	adapter := adapterWith(t, binary, nil)
	output := filepath.Join(t.TempDir(), "out.mkv")

	proc := runToCompletion(t, adapter, output)
	if !proc.Finished() {
		t.Fatal("Finished must report true after Done closes")
	}

	result, err := adapter.Collect(proc)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if result.ExitCode != 0 || result.Rescued {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.OutputSize != 2048 {
		t.Fatalf("OutputSize = %d", result.OutputSize)
	}
	if !strings.Contains(result.StderrTail, "progress: working") {
		t.Fatalf("stderr not drained: %q", result.StderrTail)
	}
}

func TestCollectFailure(t *testing.T) {
	binary := stubTranscoder(t, 16, 3)
	adapter := adapterWith(t, binary, func(cfg *config.Config) {
		cfg.Transcoder.RescueHeuristic = false
	})
	output := filepath.Join(t.TempDir(), "out.mkv")

	proc := runToCompletion(t, adapter, output)
	result, err := adapter.Collect(proc)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if result.ExitCode != 3 || result.Rescued {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCollectRescue(t *testing.T) {
	binary := stubTranscoder(t, 4096, 1)
	adapter := adapterWith(t, binary, func(cfg *config.Config) {
		cfg.Transcoder.RescueHeuristic = true
		cfg.Transcoder.RescueMinSizeMiB = 0
		cfg.Transcoder.RescueMinSeconds = 0
	})
	output := filepath.Join(t.TempDir(), "out.mkv")

	proc := runToCompletion(t, adapter, output)
	result, err := adapter.Collect(proc)
	if err != nil {
		t.Fatalf("rescued run must not error: %v", err)
	}
	if !result.Rescued || result.ExitCode != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCollectRescueRequiresOutputSize(t *testing.T) {
	binary := stubTranscoder(t, 16, 1)
	adapter := adapterWith(t, binary, func(cfg *config.Config) {
		cfg.Transcoder.RescueHeuristic = true
		cfg.Transcoder.RescueMinSizeMiB = 10
		cfg.Transcoder.RescueMinSeconds = 0
	})
	output := filepath.Join(t.TempDir(), "out.mkv")

	proc := runToCompletion(t, adapter, output)
	if _, err := adapter.Collect(proc); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("tiny output must not be rescued, got %v", err)
	}
}

func TestStartDrainsOversizedStderr(t *testing.T) {
	// 4 MiB of stderr without a single newline. The drain must keep
	// consuming the pipe or the child blocks on write and never exits.
	script := `#!/bin/sh
for a in "$@"; do out="$a"; done
head -c 4194304 /dev/zero | tr "\0" "x" >&2
head -c 512 /dev/zero > "$out"
exit 0
`
	path := filepath.Join(t.TempDir(), "fake-transcoder")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	adapter := adapterWith(t, path, nil)
	output := filepath.Join(t.TempDir(), "out.mkv")

	proc := runToCompletion(t, adapter, output)
	result, err := adapter.Collect(proc)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if result.ExitCode != 0 || result.OutputSize != 512 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestStartSplitsCarriageReturnProgress(t *testing.T) {
	script := `#!/bin/sh
for a in "$@"; do out="$a"; done
printf "frame=1\rframe=2\rframe=3\n" >&2
head -c 512 /dev/zero > "$out"
exit 0
`
	path := filepath.Join(t.TempDir(), "fake-transcoder")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	adapter := adapterWith(t, path, nil)
	proc := runToCompletion(t, adapter, filepath.Join(t.TempDir(), "out.mkv"))
	result, err := adapter.Collect(proc)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	for _, want := range []string{"frame=1", "frame=3"} {
		if !strings.Contains(result.StderrTail, want) {
			t.Fatalf("tail missing %q: %q", want, result.StderrTail)
		}
	}
}

func TestStartMissingBinary(t *testing.T) {
	adapter := adapterWith(t, filepath.Join(t.TempDir(), "does-not-exist"), nil)
	_, err := adapter.Start(context.Background(), "/watch/in.mkv", "in.mkv", "out.mkv", Selection{})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}
