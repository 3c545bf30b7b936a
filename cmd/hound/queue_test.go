package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	content := fmt.Sprintf(`[paths]
watch_roots = [%q]
download_dir = %q
encode_dir = %q
destination_dir = %q
log_dir = %q
`,
		filepath.Join(base, "watch"),
		filepath.Join(base, "download"),
		filepath.Join(base, "encode"),
		filepath.Join(base, "dest"),
		filepath.Join(base, "logs"),
	)
	path := filepath.Join(base, "hound.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("command %v: %v", args, err)
	}
	return out.String()
}

func TestQueueListEmpty(t *testing.T) {
	configPath := writeTestConfig(t)
	output := runCommand(t, "--config", configPath, "queue", "list")
	if !strings.Contains(output, "queue is empty") {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestQueueStats(t *testing.T) {
	configPath := writeTestConfig(t)
	output := runCommand(t, "--config", configPath, "queue", "stats")
	for _, want := range []string{"queued", "encoding", "total"} {
		if !strings.Contains(output, want) {
			t.Fatalf("stats output missing %q: %q", want, output)
		}
	}
}

func TestQueueClearEmpty(t *testing.T) {
	configPath := writeTestConfig(t)
	output := runCommand(t, "--config", configPath, "queue", "clear")
	if !strings.Contains(output, "cleared 0 entries") {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestDaemonStatusNotRunning(t *testing.T) {
	configPath := writeTestConfig(t)
	output := runCommand(t, "--config", configPath, "daemon", "status")
	if !strings.Contains(output, "not running") {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestConfigShow(t *testing.T) {
	configPath := writeTestConfig(t)
	output := runCommand(t, "--config", configPath, "config", "show")
	if !strings.Contains(output, "watch_roots") || !strings.Contains(output, "target_bitrate_kbps") {
		t.Fatalf("config show output incomplete: %q", output)
	}
}
