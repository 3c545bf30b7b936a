package readiness

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestGate(minAge, settle time.Duration) *Gate {
	g := New(minAge, settle)
	g.sleep = func(context.Context, time.Duration) error { return nil }
	return g
}

func writeTemp(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candidate.mkv")
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckReady(t *testing.T) {
	path := writeTemp(t, 128)
	gate := newTestGate(time.Minute, time.Second)
	ready, reason, err := gate.Check(context.Background(), path, 128, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !ready {
		t.Fatalf("expected ready, got reason %q", reason)
	}
}

func TestCheckTooYoung(t *testing.T) {
	path := writeTemp(t, 128)
	gate := newTestGate(time.Hour, 0)
	ready, reason, err := gate.Check(context.Background(), path, 128, time.Now())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if ready || reason == "" {
		t.Fatalf("expected not ready with reason, got ready=%v reason=%q", ready, reason)
	}
}

func TestCheckSizeChanged(t *testing.T) {
	path := writeTemp(t, 128)
	gate := newTestGate(0, time.Second)
	gate.sleep = func(context.Context, time.Duration) error {
		// Simulate a writer appending during the settle wait.
		return os.WriteFile(path, make([]byte, 256), 0o644)
	}
	ready, reason, err := gate.Check(context.Background(), path, 128, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if ready {
		t.Fatal("expected not ready when size changes")
	}
	if reason != "file size still changing" {
		t.Fatalf("unexpected reason %q", reason)
	}
}

func TestCheckMissingFile(t *testing.T) {
	gate := newTestGate(0, 0)
	ready, _, err := gate.Check(context.Background(), filepath.Join(t.TempDir(), "missing"), 1, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if ready {
		t.Fatal("missing file must not be ready")
	}
}

func TestCheckCancelled(t *testing.T) {
	path := writeTemp(t, 64)
	gate := New(0, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := gate.Check(ctx, path, 64, time.Now().Add(-time.Hour)); err == nil {
		t.Fatal("expected context error")
	}
}
