package sensor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSample(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
}

func TestFileSensorLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "max30102.txt")
	writeSample(t, path, "70,97\n68, 96\n\n")

	fs := NewFileSensor(path, 0)
	if err := fs.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	hr, o2, err := Poll(context.Background(), fs)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if hr != 68 || o2 != 96 {
		t.Errorf("got (%d, %d), want last line (68, 96)", hr, o2)
	}
}

func TestFileSensorNoSample(t *testing.T) {
	fs := NewFileSensor(filepath.Join(t.TempDir(), "missing.txt"), 0)
	_ = fs.Load()
	if _, err := fs.HeartRate(context.Background()); !errors.Is(err, ErrNoSample) {
		t.Fatalf("expected ErrNoSample, got %v", err)
	}
}

func TestFileSensorMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "max30102.txt")
	writeSample(t, path, "seventy,97\n")

	fs := NewFileSensor(path, 0)
	if err := fs.Load(); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if _, err := fs.OxygenSaturation(context.Background()); !errors.Is(err, ErrMalformed) {
		t.Fatalf("read after malformed load: %v", err)
	}
}

func TestFileSensorStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "max30102.txt")
	writeSample(t, path, "70,97\n")

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	fs := NewFileSensor(path, 10*time.Second)
	fs.now = func() time.Time { return now }
	if err := fs.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	now = now.Add(11 * time.Second)
	if _, err := fs.HeartRate(context.Background()); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
}

func TestFileSensorWatchPicksUpWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "max30102.txt")
	writeSample(t, path, "70,97\n")

	fs := NewFileSensor(path, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- fs.Watch(ctx) }()

	// Wait for the initial load performed by Watch.
	waitFor(t, func() bool {
		hr, _ := fs.HeartRate(context.Background())
		return hr == 70
	})

	writeSample(t, path, "88,93\n")
	waitFor(t, func() bool {
		hr, _ := fs.HeartRate(context.Background())
		return hr == 88
	})

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch returned %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
