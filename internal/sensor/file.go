package sensor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

var (
	// ErrMalformed is returned when the sample file cannot be parsed.
	ErrMalformed = errors.New("malformed sample")
	// ErrStale is returned when the last sample is older than the staleness window.
	ErrStale = errors.New("sample is stale")
)

// FileSensor reads samples that an external device driver writes to a text
// file as "<heart rate>,<oxygen saturation>". The last non-empty line wins.
// Safe for concurrent use: Watch updates the cached sample while the monitor
// reads it.
type FileSensor struct {
	path       string
	staleAfter time.Duration
	now        func() time.Time

	mu   sync.RWMutex
	hr   int
	o2   int
	at   time.Time
	err  error
	seen bool
}

// NewFileSensor returns a sensor fed from path. staleAfter of zero disables
// the staleness check.
func NewFileSensor(path string, staleAfter time.Duration) *FileSensor {
	return &FileSensor{
		path:       filepath.Clean(path),
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Load reads the sample file once and caches the result.
func (f *FileSensor) Load() error {
	hr, o2, err := readSample(f.path)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.err = err
		return err
	}
	f.hr, f.o2, f.at, f.err, f.seen = hr, o2, f.now(), nil, true
	return nil
}

// Watch reloads the sample whenever the file is written or recreated, until
// ctx is cancelled. The parent directory is watched so editors and drivers
// that replace the file atomically are picked up.
func (f *FileSensor) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(f.path), err)
	}
	// Best effort: the file may not exist until the driver starts.
	_ = f.Load()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				_ = f.Load()
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; the next write is retried.
		}
	}
}

func (f *FileSensor) HeartRate(ctx context.Context) (int, error) {
	hr, _, err := f.sample(ctx)
	return hr, err
}

func (f *FileSensor) OxygenSaturation(ctx context.Context) (int, error) {
	_, o2, err := f.sample(ctx)
	return o2, err
}

func (f *FileSensor) sample(ctx context.Context) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	switch {
	case f.err != nil:
		return 0, 0, f.err
	case !f.seen:
		return 0, 0, ErrNoSample
	case f.staleAfter > 0 && f.now().Sub(f.at) > f.staleAfter:
		return 0, 0, fmt.Errorf("last sample at %s: %w", f.at.Format(time.RFC3339), ErrStale)
	}
	return f.hr, f.o2, nil
}

// readSample parses the last non-empty line of path.
func readSample(path string) (int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, 0, ErrNoSample
		}
		return 0, 0, err
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		return 0, 0, ErrNoSample
	}
	parts := strings.Split(last, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%q: %w", last, ErrMalformed)
	}
	hr, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("%q: %w", last, ErrMalformed)
	}
	o2, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("%q: %w", last, ErrMalformed)
	}
	return hr, o2, nil
}
