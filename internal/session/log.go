package session

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/fakeyudi/oximon/internal/health"
)

// Header is the first row of every log file.
var Header = []string{"Timestamp", "Heart Rate (bpm)", "Oxygen (%)"}

var (
	// ErrClosed is returned by Append after Close.
	ErrClosed = errors.New("session log is closed")
	// ErrOutOfOrder is returned when a reading predates the last one logged.
	ErrOutOfOrder = errors.New("reading is older than the last logged reading")
)

// Log is the append-only reading log of one user. Every Append is flushed and
// synced before it returns.
type Log struct {
	userID string
	path   string

	mu      sync.Mutex
	f       *os.File
	w       *csv.Writer
	history []health.Reading
	closed  bool
}

// FileName derives the log file name for a user identity. Letters and digits
// are kept in lower case, a space becomes '-', and any other byte is written as
// '_' and two hex digits, so distinct identities never share a file. Names that
// differ only in case map to the same file, as they do in the roster.
func FileName(userID string) string {
	id := strings.ToLower(strings.TrimSpace(userID))
	var sb strings.Builder
	for len(id) > 0 {
		r, size := utf8.DecodeRuneInString(id)
		switch {
		case r == ' ':
			sb.WriteByte('-')
		case r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			sb.WriteRune(r)
		default:
			for i := 0; i < size; i++ {
				fmt.Fprintf(&sb, "_%02x", id[i])
			}
		}
		id = id[size:]
	}
	return sb.String() + "_health_data.csv"
}

// LogPath returns where userID's log lives under dir.
func LogPath(dir, userID string) string {
	return filepath.Join(dir, FileName(userID))
}

// Open creates (or truncates) userID's log under dir and writes the header.
// Prior contents for the same identity are discarded.
func Open(dir, userID string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	path := LogPath(dir, userID)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log for %q: %w", userID, err)
	}
	l := &Log{userID: userID, path: path, f: f, w: csv.NewWriter(f)}
	if err := l.writeRow(Header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing log header: %w", err)
	}
	return l, nil
}

// UserID returns the identity this log belongs to.
func (l *Log) UserID() string { return l.userID }

// Path returns the file backing the log.
func (l *Log) Path() string { return l.path }

// Append writes one reading and syncs it to disk. The reading joins History
// only when the write succeeds.
func (l *Log) Append(r health.Reading) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if n := len(l.history); n > 0 && r.Time.Before(l.history[n-1].Time) {
		return fmt.Errorf("%s before %s: %w",
			r.Time.Format(health.TimeLayout), l.history[n-1].Time.Format(health.TimeLayout), ErrOutOfOrder)
	}
	row := []string{
		r.Time.Format(health.TimeLayout),
		strconv.Itoa(r.HeartRate),
		strconv.Itoa(r.OxygenSaturation),
	}
	if err := l.writeRow(row); err != nil {
		return fmt.Errorf("appending reading for %q: %w", l.userID, err)
	}
	l.history = append(l.history, r)
	return nil
}

// History returns a copy of the readings appended since Open.
func (l *Log) History() []health.Reading {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]health.Reading, len(l.history))
	copy(out, l.history)
	return out
}

// Len returns the number of readings appended since Open.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.history)
}

// Close releases the file. Calling it again is a no-op.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.w.Flush()
	werr := l.w.Error()
	if err := l.f.Close(); err != nil {
		return fmt.Errorf("closing log for %q: %w", l.userID, err)
	}
	return werr
}

func (l *Log) writeRow(row []string) error {
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return err
	}
	return l.f.Sync()
}
