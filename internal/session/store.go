// Package session persists monitor sessions: one truncating CSV log per user
// and a small state record describing the running monitor.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const stateFileName = "state.json"

// ErrNoSession is returned by Load when no monitor has recorded its state.
var ErrNoSession = errors.New("no active session")

// StateStore holds the record of the monitor that owns the data directory.
type StateStore interface {
	Save(s *State) error
	Load() (*State, error) // returns ErrNoSession if none exists
	Delete() error
}

// stateFile keeps the record as JSON in the data directory. Each Save
// replaces the whole file.
type stateFile struct {
	dir string
}

// NewStateStore returns a StateStore backed by dir, creating it if needed.
func NewStateStore(dir string) (StateStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &stateFile{dir: dir}, nil
}

// DataDir returns $XDG_DATA_HOME/oximon, falling back to ~/.local/share/oximon.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "oximon"), nil
}

func (f *stateFile) path() string {
	return filepath.Join(f.dir, stateFileName)
}

func (f *stateFile) Save(s *State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding monitor state: %w", err)
	}
	if err := writeAtomic(f.path(), data); err != nil {
		return fmt.Errorf("saving monitor state: %w", err)
	}
	return nil
}

func (f *stateFile) Load() (*State, error) {
	data, err := os.ReadFile(f.path())
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, ErrNoSession
	case err != nil:
		return nil, fmt.Errorf("reading monitor state: %w", err)
	}
	s := new(State)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decoding monitor state %s: %w", f.path(), err)
	}
	return s, nil
}

func (f *stateFile) Delete() error {
	err := os.Remove(f.path())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing monitor state: %w", err)
	}
	return nil
}

// writeAtomic replaces path with data. The bytes go to a synced temp file in
// the same directory first, so readers see the old record or the new one.
func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
