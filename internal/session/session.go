package session

import (
	"time"

	"github.com/fakeyudi/oximon/internal/health"
)

// State records the monitor session currently bound to a user. It is written
// whenever the active user or the thresholds change, and removed when the
// monitor stops.
type State struct {
	ID         string            `json:"id"`
	UserID     string            `json:"user_id"`
	LogPath    string            `json:"log_path"`
	StartTime  time.Time         `json:"start_time"`
	OpenedAt   time.Time         `json:"opened_at"` // when the current user's log was opened
	Thresholds health.Thresholds `json:"thresholds"`
	Interval   string            `json:"interval"` // poll period, e.g. "5s"
	PID        int               `json:"pid"`
}

// Stale reports whether the process that wrote s is gone, as happens when a
// monitor is killed before it can remove its record.
func (s *State) Stale() bool {
	return s.PID <= 0 || !processAlive(s.PID)
}
