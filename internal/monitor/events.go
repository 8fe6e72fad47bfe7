package monitor

import (
	"time"

	"github.com/fakeyudi/oximon/internal/health"
)

// AlertKind tags an Alert so consumers can tell health warnings from device
// and storage failures.
type AlertKind string

const (
	KindHealth  AlertKind = "health"
	KindDevice  AlertKind = "device"
	KindStorage AlertKind = "storage"
)

// Alert is a modal-style notification emitted during a tick or a command.
type Alert struct {
	Kind    AlertKind `json:"kind"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	User    string    `json:"user"`
	Time    time.Time `json:"time"`
}

// Update is emitted once per successful tick. It carries copies only, so a
// renderer on another goroutine never touches loop state.
type Update struct {
	SessionID      string                `json:"session_id"`
	User           string                `json:"user"`
	Reading        health.Reading        `json:"reading"`
	Classification health.Classification `json:"classification"`
	Thresholds     health.Thresholds     `json:"thresholds"`
	Persisted      bool                  `json:"persisted"`
}

// Sink receives loop output. Calls are made from the loop goroutine, one at a
// time, and must not call back into the Loop.
type Sink interface {
	Publish(Update)
	Alert(Alert)
}

// Snapshot is an immutable copy of the loop's state.
type Snapshot struct {
	Status     Status
	SessionID  string
	User       string
	LogPath    string
	Thresholds health.Thresholds
	History    []health.Reading
}
