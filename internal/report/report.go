// Package report builds threshold reports from a saved session log and
// renders them as Markdown or JSON.
package report

import (
	"time"

	"github.com/fakeyudi/oximon/internal/health"
)

// Report is the complete, renderable summary of one user's session log.
type Report struct {
	User        string            `json:"user"`
	Operator    string            `json:"operator,omitempty"`
	LogPath     string            `json:"log_path"`
	GeneratedAt time.Time         `json:"generated_at"`
	Thresholds  health.Thresholds `json:"thresholds"`
	Summary     Summary           `json:"summary"`
	Events      []Event           `json:"events"`
}

// Summary counts readings per classification.
type Summary struct {
	Readings      int       `json:"readings"`
	First         time.Time `json:"first"`
	Last          time.Time `json:"last"`
	Duration      string    `json:"duration"` // human-readable, e.g. "2m30s"
	Normal        int       `json:"normal"`
	LowHeartRate  int       `json:"low_heart_rate"`
	HighHeartRate int       `json:"high_heart_rate"`
	LowOxygen     int       `json:"low_oxygen"`
}

// Event is a reading that raised at least one warning.
type Event struct {
	Time             time.Time `json:"time"`
	HeartRate        int       `json:"heart_rate"`
	OxygenSaturation int       `json:"oxygen_saturation"`
	Warnings         []string  `json:"warnings"`
}

// Build classifies every reading against t and collects the out-of-range ones.
func Build(user, logPath string, readings []health.Reading, t health.Thresholds, now time.Time) *Report {
	r := &Report{
		User:        user,
		LogPath:     logPath,
		GeneratedAt: now,
		Thresholds:  t,
		Events:      []Event{},
	}
	s := &r.Summary
	s.Readings = len(readings)
	if len(readings) > 0 {
		s.First = readings[0].Time
		s.Last = readings[len(readings)-1].Time
		s.Duration = s.Last.Sub(s.First).String()
	}
	for _, rd := range readings {
		c := health.Classify(rd, t)
		switch c.HeartRate {
		case health.HeartRateLow:
			s.LowHeartRate++
		case health.HeartRateHigh:
			s.HighHeartRate++
		}
		if c.Oxygen == health.OxygenLow {
			s.LowOxygen++
		}
		if c.Normal() {
			s.Normal++
			continue
		}
		ev := Event{Time: rd.Time, HeartRate: rd.HeartRate, OxygenSaturation: rd.OxygenSaturation}
		for _, w := range health.WarningsFor(c) {
			ev.Warnings = append(ev.Warnings, w.Title)
		}
		r.Events = append(r.Events, ev)
	}
	return r
}
