// Package health holds the pure monitoring domain: readings, thresholds and
// the classifier that compares one against the other.
package health

import "time"

// TimeLayout is the second-precision layout used wherever a reading's time is
// written out.
const TimeLayout = "2006-01-02 15:04:05"

// Reading is a single timestamped pulse-oximeter sample.
type Reading struct {
	Time             time.Time `json:"time"`
	HeartRate        int       `json:"heart_rate"`
	OxygenSaturation int       `json:"oxygen_saturation"`
}

// NewReading builds a Reading at t truncated to the second.
func NewReading(t time.Time, heartRate, oxygenSaturation int) Reading {
	return Reading{
		Time:             t.Truncate(time.Second),
		HeartRate:        heartRate,
		OxygenSaturation: oxygenSaturation,
	}
}
