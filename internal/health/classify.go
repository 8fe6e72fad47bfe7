package health

import "strings"

// HeartRateState is the heart-rate axis of a Classification.
type HeartRateState int

const (
	HeartRateNormal HeartRateState = iota
	HeartRateLow
	HeartRateHigh
)

func (s HeartRateState) String() string {
	switch s {
	case HeartRateLow:
		return "low"
	case HeartRateHigh:
		return "high"
	default:
		return "normal"
	}
}

// OxygenState is the oxygen-saturation axis of a Classification.
type OxygenState int

const (
	OxygenNormal OxygenState = iota
	OxygenLow
)

func (s OxygenState) String() string {
	if s == OxygenLow {
		return "low"
	}
	return "normal"
}

// Classification is the per-axis health state of one reading.
type Classification struct {
	HeartRate HeartRateState `json:"heart_rate"`
	Oxygen    OxygenState    `json:"oxygen"`
}

// Normal reports whether both axes are within their bounds.
func (c Classification) Normal() bool {
	return c.HeartRate == HeartRateNormal && c.Oxygen == OxygenNormal
}

// Summary renders one analysis line per axis.
func (c Classification) Summary() string {
	var lines []string
	switch c.HeartRate {
	case HeartRateLow:
		lines = append(lines, "Heart rate low. Possible hypotension.")
	case HeartRateHigh:
		lines = append(lines, "Heart rate high. Possible stress or cardiac concern.")
	default:
		lines = append(lines, "Heart rate normal.")
	}
	if c.Oxygen == OxygenLow {
		lines = append(lines, "Oxygen saturation low. Possible respiratory issue.")
	} else {
		lines = append(lines, "Oxygen saturation normal.")
	}
	return strings.Join(lines, "\n")
}

// Classify maps a reading onto the thresholds. The two axes are independent.
func Classify(r Reading, t Thresholds) Classification {
	var c Classification
	switch {
	case r.HeartRate < t.HeartRateLow:
		c.HeartRate = HeartRateLow
	case r.HeartRate > t.HeartRateHigh:
		c.HeartRate = HeartRateHigh
	default:
		c.HeartRate = HeartRateNormal
	}
	if r.OxygenSaturation < t.OxygenMin {
		c.Oxygen = OxygenLow
	} else {
		c.Oxygen = OxygenNormal
	}
	return c
}
