package health

import "fmt"

// Bounds accepted for each threshold.
const (
	MaxHeartRate = 200
	MaxOxygen    = 100
)

// Thresholds are the three adjustable bounds the classifier compares against.
type Thresholds struct {
	HeartRateLow  int `json:"heart_rate_low" yaml:"heart_rate_low"`
	HeartRateHigh int `json:"heart_rate_high" yaml:"heart_rate_high"`
	OxygenMin     int `json:"oxygen_min" yaml:"oxygen_min"`
}

// DefaultThresholds returns the bounds used when a session starts.
func DefaultThresholds() Thresholds {
	return Thresholds{HeartRateLow: 60, HeartRateHigh: 100, OxygenMin: 95}
}

// Update returns a new Thresholds built from the given values. When any value
// is out of range the receiver is returned unchanged along with a
// *ValidationError naming the first offending field.
func (t Thresholds) Update(low, high, oxygenMin int) (Thresholds, error) {
	next := Thresholds{HeartRateLow: low, HeartRateHigh: high, OxygenMin: oxygenMin}
	if err := next.Validate(); err != nil {
		return t, err
	}
	return next, nil
}

// Validate checks 0 <= low <= high <= 200 and 0 <= oxygenMin <= 100.
func (t Thresholds) Validate() error {
	switch {
	case t.HeartRateLow < 0 || t.HeartRateLow > MaxHeartRate:
		return &ValidationError{Field: "heart_rate_low", Value: t.HeartRateLow, Min: 0, Max: MaxHeartRate}
	case t.HeartRateHigh < 0 || t.HeartRateHigh > MaxHeartRate:
		return &ValidationError{Field: "heart_rate_high", Value: t.HeartRateHigh, Min: 0, Max: MaxHeartRate}
	case t.HeartRateHigh < t.HeartRateLow:
		return &ValidationError{Field: "heart_rate_high", Value: t.HeartRateHigh, Min: t.HeartRateLow, Max: MaxHeartRate}
	case t.OxygenMin < 0 || t.OxygenMin > MaxOxygen:
		return &ValidationError{Field: "oxygen_min", Value: t.OxygenMin, Min: 0, Max: MaxOxygen}
	}
	return nil
}

func (t Thresholds) String() string {
	return fmt.Sprintf("heart rate %d-%d bpm, oxygen >= %d%%", t.HeartRateLow, t.HeartRateHigh, t.OxygenMin)
}

// ValidationError is returned when a threshold update is rejected.
type ValidationError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %d is outside the allowed range [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}
