package health

// Warning is a user-facing message for one out-of-range axis.
type Warning struct {
	Title   string
	Message string
}

var (
	WarnLowHeartRate = Warning{
		Title:   "Low heart rate!",
		Message: "Low heart rate — possible hypotension.",
	}
	WarnHighHeartRate = Warning{
		Title:   "High heart rate!",
		Message: "High heart rate — possible stress or cardiac concern.",
	}
	WarnLowOxygen = Warning{
		Title:   "Low oxygen saturation!",
		Message: "Low oxygen saturation — possible respiratory issue.",
	}
)

// WarningsFor returns one Warning per non-normal axis, heart rate first.
func WarningsFor(c Classification) []Warning {
	var out []Warning
	switch c.HeartRate {
	case HeartRateLow:
		out = append(out, WarnLowHeartRate)
	case HeartRateHigh:
		out = append(out, WarnHighHeartRate)
	}
	if c.Oxygen == OxygenLow {
		out = append(out, WarnLowOxygen)
	}
	return out
}
