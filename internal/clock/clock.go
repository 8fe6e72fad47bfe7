// Package clock abstracts time so the monitor loop stays deterministic in tests.
package clock

import "time"

// Clock returns the current instant.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in local time.
type System struct{}

func (System) Now() time.Time {
	return time.Now()
}
