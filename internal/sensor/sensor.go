// Package sensor defines the pulse-oximeter capability the monitor polls and
// the implementations oximon ships with.
package sensor

import (
	"context"
	"errors"
	"fmt"
)

// Sensor is the device capability. Either read may fail.
type Sensor interface {
	HeartRate(ctx context.Context) (int, error)
	OxygenSaturation(ctx context.Context) (int, error)
}

// Physiological window a reading must fall in to be accepted.
const (
	MinHeartRate = 20
	MaxHeartRate = 250
	MinOxygen    = 50
	MaxOxygen    = 100
)

var (
	// ErrOutOfRange is wrapped when the device returns an implausible value.
	ErrOutOfRange = errors.New("value outside physiological range")
	// ErrNoSample is returned when the device has not produced a value yet.
	ErrNoSample = errors.New("no sample available")
	// ErrDevice is a generic communication failure.
	ErrDevice = errors.New("device not responding")
)

// Error is a device read failure. The monitor skips the tick on any *Error.
type Error struct {
	Op  string // "heart_rate", "oxygen_saturation" or "validate"
	Err error
}

func (e *Error) Error() string {
	return "sensor " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validate rejects values outside the physiological window.
func Validate(heartRate, oxygenSaturation int) error {
	if heartRate < MinHeartRate || heartRate > MaxHeartRate {
		return &Error{Op: "validate", Err: fmt.Errorf("heart rate %d: %w", heartRate, ErrOutOfRange)}
	}
	if oxygenSaturation < MinOxygen || oxygenSaturation > MaxOxygen {
		return &Error{Op: "validate", Err: fmt.Errorf("oxygen saturation %d: %w", oxygenSaturation, ErrOutOfRange)}
	}
	return nil
}

// Poll reads heart rate then oxygen saturation and validates both. Every
// failure comes back as a *Error.
func Poll(ctx context.Context, s Sensor) (heartRate, oxygenSaturation int, err error) {
	heartRate, err = s.HeartRate(ctx)
	if err != nil {
		return 0, 0, wrap("heart_rate", err)
	}
	oxygenSaturation, err = s.OxygenSaturation(ctx)
	if err != nil {
		return 0, 0, wrap("oxygen_saturation", err)
	}
	if err := Validate(heartRate, oxygenSaturation); err != nil {
		return 0, 0, err
	}
	return heartRate, oxygenSaturation, nil
}

func wrap(op string, err error) error {
	var serr *Error
	if errors.As(err, &serr) {
		return err
	}
	return &Error{Op: op, Err: err}
}
