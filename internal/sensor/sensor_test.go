package sensor

import (
	"context"
	"errors"
	"testing"

	"pgregory.net/rapid"
)

type stubSensor struct {
	hr, o2       int
	hrErr, o2Err error
	o2Calls      int
}

func (s *stubSensor) HeartRate(context.Context) (int, error) { return s.hr, s.hrErr }

func (s *stubSensor) OxygenSaturation(context.Context) (int, error) {
	s.o2Calls++
	return s.o2, s.o2Err
}

func TestPollWrapsDeviceErrors(t *testing.T) {
	s := &stubSensor{hrErr: ErrDevice}

	_, _, err := Poll(context.Background(), s)

	var serr *Error
	if !errors.As(err, &serr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if serr.Op != "heart_rate" {
		t.Errorf("Op = %q, want heart_rate", serr.Op)
	}
	if !errors.Is(err, ErrDevice) {
		t.Errorf("expected errors.Is(err, ErrDevice)")
	}
	if s.o2Calls != 0 {
		t.Errorf("oxygen read after heart-rate failure")
	}
}

func TestPollRejectsOutOfRange(t *testing.T) {
	_, _, err := Poll(context.Background(), &stubSensor{hr: 0, o2: 98})
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	_, _, err = Poll(context.Background(), &stubSensor{hr: 70, o2: 127})
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestPollAcceptsLowButPlausibleValues(t *testing.T) {
	hr, o2, err := Poll(context.Background(), &stubSensor{hr: 45, o2: 90})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hr != 45 || o2 != 90 {
		t.Errorf("got (%d, %d), want (45, 90)", hr, o2)
	}
}

// Property: the simulator never leaves the physiological window.
func TestSimulatorStaysInWindow(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sim := NewSimulator(SimulatorConfig{
			Seed:      rapid.Uint64().Draw(t, "seed"),
			HeartRate: float64(rapid.IntRange(40, 180).Draw(t, "base_hr")),
			Oxygen:    float64(rapid.IntRange(80, 100).Draw(t, "base_o2")),
			Noise:     float64(rapid.IntRange(1, 20).Draw(t, "noise")),
		})
		ctx := context.Background()
		for i := 0; i < 50; i++ {
			hr, o2, err := Poll(ctx, sim)
			if err != nil {
				t.Fatalf("tick %d: %v", i, err)
			}
			if hr < MinHeartRate || hr > MaxHeartRate || o2 < MinOxygen || o2 > MaxOxygen {
				t.Fatalf("tick %d: (%d, %d) out of window", i, hr, o2)
			}
		}
	})
}

func TestSimulatorFaults(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{Seed: 1, FaultRate: 1})
	_, _, err := Poll(context.Background(), sim)
	if !errors.Is(err, ErrDevice) {
		t.Fatalf("expected ErrDevice, got %v", err)
	}
}

func TestSimulatorIsDeterministicPerSeed(t *testing.T) {
	a := NewSimulator(SimulatorConfig{Seed: 42})
	b := NewSimulator(SimulatorConfig{Seed: 42})
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		ha, oa, _ := Poll(ctx, a)
		hb, ob, _ := Poll(ctx, b)
		if ha != hb || oa != ob {
			t.Fatalf("tick %d diverged: (%d,%d) vs (%d,%d)", i, ha, oa, hb, ob)
		}
	}
}
