package health_test

import (
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/fakeyudi/oximon/internal/health"
)

func TestDefaultThresholds(t *testing.T) {
	d := health.DefaultThresholds()
	if d.HeartRateLow != 60 || d.HeartRateHigh != 100 || d.OxygenMin != 95 {
		t.Errorf("DefaultThresholds() = %+v, want {60 100 95}", d)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

// Property: Update either returns exactly the requested values or leaves the
// receiver untouched and reports a *ValidationError.
func TestUpdateIsAtomic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		prior := genThresholds(t)
		low := rapid.IntRange(-20, 260).Draw(t, "new_low")
		high := rapid.IntRange(-20, 260).Draw(t, "new_high")
		oxy := rapid.IntRange(-20, 130).Draw(t, "new_oxygen_min")

		got, err := prior.Update(low, high, oxy)

		valid := low >= 0 && low <= high && high <= 200 && oxy >= 0 && oxy <= 100
		if valid {
			if err != nil {
				t.Fatalf("Update(%d, %d, %d) rejected: %v", low, high, oxy, err)
			}
			want := health.Thresholds{HeartRateLow: low, HeartRateHigh: high, OxygenMin: oxy}
			if got != want {
				t.Fatalf("Update = %+v, want %+v", got, want)
			}
			return
		}
		if err == nil {
			t.Fatalf("Update(%d, %d, %d) accepted invalid values", low, high, oxy)
		}
		var verr *health.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected *ValidationError, got %T", err)
		}
		if got != prior {
			t.Fatalf("rejected update changed config: got %+v, want %+v", got, prior)
		}
	})
}

func TestUpdateRejectsOutOfRange(t *testing.T) {
	prior := health.DefaultThresholds()

	got, err := prior.Update(250, 300, 95)
	if err == nil {
		t.Fatal("expected rejection")
	}
	if got != prior {
		t.Errorf("config changed to %+v", got)
	}
	var verr *health.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Field != "heart_rate_low" || verr.Value != 250 || verr.Min != 0 || verr.Max != 200 {
		t.Errorf("unexpected error detail: %+v", verr)
	}
}

func TestUpdateRejectsInvertedRange(t *testing.T) {
	_, err := health.DefaultThresholds().Update(120, 80, 95)
	var verr *health.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Field != "heart_rate_high" || verr.Min != 120 {
		t.Errorf("unexpected error detail: %+v", verr)
	}
}

func TestUpdateRejectsOxygenAbove100(t *testing.T) {
	_, err := health.DefaultThresholds().Update(60, 100, 101)
	var verr *health.ValidationError
	if !errors.As(err, &verr) || verr.Field != "oxygen_min" {
		t.Fatalf("expected oxygen_min ValidationError, got %v", err)
	}
}
