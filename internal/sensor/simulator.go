package sensor

import (
	"context"
	"math"
	"math/rand/v2"
)

// Simulator produces a bounded random walk around a baseline. It stands in
// for the MAX30102 when no hardware is attached. Not safe for concurrent use.
type Simulator struct {
	rng       *rand.Rand
	baseHR    float64
	baseO2    float64
	hr        float64
	o2        float64
	noise     float64
	faultRate float64
}

// SimulatorConfig tunes the simulated signal.
type SimulatorConfig struct {
	Seed      uint64
	HeartRate float64 // baseline bpm, typical 60-100
	Oxygen    float64 // baseline %, typical 95-99
	Noise     float64 // step standard deviation
	FaultRate float64 // probability in [0,1] that a read fails
}

// NewSimulator fills zero fields with a resting adult's baseline.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	if cfg.HeartRate == 0 {
		cfg.HeartRate = 72
	}
	if cfg.Oxygen == 0 {
		cfg.Oxygen = 97
	}
	if cfg.Noise == 0 {
		cfg.Noise = 2
	}
	return &Simulator{
		rng:       rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		baseHR:    cfg.HeartRate,
		baseO2:    cfg.Oxygen,
		hr:        cfg.HeartRate,
		o2:        cfg.Oxygen,
		noise:     cfg.Noise,
		faultRate: cfg.FaultRate,
	}
}

func (s *Simulator) HeartRate(ctx context.Context) (int, error) {
	if err := s.fault(ctx); err != nil {
		return 0, err
	}
	// mean-reverting step
	s.hr += 0.2*(s.baseHR-s.hr) + s.noise*s.rng.NormFloat64()
	s.hr = clamp(s.hr, MinHeartRate, MaxHeartRate)
	return int(math.Round(s.hr)), nil
}

func (s *Simulator) OxygenSaturation(ctx context.Context) (int, error) {
	if err := s.fault(ctx); err != nil {
		return 0, err
	}
	s.o2 += 0.3*(s.baseO2-s.o2) + 0.5*s.noise*s.rng.NormFloat64()
	s.o2 = clamp(s.o2, MinOxygen, MaxOxygen)
	return int(math.Round(s.o2)), nil
}

func (s *Simulator) fault(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.faultRate > 0 && s.rng.Float64() < s.faultRate {
		return ErrDevice
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
