package monitor

import (
	"time"

	"go.uber.org/zap"

	"github.com/fakeyudi/oximon/internal/clock"
	"github.com/fakeyudi/oximon/internal/health"
	"github.com/fakeyudi/oximon/internal/session"
)

// Option configures a Loop.
type Option func(*Loop)

func WithLogger(log *zap.Logger) Option {
	return func(l *Loop) { l.log = log }
}

func WithClock(c clock.Clock) Option {
	return func(l *Loop) { l.clock = c }
}

// WithThresholds sets the initial thresholds. Invalid values are ignored and
// the defaults kept.
func WithThresholds(t health.Thresholds) Option {
	return func(l *Loop) {
		if t.Validate() == nil {
			l.thresholds = t
		}
	}
}

// WithStateStore records the running session so other commands can see it.
func WithStateStore(s session.StateStore) Option {
	return func(l *Loop) { l.states = s }
}

// WithAlertDebounce emits a health alert only when its axis changes state
// instead of on every out-of-range tick.
func WithAlertDebounce(on bool) Option {
	return func(l *Loop) { l.debounce = on }
}

// WithTicker replaces the wall-clock ticker that drives Run.
func WithTicker(fn func(time.Duration) Ticker) Option {
	return func(l *Loop) { l.newTicker = fn }
}

// Ticker delivers tick instants to Run.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}
