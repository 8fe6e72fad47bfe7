// Package monitor drives the sampling loop: poll the sensor, persist the
// reading to the active user's log, classify it and notify the UI.
package monitor

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fakeyudi/oximon/internal/clock"
	"github.com/fakeyudi/oximon/internal/health"
	"github.com/fakeyudi/oximon/internal/sensor"
	"github.com/fakeyudi/oximon/internal/session"
)

// Status is the loop's lifecycle state.
type Status int

const (
	Idle Status = iota
	Running
	Stopped
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "idle"
	}
}

var (
	ErrNotRunning = errors.New("monitor is not running")
	ErrRunning    = errors.New("monitor is already running")
	ErrStopped    = errors.New("monitor is stopped")
	ErrNoUser     = errors.New("user id must not be empty")
)

// Recorder is the per-user reading log bound to the loop.
type Recorder interface {
	UserID() string
	Path() string
	Append(health.Reading) error
	History() []health.Reading
	Close() error
}

// OpenFunc opens a fresh Recorder for a user, discarding any previous one.
type OpenFunc func(userID string) (Recorder, error)

// Loop owns the thresholds and the active Recorder. While Running, a single
// goroutine executes ticks and commands one after another, so a tick never
// overlaps a user switch or a threshold update.
type Loop struct {
	sensor    sensor.Sensor
	open      OpenFunc
	sink      Sink
	log       *zap.Logger
	clock     clock.Clock
	states    session.StateStore
	debounce  bool
	newTicker func(time.Duration) Ticker

	execMu   sync.Mutex // serializes inline commands while Idle
	mu       sync.Mutex // guards status
	status   Status
	cmds     chan func()
	done     chan struct{}
	doneOnce sync.Once

	// Owned by whoever holds execMu while Idle, and by the Run goroutine
	// while Running.
	thresholds health.Thresholds
	user       string
	rec        Recorder
	sessionID  string
	startedAt  time.Time
	openedAt   time.Time
	period     time.Duration
	active     bool
	last       *health.Classification
}

// New builds an Idle loop with default thresholds.
func New(s sensor.Sensor, open OpenFunc, sink Sink, opts ...Option) *Loop {
	l := &Loop{
		sensor:     s,
		open:       open,
		sink:       sink,
		log:        zap.NewNop(),
		clock:      clock.System{},
		newTicker:  newTimeTicker,
		cmds:       make(chan func()),
		done:       make(chan struct{}),
		thresholds: health.DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Status reports the lifecycle state.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Run moves the loop to Running and ticks every period until ctx ends or Stop
// is called. On return the loop is Stopped, the active log is closed and the
// session record is removed. A tick that overruns the period delays the next
// one; ticks are never dropped into parallel.
func (l *Loop) Run(ctx context.Context, period time.Duration) error {
	l.execMu.Lock()
	l.mu.Lock()
	switch l.status {
	case Running:
		l.mu.Unlock()
		l.execMu.Unlock()
		return ErrRunning
	case Stopped:
		l.mu.Unlock()
		l.execMu.Unlock()
		return ErrStopped
	}
	l.status = Running
	l.mu.Unlock()
	l.execMu.Unlock()

	l.period = period
	l.startedAt = l.clock.Now()
	l.active = true
	l.saveState()
	l.log.Info("monitor started",
		zap.String("user", l.user),
		zap.Duration("period", period),
		zap.Stringer("thresholds", l.thresholds),
	)

	t := l.newTicker(period)
	defer t.Stop()
	defer l.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.done:
			return nil
		case fn := <-l.cmds:
			fn()
		case <-t.C():
			// Stop or cancellation may have raced with the tick.
			if ctx.Err() != nil || l.stopping() {
				return nil
			}
			l.tick(ctx)
		}
	}
}

// Stop prevents any further ticks. The loop reports Stopped once Stop
// returns; a tick in progress still runs to completion and Run closes the
// active log as it exits. Calling Stop more than once is a no-op.
func (l *Loop) Stop() {
	l.execMu.Lock()
	l.mu.Lock()
	idle := l.status == Idle
	l.status = Stopped
	l.mu.Unlock()
	if idle {
		l.closeRecorder()
	}
	l.execMu.Unlock()
	l.closeDone()
}

// Tick runs one tick, serialized with the loop. Outside Running it returns
// ErrNotRunning (or ErrStopped once stopped).
func (l *Loop) Tick(ctx context.Context) error {
	switch l.Status() {
	case Idle:
		return ErrNotRunning
	case Stopped:
		return ErrStopped
	}
	return l.exec(ctx, func() { l.tick(ctx) })
}

// SwitchUser closes the active log and opens a fresh one for userID.
// Thresholds are kept. If the new log cannot be opened the error is returned
// and reported as a storage alert; the next tick retries the open.
func (l *Loop) SwitchUser(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrNoUser
	}
	var err error
	if xerr := l.exec(ctx, func() { err = l.switchUser(userID) }); xerr != nil {
		return xerr
	}
	return err
}

// UpdateThresholds replaces all three thresholds at once. A rejected update
// returns the unchanged thresholds and a *health.ValidationError.
func (l *Loop) UpdateThresholds(ctx context.Context, low, high, oxygenMin int) (health.Thresholds, error) {
	var (
		next health.Thresholds
		err  error
	)
	xerr := l.exec(ctx, func() {
		next, err = l.thresholds.Update(low, high, oxygenMin)
		if err != nil {
			l.log.Info("threshold update rejected", zap.Error(err))
			return
		}
		l.thresholds = next
		l.log.Info("thresholds updated", zap.Stringer("thresholds", next))
		l.saveState()
	})
	if xerr != nil {
		return health.Thresholds{}, xerr
	}
	return next, err
}

// Snapshot returns a copy of the loop's state.
func (l *Loop) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	err := l.exec(ctx, func() {
		s = Snapshot{
			SessionID:  l.sessionID,
			User:       l.user,
			Thresholds: l.thresholds,
		}
		if l.rec != nil {
			s.LogPath = l.rec.Path()
			s.History = l.rec.History()
		}
	})
	s.Status = l.Status()
	return s, err
}

// exec runs fn inline while Idle, or hands it to the Run goroutine while
// Running and waits for it to finish.
func (l *Loop) exec(ctx context.Context, fn func()) error {
	l.execMu.Lock()
	switch l.Status() {
	case Idle:
		defer l.execMu.Unlock()
		fn()
		return nil
	case Stopped:
		l.execMu.Unlock()
		return ErrStopped
	}
	l.execMu.Unlock()

	finished := make(chan struct{})
	cmd := func() {
		defer close(finished)
		fn()
	}
	select {
	case l.cmds <- cmd:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

func (l *Loop) tick(ctx context.Context) {
	hr, o2, err := sensor.Poll(ctx, l.sensor)
	if err != nil {
		l.log.Warn("sensor read failed, skipping tick", zap.String("user", l.user), zap.Error(err))
		l.alert(KindDevice, "Sensor read failed", err.Error())
		return
	}
	r := health.NewReading(l.clock.Now(), hr, o2)

	persisted := false
	if l.rec == nil && l.user != "" {
		// A previous open failed; retry now. openRecorder reports failures.
		_ = l.openRecorder()
	}
	if l.rec != nil {
		if err := l.rec.Append(r); err != nil {
			l.log.Error("failed to append reading", zap.String("user", l.user), zap.Error(err))
			l.alert(KindStorage, "Storage error", err.Error())
		} else {
			persisted = true
		}
	}

	c := health.Classify(r, l.thresholds)
	l.log.Debug("tick",
		zap.String("user", l.user),
		zap.Int("heart_rate", r.HeartRate),
		zap.Int("oxygen", r.OxygenSaturation),
		zap.Stringer("heart_rate_state", c.HeartRate),
		zap.Stringer("oxygen_state", c.Oxygen),
	)
	l.sink.Publish(Update{
		SessionID:      l.sessionID,
		User:           l.user,
		Reading:        r,
		Classification: c,
		Thresholds:     l.thresholds,
		Persisted:      persisted,
	})
	for _, w := range l.warnings(c) {
		l.sink.Alert(Alert{Kind: KindHealth, Title: w.Title, Message: w.Message, User: l.user, Time: r.Time})
	}
	l.last = &c
}

// warnings applies the debounce policy to the classification's warnings.
func (l *Loop) warnings(c health.Classification) []health.Warning {
	all := health.WarningsFor(c)
	if !l.debounce || l.last == nil {
		return all
	}
	var out []health.Warning
	for _, w := range all {
		if w == health.WarnLowOxygen {
			if l.last.Oxygen != c.Oxygen {
				out = append(out, w)
			}
		} else if l.last.HeartRate != c.HeartRate {
			out = append(out, w)
		}
	}
	return out
}

func (l *Loop) switchUser(userID string) error {
	l.closeRecorder()
	l.user = userID
	l.last = nil
	return l.openRecorder()
}

func (l *Loop) openRecorder() error {
	l.sessionID = uuid.NewString()
	rec, err := l.open(l.user)
	if err != nil {
		l.rec = nil
		l.log.Error("failed to open session log", zap.String("user", l.user), zap.Error(err))
		l.alert(KindStorage, "Storage error", err.Error())
		l.saveState()
		return err
	}
	l.rec = rec
	l.openedAt = l.clock.Now()
	l.log.Info("session log opened",
		zap.String("user", l.user),
		zap.String("session_id", l.sessionID),
		zap.String("path", rec.Path()),
	)
	l.saveState()
	return nil
}

func (l *Loop) closeRecorder() {
	if l.rec == nil {
		return
	}
	if err := l.rec.Close(); err != nil {
		l.log.Error("failed to close session log", zap.String("user", l.rec.UserID()), zap.Error(err))
		l.alert(KindStorage, "Storage error", err.Error())
	}
	l.rec = nil
}

func (l *Loop) saveState() {
	if l.states == nil || !l.active {
		return
	}
	st := &session.State{
		ID:         l.sessionID,
		UserID:     l.user,
		StartTime:  l.startedAt,
		OpenedAt:   l.openedAt,
		Thresholds: l.thresholds,
		Interval:   l.period.String(),
		PID:        os.Getpid(),
	}
	if l.rec != nil {
		st.LogPath = l.rec.Path()
	}
	if err := l.states.Save(st); err != nil {
		l.log.Warn("failed to record session state", zap.Error(err))
	}
}

// shutdown runs on the Run goroutine as it exits.
func (l *Loop) shutdown() {
	l.mu.Lock()
	l.status = Stopped
	l.mu.Unlock()
	l.closeDone()

	l.closeRecorder()
	l.active = false
	if l.states != nil {
		if err := l.states.Delete(); err != nil {
			l.log.Warn("failed to clear session state", zap.Error(err))
		}
	}
	l.log.Info("monitor stopped", zap.String("user", l.user))
}

func (l *Loop) stopping() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

func (l *Loop) closeDone() {
	l.doneOnce.Do(func() { close(l.done) })
}

func (l *Loop) alert(kind AlertKind, title, msg string) {
	l.sink.Alert(Alert{Kind: kind, Title: title, Message: msg, User: l.user, Time: l.clock.Now()})
}
