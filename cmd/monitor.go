package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/oximon/internal/health"
	"github.com/fakeyudi/oximon/internal/logger"
	"github.com/fakeyudi/oximon/internal/monitor"
	"github.com/fakeyudi/oximon/internal/sensor"
	"github.com/fakeyudi/oximon/internal/session"
	"github.com/fakeyudi/oximon/internal/tui"
)

var (
	monitorUser     string
	monitorInterval time.Duration
	monitorSensor   string
	monitorPlain    bool
	monitorCount    int
	monitorForce    bool
	monitorHRLow    int
	monitorHRHigh   int
	monitorOxyMin   int
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Poll the sensor and monitor vitals live",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := dataDir()
		if err != nil {
			return err
		}
		states, err := session.NewStateStore(dir)
		if err != nil {
			return err
		}
		st, err := states.Load()
		if err != nil && !errors.Is(err, session.ErrNoSession) {
			return err
		}
		if st != nil && !monitorForce {
			if !st.Stale() {
				return fmt.Errorf("monitor already running for %s (pid %d, since %s); use --force to take over",
					st.UserID, st.PID, st.StartTime.Format(time.RFC3339))
			}
			appLog.Info("replacing stale session record", zap.String("user", st.UserID), zap.Int("pid", st.PID))
		}

		thresholds, err := monitorThresholds(cmd)
		if err != nil {
			return err
		}
		interval := monitorInterval
		if !cmd.Flags().Changed("interval") {
			if interval, err = cfg.PollInterval(); err != nil {
				return err
			}
		}
		if interval <= 0 {
			return fmt.Errorf("invalid interval %s: must be positive", interval)
		}

		users := roster()
		user := strings.TrimSpace(monitorUser)
		if user == "" && activeProfile != nil {
			user = activeProfile.DefaultUser
		}
		if user == "" && len(users) > 0 {
			user = users[0]
		}
		if user == "" {
			return errors.New("no user to monitor: pass --user or configure users")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		name := monitorSensor
		if name == "" {
			name = cfg.Sensor
		}
		sens, err := openSensor(ctx, name, interval)
		if err != nil {
			return err
		}

		useTUI := !monitorPlain && term.IsTerminal(os.Stdout.Fd())
		lg := appLog
		if useTUI && cfg.Log.File == "" {
			// Keep log lines off the alt screen.
			if lg, err = logger.New(cfg.Log.Level, cfg.Log.Format, filepath.Join(dir, "oximon.log")); err != nil {
				return fmt.Errorf("building logger: %w", err)
			}
			defer func() { _ = lg.Sync() }()
		}
		lg.Info("starting monitor",
			zap.String("user", user),
			zap.String("data_dir", dir),
			zap.String("sensor", name),
			zap.Duration("interval", interval),
			zap.Bool("tui", useTUI),
		)

		open := func(userID string) (monitor.Recorder, error) {
			return session.Open(dir, userID)
		}
		opts := []monitor.Option{
			monitor.WithLogger(lg),
			monitor.WithThresholds(thresholds),
			monitor.WithStateStore(states),
			monitor.WithAlertDebounce(cfg.Debounce()),
		}

		if !useTUI {
			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			sink := &plainSink{w: cmd.OutOrStdout(), limit: monitorCount, done: cancel}
			loop := monitor.New(sens, open, sink, opts...)
			// An open failure is reported through the sink and retried per tick.
			_ = loop.SwitchUser(runCtx, user)
			cmd.Printf("Monitoring %s every %s (%s). Press Ctrl+C to stop.\n", user, interval, thresholds)
			if err := loop.Run(runCtx, interval); err != nil {
				return err
			}
			cmd.Printf("Stopped after %d readings. Log: %s\n", sink.readings, session.LogPath(dir, user))
			return nil
		}

		sink := tui.NewSink(64)
		loop := monitor.New(sens, open, sink, opts...)
		_ = loop.SwitchUser(ctx, user)

		errc := make(chan error, 1)
		go func() { errc <- loop.Run(ctx, interval) }()

		model := tui.NewMonitor(ctx, loop, sink, tui.MonitorOptions{
			Users:      users,
			User:       user,
			Operator:   operator(),
			Interval:   interval,
			Thresholds: thresholds,
		})
		uiErr := tui.RunMonitor(model)
		loop.Stop()
		sink.Close()
		if err := <-errc; err != nil {
			return err
		}
		if uiErr != nil && !errors.Is(uiErr, tea.ErrProgramKilled) {
			return uiErr
		}
		return nil
	},
}

// monitorThresholds overlays any threshold flags on the configured values.
func monitorThresholds(cmd *cobra.Command) (health.Thresholds, error) {
	t, err := cfg.HealthThresholds()
	if err != nil {
		return t, fmt.Errorf("config thresholds: %w", err)
	}
	low, high, oxy := t.HeartRateLow, t.HeartRateHigh, t.OxygenMin
	if cmd.Flags().Changed("hr-low") {
		low = monitorHRLow
	}
	if cmd.Flags().Changed("hr-high") {
		high = monitorHRHigh
	}
	if cmd.Flags().Changed("oxygen-min") {
		oxy = monitorOxyMin
	}
	return t.Update(low, high, oxy)
}

// openSensor builds a sensor from its name: "simulator", "simulator:<seed>"
// or "file:<path>". A file sensor is watched until ctx ends.
func openSensor(ctx context.Context, name string, interval time.Duration) (sensor.Sensor, error) {
	kind, arg, _ := strings.Cut(name, ":")
	switch kind {
	case "", "simulator":
		seed := uint64(time.Now().UnixNano())
		if arg != "" {
			n, err := strconv.ParseUint(arg, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid simulator seed %q: %w", arg, err)
			}
			seed = n
		}
		return sensor.NewSimulator(sensor.SimulatorConfig{Seed: seed}), nil
	case "file":
		if arg == "" {
			return nil, errors.New("file sensor needs a path: file:<path>")
		}
		fs := sensor.NewFileSensor(arg, 3*interval)
		// Prime the cache before the first tick.
		_ = fs.Load()
		go func() {
			if err := fs.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				appLog.Warn("file sensor watch stopped", zap.String("path", arg), zap.Error(err))
			}
		}()
		return fs, nil
	}
	return nil, fmt.Errorf("unknown sensor %q (want simulator or file:<path>)", name)
}

// plainSink prints one line per update or alert. With a limit it cancels the
// run after that many ticks; a tick ends in either an update or a device alert.
type plainSink struct {
	mu       sync.Mutex
	w        io.Writer
	limit    int
	done     func()
	ticks    int
	readings int
}

func (s *plainSink) Publish(u monitor.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, c := u.Reading, u.Classification
	saved := ""
	if !u.Persisted {
		saved = "  (not saved)"
	}
	fmt.Fprintf(s.w, "%s  %-10s  HR %3d bpm %-6s  SpO2 %3d %% %-6s%s\n",
		r.Time.Format(health.TimeLayout), u.User,
		r.HeartRate, c.HeartRate, r.OxygenSaturation, c.Oxygen, saved)
	if u.Persisted {
		s.readings++
	}
	s.tick()
}

func (s *plainSink) Alert(a monitor.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "ALERT [%s] %s %s\n", a.Kind, a.Title, a.Message)
	if a.Kind == monitor.KindDevice {
		s.tick()
	}
}

func (s *plainSink) tick() {
	s.ticks++
	if s.limit > 0 && s.ticks >= s.limit && s.done != nil {
		s.done()
	}
}

func init() {
	f := monitorCmd.Flags()
	f.StringVar(&monitorUser, "user", "", "user to monitor (default: profile default user, then first in roster)")
	f.DurationVar(&monitorInterval, "interval", 0, "poll interval (default: config interval, 5s)")
	f.StringVar(&monitorSensor, "sensor", "", "sensor: simulator, simulator:<seed> or file:<path> (default: config sensor)")
	f.BoolVar(&monitorPlain, "plain", false, "print readings as lines instead of the TUI")
	f.IntVar(&monitorCount, "count", 0, "stop after this many ticks (0 = until interrupted)")
	f.BoolVar(&monitorForce, "force", false, "start even if a session record exists")
	f.IntVar(&monitorHRLow, "hr-low", 0, "heart rate low threshold (bpm)")
	f.IntVar(&monitorHRHigh, "hr-high", 0, "heart rate high threshold (bpm)")
	f.IntVar(&monitorOxyMin, "oxygen-min", 0, "oxygen saturation minimum (%)")
	rootCmd.AddCommand(monitorCmd)
}
