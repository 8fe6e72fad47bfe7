package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/oximon/internal/health"
	"github.com/fakeyudi/oximon/internal/monitor"
)

const (
	// maxAlerts caps the modal queue; the oldest pending alert is dropped.
	maxAlerts = 8
	// maxHistory bounds the readings kept for the chart.
	maxHistory = 600
)

// Controller is the part of the monitor loop the UI drives.
type Controller interface {
	SwitchUser(ctx context.Context, userID string) error
	UpdateThresholds(ctx context.Context, low, high, oxygenMin int) (health.Thresholds, error)
}

type switchedMsg struct {
	user string
	err  error
}

type thresholdsMsg struct {
	t   health.Thresholds
	err error
}

type keyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Edit    key.Binding
	Dismiss key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Edit, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Dismiss}}
}

var monitorKeys = keyMap{
	Next:    key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("→/tab", "next user")),
	Prev:    key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("←", "prev user")),
	Edit:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "thresholds")),
	Dismiss: key.NewBinding(key.WithKeys("enter", "esc", " "), key.WithHelp("enter", "dismiss")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// MonitorOptions seeds the live monitor.
type MonitorOptions struct {
	Users      []string
	User       string
	Operator   string
	Interval   time.Duration
	Thresholds health.Thresholds
}

// MonitorModel is the live monitor: current vitals, their analysis, a chart
// per vital and modal alerts.
type MonitorModel struct {
	ctx  context.Context
	ctl  Controller
	sink *Sink
	opts MonitorOptions

	userIdx    int
	thresholds health.Thresholds
	last       *monitor.Update
	history    []health.Reading
	alerts     []monitor.Alert
	status     string

	editing bool
	inputs  [3]textinput.Model
	focus   int
	editErr string
	help    help.Model
	width   int
	height  int
	ready   bool
}

// NewMonitor builds the live monitor model. opts.User must be in opts.Users
// or it is added at the front.
func NewMonitor(ctx context.Context, ctl Controller, sink *Sink, opts MonitorOptions) MonitorModel {
	m := MonitorModel{
		ctx:        ctx,
		ctl:        ctl,
		sink:       sink,
		opts:       opts,
		thresholds: opts.Thresholds,
		help:       help.New(),
	}
	m.userIdx = -1
	for i, u := range opts.Users {
		if u == opts.User {
			m.userIdx = i
		}
	}
	if m.userIdx < 0 {
		m.opts.Users = append([]string{opts.User}, opts.Users...)
		m.userIdx = 0
	}
	for i, p := range []string{"heart rate low", "heart rate high", "oxygen min"} {
		ti := textinput.New()
		ti.Placeholder = p
		ti.CharLimit = 3
		ti.Width = 6
		m.inputs[i] = ti
	}
	return m
}

func (m MonitorModel) user() string { return m.opts.Users[m.userIdx] }

// ── Bubble Tea interface ───────────────

func (m MonitorModel) Init() tea.Cmd { return m.sink.wait() }

func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case updateMsg:
		// Drop stragglers from a user we have switched away from.
		if msg.User == m.user() {
			u := monitor.Update(msg)
			m.last = &u
			m.thresholds = u.Thresholds
			m.history = append(m.history, u.Reading)
			if len(m.history) > maxHistory {
				m.history = m.history[len(m.history)-maxHistory:]
			}
		}
		return m, m.sink.wait()

	case alertMsg:
		m.alerts = append(m.alerts, monitor.Alert(msg))
		if len(m.alerts) > maxAlerts {
			m.alerts = m.alerts[len(m.alerts)-maxAlerts:]
		}
		return m, m.sink.wait()

	case switchedMsg:
		if msg.err != nil {
			m.status = "could not open log for " + msg.user + ": " + msg.err.Error()
		} else {
			m.status = "monitoring " + msg.user
		}
		return m, nil

	case thresholdsMsg:
		if msg.err != nil {
			m.editErr = msg.err.Error()
			return m, nil
		}
		m.thresholds = msg.t
		m.editing = false
		m.editErr = ""
		m.status = "thresholds updated: " + msg.t.String()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, monitorKeys.Quit) && (msg.String() == "ctrl+c" || !m.editing) {
			return m, tea.Quit
		}
		if len(m.alerts) > 0 {
			if key.Matches(msg, monitorKeys.Dismiss) {
				m.alerts = m.alerts[1:]
			}
			return m, nil
		}
		if m.editing {
			return m.updateEditor(msg)
		}
		switch {
		case key.Matches(msg, monitorKeys.Next):
			return m.selectUser((m.userIdx + 1) % len(m.opts.Users))
		case key.Matches(msg, monitorKeys.Prev):
			return m.selectUser((m.userIdx - 1 + len(m.opts.Users)) % len(m.opts.Users))
		case key.Matches(msg, monitorKeys.Edit):
			return m.openEditor()
		}
	}
	return m, nil
}

func (m MonitorModel) selectUser(i int) (tea.Model, tea.Cmd) {
	m.userIdx = i
	m.last = nil
	m.history = nil
	m.status = "switching to " + m.user() + "…"
	ctx, ctl, user := m.ctx, m.ctl, m.user()
	return m, func() tea.Msg {
		return switchedMsg{user: user, err: ctl.SwitchUser(ctx, user)}
	}
}

func (m MonitorModel) openEditor() (tea.Model, tea.Cmd) {
	m.editing = true
	m.editErr = ""
	m.focus = 0
	vals := []int{m.thresholds.HeartRateLow, m.thresholds.HeartRateHigh, m.thresholds.OxygenMin}
	for i := range m.inputs {
		m.inputs[i].SetValue(strconv.Itoa(vals[i]))
		m.inputs[i].Blur()
	}
	return m, m.inputs[0].Focus()
}

func (m MonitorModel) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.editErr = ""
		return m, nil
	case "tab", "down":
		return m.focusInput((m.focus + 1) % len(m.inputs))
	case "shift+tab", "up":
		return m.focusInput((m.focus - 1 + len(m.inputs)) % len(m.inputs))
	case "enter":
		var vals [3]int
		for i, in := range m.inputs {
			v, err := strconv.Atoi(strings.TrimSpace(in.Value()))
			if err != nil {
				m.editErr = in.Placeholder + " must be a whole number"
				return m, nil
			}
			vals[i] = v
		}
		ctx, ctl := m.ctx, m.ctl
		return m, func() tea.Msg {
			t, err := ctl.UpdateThresholds(ctx, vals[0], vals[1], vals[2])
			return thresholdsMsg{t: t, err: err}
		}
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m MonitorModel) focusInput(i int) (tea.Model, tea.Cmd) {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m, m.inputs[i].Focus()
}

// ── Rendering ──────────────────────────

func (m MonitorModel) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := fmt.Sprintf("  oximon  %s  (%d/%d)", m.user(), m.userIdx+1, len(m.opts.Users))
	if m.opts.Operator != "" {
		title += "  operator: " + m.opts.Operator
	}
	top := titleStyle.Width(m.width).Render(title)

	var body string
	switch {
	case len(m.alerts) > 0:
		body = m.renderModal()
	case m.editing:
		body = m.renderEditor()
	default:
		body = m.renderVitals() + "\n" + m.renderCharts()
	}

	right := m.status
	if right == "" && m.opts.Interval > 0 {
		right = "every " + m.opts.Interval.String()
	}
	bar := statusBar(m.width, m.help.View(monitorKeys), right)

	// title(1) + statusBar(1)
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	if len(m.alerts) > 0 || m.editing {
		body = lipgloss.Place(m.width, h, lipgloss.Center, lipgloss.Center, body)
	} else {
		body = lipgloss.Place(m.width, h, lipgloss.Left, lipgloss.Top, body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, body, bar)
}

func (m MonitorModel) renderVitals() string {
	var sb strings.Builder
	sb.WriteString(heading("Vitals"))
	if m.last == nil {
		row(&sb, "Heart Rate:", dimStyle.Render("waiting for sensor…"))
		row(&sb, "Oxygen:", dimStyle.Render("waiting for sensor…"))
	} else {
		r, c := m.last.Reading, m.last.Classification
		row(&sb, "Heart Rate:", fmt.Sprintf("%d bpm  %s", r.HeartRate, heartRateBadge(c.HeartRate)))
		row(&sb, "Oxygen:", fmt.Sprintf("%d %%  %s", r.OxygenSaturation, oxygenBadge(c.Oxygen)))
		row(&sb, "Sampled:", timeStyle.Render(r.Time.Format(health.TimeLayout)))
		if !m.last.Persisted {
			row(&sb, "Log:", warnStyle.Render("not saved"))
		}
		sb.WriteString("\n")
		normal := []bool{c.HeartRate == health.HeartRateNormal, c.Oxygen == health.OxygenNormal}
		for i, line := range strings.Split(c.Summary(), "\n") {
			sb.WriteString("  " + stateStyle(normal[i]).Render(line) + "\n")
		}
	}
	sb.WriteString("\n")
	row(&sb, "Thresholds:", dimStyle.Render(m.thresholds.String()))
	return sb.String()
}

func (m MonitorModel) renderCharts() string {
	// Two panels side by side, each inside a border.
	w := (m.width-8)/2 - 7
	h := m.height - 22
	if h < 4 {
		h = 4
	}
	left := panelStyle.Render(plot(heartRateSeries("Heart Rate (bpm)", m.history, m.thresholds), w, h))
	right := panelStyle.Render(plot(oxygenSeries("Oxygen (%)", m.history, m.thresholds), w, h))
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

func (m MonitorModel) renderModal() string {
	a := m.alerts[0]
	body := modalTitleStyle.Render(a.Title) + "\n\n" + a.Message + "\n\n" +
		dimStyle.Render(a.Time.Format(health.TimeLayout)+"  "+a.User)
	if n := len(m.alerts) - 1; n > 0 {
		body += "\n" + dimStyle.Render(fmt.Sprintf("%d more pending", n))
	}
	body += "\n\n" + dimStyle.Render("enter to dismiss")
	return modalStyle.Render(body)
}

func (m MonitorModel) renderEditor() string {
	var sb strings.Builder
	sb.WriteString(sectionHeader.Render("Thresholds") + "\n\n")
	labels := []string{"Heart rate low", "Heart rate high", "Oxygen min"}
	for i, in := range m.inputs {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("%-16s", labels[i])) + " " + in.View() + "\n")
	}
	sb.WriteString(dimStyle.Render(fmt.Sprintf("\nheart rate 0..%d, oxygen 0..%d", health.MaxHeartRate, health.MaxOxygen)) + "\n")
	if m.editErr != "" {
		sb.WriteString("\n" + errorStyle.Render(m.editErr) + "\n")
	}
	sb.WriteString("\n" + dimStyle.Render("tab next field  enter apply  esc cancel"))
	return editorStyle.Render(sb.String())
}

// RunMonitor starts the live monitor and blocks until the user quits.
func RunMonitor(m MonitorModel) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}
