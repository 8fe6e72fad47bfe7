package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/oximon/internal/health"
)

// ViewerModel is a scrollable view over a saved session log.
type ViewerModel struct {
	user       string
	filename   string
	readings   []health.Reading
	thresholds health.Thresholds
	viewport   viewport.Model
	width      int
	height     int
	ready      bool
}

// NewViewer creates a history viewer for one user's readings, classified
// against t.
func NewViewer(user, path string, readings []health.Reading, t health.Thresholds) ViewerModel {
	return ViewerModel{
		user:       user,
		filename:   filepath.Base(path),
		readings:   readings,
		thresholds: t,
	}
}

func (m ViewerModel) Init() tea.Cmd { return nil }

func (m ViewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		// title(1) + statusBar(1) = 2 fixed rows
		vpHeight := m.height - 2
		if vpHeight < 1 {
			vpHeight = 1
		}
		m.viewport = viewport.New(m.width, vpHeight)
		m.viewport.SetContent(m.render())
		return m, nil
	}
	return m, nil
}

func (m ViewerModel) View() string {
	if !m.ready {
		return "Loading…"
	}
	title := titleStyle.Width(m.width).Render("  oximon  history  " + m.user + "  " + m.filename)
	pct := fmt.Sprintf("%3.0f%%", m.viewport.ScrollPercent()*100)
	bar := statusBar(m.width, "  ↑/↓ scroll  q quit", pct)
	return lipgloss.JoinVertical(lipgloss.Left, title, m.viewport.View(), bar)
}

func (m ViewerModel) render() string {
	var sb strings.Builder
	sb.WriteString(heading("Session"))
	row(&sb, "User:", m.user)
	row(&sb, "Readings:", fmt.Sprintf("%d", len(m.readings)))
	row(&sb, "Thresholds:", m.thresholds.String())
	if len(m.readings) == 0 {
		sb.WriteString("\n" + dimStyle.Render("  (no readings in this log)") + "\n")
		return sb.String()
	}
	row(&sb, "First:", timeStyle.Render(m.readings[0].Time.Format(health.TimeLayout)))
	row(&sb, "Last:", timeStyle.Render(m.readings[len(m.readings)-1].Time.Format(health.TimeLayout)))

	var lowHR, highHR, lowO2 int
	for _, r := range m.readings {
		c := health.Classify(r, m.thresholds)
		switch c.HeartRate {
		case health.HeartRateLow:
			lowHR++
		case health.HeartRateHigh:
			highHR++
		}
		if c.Oxygen == health.OxygenLow {
			lowO2++
		}
	}
	row(&sb, "Low HR:", fmt.Sprintf("%d", lowHR))
	row(&sb, "High HR:", fmt.Sprintf("%d", highHR))
	row(&sb, "Low SpO2:", fmt.Sprintf("%d", lowO2))

	w := m.width - 12
	sb.WriteString(heading("Charts"))
	sb.WriteString(plot(heartRateSeries("  Heart Rate (bpm)", m.readings, m.thresholds), w, 10) + "\n\n")
	sb.WriteString(plot(oxygenSeries("  Oxygen (%)", m.readings, m.thresholds), w, 8) + "\n")

	sb.WriteString(heading("Readings (newest first)"))
	for i := len(m.readings) - 1; i >= 0; i-- {
		r := m.readings[i]
		c := health.Classify(r, m.thresholds)
		sb.WriteString(fmt.Sprintf("  %s  %3d bpm %-8s %3d %% %s\n",
			timeStyle.Render(r.Time.Format(health.TimeLayout)),
			r.HeartRate, heartRateBadge(c.HeartRate),
			r.OxygenSaturation, oxygenBadge(c.Oxygen)))
	}
	return sb.String()
}

// RunViewer starts the history viewer.
func RunViewer(m ViewerModel) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
