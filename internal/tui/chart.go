package tui

import (
	"strconv"
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"

	"github.com/fakeyudi/oximon/internal/health"
)

const (
	chartOffset     = 3
	chartTimeLayout = "15:04:05"
)

// series is one chart panel: a value per sample, the sample times, and
// horizontal reference lines at the thresholds.
type series struct {
	title  string
	times  []time.Time
	values []int
	refs   []int
	lo, hi int // preferred y range, widened to fit the data
}

func heartRateSeries(title string, readings []health.Reading, t health.Thresholds) series {
	s := series{title: title, refs: []int{t.HeartRateLow, t.HeartRateHigh}, lo: 40, hi: 140}
	for _, r := range readings {
		s.times = append(s.times, r.Time)
		s.values = append(s.values, r.HeartRate)
	}
	return s
}

func oxygenSeries(title string, readings []health.Reading, t health.Thresholds) series {
	s := series{title: title, refs: []int{t.OxygenMin}, lo: 85, hi: 100}
	for _, r := range readings {
		s.times = append(s.times, r.Time)
		s.values = append(s.values, r.OxygenSaturation)
	}
	return s
}

// yRange widens the preferred range to cover every value and reference line.
func (s series) yRange() (lo, hi int) {
	lo, hi = s.lo, s.hi
	for _, v := range s.values {
		lo, hi = min(lo, v), max(hi, v)
	}
	for _, v := range s.refs {
		lo, hi = min(lo, v), max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

// tail keeps the most recent n samples.
func (s series) tail(n int) series {
	if len(s.values) <= n {
		return s
	}
	s.values = s.values[len(s.values)-n:]
	if len(s.times) > n {
		s.times = s.times[len(s.times)-n:]
	}
	return s
}

// plot renders s as a line chart with a labelled y axis and the first and
// last sample times under it. Only the most recent width samples are drawn.
func plot(s series, width, height int) string {
	if width < 2 {
		width = 2
	}
	if height < 3 {
		height = 3
	}
	s = s.tail(width)
	if len(s.values) == 0 {
		return s.title + "\n" + dimStyle.Render("  waiting for readings")
	}

	lo, hi := s.yRange()
	data := make([][]float64, 0, len(s.refs)+1)
	colors := make([]asciigraph.AnsiColor, 0, len(s.refs)+1)
	// Reference lines first so the readings draw over them.
	for _, ref := range s.refs {
		line := make([]float64, len(s.values))
		for i := range line {
			line[i] = float64(ref)
		}
		data = append(data, line)
		colors = append(colors, asciigraph.DarkGray)
	}
	values := make([]float64, len(s.values))
	for i, v := range s.values {
		values[i] = float64(v)
	}
	data = append(data, values)
	colors = append(colors, asciigraph.Default)

	graph := asciigraph.PlotMany(data,
		asciigraph.Height(height-1),
		asciigraph.LowerBound(float64(lo)),
		asciigraph.UpperBound(float64(hi)),
		asciigraph.Offset(chartOffset),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(colors...),
	)

	var sb strings.Builder
	sb.WriteString(s.title + "\n")
	sb.WriteString(graph)
	if axis := timeAxis(s.times, max(len(strconv.Itoa(hi)), len(strconv.Itoa(lo)))); axis != "" {
		sb.WriteString("\n" + dimStyle.Render(axis))
	}
	return sb.String()
}

// timeAxis lines the first sample time up under the first point and ends the
// last sample time at the last plotted column. labelWidth is the width of the
// widest y-axis label.
func timeAxis(times []time.Time, labelWidth int) string {
	if len(times) == 0 {
		return ""
	}
	first := times[0].Format(chartTimeLayout)
	pad := strings.Repeat(" ", chartOffset+labelWidth-1)
	if len(times) == 1 {
		return pad + first
	}
	last := times[len(times)-1].Format(chartTimeLayout)
	gap := max(len(times)-2*len(chartTimeLayout), 1)
	return pad + first + strings.Repeat(" ", gap) + last
}
