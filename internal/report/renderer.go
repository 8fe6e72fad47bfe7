package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fakeyudi/oximon/internal/health"
)

const (
	versionSentinel = "<!-- oximon-report-version: 1 -->"
	dataPrefix      = "<!-- oximon-data: "
	dataSuffix      = " -->"
)

// Renderer serializes a Report to bytes.
type Renderer interface {
	Render(r *Report) ([]byte, error)
}

// ForFormat returns the renderer for "markdown" or "json".
func ForFormat(format string) (Renderer, error) {
	switch format {
	case "markdown", "md":
		return &MarkdownRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown report format %q (want markdown or json)", format)
}

// JSONRenderer renders a Report as indented JSON.
type JSONRenderer struct{}

func (j *JSONRenderer) Render(r *Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// MarkdownRenderer renders a Report as human-readable Markdown with an
// embedded base64 JSON payload so Parse can read it back.
type MarkdownRenderer struct{}

func (m *MarkdownRenderer) Render(r *Report) ([]byte, error) {
	jsonBytes, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(jsonBytes)

	var sb strings.Builder

	sb.WriteString(versionSentinel + "\n")
	fmt.Fprintf(&sb, "%s%s%s\n\n", dataPrefix, encoded, dataSuffix)

	fmt.Fprintf(&sb, "# Health report: %s (%s)\n\n", r.User, r.GeneratedAt.Format(health.TimeLayout))

	// ## Summary
	s := r.Summary
	sb.WriteString("## Summary\n\n")
	if r.Operator != "" {
		fmt.Fprintf(&sb, "- Operator: %s\n", r.Operator)
	}
	fmt.Fprintf(&sb, "- Log: `%s`\n", r.LogPath)
	fmt.Fprintf(&sb, "- Readings: %d\n", s.Readings)
	if s.Readings > 0 {
		fmt.Fprintf(&sb, "- From: %s\n", s.First.Format(health.TimeLayout))
		fmt.Fprintf(&sb, "- To: %s\n", s.Last.Format(health.TimeLayout))
		fmt.Fprintf(&sb, "- Duration: %s\n", s.Duration)
	}
	sb.WriteString("\n")

	// ## Thresholds
	t := r.Thresholds
	sb.WriteString("## Thresholds\n\n")
	sb.WriteString("| Setting | Value |\n")
	sb.WriteString("|---------|-------|\n")
	fmt.Fprintf(&sb, "| Heart rate low | %d bpm |\n", t.HeartRateLow)
	fmt.Fprintf(&sb, "| Heart rate high | %d bpm |\n", t.HeartRateHigh)
	fmt.Fprintf(&sb, "| Oxygen min | %d %% |\n", t.OxygenMin)
	sb.WriteString("\n")

	// ## Classification
	sb.WriteString("## Classification\n\n")
	if s.Readings == 0 {
		sb.WriteString("_No readings recorded._\n")
	} else {
		sb.WriteString("| State | Readings |\n")
		sb.WriteString("|-------|----------|\n")
		fmt.Fprintf(&sb, "| Normal | %d |\n", s.Normal)
		fmt.Fprintf(&sb, "| Low heart rate | %d |\n", s.LowHeartRate)
		fmt.Fprintf(&sb, "| High heart rate | %d |\n", s.HighHeartRate)
		fmt.Fprintf(&sb, "| Low oxygen saturation | %d |\n", s.LowOxygen)
	}
	sb.WriteString("\n")

	// ## Events
	sb.WriteString("## Events\n\n")
	if len(r.Events) == 0 {
		sb.WriteString("_No readings outside the thresholds._\n")
	} else {
		sb.WriteString("| Time | Heart Rate (bpm) | Oxygen (%) | Warnings |\n")
		sb.WriteString("|------|------------------|------------|----------|\n")
		for _, ev := range r.Events {
			fmt.Fprintf(&sb, "| %s | %d | %d | %s |\n",
				ev.Time.Format(health.TimeLayout),
				ev.HeartRate,
				ev.OxygenSaturation,
				strings.Join(ev.Warnings, ", "),
			)
		}
	}
	sb.WriteString("\n")

	return []byte(sb.String()), nil
}
