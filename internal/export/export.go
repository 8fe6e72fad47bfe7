// Package export writes a user's session log to an xlsx workbook with a
// native line chart per vital.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/fakeyudi/oximon/internal/health"
)

// SheetName is the worksheet holding the readings and charts.
const SheetName = "Readings"

var headers = []string{
	"Timestamp",
	"Heart Rate (bpm)",
	"Oxygen (%)",
	"Heart Rate State",
	"Oxygen State",
	"Heart Rate Low",
	"Heart Rate High",
	"Oxygen Min",
}

var columnWidths = []float64{
	20, // Timestamp
	16, // Heart Rate
	12, // Oxygen
	16, // Heart Rate State
	14, // Oxygen State
	15, // Heart Rate Low
	15, // Heart Rate High
	12, // Oxygen Min
}

// Workbook builds the workbook in memory. The caller closes it.
func Workbook(user string, readings []health.Reading, t health.Thresholds) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(SheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(SheetName, name, name, columnWidths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, r := range readings {
		c := health.Classify(r, t)
		values := []any{
			r.Time.Format(health.TimeLayout),
			r.HeartRate,
			r.OxygenSaturation,
			c.HeartRate.String(),
			c.Oxygen.String(),
			t.HeartRateLow,
			t.HeartRateHigh,
			t.OxygenMin,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	if len(readings) > 0 {
		if err := addCharts(f, user, len(readings)); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// addCharts places the heart-rate and oxygen charts beside the table. Each
// plots the vital against its threshold columns.
func addCharts(f *excelize.File, user string, n int) error {
	last := n + 1
	ref := func(col string) string {
		return fmt.Sprintf("'%s'!$%s$2:$%s$%d", SheetName, col, col, last)
	}
	name := func(col string) string {
		return fmt.Sprintf("'%s'!$%s$1", SheetName, col)
	}
	series := func(cols ...string) []excelize.ChartSeries {
		out := make([]excelize.ChartSeries, 0, len(cols))
		for i, col := range cols {
			s := excelize.ChartSeries{
				Name:       name(col),
				Categories: ref("A"),
				Values:     ref(col),
				Marker:     excelize.ChartMarker{Symbol: "none"},
			}
			if i == 0 {
				s.Line = excelize.ChartLine{Width: 2}
			} else {
				s.Line = excelize.ChartLine{Width: 1}
			}
			out = append(out, s)
		}
		return out
	}

	charts := []struct {
		cell  string
		title string
		axis  string
		cols  []string
	}{
		{"J2", "Heart Rate: " + user, "bpm", []string{"B", "F", "G"}},
		{"J20", "Oxygen Saturation: " + user, "%", []string{"C", "H"}},
	}
	for _, c := range charts {
		if err := f.AddChart(SheetName, c.cell, &excelize.Chart{
			Type:      excelize.Line,
			Series:    series(c.cols...),
			Title:     []excelize.RichTextRun{{Text: c.title}},
			Legend:    excelize.ChartLegend{Position: "bottom"},
			Dimension: excelize.ChartDimension{Width: 640, Height: 320},
			XAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Time"}}},
			YAxis: excelize.ChartAxis{
				Title:          []excelize.RichTextRun{{Text: c.axis}},
				MajorGridLines: true,
			},
		}); err != nil {
			return fmt.Errorf("failed to add chart %q: %w", c.title, err)
		}
	}
	return nil
}

// Write renders the workbook to w.
func Write(w io.Writer, user string, readings []health.Reading, t health.Thresholds) error {
	f, err := Workbook(user, readings, t)
	if err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		f.Close()
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close workbook: %w", err)
	}
	return nil
}

// WriteFile renders the workbook to path.
func WriteFile(path, user string, readings []health.Reading, t health.Thresholds) error {
	f, err := Workbook(user, readings, t)
	if err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		f.Close()
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return f.Close()
}
