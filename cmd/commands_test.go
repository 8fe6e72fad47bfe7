package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fakeyudi/oximon/internal/export"
	"github.com/fakeyudi/oximon/internal/health"
	"github.com/fakeyudi/oximon/internal/profile"
	"github.com/fakeyudi/oximon/internal/report"
	"github.com/fakeyudi/oximon/internal/session"
)

// seedLog writes a log for user with a normal, a low and a high reading.
func seedLog(t *testing.T, dir, user string) {
	t.Helper()
	log, err := session.Open(dir, user)
	require.NoError(t, err)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	for i, v := range [][2]int{{72, 98}, {45, 90}, {110, 97}} {
		require.NoError(t, log.Append(health.NewReading(base.Add(time.Duration(i)*5*time.Second), v[0], v[1])))
	}
	require.NoError(t, log.Close())
}

func TestClassifyCommand(t *testing.T) {
	isolate(t)

	out, err := executeCommand(rootCmd, "classify", "45", "90")
	require.NoError(t, err)
	assert.Contains(t, out, "Heart rate: 45 bpm (low)")
	assert.Contains(t, out, "Heart rate low. Possible hypotension.")
	assert.Contains(t, out, "! Low heart rate! Low heart rate — possible hypotension.")
	assert.Contains(t, out, "! Low oxygen saturation!")

	out, err = executeCommand(rootCmd, "classify", "72", "98")
	require.NoError(t, err)
	assert.NotContains(t, out, "!")

	_, err = executeCommand(rootCmd, "classify", "fast", "98")
	assert.Error(t, err)
}

func TestClassifyUsesProjectConfig(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".oximon.yaml", []byte("thresholds:\n  heart_rate_low: 40\n"), 0o644))

	out, err := executeCommand(rootCmd, "classify", "45", "98")
	require.NoError(t, err)
	assert.Contains(t, out, "Heart rate: 45 bpm (normal)")
}

func TestUsersListAndAdd(t *testing.T) {
	isolate(t)

	out, err := executeCommand(rootCmd, "users")
	require.NoError(t, err)
	for _, u := range []string{"User 1", "User 2", "User 3"} {
		assert.Contains(t, out, u)
	}

	out, err = executeCommand(rootCmd, "users", "add", "Grandma")
	require.NoError(t, err)
	assert.Contains(t, out, "Added Grandma.")

	prof, err := profile.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Grandma"}, prof.Users)

	out, err = executeCommand(rootCmd, "users")
	require.NoError(t, err)
	assert.Contains(t, out, "Grandma")
	assert.Contains(t, out, "grandma_health_data.csv")

	_, err = executeCommand(rootCmd, "users", "add", "grandma")
	assert.Error(t, err)
}

func TestViewPlain(t *testing.T) {
	dir := isolate(t)
	seedLog(t, dir, "User 1")

	out, err := executeCommand(rootCmd, "view", "User 1", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "Readings:    3")
	assert.Contains(t, out, "2024-05-01 10:00:05   45 bpm low")
	assert.Contains(t, out, "110 bpm high")
}

func TestViewMissingLog(t *testing.T) {
	isolate(t)
	_, err := executeCommand(rootCmd, "view", "Nobody", "--plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no log for Nobody")
}

func TestReportMarkdownAndJSON(t *testing.T) {
	dir := isolate(t)
	seedLog(t, dir, "User 1")

	out, err := executeCommand(rootCmd, "report", "User 1")
	require.NoError(t, err)
	assert.Contains(t, out, "# Health report: User 1")
	assert.Contains(t, out, "| Low heart rate | 1 |")

	resetFlags(rootCmd)
	out, err = executeCommand(rootCmd, "report", "User 1", "--format", "json")
	require.NoError(t, err)
	var r report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 3, r.Summary.Readings)
	assert.Len(t, r.Events, 2)
}

func TestReportFromFileConverts(t *testing.T) {
	dir := isolate(t)
	seedLog(t, dir, "User 1")
	md := filepath.Join(t.TempDir(), "report.md")

	out, err := executeCommand(rootCmd, "report", "User 1", "-o", md)
	require.NoError(t, err)
	assert.Contains(t, out, "Report written to "+md)

	resetFlags(rootCmd)
	out, err = executeCommand(rootCmd, "report", "--from", md, "--format", "json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "{"), out)
	assert.Contains(t, out, `"user": "User 1"`)
}

func TestReportNeedsUserOrFile(t *testing.T) {
	isolate(t)
	_, err := executeCommand(rootCmd, "report")
	assert.Error(t, err)
}

func TestExportWorkbook(t *testing.T) {
	dir := isolate(t)
	seedLog(t, dir, "User 1")

	out, err := executeCommand(rootCmd, "export", "User 1")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 3 readings to user-1_health_data.xlsx")

	f, err := excelize.OpenFile("user-1_health_data.xlsx")
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}
