package session

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fakeyudi/oximon/internal/health"
)

// FormatError is returned when a log file does not have the expected shape.
type FormatError struct {
	Path string
	Line int
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed log %s line %d: %v", e.Path, e.Line, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ReadLog parses a log file written by Log. Timestamps are read in local time,
// matching how they were written.
func ReadLog(path string) ([]health.Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	head, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &FormatError{Path: path, Line: 1, Err: errors.New("missing header")}
		}
		return nil, &FormatError{Path: path, Line: 1, Err: err}
	}
	for i := range Header {
		if strings.TrimSpace(head[i]) != Header[i] {
			return nil, &FormatError{Path: path, Line: 1, Err: fmt.Errorf("unexpected header %q", strings.Join(head, ","))}
		}
	}

	var readings []health.Reading
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &FormatError{Path: path, Line: line, Err: err}
		}
		ts, err := time.ParseInLocation(health.TimeLayout, rec[0], time.Local)
		if err != nil {
			return nil, &FormatError{Path: path, Line: line, Err: err}
		}
		hr, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, &FormatError{Path: path, Line: line, Err: err}
		}
		o2, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, &FormatError{Path: path, Line: line, Err: err}
		}
		readings = append(readings, health.Reading{Time: ts, HeartRate: hr, OxygenSaturation: o2})
	}
	return readings, nil
}
