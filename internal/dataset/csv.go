package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tphummel/machine_states/internal/models"
)

// DefaultLayout is the timestamp layout used when none is configured.
const DefaultLayout = time.DateTime

// Source column headers.
const (
	ColMachineID = "MachineID"
	ColState     = "State"
	ColStartTime = "Start Time"
	ColEndTime   = "End Time"
)

var requiredColumns = []string{ColMachineID, ColState, ColStartTime, ColEndTime}

// ParseError reports a row or header that could not be turned into a Record.
// Line is 1-based and counts the header.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Value == "" && e.Err == nil {
		return fmt.Sprintf("line %d: missing column %q", e.Line, e.Column)
	}
	return fmt.Sprintf("line %d: column %q: cannot parse %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LoadCSV reads the CSV file at path. See ReadCSV.
func LoadCSV(path, layout string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	d, err := ReadCSV(f, layout)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return d, nil
}

// ReadCSV parses a delimited table with at least the MachineID, State,
// Start Time and End Time columns. Timestamps are parsed with layout
// (DefaultLayout when empty). Any unparseable timestamp fails the whole load.
func ReadCSV(r io.Reader, layout string) (*Dataset, error) {
	if layout == "" {
		layout = DefaultLayout
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, &ParseError{Line: 1, Column: col}
		}
	}

	var records []models.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		field := func(col string) string {
			i := idx[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		// line is the physical line on which col's field starts.
		line := func(col string) int {
			i := idx[col]
			if i >= len(row) {
				i = len(row) - 1
			}
			l, _ := cr.FieldPos(i)
			return l
		}

		start, err := parseTime(field(ColStartTime), layout)
		if err != nil {
			return nil, &ParseError{Line: line(ColStartTime), Column: ColStartTime, Value: field(ColStartTime), Err: err}
		}
		end, err := parseTime(field(ColEndTime), layout)
		if err != nil {
			return nil, &ParseError{Line: line(ColEndTime), Column: ColEndTime, Value: field(ColEndTime), Err: err}
		}

		records = append(records, models.Record{
			MachineID: field(ColMachineID),
			State:     field(ColState),
			StartTime: start,
			EndTime:   end,
		})
	}
	return New(records), nil
}

func parseTime(v, layout string) (time.Time, error) {
	if layout == DefaultLayout && len(v) > 10 && v[10] == 'T' {
		v = v[:10] + " " + v[11:]
	}
	return time.Parse(layout, v)
}
