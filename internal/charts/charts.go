// Package charts turns filtered machine state rows into plotly figures.
// Every builder is a pure function of its Input and Options.
package charts

import (
	"time"

	"github.com/tphummel/machine_states/internal/models"
)

// TimeLayout is how timestamps are written into figures, always in UTC.
const TimeLayout = "2006-01-02 15:04:05"

// Axis and legend titles shared by the duration charts.
const (
	TitleMachineID = "Machine ID"
	TitleDuration  = "Duration (Hours)"
	TitleTime      = "Time"
	TitleState     = "State"
)

// Input is the data a builder works on: the active selection and the rows
// that matched it.
type Input struct {
	Selection models.Selection
	Rows      []models.FilteredRecord
}

// Options carries presentation settings shared by all builders.
type Options struct {
	Palette Palette
	// Window is the initial visible span of the timeline, ending at the
	// latest end time.
	Window time.Duration
}

// DefaultOptions returns the default palette and a one hour window.
func DefaultOptions() Options {
	return Options{Palette: DefaultPalette(), Window: time.Hour}
}

// Builder produces one figure.
type Builder func(in Input, opts Options) (models.Figure, error)

// stateGroup holds the rows of one state, in row order.
type stateGroup struct {
	State string
	Color string
	Rows  []models.FilteredRecord
}

// groupByState splits rows by state in order of first appearance and
// resolves each state's color.
func groupByState(rows []models.FilteredRecord, p Palette) ([]stateGroup, error) {
	var groups []stateGroup
	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.State]
		if !ok {
			color, err := p.Color(r.State)
			if err != nil {
				return nil, err
			}
			i = len(groups)
			index[r.State] = i
			groups = append(groups, stateGroup{State: r.State, Color: color})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func boolPtr(b bool) *bool { return &b }
