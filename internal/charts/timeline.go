package charts

import (
	"time"

	"github.com/tphummel/machine_states/internal/models"
)

// TimelineTitle is the title of the Gantt chart.
const TimelineTitle = "Machine Activity Timeline"

// Timeline draws one horizontal segment per row from start to end on the
// row's machine, one trace per state. The x axis opens on the last
// opts.Window before the latest end time; with no rows the range is left
// to autorange.
func Timeline(in Input, opts Options) (models.Figure, error) {
	groups, err := groupByState(in.Rows, opts.Palette)
	if err != nil {
		return models.Figure{}, err
	}

	fig := models.Figure{
		Data: []models.Trace{},
		Layout: models.Layout{
			Title:   models.Title{Text: TimelineTitle},
			BarMode: "overlay",
			XAxis: &models.Axis{
				Type:           "date",
				RangeMode:      "tozero",
				ShowSpikes:     true,
				SpikeThickness: 1,
				SpikeSnap:      "cursor",
				SpikeMode:      "across",
				ShowLine:       true,
				ShowGrid:       boolPtr(false),
				RangeSlider: &models.RangeSlider{
					Visible:   true,
					Thickness: 0.05,
					BgColor:   "lightgray",
				},
			},
			YAxis: &models.Axis{
				Title:         &models.Title{Text: "MachineID"},
				Type:          "category",
				CategoryOrder: "category ascending",
				AutoRange:     "reversed",
				FixedRange:    true,
			},
			Legend: &models.Legend{Title: models.Title{Text: TitleState}},
		},
	}

	for _, g := range groups {
		trace := models.Trace{
			Type:        "bar",
			Orientation: "h",
			Name:        g.State,
			LegendGroup: g.State,
			Marker:      &models.Marker{Color: g.Color},
		}
		for _, r := range g.Rows {
			trace.Base = append(trace.Base, formatTime(r.StartTime))
			trace.X = append(trace.X, float64(r.EndTime.Sub(r.StartTime).Milliseconds()))
			trace.Y = append(trace.Y, r.MachineID)
		}
		fig.Data = append(fig.Data, trace)
	}

	window := opts.Window
	if window <= 0 {
		window = time.Hour
	}
	if lo, hi, ok := DefaultWindow(in.Rows, window); ok {
		fig.Layout.XAxis.Range = []string{formatTime(lo), formatTime(hi)}
	}
	return fig, nil
}

// DefaultWindow returns [max(EndTime) - window, max(EndTime)] over rows. ok
// is false when rows is empty.
func DefaultWindow(rows []models.FilteredRecord, window time.Duration) (lo, hi time.Time, ok bool) {
	if len(rows) == 0 {
		return time.Time{}, time.Time{}, false
	}
	hi = rows[0].EndTime
	for _, r := range rows[1:] {
		if r.EndTime.After(hi) {
			hi = r.EndTime
		}
	}
	return hi.Add(-window), hi, true
}
