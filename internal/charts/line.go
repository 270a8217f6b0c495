package charts

import "github.com/tphummel/machine_states/internal/models"

// LineTitle is the title of the duration trend chart.
const LineTitle = "Duration Trend Over Time"

// Line plots one point per row at (start time, duration), joined by straight
// segments within each state.
func Line(in Input, opts Options) (models.Figure, error) {
	groups, err := groupByState(in.Rows, opts.Palette)
	if err != nil {
		return models.Figure{}, err
	}

	fig := models.Figure{
		Data: []models.Trace{},
		Layout: models.Layout{
			Title:  models.Title{Text: LineTitle},
			XAxis:  &models.Axis{Title: &models.Title{Text: TitleTime}, Type: "date"},
			YAxis:  &models.Axis{Title: &models.Title{Text: TitleDuration}},
			Legend: &models.Legend{Title: models.Title{Text: TitleState}},
		},
	}
	for _, g := range groups {
		trace := models.Trace{
			Type:        "scatter",
			Mode:        "lines",
			Name:        g.State,
			LegendGroup: g.State,
			Line:        &models.Line{Color: g.Color, Shape: "linear"},
		}
		for _, r := range g.Rows {
			trace.X = append(trace.X, formatTime(r.StartTime))
			trace.Y = append(trace.Y, r.DurationHours)
		}
		fig.Data = append(fig.Data, trace)
	}
	return fig, nil
}
