package charts

import "github.com/tphummel/machine_states/internal/models"

// BarTitle is the title of the duration bar chart.
const BarTitle = "Machine State Duration"

// Bar plots each row's duration as its own bar segment on the row's machine,
// stacked per machine and colored by state. Rows are not pre-aggregated.
func Bar(in Input, opts Options) (models.Figure, error) {
	groups, err := groupByState(in.Rows, opts.Palette)
	if err != nil {
		return models.Figure{}, err
	}

	fig := models.Figure{
		Data: []models.Trace{},
		Layout: models.Layout{
			Title:   models.Title{Text: BarTitle},
			BarMode: "relative",
			XAxis:   &models.Axis{Title: &models.Title{Text: TitleMachineID}},
			YAxis:   &models.Axis{Title: &models.Title{Text: TitleDuration}},
			Legend:  &models.Legend{Title: models.Title{Text: TitleState}},
		},
	}
	for _, g := range groups {
		trace := models.Trace{
			Type:        "bar",
			Name:        g.State,
			LegendGroup: g.State,
			Marker:      &models.Marker{Color: g.Color},
		}
		for _, r := range g.Rows {
			trace.X = append(trace.X, r.MachineID)
			trace.Y = append(trace.Y, r.DurationHours)
		}
		fig.Data = append(fig.Data, trace)
	}
	return fig, nil
}
