package charts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tphummel/machine_states/internal/models"
)

// Pie counts rows per state. Slices are ordered by descending count, ties by
// first appearance; states with no rows get no slice.
func Pie(in Input, opts Options) (models.Figure, error) {
	groups, err := groupByState(in.Rows, opts.Palette)
	if err != nil {
		return models.Figure{}, err
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i].Rows) > len(groups[j].Rows)
	})

	fig := models.Figure{
		Data: []models.Trace{},
		Layout: models.Layout{
			Title: models.Title{Text: PieTitle(in.Selection.Machines)},
		},
	}
	if len(groups) == 0 {
		return fig, nil
	}

	trace := models.Trace{Type: "pie", Marker: &models.Marker{}}
	for _, g := range groups {
		trace.Labels = append(trace.Labels, g.State)
		trace.Values = append(trace.Values, float64(len(g.Rows)))
		trace.Marker.Colors = append(trace.Marker.Colors, g.Color)
	}
	fig.Data = append(fig.Data, trace)
	return fig, nil
}

// PieTitle names the selected machines, joined by ", ".
func PieTitle(machines []string) string {
	return fmt.Sprintf("State Distribution for Machines (%s)", strings.Join(machines, ", "))
}
