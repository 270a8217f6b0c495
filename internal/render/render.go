// Package render draws dashboard figures as static PNG or SVG images with
// go-chart, for export outside the browser.
package render

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/tphummel/machine_states/internal/charts"
	"github.com/tphummel/machine_states/internal/models"
)

// Image size in pixels.
const (
	DefaultWidth  = 1024
	DefaultHeight = 480
)

var (
	// ErrEmptyFigure is returned for a figure with no data points.
	ErrEmptyFigure = errors.New("figure has no data to render")
	// ErrUnsupportedFormat is returned for formats other than png and svg.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrUnknownKind is returned for figures whose traces do not match a
	// dashboard chart.
	ErrUnknownKind = errors.New("unrecognised figure")
)

// ContentType returns the MIME type for format.
func ContentType(format string) (string, error) {
	switch format {
	case "png":
		return "image/png", nil
	case "svg":
		return "image/svg+xml", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func provider(format string) (chart.RendererProvider, error) {
	switch format {
	case "png":
		return chart.PNG, nil
	case "svg":
		return chart.SVG, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Figure writes fig to w in format ("png" or "svg").
func Figure(w io.Writer, fig models.Figure, format string) error {
	rp, err := provider(format)
	if err != nil {
		return err
	}
	if fig.Empty() {
		return ErrEmptyFigure
	}

	switch kind(fig) {
	case "pie":
		return pie(fig).Render(rp, w)
	case "timeline":
		c, err := timeline(fig)
		if err != nil {
			return err
		}
		return c.Render(rp, w)
	case "bar":
		return bar(fig).Render(rp, w)
	case "line":
		c, err := line(fig)
		if err != nil {
			return err
		}
		return c.Render(rp, w)
	}
	return ErrUnknownKind
}

func kind(fig models.Figure) string {
	for _, t := range fig.Data {
		switch {
		case t.Type == "pie":
			return "pie"
		case t.Type == "bar" && t.Orientation == "h":
			return "timeline"
		case t.Type == "bar":
			return "bar"
		case t.Type == "scatter":
			return "line"
		}
	}
	return ""
}

func pie(fig models.Figure) chart.PieChart {
	pc := chart.PieChart{
		Title:  fig.Layout.Title.Text,
		Width:  DefaultWidth,
		Height: DefaultHeight,
	}
	for _, t := range fig.Data {
		for i, label := range t.Labels {
			v := chart.Value{Label: label, Value: t.Values[i]}
			if t.Marker != nil && i < len(t.Marker.Colors) {
				v.Style = fill(t.Marker.Colors[i])
			}
			pc.Values = append(pc.Values, v)
		}
	}
	return pc
}

// bar stacks each record's duration on its machine, machines in order of
// first appearance.
func bar(fig models.Figure) chart.StackedBarChart {
	var order []string
	stacks := make(map[string][]chart.Value)
	for _, t := range fig.Data {
		for i, x := range t.X {
			machine := fmt.Sprint(x)
			if _, ok := stacks[machine]; !ok {
				order = append(order, machine)
			}
			stacks[machine] = append(stacks[machine], chart.Value{
				Label: t.Name,
				Value: toFloat(t.Y[i]),
				Style: fill(traceColor(t)),
			})
		}
	}

	sbc := chart.StackedBarChart{
		Title:  fig.Layout.Title.Text,
		Width:  DefaultWidth,
		Height: DefaultHeight,
	}
	for _, m := range order {
		sbc.Bars = append(sbc.Bars, chart.StackedBar{Name: m, Values: stacks[m]})
	}
	return sbc
}

// timeline draws each segment as a thick two-point series on its machine's
// row. Machines are listed top-down in ascending order.
func timeline(fig models.Figure) (chart.Chart, error) {
	machines := make(map[string]bool)
	type segment struct {
		machine    string
		start, end time.Time
		color      string
	}
	var segs []segment
	for _, t := range fig.Data {
		for i := range t.X {
			start, err := time.Parse(charts.TimeLayout, fmt.Sprint(t.Base[i]))
			if err != nil {
				return chart.Chart{}, fmt.Errorf("parse segment start: %w", err)
			}
			end := start.Add(time.Duration(toFloat(t.X[i])) * time.Millisecond)
			m := fmt.Sprint(t.Y[i])
			machines[m] = true
			segs = append(segs, segment{machine: m, start: start, end: end, color: traceColor(t)})
		}
	}

	names := make([]string, 0, len(machines))
	for m := range machines {
		names = append(names, m)
	}
	sort.Strings(names)
	row := make(map[string]float64, len(names))
	ticks := make([]chart.Tick, 0, len(names))
	for i, m := range names {
		y := float64(len(names) - 1 - i)
		row[m] = y
		ticks = append(ticks, chart.Tick{Value: y, Label: m})
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i].Value < ticks[j].Value })

	lo, hi := segs[0].start, segs[0].end
	series := make([]chart.Series, 0, len(segs))
	for _, s := range segs {
		if s.start.Before(lo) {
			lo = s.start
		}
		if s.end.After(hi) {
			hi = s.end
		}
		y := row[s.machine]
		series = append(series, chart.TimeSeries{
			XValues: []time.Time{s.start, s.end},
			YValues: []float64{y, y},
			Style: chart.Style{
				StrokeColor: color(s.color),
				StrokeWidth: 12,
			},
		})
	}
	lo, hi = pad(lo, hi)

	return chart.Chart{
		Title:  fig.Layout.Title.Text,
		Width:  DefaultWidth,
		Height: DefaultHeight,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeMinuteValueFormatter,
			Range:          &chart.ContinuousRange{Min: chart.TimeToFloat64(lo), Max: chart.TimeToFloat64(hi)},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: -1, Max: float64(len(names))},
			Ticks: ticks,
		},
		Series: series,
	}, nil
}

func line(fig models.Figure) (chart.Chart, error) {
	var series []chart.Series
	var lo, hi time.Time
	maxY := 0.0
	for _, t := range fig.Data {
		ts := chart.TimeSeries{
			Name:  t.Name,
			Style: chart.Style{StrokeColor: color(traceColor(t)), StrokeWidth: 2},
		}
		for i, x := range t.X {
			at, err := time.Parse(charts.TimeLayout, fmt.Sprint(x))
			if err != nil {
				return chart.Chart{}, fmt.Errorf("parse point time: %w", err)
			}
			if lo.IsZero() || at.Before(lo) {
				lo = at
			}
			if hi.IsZero() || at.After(hi) {
				hi = at
			}
			y := toFloat(t.Y[i])
			if y > maxY {
				maxY = y
			}
			ts.XValues = append(ts.XValues, at)
			ts.YValues = append(ts.YValues, y)
		}
		if len(ts.XValues) > 0 {
			series = append(series, ts)
		}
	}
	lo, hi = pad(lo, hi)
	if maxY == 0 {
		maxY = 1
	}

	c := chart.Chart{
		Title:  fig.Layout.Title.Text,
		Width:  DefaultWidth,
		Height: DefaultHeight,
		XAxis: chart.XAxis{
			Name:           axisTitle(fig.Layout.XAxis),
			ValueFormatter: chart.TimeMinuteValueFormatter,
			Range:          &chart.ContinuousRange{Min: chart.TimeToFloat64(lo), Max: chart.TimeToFloat64(hi)},
		},
		YAxis: chart.YAxis{
			Name:  axisTitle(fig.Layout.YAxis),
			Range: &chart.ContinuousRange{Min: 0, Max: maxY * 1.1},
		},
		Series: series,
	}
	c.Elements = []chart.Renderable{chart.Legend(&c)}
	return c, nil
}

// pad widens a degenerate time range so go-chart has a non-zero span.
func pad(lo, hi time.Time) (time.Time, time.Time) {
	if !hi.After(lo) {
		return lo.Add(-30 * time.Minute), lo.Add(30 * time.Minute)
	}
	return lo, hi
}

func axisTitle(a *models.Axis) string {
	if a == nil || a.Title == nil {
		return ""
	}
	return a.Title.Text
}

func traceColor(t models.Trace) string {
	switch {
	case t.Marker != nil && t.Marker.Color != "":
		return t.Marker.Color
	case t.Line != nil && t.Line.Color != "":
		return t.Line.Color
	}
	return charts.DefaultFallbackColor
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func fill(name string) chart.Style {
	c := color(name)
	return chart.Style{FillColor: c, StrokeColor: c}
}

var namedColors = map[string]string{
	"orangered": "ff4500",
	"blue":      "0000ff",
	"green":     "008000",
	"gray":      "808080",
	"grey":      "808080",
	"lightgray": "d3d3d3",
	"lightblue": "add8e6",
	"red":       "ff0000",
	"orange":    "ffa500",
	"yellow":    "ffff00",
	"purple":    "800080",
	"pink":      "ffc0cb",
	"black":     "000000",
	"white":     "ffffff",
}

// color resolves a CSS color name or #rrggbb value. Unknown names are gray.
func color(name string) drawing.Color {
	name = strings.ToLower(strings.TrimSpace(name))
	if hex, ok := namedColors[name]; ok {
		return drawing.ColorFromHex(hex)
	}
	if strings.HasPrefix(name, "#") && (len(name) == 7 || len(name) == 4) {
		return drawing.ColorFromHex(name[1:])
	}
	return drawing.ColorFromHex(namedColors["gray"])
}
