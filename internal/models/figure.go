package models

// Figure is a declarative chart description. It serialises to the JSON shape
// plotly.js accepts in Plotly.react, so the dashboard page renders it as-is.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is a single plotly series.
type Trace struct {
	Type        string    `json:"type"`
	Name        string    `json:"name,omitempty"`
	LegendGroup string    `json:"legendgroup,omitempty"`
	Orientation string    `json:"orientation,omitempty"`
	Mode        string    `json:"mode,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
	Values      []float64 `json:"values,omitempty"`
	X           []any     `json:"x,omitempty"`
	Y           []any     `json:"y,omitempty"`
	Base        []any     `json:"base,omitempty"`
	Marker      *Marker   `json:"marker,omitempty"`
	Line        *Line     `json:"line,omitempty"`
}

// Points returns the number of data points carried by the trace.
func (t Trace) Points() int {
	if t.Type == "pie" {
		return len(t.Values)
	}
	return len(t.X)
}

// Marker sets per-trace (Color) or per-point (Colors) fill colors.
type Marker struct {
	Color  string   `json:"color,omitempty"`
	Colors []string `json:"colors,omitempty"`
}

// Line configures the stroke of a scatter trace.
type Line struct {
	Color string `json:"color,omitempty"`
	Shape string `json:"shape,omitempty"`
}

// Layout holds figure-wide settings.
type Layout struct {
	Title   Title   `json:"title"`
	XAxis   *Axis   `json:"xaxis,omitempty"`
	YAxis   *Axis   `json:"yaxis,omitempty"`
	Legend  *Legend `json:"legend,omitempty"`
	BarMode string  `json:"barmode,omitempty"`
}

// Title is a plotly title object.
type Title struct {
	Text string `json:"text"`
}

// Axis is the subset of plotly axis attributes the dashboard sets.
type Axis struct {
	Title          *Title       `json:"title,omitempty"`
	Type           string       `json:"type,omitempty"`
	Range          []string     `json:"range,omitempty"`
	AutoRange      string       `json:"autorange,omitempty"`
	FixedRange     bool         `json:"fixedrange,omitempty"`
	CategoryOrder  string       `json:"categoryorder,omitempty"`
	RangeMode      string       `json:"rangemode,omitempty"`
	RangeSlider    *RangeSlider `json:"rangeslider,omitempty"`
	ShowSpikes     bool         `json:"showspikes,omitempty"`
	SpikeThickness int          `json:"spikethickness,omitempty"`
	SpikeSnap      string       `json:"spikesnap,omitempty"`
	SpikeMode      string       `json:"spikemode,omitempty"`
	ShowLine       bool         `json:"showline,omitempty"`
	ShowGrid       *bool        `json:"showgrid,omitempty"`
}

// RangeSlider is the mini-map shown under a time axis.
type RangeSlider struct {
	Visible   bool    `json:"visible"`
	Thickness float64 `json:"thickness,omitempty"`
	BgColor   string  `json:"bgcolor,omitempty"`
}

// Legend configures the legend box.
type Legend struct {
	Title Title `json:"title"`
}

// Empty reports whether the figure carries no data points.
func (f Figure) Empty() bool {
	for _, t := range f.Data {
		if t.Points() > 0 {
			return false
		}
	}
	return true
}
