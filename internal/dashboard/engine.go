// Package dashboard recomputes the dashboard's charts when the selection
// changes. An explicit dispatch table maps each selection event to the charts
// it invalidates.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tphummel/machine_states/internal/charts"
	"github.com/tphummel/machine_states/internal/dataset"
	"github.com/tphummel/machine_states/internal/models"
)

// ChartID names one of the dashboard's chart regions.
type ChartID string

// Chart regions, in page order.
const (
	ChartPie      ChartID = "state-pie-chart"
	ChartTimeline ChartID = "state-timeline"
	ChartBar      ChartID = "state-bar-chart"
	ChartLine     ChartID = "state-line-chart"
)

// Charts lists every chart region in page order.
var Charts = []ChartID{ChartPie, ChartTimeline, ChartBar, ChartLine}

// Event is a selection change reported by the page.
type Event string

// Selection events.
const (
	EventInitial         Event = "initial"
	EventMachinesChanged Event = "machines-changed"
	EventStatesChanged   Event = "states-changed"
)

var (
	// ErrUnknownEvent is returned for an event missing from the dispatch table.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrUnknownChart is returned for a chart ID with no builder.
	ErrUnknownChart = errors.New("unknown chart")
)

// DefaultDispatch re-renders every chart on every event; all four charts
// depend on both selections.
func DefaultDispatch() map[Event][]ChartID {
	return map[Event][]ChartID{
		EventInitial:         Charts,
		EventMachinesChanged: Charts,
		EventStatesChanged:   Charts,
	}
}

// DefaultBuilders maps each chart region to its builder.
func DefaultBuilders() map[ChartID]charts.Builder {
	return map[ChartID]charts.Builder{
		ChartPie:      charts.Pie,
		ChartTimeline: charts.Timeline,
		ChartBar:      charts.Bar,
		ChartLine:     charts.Line,
	}
}

// Snapshot is the set of figures produced for one selection. Every figure in
// a Snapshot was built from the same Selection and Rows.
type Snapshot struct {
	Generation string                    `json:"generation"`
	Event      Event                     `json:"event"`
	Selection  models.Selection          `json:"selection"`
	Rows       int                       `json:"rows"`
	Figures    map[ChartID]models.Figure `json:"figures"`
}

// Observer is notified after every recompute.
type Observer interface {
	ObserveRecompute(event string, elapsed time.Duration)
}

// Engine recomputes figures against a read-only Dataset.
type Engine struct {
	data     *dataset.Dataset
	opts     charts.Options
	builders map[ChartID]charts.Builder
	dispatch map[Event][]ChartID
	logger   *slog.Logger
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithObserver registers o to be told about each recompute.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithDispatch replaces the event dispatch table.
func WithDispatch(d map[Event][]ChartID) Option {
	return func(e *Engine) { e.dispatch = d }
}

// WithBuilders replaces the chart builders.
func WithBuilders(b map[ChartID]charts.Builder) Option {
	return func(e *Engine) { e.builders = b }
}

// New returns an Engine over data.
func New(data *dataset.Dataset, opts charts.Options, options ...Option) *Engine {
	e := &Engine{
		data:     data,
		opts:     opts,
		builders: DefaultBuilders(),
		dispatch: DefaultDispatch(),
		logger:   slog.Default(),
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// Dataset returns the engine's dataset.
func (e *Engine) Dataset() *dataset.Dataset {
	return e.data
}

// Palette returns the color mapping used by the builders.
func (e *Engine) Palette() charts.Palette {
	return e.opts.Palette
}

// Handle filters the dataset once for sel and runs every builder the
// dispatch table lists for ev, concurrently, on that single filtered table.
// If any builder fails no snapshot is returned.
func (e *Engine) Handle(ctx context.Context, ev Event, sel models.Selection) (*Snapshot, error) {
	ids, ok := e.dispatch[ev]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev)
	}

	for _, id := range ids {
		if _, ok := e.builders[id]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownChart, id)
		}
	}

	start := time.Now()
	sel = cloneSelection(sel)
	in := charts.Input{Selection: sel, Rows: e.data.Filter(sel)}

	var mu sync.Mutex
	figures := make(map[ChartID]models.Figure, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		build := e.builders[id]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fig, err := build(in, e.opts)
			if err != nil {
				return fmt.Errorf("build %s: %w", id, err)
			}
			mu.Lock()
			figures[id] = fig
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Generation: uuid.New().String(),
		Event:      ev,
		Selection:  sel,
		Rows:       len(in.Rows),
		Figures:    figures,
	}

	elapsed := time.Since(start)
	if e.observer != nil {
		e.observer.ObserveRecompute(string(ev), elapsed)
	}
	e.logger.LogAttrs(ctx, slog.LevelDebug, "recompute",
		slog.String("generation", snap.Generation),
		slog.String("event", string(ev)),
		slog.Int("rows", snap.Rows),
		slog.Int("charts", len(figures)),
		slog.Duration("duration", elapsed),
	)
	return snap, nil
}

// Build produces a single chart for sel.
func (e *Engine) Build(id ChartID, sel models.Selection) (models.Figure, error) {
	build, ok := e.builders[id]
	if !ok {
		return models.Figure{}, fmt.Errorf("%w: %q", ErrUnknownChart, id)
	}
	sel = cloneSelection(sel)
	return build(charts.Input{Selection: sel, Rows: e.data.Filter(sel)}, e.opts)
}

// cloneSelection detaches sel from caller-owned slices so concurrent
// builders never observe a later mutation.
func cloneSelection(sel models.Selection) models.Selection {
	return models.Selection{
		Machines: append([]string{}, sel.Machines...),
		States:   append([]string{}, sel.States...),
	}
}
