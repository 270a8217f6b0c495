package models_test

import (
	"testing"
	"time"

	"github.com/tphummel/machine_states/internal/models"
)

func TestStateColors(t *testing.T) {
	want := map[string]string{
		"Stopped": "orangered",
		"Idle":    "blue",
		"Working": "green",
	}
	for state, color := range want {
		if got := models.StateColors[state]; got != color {
			t.Errorf("StateColors[%q]: got %q, want %q", state, got, color)
		}
	}
	for state := range models.KnownStates {
		if _, ok := want[state]; !ok {
			t.Errorf("KnownStates has %q with no expected color", state)
		}
	}
}

func TestRecord_DurationHours(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := models.Record{MachineID: "M1", State: "Idle", StartTime: start, EndTime: start.Add(90 * time.Minute)}

	if got := r.DurationHours(); got != 1.5 {
		t.Errorf("DurationHours: got %v, want 1.5", got)
	}
	if r.Inverted() {
		t.Error("Inverted: got true for a forward interval")
	}
}

func TestRecord_InvertedClampsToZero(t *testing.T) {
	start := time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC)
	r := models.Record{MachineID: "M1", State: "Idle", StartTime: start, EndTime: start.Add(-time.Hour)}

	f := r.Filtered()
	if f.DurationHours != 0 {
		t.Errorf("DurationHours: got %v, want 0", f.DurationHours)
	}
	if !f.Inverted {
		t.Error("Inverted: got false, want true")
	}
}

func TestSelection_Sets(t *testing.T) {
	sel := models.Selection{Machines: []string{"M1", "M2"}, States: nil}
	machines, states := sel.Sets()
	if !machines["M1"] || !machines["M2"] || machines["M3"] {
		t.Errorf("machine set: got %v", machines)
	}
	if len(states) != 0 {
		t.Errorf("state set: got %v, want empty", states)
	}
}

func TestFigure_Empty(t *testing.T) {
	if !(models.Figure{}).Empty() {
		t.Error("zero Figure should be empty")
	}
	f := models.Figure{Data: []models.Trace{{Type: "pie", Labels: []string{"Idle"}, Values: []float64{1}}}}
	if f.Empty() {
		t.Error("pie with one slice should not be empty")
	}
	f = models.Figure{Data: []models.Trace{{Type: "bar"}}}
	if !f.Empty() {
		t.Error("bar trace without points should be empty")
	}
}
