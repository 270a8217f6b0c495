package dataset

import (
	"slices"

	"github.com/tphummel/machine_states/internal/models"
)

// Dataset is the immutable table of machine state records loaded at startup.
// It is safe for concurrent readers.
type Dataset struct {
	records  []models.Record
	machines []string
	states   []string
}

// New builds a Dataset from records. The slice is copied.
func New(records []models.Record) *Dataset {
	d := &Dataset{records: slices.Clone(records)}
	seenMachine := make(map[string]bool)
	seenState := make(map[string]bool)
	for _, r := range d.records {
		if !seenMachine[r.MachineID] {
			seenMachine[r.MachineID] = true
			d.machines = append(d.machines, r.MachineID)
		}
		if !seenState[r.State] {
			seenState[r.State] = true
			d.states = append(d.states, r.State)
		}
	}
	return d
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns a copy of all records in load order.
func (d *Dataset) Records() []models.Record {
	return slices.Clone(d.records)
}

// Machines returns the distinct machine IDs in first-appearance order.
func (d *Dataset) Machines() []string {
	return slices.Clone(d.machines)
}

// States returns the distinct state labels in first-appearance order.
func (d *Dataset) States() []string {
	return slices.Clone(d.states)
}

// All returns a Selection of every machine and state in the dataset.
func (d *Dataset) All() models.Selection {
	return models.Selection{Machines: d.Machines(), States: d.States()}
}

// CountByState returns the number of records per state label.
func (d *Dataset) CountByState() map[string]int {
	counts := make(map[string]int, len(d.states))
	for _, r := range d.records {
		counts[r.State]++
	}
	return counts
}

// InvertedCount returns the number of records whose end precedes their start.
func (d *Dataset) InvertedCount() int {
	n := 0
	for _, r := range d.records {
		if r.Inverted() {
			n++
		}
	}
	return n
}

// UnknownStates returns the distinct state labels outside models.KnownStates,
// in first-appearance order.
func (d *Dataset) UnknownStates() []string {
	var out []string
	for _, s := range d.states {
		if !models.KnownStates[s] {
			out = append(out, s)
		}
	}
	return out
}

// Filter returns the records whose machine and state are both selected, in
// dataset order, with durations derived. An empty machine or state list
// yields no rows.
func (d *Dataset) Filter(sel models.Selection) []models.FilteredRecord {
	machines, states := sel.Sets()
	out := []models.FilteredRecord{}
	if len(machines) == 0 || len(states) == 0 {
		return out
	}
	for _, r := range d.records {
		if machines[r.MachineID] && states[r.State] {
			out = append(out, r.Filtered())
		}
	}
	return out
}
