package models

import "time"

// State labels observed in machine state exports.
const (
	StateStopped = "Stopped"
	StateIdle    = "Idle"
	StateWorking = "Working"
)

// Record is one machine state interval as read from the source table.
type Record struct {
	MachineID string    `json:"machine_id"`
	State     string    `json:"state"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Inverted reports whether the interval ends before it starts.
func (r Record) Inverted() bool {
	return r.EndTime.Before(r.StartTime)
}

// DurationHours returns EndTime - StartTime in hours, clamped at zero.
func (r Record) DurationHours() float64 {
	if r.Inverted() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime).Hours()
}

// FilteredRecord is a Record that survived a Selection, with its derived
// duration attached.
type FilteredRecord struct {
	Record
	DurationHours float64 `json:"duration_hours"`
	Inverted      bool    `json:"inverted,omitempty"`
}

// Filtered derives the duration columns for r.
func (r Record) Filtered() FilteredRecord {
	return FilteredRecord{
		Record:        r,
		DurationHours: r.DurationHours(),
		Inverted:      r.Inverted(),
	}
}

// Selection is the set of machine IDs and state labels the user has chosen.
// A nil or empty slice selects nothing.
type Selection struct {
	Machines []string `json:"machines"`
	States   []string `json:"states"`
}

// Sets returns membership sets for the machine and state lists.
func (s Selection) Sets() (machines, states map[string]bool) {
	machines = make(map[string]bool, len(s.Machines))
	for _, m := range s.Machines {
		machines[m] = true
	}
	states = make(map[string]bool, len(s.States))
	for _, st := range s.States {
		states[st] = true
	}
	return machines, states
}

// KnownStates is the set of state labels with an assigned display color.
var KnownStates = map[string]bool{
	StateStopped: true,
	StateIdle:    true,
	StateWorking: true,
}

// StateColors maps each known state to its display color.
var StateColors = map[string]string{
	StateStopped: "orangered",
	StateIdle:    "blue",
	StateWorking: "green",
}
