package db_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/tphummel/machine_states/internal/db"
	"github.com/tphummel/machine_states/internal/models"
)

// newTestDB opens a fresh in-memory SQLite database for each test.
func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func sampleRecords() []models.Record {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []models.Record{
		{MachineID: "M2", State: "Working", StartTime: start, EndTime: start.Add(90 * time.Minute)},
		{MachineID: "M1", State: "Idle", StartTime: start, EndTime: start.Add(time.Hour)},
		{MachineID: "M1", State: "Stopped", StartTime: start.Add(time.Hour), EndTime: start.Add(2 * time.Hour)},
	}
}

func TestNew(t *testing.T) {
	d := newTestDB(t)
	if err := d.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestRecords_Empty(t *testing.T) {
	d := newTestDB(t)
	got, err := d.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Records: got %d, want 0", len(got))
	}
}

func TestReplace_RoundTripPreservesOrder(t *testing.T) {
	d := newTestDB(t)
	want := sampleRecords()

	if err := d.Replace(want); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, err := d.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Records: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].MachineID != want[i].MachineID || got[i].State != want[i].State {
			t.Errorf("row %d: got %s/%s, want %s/%s", i, got[i].MachineID, got[i].State, want[i].MachineID, want[i].State)
		}
		if !got[i].StartTime.Equal(want[i].StartTime) {
			t.Errorf("row %d StartTime: got %v, want %v", i, got[i].StartTime, want[i].StartTime)
		}
		if !got[i].EndTime.Equal(want[i].EndTime) {
			t.Errorf("row %d EndTime: got %v, want %v", i, got[i].EndTime, want[i].EndTime)
		}
	}
}

func TestReplace_DiscardsPreviousRows(t *testing.T) {
	d := newTestDB(t)
	if err := d.Replace(sampleRecords()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := d.Replace(sampleRecords()[:1]); err != nil {
		t.Fatalf("second Replace: %v", err)
	}
	got, err := d.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Records: got %d, want 1", len(got))
	}
}

func TestNew_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.db")
	d, err := db.New(path)
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	if err := d.Replace(sampleRecords()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	d.Close()

	reopened, err := db.New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Records after reopen: got %d, want 3", len(got))
	}
}

func TestReplace_PreservesSubSecondPrecision(t *testing.T) {
	d := newTestDB(t)
	start := time.Date(2024, 1, 1, 8, 0, 0, 123456789, time.FixedZone("CET", 3600))
	want := models.Record{MachineID: "M1", State: "Idle", StartTime: start, EndTime: start.Add(1500 * time.Millisecond)}

	if err := d.Replace([]models.Record{want}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, err := d.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Records: got %d, want 1", len(got))
	}
	if !got[0].StartTime.Equal(want.StartTime) {
		t.Errorf("StartTime: got %v, want %v", got[0].StartTime, want.StartTime)
	}
	if !got[0].EndTime.Equal(want.EndTime) {
		t.Errorf("EndTime: got %v, want %v", got[0].EndTime, want.EndTime)
	}
}
