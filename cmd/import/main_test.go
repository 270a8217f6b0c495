package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/tphummel/machine_states/internal/db"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "states.csv")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_ImportsAndReplaces(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "states.db")
	first := writeCSV(t, "MachineID,State,Start Time,End Time\n"+
		"M1,Idle,2024-01-01 00:00:00,2024-01-01 01:00:00\n"+
		"M1,Working,2024-01-01 01:00:00,2024-01-01 02:00:00\n")
	second := writeCSV(t, "MachineID,State,Start Time,End Time\n"+
		"M3,Stopped,2024-01-02 00:00:00,2024-01-02 00:15:00\n")

	if err := run([]string{"-csv", first, "-db", dbPath}, quiet); err != nil {
		t.Fatalf("first import: %v", err)
	}
	if err := run([]string{"-csv", second, "-db", dbPath}, quiet); err != nil {
		t.Fatalf("second import: %v", err)
	}

	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	defer database.Close()
	records, err := database.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 1 || records[0].MachineID != "M3" {
		t.Errorf("records after replace: got %+v", records)
	}
}

func TestRun_CustomLayout(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "states.db")
	src := writeCSV(t, "MachineID,State,Start Time,End Time\n"+
		"M1,Idle,01/02/2024 10:00,01/02/2024 11:30\n")

	if err := run([]string{"-csv", src, "-db", dbPath, "-layout", "01/02/2006 15:04"}, quiet); err != nil {
		t.Fatalf("import: %v", err)
	}
}

func TestRun_Errors(t *testing.T) {
	bad := writeCSV(t, "MachineID,State,Start Time,End Time\nM1,Idle,yesterday,today\n")
	tests := []struct {
		name string
		args []string
	}{
		{"missing csv flag", []string{}},
		{"unknown flag", []string{"-csv", bad, "-force"}},
		{"missing file", []string{"-csv", filepath.Join(t.TempDir(), "missing.csv")}},
		{"unparseable timestamp", []string{"-csv", bad, "-db", filepath.Join(t.TempDir(), "x.db")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(tt.args, quiet); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
