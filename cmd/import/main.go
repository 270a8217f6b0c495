// Command import loads a machine-state CSV file into a SQLite record store
// that the server can read with DATA_PATH=<file>.db.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/tphummel/machine_states/internal/dataset"
	"github.com/tphummel/machine_states/internal/db"
)

func run(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	csvPath := fs.String("csv", "", "path to the source CSV file")
	dbPath := fs.String("db", "./machine_states.db", "path to the SQLite database to replace")
	layout := fs.String("layout", dataset.DefaultLayout, "Go time layout of the timestamp columns")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *csvPath == "" {
		return errors.New("-csv is required")
	}

	data, err := dataset.LoadCSV(*csvPath, *layout)
	if err != nil {
		return err
	}

	database, err := db.New(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := database.Replace(data.Records()); err != nil {
		return fmt.Errorf("failed to store records: %w", err)
	}
	logger.Info("import complete",
		"csv", *csvPath,
		"db", *dbPath,
		"records", humanize.Comma(int64(data.Len())),
		"inverted", data.InvertedCount(),
	)
	return nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	if err := run(os.Args[1:], logger); err != nil {
		logger.Error("import failed", "error", err)
		os.Exit(1)
	}
}
