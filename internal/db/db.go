package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tphummel/machine_states/internal/models"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection holding machine state intervals.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at path, enables WAL mode, and runs migrations.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &DB{conn: conn}, nil
}

func migrate(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS machine_states (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			machine_id TEXT NOT NULL,
			state      TEXT NOT NULL,
			start_time DATETIME NOT NULL,
			end_time   DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_machine_states_machine ON machine_states(machine_id);
	`)
	return err
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Ping verifies the database connection is alive.
func (d *DB) Ping() error {
	return d.conn.Ping()
}

// Replace deletes every stored interval and inserts records in order, in a
// single transaction.
func (d *DB) Replace(records []models.Record) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM machine_states`); err != nil {
		return fmt.Errorf("clear machine_states: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO machine_states (machine_id, state, start_time, end_time)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(
			r.MachineID, r.State,
			r.StartTime.UTC().Format(time.RFC3339Nano),
			r.EndTime.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert %s/%s: %w", r.MachineID, r.State, err)
		}
	}
	return tx.Commit()
}

// Records returns every stored interval in insertion order.
func (d *DB) Records() ([]models.Record, error) {
	rows, err := d.conn.Query(`
		SELECT machine_id, state, start_time, end_time
		FROM machine_states ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		r, err := scanRows(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanRows(rows *sql.Rows) (models.Record, error) {
	var r models.Record
	var start, end string
	if err := rows.Scan(&r.MachineID, &r.State, &start, &end); err != nil {
		return r, err
	}
	var err error
	r.StartTime, err = time.Parse(time.RFC3339Nano, start)
	if err != nil {
		return r, fmt.Errorf("parse start_time %q: %w", start, err)
	}
	r.EndTime, err = time.Parse(time.RFC3339Nano, end)
	if err != nil {
		return r, fmt.Errorf("parse end_time %q: %w", end, err)
	}
	return r, nil
}
