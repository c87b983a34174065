// Package storage keeps the deposit journal: one row per record and export
// run, telling whether the record went out, was skipped by the format or
// was dropped before export. The journal lives in SQLite and can be dumped
// to and restored from JSONL.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Status of a record in one export run.
type Status string

const (
	StatusExported Status = "exported"
	StatusSkipped  Status = "skipped" // lacked a field the format requires
	StatusDropped  Status = "dropped" // never finalized by the builder
)

// Entry is one journal row.
type Entry struct {
	RunID    string    `json:"run_id"`
	Time     time.Time `json:"time"`
	Format   string    `json:"format"`
	Source   string    `json:"source"` // input file
	DocID    string    `json:"doc_id"`
	Language string    `json:"language,omitempty"`
	DOI      string    `json:"doi,omitempty"`
	Status   Status    `json:"status"`
	Reason   string    `json:"reason,omitempty"`
}

// Run summarizes the entries of one export run.
type Run struct {
	ID       string    `json:"run_id"`
	Time     time.Time `json:"time"`
	Format   string    `json:"format"`
	Source   string    `json:"source"`
	Exported int       `json:"exported"`
	Skipped  int       `json:"skipped"`
	Dropped  int       `json:"dropped"`
}

// Filter narrows Entries. Empty fields match everything.
type Filter struct {
	RunID  string
	DOI    string
	Format string
	Status Status
}

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

const selectEntryFields = `run_id, ts, format, source, doc_id, language, doi, status, reason`

// OpenDB opens or creates the journal at the given path.
func OpenDB(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS deposits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			format TEXT NOT NULL,
			source TEXT NOT NULL,
			doc_id TEXT NOT NULL,
			language TEXT,
			doi TEXT,
			status TEXT NOT NULL,
			reason TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_deposits_run ON deposits(run_id);
		CREATE INDEX IF NOT EXISTS idx_deposits_doi ON deposits(doi) WHERE doi IS NOT NULL AND doi != '';
	`
	_, err := db.Exec(schema)
	return err
}

// Record appends entries in one transaction.
func (d *DB) Record(entries []Entry) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertEntries(tx, entries); err != nil {
		return err
	}
	return tx.Commit()
}

func insertEntries(tx *sql.Tx, entries []Entry) error {
	stmt, err := tx.Prepare(`
		INSERT INTO deposits (run_id, ts, format, source, doc_id, language, doi, status, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err = stmt.Exec(
			e.RunID, e.Time.UTC().Unix(), e.Format, e.Source, e.DocID,
			nullableString(e.Language), nullableString(e.DOI),
			string(e.Status), nullableString(e.Reason),
		)
		if err != nil {
			return fmt.Errorf("inserting entry %s/%s: %w", e.RunID, e.DocID, err)
		}
	}
	return nil
}

// Entries returns matching entries, newest run first, in insertion order
// within a run. A limit of 0 means no limit.
func (d *DB) Entries(f Filter, limit int) ([]Entry, error) {
	var where []string
	var args []any
	add := func(cond, val string) {
		if val != "" {
			where = append(where, cond)
			args = append(args, val)
		}
	}
	add("run_id = ?", f.RunID)
	add("doi = ?", f.DOI)
	add("format = ?", f.Format)
	add("status = ?", string(f.Status))

	query := `SELECT ` + selectEntryFields + ` FROM deposits`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY ts DESC, id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var res []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// LastExported returns the most recent entry that exported the DOI with
// the given format, or nil.
func (d *DB) LastExported(doi, format string) (*Entry, error) {
	row := d.db.QueryRow(`SELECT `+selectEntryFields+` FROM deposits
		WHERE doi = ? AND format = ? AND status = ?
		ORDER BY ts DESC, id DESC LIMIT 1`, doi, format, string(StatusExported))
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Runs summarizes the most recent runs. A limit of 0 means no limit.
func (d *DB) Runs(limit int) ([]Run, error) {
	query := `
		SELECT run_id, MIN(ts), format, source,
			SUM(CASE WHEN status = 'exported' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'skipped' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'dropped' THEN 1 ELSE 0 END)
		FROM deposits
		GROUP BY run_id, format, source
		ORDER BY MIN(ts) DESC, MIN(id) DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var res []Run
	for rows.Next() {
		var r Run
		var ts int64
		if err := rows.Scan(&r.ID, &ts, &r.Format, &r.Source, &r.Exported, &r.Skipped, &r.Dropped); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Time = time.Unix(ts, 0).UTC()
		res = append(res, r)
	}
	return res, rows.Err()
}

// Count returns the total number of entries.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM deposits").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	var ts int64
	var status string
	var language, doi, reason sql.NullString
	err := s.Scan(&e.RunID, &ts, &e.Format, &e.Source, &e.DocID, &language, &doi, &status, &reason)
	if err != nil {
		return e, err
	}
	e.Time = time.Unix(ts, 0).UTC()
	e.Language = language.String
	e.DOI = doi.String
	e.Status = Status(status)
	e.Reason = reason.String
	return e, nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
