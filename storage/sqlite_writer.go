package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"usgs-water-summary/models"
)

// SQLiteWriter archives cleaned readings in a local SQLite file.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLiteWriter opens (creating if needed) the database at dbPath.
func NewSQLiteWriter(dbPath string) (*SQLiteWriter, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS streamflow_readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site_no TEXT NOT NULL,
		parameter_cd TEXT NOT NULL,
		observed_at TEXT NOT NULL,
		discharge_cfs REAL NOT NULL,
		approval_status TEXT NOT NULL DEFAULT '',
		run_id TEXT NOT NULL,
		UNIQUE(site_no, parameter_cd, observed_at)
	);
	CREATE INDEX IF NOT EXISTS idx_streamflow_observed_at ON streamflow_readings(observed_at);`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create tables: %w", err)
	}

	return &SQLiteWriter{db: db}, nil
}

// Save upserts a run's readings in one transaction.
func (w *SQLiteWriter) Save(ctx context.Context, batch Batch) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO streamflow_readings(site_no, parameter_cd, observed_at, discharge_cfs, approval_status, run_id)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(site_no, parameter_cd, observed_at) DO UPDATE SET
		discharge_cfs=excluded.discharge_cfs,
		approval_status=excluded.approval_status,
		run_id=excluded.run_id
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite: prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range batch.Readings {
		_, err := stmt.ExecContext(ctx,
			siteFor(r, batch.SiteID),
			batch.ParameterCode,
			r.Timestamp.UTC().Format(time.RFC3339),
			r.Discharge,
			r.ApprovalStatus,
			batch.RunID,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite: insert reading at %s: %w", r.Timestamp.Format(models.TimestampLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit transaction: %w", err)
	}
	return nil
}

// History returns archived readings for a site and parameter, oldest first.
func (w *SQLiteWriter) History(ctx context.Context, siteID, parameterCode string) ([]models.Reading, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT site_no, observed_at, discharge_cfs, approval_status
		FROM streamflow_readings
		WHERE site_no = ? AND parameter_cd = ?
		ORDER BY observed_at`, siteID, parameterCode)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query history: %w", err)
	}
	defer rows.Close()

	var result []models.Reading
	for rows.Next() {
		var (
			r        models.Reading
			observed string
		)
		if err := rows.Scan(&r.SiteNo, &observed, &r.Discharge, &r.ApprovalStatus); err != nil {
			return nil, fmt.Errorf("sqlite: scan row: %w", err)
		}
		r.Timestamp, err = time.Parse(time.RFC3339, observed)
		if err != nil {
			return nil, fmt.Errorf("sqlite: parse observed_at %q: %w", observed, err)
		}
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: row iteration: %w", err)
	}
	return result, nil
}

// Close closes the database connection.
func (w *SQLiteWriter) Close() error {
	if w.db != nil {
		return w.db.Close()
	}
	return nil
}
