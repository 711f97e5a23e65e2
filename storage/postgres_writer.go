package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"usgs-water-summary/models"
)

const upsertColumns = 6

// PostgresWriter archives cleaned readings in PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS streamflow_readings (
			id              BIGSERIAL    PRIMARY KEY,
			site_no         VARCHAR(15)  NOT NULL,
			parameter_cd    VARCHAR(5)   NOT NULL,
			observed_at     TIMESTAMP    NOT NULL,
			discharge_cfs   DOUBLE PRECISION NOT NULL,
			approval_status VARCHAR(10)  NOT NULL DEFAULT '',
			run_id          UUID         NOT NULL,
			created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			UNIQUE (site_no, parameter_cd, observed_at)
		);

		CREATE INDEX IF NOT EXISTS idx_streamflow_observed_at ON streamflow_readings(observed_at);
		CREATE INDEX IF NOT EXISTS idx_streamflow_run_id      ON streamflow_readings(run_id);
	`)
	return err
}

// Save upserts a run's readings; re-fetched timestamps take the newer value
// and approval status.
func (pw *PostgresWriter) Save(ctx context.Context, batch Batch) error {
	if len(batch.Readings) == 0 {
		return nil
	}

	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}

	const batchSize = 500
	for i := 0; i < len(batch.Readings); i += batchSize {
		end := i + batchSize
		if end > len(batch.Readings) {
			end = len(batch.Readings)
		}
		query, args := buildUpsert(batch, batch.Readings[i:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("postgres: insert batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func buildUpsert(batch Batch, readings []models.Reading) (string, []interface{}) {
	valueStrings := make([]string, 0, len(readings))
	valueArgs := make([]interface{}, 0, len(readings)*upsertColumns)

	for idx, r := range readings {
		base := idx * upsertColumns
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6))
		valueArgs = append(valueArgs,
			siteFor(r, batch.SiteID), batch.ParameterCode, r.Timestamp,
			r.Discharge, r.ApprovalStatus, batch.RunID)
	}

	query := fmt.Sprintf(`
		INSERT INTO streamflow_readings (site_no, parameter_cd, observed_at, discharge_cfs, approval_status, run_id)
		VALUES %s
		ON CONFLICT (site_no, parameter_cd, observed_at) DO UPDATE SET
			discharge_cfs   = EXCLUDED.discharge_cfs,
			approval_status = EXCLUDED.approval_status,
			run_id          = EXCLUDED.run_id
	`, strings.Join(valueStrings, ","))

	return query, valueArgs
}

// CountForSite returns how many readings are archived for a site and parameter.
func (pw *PostgresWriter) CountForSite(ctx context.Context, siteID, parameterCode string) (int, error) {
	var n int
	err := pw.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM streamflow_readings WHERE site_no = $1 AND parameter_cd = $2`,
		siteID, parameterCode).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return n, nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// siteFor prefers the site number reported in the row over the requested one.
func siteFor(r models.Reading, fallback string) string {
	if r.SiteNo != "" {
		return r.SiteNo
	}
	return fallback
}
