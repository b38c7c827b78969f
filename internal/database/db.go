package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jgoulah/ehrkpi/pkg/models"
	_ "modernc.org/sqlite"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// ImportRun describes one load of a dataset file into the catalogue
type ImportRun struct {
	ID        string
	Source    string
	Total     int // records in the file
	Inserted  int // records not already present
	CreatedAt time.Time
}

// RecordFilter narrows ListRecords. Empty fields match everything.
type RecordFilter struct {
	StateCode string
	Period    string
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS import_runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		total INTEGER NOT NULL,
		inserted INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS kpi_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES import_runs(id),
		state TEXT NOT NULL,
		state_code TEXT NOT NULL,
		county_name TEXT NOT NULL,
		state_fips TEXT NOT NULL,
		county_fips TEXT NOT NULL,
		fips TEXT NOT NULL,
		period TEXT NOT NULL,
		providers_signed_up INTEGER,
		pcp_signed_up INTEGER,
		providers_go_live INTEGER,
		pcp_go_live INTEGER,
		providers_meaningful_use INTEGER,
		pcp_meaningful_use INTEGER,
		UNIQUE(fips, period)
	);
	CREATE INDEX IF NOT EXISTS idx_kpi_state_code ON kpi_records(state_code);
	CREATE INDEX IF NOT EXISTS idx_kpi_period ON kpi_records(period);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// ImportRecords stores records under a new import run. Rows already present
// for the same (fips, period) are skipped. The run is written in a single
// transaction, so a failed import leaves nothing behind.
func (db *DB) ImportRecords(source string, records []models.KPIRecord) (*ImportRun, error) {
	run := &ImportRun{
		ID:        uuid.NewString(),
		Source:    source,
		Total:     len(records),
		CreatedAt: time.Now().UTC(),
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// The run row goes in first so kpi_records.run_id always resolves;
	// the inserted count is filled in once it is known.
	if _, err := tx.Exec(`
	INSERT INTO import_runs (id, source, total, inserted, created_at)
	VALUES (?, ?, ?, 0, ?)
	`, run.ID, run.Source, run.Total, run.CreatedAt.Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("inserting import run: %w", err)
	}

	stmt, err := tx.Prepare(`
	INSERT OR IGNORE INTO kpi_records (
		run_id, state, state_code, county_name, state_fips, county_fips, fips, period,
		providers_signed_up, pcp_signed_up, providers_go_live, pcp_go_live,
		providers_meaningful_use, pcp_meaningful_use
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		res, err := stmt.Exec(run.ID,
			r.State, r.StateCode, r.CountyName, r.StateFIPS, r.CountyFIPS, r.FIPS, r.Period,
			nullInt(r.NumProvidersSignedUp),
			nullInt(r.NumPrimaryCareProvidersSignedUp),
			nullInt(r.NumProvidersGoLive),
			nullInt(r.NumPrimaryCareProvidersGoLive),
			nullInt(r.NumProvidersMeaningfulUse),
			nullInt(r.NumPrimaryCareProvidersMeaningfulUse),
		)
		if err != nil {
			return nil, fmt.Errorf("inserting record %s/%s: %w", r.FIPS, r.Period, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("counting inserted rows: %w", err)
		}
		run.Inserted += int(n)
	}

	if _, err := tx.Exec(`UPDATE import_runs SET inserted = ? WHERE id = ?`, run.Inserted, run.ID); err != nil {
		return nil, fmt.Errorf("updating import run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}

	return run, nil
}

// ListRecords retrieves stored records ordered by state code, FIPS and period
func (db *DB) ListRecords(filter RecordFilter) ([]models.KPIRecord, error) {
	var where []string
	var args []any
	if filter.StateCode != "" {
		where = append(where, "state_code = ?")
		args = append(args, filter.StateCode)
	}
	if filter.Period != "" {
		where = append(where, "period = ?")
		args = append(args, filter.Period)
	}

	query := `
	SELECT state, state_code, county_name, state_fips, county_fips, fips, period,
		providers_signed_up, pcp_signed_up, providers_go_live, pcp_go_live,
		providers_meaningful_use, pcp_meaningful_use
	FROM kpi_records
	`
	if len(where) > 0 {
		query += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	query += "ORDER BY state_code, fips, period"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var results []models.KPIRecord
	for rows.Next() {
		var r models.KPIRecord
		var counts [6]sql.NullInt64

		if err := rows.Scan(&r.State, &r.StateCode, &r.CountyName, &r.StateFIPS, &r.CountyFIPS, &r.FIPS, &r.Period,
			&counts[0], &counts[1], &counts[2], &counts[3], &counts[4], &counts[5]); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		r.NumProvidersSignedUp = intPtr(counts[0])
		r.NumPrimaryCareProvidersSignedUp = intPtr(counts[1])
		r.NumProvidersGoLive = intPtr(counts[2])
		r.NumPrimaryCareProvidersGoLive = intPtr(counts[3])
		r.NumProvidersMeaningfulUse = intPtr(counts[4])
		r.NumPrimaryCareProvidersMeaningfulUse = intPtr(counts[5])

		results = append(results, r)
	}

	return results, rows.Err()
}

// ListStates retrieves the distinct state triples in the catalogue
func (db *DB) ListStates() ([]models.StateKey, error) {
	rows, err := db.conn.Query(`
	SELECT DISTINCT state, state_code, state_fips
	FROM kpi_records
	ORDER BY state_code, state, state_fips
	`)
	if err != nil {
		return nil, fmt.Errorf("querying states: %w", err)
	}
	defer rows.Close()

	var results []models.StateKey
	for rows.Next() {
		var k models.StateKey
		if err := rows.Scan(&k.State, &k.StateCode, &k.StateFIPS); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, k)
	}

	return results, rows.Err()
}

// CountRecords returns the number of stored records
func (db *DB) CountRecords() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM kpi_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// ListRuns retrieves import runs, newest first
func (db *DB) ListRuns() ([]ImportRun, error) {
	rows, err := db.conn.Query(`
	SELECT id, source, total, inserted, created_at
	FROM import_runs
	ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying import runs: %w", err)
	}
	defer rows.Close()

	var results []ImportRun
	for rows.Next() {
		var run ImportRun
		var createdAt string
		if err := rows.Scan(&run.ID, &run.Source, &run.Total, &run.Inserted, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		run.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		results = append(results, run)
	}

	return results, rows.Err()
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
