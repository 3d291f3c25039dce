package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the ledger database file created inside the data directory.
const FileName = "unitedatom.db"

// Ledger provides SQLite-based storage for completed scans. One row is
// written per orientation map, so that a batch run spread over many
// invocations can be audited later.
type Ledger struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Ledger behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Ledger in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Ledger, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	l := &Ledger{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := l.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return l, nil
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.dbPath
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (l *Ledger) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		molecule TEXT NOT NULL,
		nanoparticle TEXT NOT NULL,
		shape TEXT NOT NULL,
		radius REAL NOT NULL,
		zeta REAL NOT NULL,
		omega REAL NOT NULL,
		mfpt INTEGER NOT NULL DEFAULT 0,
		output_path TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		simple_average REAL,
		boltzmann_average REAL,
		mean_error REAL,
		min_energy REAL,
		elapsed_ms INTEGER NOT NULL DEFAULT 0,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_scans_run ON scans(run_id);
	CREATE INDEX IF NOT EXISTS idx_scans_molecule ON scans(molecule);
	CREATE INDEX IF NOT EXISTS idx_scans_timestamp ON scans(timestamp);
	`

	_, err := l.db.ExecContext(context.Background(), schema)
	return err
}

// ScanRecord is one completed orientation map.
type ScanRecord struct {
	ID           int64
	RunID        string
	Molecule     string
	Nanoparticle string
	Shape        string
	Radius       float64
	Zeta         float64
	Omega        float64
	MFPT         bool
	OutputPath   string

	// Fingerprint identifies the scan parameters that produced the map.
	Fingerprint string

	SimpleAverage    float64
	BoltzmannAverage float64
	MeanError        float64
	MinEnergy        float64
	Elapsed          time.Duration
	Timestamp        time.Time
}

// Record inserts a scan record and returns its row id. A zero Timestamp
// is stored as the current time.
func (l *Ledger) Record(ctx context.Context, rec *ScanRecord) (int64, error) {
	if rec == nil {
		return 0, errors.New("scan record is nil")
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query := `
	INSERT INTO scans (run_id, molecule, nanoparticle, shape, radius, zeta, omega, mfpt,
		output_path, fingerprint, simple_average, boltzmann_average, mean_error, min_energy,
		elapsed_ms, timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := l.db.ExecContext(ctx, query,
		rec.RunID,
		rec.Molecule,
		rec.Nanoparticle,
		rec.Shape,
		rec.Radius,
		rec.Zeta,
		rec.Omega,
		rec.MFPT,
		rec.OutputPath,
		rec.Fingerprint,
		rec.SimpleAverage,
		rec.BoltzmannAverage,
		rec.MeanError,
		rec.MinEnergy,
		rec.Elapsed.Milliseconds(),
		ts.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan record: %w", err)
	}

	return result.LastInsertId()
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	RunID        string
	Molecule     string
	Nanoparticle string

	// Limit caps the number of rows returned; 0 means no limit.
	Limit int
}

// List returns scan records, newest first.
func (l *Ledger) List(ctx context.Context, f Filter) ([]ScanRecord, error) {
	query := `
	SELECT id, run_id, molecule, nanoparticle, shape, radius, zeta, omega, mfpt,
		output_path, fingerprint, simple_average, boltzmann_average, mean_error, min_energy,
		elapsed_ms, timestamp
	FROM scans
	WHERE 1=1
	`
	args := make([]any, 0)

	if f.RunID != "" {
		query += " AND run_id = ?"
		args = append(args, f.RunID)
	}
	if f.Molecule != "" {
		query += " AND molecule = ?"
		args = append(args, f.Molecule)
	}
	if f.Nanoparticle != "" {
		query += " AND nanoparticle = ?"
		args = append(args, f.Nanoparticle)
	}

	query += " ORDER BY timestamp DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var results []ScanRecord
	for rows.Next() {
		var rec ScanRecord
		var elapsedMS int64
		var timestamp string
		var simple, boltzmann, meanErr, minEnergy sql.NullFloat64

		err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.Molecule,
			&rec.Nanoparticle,
			&rec.Shape,
			&rec.Radius,
			&rec.Zeta,
			&rec.Omega,
			&rec.MFPT,
			&rec.OutputPath,
			&rec.Fingerprint,
			&simple,
			&boltzmann,
			&meanErr,
			&minEnergy,
			&elapsedMS,
			&timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		rec.SimpleAverage = simple.Float64
		rec.BoltzmannAverage = boltzmann.Float64
		rec.MeanError = meanErr.Float64
		rec.MinEnergy = minEnergy.Float64
		rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		rec.Timestamp = parseTimestamp(timestamp)
		results = append(results, rec)
	}

	return results, rows.Err()
}

// Runs returns the distinct run ids, newest first.
func (l *Ledger) Runs(ctx context.Context) ([]string, error) {
	query := `
	SELECT run_id FROM scans
	GROUP BY run_id
	ORDER BY MAX(timestamp) DESC
	`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var run string
		if err := rows.Scan(&run); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
