package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"bid-advisor/internal/logger"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DB wraps a SQLite database connection.
type DB struct {
	sql *sql.DB
}

func defaultPath() string {
	// Prefer working directory so the DB is stable across go run / go build.
	// Fall back to executable directory for deployed builds.
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "advisor.db")
	}
	exe, _ := os.Executable()
	return filepath.Join(filepath.Dir(exe), "advisor.db")
}

// Open opens (or creates) the SQLite database at path and runs migrations.
// An empty path uses advisor.db in the working directory.
func Open(path string) (*DB, error) {
	if path == "" {
		path = defaultPath()
	}
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == MemoryPath {
		// Every pooled connection would otherwise get its own empty database.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	if path != MemoryPath {
		logger.Success("DB", fmt.Sprintf("Opened %s", path))
	}
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping checks that the database is reachable.
func (d *DB) Ping() error {
	return d.sql.Ping()
}

func (d *DB) migrate() error {
	version := 0
	// Missing table on a fresh database leaves version at 0.
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS cost_profile (
				dealer_id TEXT NOT NULL,
				key       TEXT NOT NULL,
				value     TEXT NOT NULL,
				PRIMARY KEY (dealer_id, key)
			);

			CREATE TABLE IF NOT EXISTS sales_records (
				id               INTEGER PRIMARY KEY AUTOINCREMENT,
				dealer_id        TEXT NOT NULL,
				year             INTEGER NOT NULL,
				make             TEXT NOT NULL,
				model            TEXT NOT NULL,
				mileage          INTEGER,
				sale_price       REAL NOT NULL,
				acquisition_cost REAL NOT NULL,
				gross_profit     REAL NOT NULL,
				margin_percent   REAL NOT NULL,
				days_to_sale     INTEGER NOT NULL,
				sale_date        TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_sales_dealer_date ON sales_records(dealer_id, sale_date);
			CREATE INDEX IF NOT EXISTS idx_sales_dealer_model ON sales_records(dealer_id, make COLLATE NOCASE, model COLLATE NOCASE);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("DB", "Applied migration v1")
	}

	if version < 2 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS scan_history (
				id                  TEXT PRIMARY KEY,
				dealer_id           TEXT NOT NULL,
				timestamp           TEXT NOT NULL,
				vin                 TEXT NOT NULL DEFAULT '',
				year                INTEGER NOT NULL,
				make                TEXT NOT NULL,
				model               TEXT NOT NULL,
				tier                TEXT NOT NULL,
				confidence          INTEGER NOT NULL,
				estimated_profit    TEXT NOT NULL,
				max_bid             TEXT NOT NULL,
				days_to_sale        INTEGER NOT NULL,
				vehicle_json        TEXT NOT NULL DEFAULT '{}',
				market_json         TEXT NOT NULL DEFAULT 'null',
				recommendation_json TEXT NOT NULL DEFAULT '{}',
				duration_ms         INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_scan_dealer_ts ON scan_history(dealer_id, timestamp);

			INSERT OR IGNORE INTO schema_version (version) VALUES (2);
		`)
		if err != nil {
			return fmt.Errorf("migration v2: %w", err)
		}
		logger.Info("DB", "Applied migration v2 (scan history)")
	}

	if version < 3 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS price_cache (
				key           TEXT PRIMARY KEY,
				has_estimate  INTEGER NOT NULL,
				estimate_json TEXT NOT NULL,
				updated_at    TEXT NOT NULL
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (3);
		`)
		if err != nil {
			return fmt.Errorf("migration v3: %w", err)
		}
		logger.Info("DB", "Applied migration v3 (price cache)")
	}

	return nil
}
