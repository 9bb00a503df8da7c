package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite results database with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New creates and initializes a new SQLite database connection.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Migrate creates the necessary tables if they don't exist.
func (db *DB) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		detector TEXT NOT NULL,
		classifier TEXT NOT NULL,
		enhanced INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS image_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		image_id TEXT NOT NULL,
		annotated INTEGER NOT NULL,
		threshold REAL NOT NULL,
		scale REAL NOT NULL,
		width INTEGER DEFAULT 0,
		height INTEGER DEFAULT 0,
		proposal_precision REAL,
		proposal_recall REAL,
		proposal_fscore REAL,
		proposal_detected INTEGER DEFAULT 0,
		detection_precision REAL,
		detection_recall REAL,
		detection_fscore REAL,
		detection_detected INTEGER DEFAULT 0,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS match_points (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		result_id INTEGER NOT NULL,
		stage TEXT NOT NULL,
		kind TEXT NOT NULL,
		idx INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		partner INTEGER NOT NULL DEFAULT -1,
		FOREIGN KEY (result_id) REFERENCES image_results(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_image_results_run_id ON image_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_image_results_image_id ON image_results(image_id);
	CREATE INDEX IF NOT EXISTS idx_match_points_result_id ON match_points(result_id);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Lock acquires a write lock.
func (db *DB) Lock() {
	db.mu.Lock()
}

// Unlock releases the write lock.
func (db *DB) Unlock() {
	db.mu.Unlock()
}

// RLock acquires a read lock.
func (db *DB) RLock() {
	db.mu.RLock()
}

// RUnlock releases the read lock.
func (db *DB) RUnlock() {
	db.mu.RUnlock()
}
