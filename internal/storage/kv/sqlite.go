package kv

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteSlot stores values in a single SQLite table.
type SQLiteSlot struct {
	db       *sql.DB
	maxBytes int64
}

// OpenSQLite opens the database at path, applies pending schema migrations and
// returns the slot.
func OpenSQLite(path string, maxBytes int64) (*SQLiteSlot, error) {
	db, err := OpenSQLiteDB(path)
	if err != nil {
		return nil, err
	}

	if _, _, err := MigrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteSlot{db: db, maxBytes: maxBytes}, nil
}

// OpenSQLiteDB opens the raw database handle without migrating it.
func OpenSQLiteDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create slot directory: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The slot is synchronous; a single connection keeps SQLite writers serial.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// MigrateSQLite brings the slot schema up to date and reports the schema
// version before and after.
func MigrateSQLite(db *sql.DB) (before, after uint, err error) {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return 0, 0, fmt.Errorf("iofs.New: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return 0, 0, fmt.Errorf("sqlite.WithInstance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return 0, 0, fmt.Errorf("migrate.NewWithInstance: %w", err)
	}

	before, _, err = m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, 0, fmt.Errorf("m.Version: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return before, 0, fmt.Errorf("m.Up: %w", err)
	}

	after, _, err = m.Version()
	if err != nil {
		return before, 0, fmt.Errorf("m.Version: %w", err)
	}
	return before, after, nil
}

func (s *SQLiteSlot) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *SQLiteSlot) Set(key string, value []byte) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var used int64
	err = tx.QueryRow(`SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(value)), 0) FROM slots WHERE key != ?`, key).Scan(&used)
	if err != nil {
		return err
	}
	if err := checkQuota(used, key, value, s.maxBytes); err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO slots (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteSlot) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM slots WHERE key = ?`, key)
	return err
}

func (s *SQLiteSlot) Close() error {
	return s.db.Close()
}
