package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vedsharma/adminkit/internal/logging"

	_ "modernc.org/sqlite"
)

const dbFile = "adminkit.db"

// SQLiteStorage handles SQLite database persistence
type SQLiteStorage struct {
	db      *sql.DB
	dataDir string
	prefix  string
}

// NewSQLiteStorage opens (creating if needed) the database under dataDir.
func NewSQLiteStorage(dataDir, prefix string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(dataDir, secureDirMode); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, dbFile)

	// Create the file with 0600 before sqlite touches it
	if err := ensureSecureFile(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &SQLiteStorage{db: db, dataDir: dataDir, prefix: prefix}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	if err := s.migrateFromJSON(); err != nil {
		logging.Warn().Err(err).Msg("Failed to import JSON key-value file")
	}

	return s, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`)
	return err
}

// Get returns the value stored under key.
func (s *SQLiteStorage) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", s.prefix+key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *SQLiteStorage) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.prefix+key, value)
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SQLiteStorage) Delete(key string) error {
	_, err := s.db.Exec("DELETE FROM kv WHERE key = ?", s.prefix+key)
	return err
}

// migrateFromJSON imports a kv.json left by the JSON driver when the table
// is still empty, then renames the file so it is imported only once.
func (s *SQLiteStorage) migrateFromJSON() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM kv").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	path := filepath.Join(s.dataDir, kvFile)
	values, err := readKVFile(path)
	if err != nil || len(values) == 0 {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Keys in the file already carry their prefix
	for k, v := range values {
		if _, err := tx.Exec("INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)", k, v); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	return os.Rename(path, path+".migrated")
}
