// Package storage persists small string values (auth tokens, preferences)
// between CLI runs.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultKeyPrefix is prepended to every key before it reaches a driver.
	DefaultKeyPrefix = "__adminkit"

	DriverSQLite = "sqlite"
	DriverJSON   = "json"

	// Secure file permissions - owner read/write only
	secureFileMode = 0600 // -rw-------
	secureDirMode  = 0700 // drwx------
)

// Storage is a flat key-value store.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// Options configure Open.
type Options struct {
	Driver    string
	Dir       string
	KeyPrefix string
}

// Open returns the storage backend selected by opts.Driver. An empty Dir
// means ~/.adminkit and an empty KeyPrefix means DefaultKeyPrefix.
func Open(opts Options) (Storage, error) {
	dir := opts.Dir
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	switch opts.Driver {
	case "", DriverSQLite:
		return NewSQLiteStorage(dir, prefix)
	case DriverJSON:
		return NewJSONStorage(dir, prefix)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

// DefaultDir returns ~/.adminkit.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".adminkit"), nil
}

// ensureSecureFile creates a file with secure permissions if it doesn't exist,
// or verifies/fixes permissions if it does exist.
func ensureSecureFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, secureFileMode)
		if err != nil {
			return fmt.Errorf("failed to create secure file: %w", err)
		}
		f.Close()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Mode().Perm() != secureFileMode {
		if err := os.Chmod(path, secureFileMode); err != nil {
			return fmt.Errorf("failed to set secure permissions: %w", err)
		}
	}
	return nil
}
