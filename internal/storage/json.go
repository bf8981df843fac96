package storage

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

const kvFile = "kv.json"

// JSONStorage handles JSON file persistence. The whole map is rewritten
// on every change.
type JSONStorage struct {
	mu      sync.Mutex
	dataDir string
	prefix  string
}

// NewJSONStorage creates a new JSON storage instance
func NewJSONStorage(dataDir, prefix string) (*JSONStorage, error) {
	if err := os.MkdirAll(dataDir, secureDirMode); err != nil {
		return nil, err
	}
	return &JSONStorage{dataDir: dataDir, prefix: prefix}, nil
}

func (s *JSONStorage) path() string {
	return filepath.Join(s.dataDir, kvFile)
}

// Get returns the value stored under key.
func (s *JSONStorage) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := readKVFile(s.path())
	if err != nil {
		return "", false, err
	}
	v, ok := values[s.prefix+key]
	return v, ok, nil
}

// Set stores value under key.
func (s *JSONStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := readKVFile(s.path())
	if err != nil {
		return err
	}
	values[s.prefix+key] = value
	return s.write(values)
}

// Delete removes key.
func (s *JSONStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := readKVFile(s.path())
	if err != nil {
		return err
	}
	if _, ok := values[s.prefix+key]; !ok {
		return nil
	}
	delete(values, s.prefix+key)
	return s.write(values)
}

// Close is a no-op; every write is already flushed.
func (s *JSONStorage) Close() error {
	return nil
}

func (s *JSONStorage) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	if err := ensureSecureFile(s.path()); err != nil {
		return err
	}
	return os.WriteFile(s.path(), data, secureFileMode)
}

// readKVFile loads the map from path. A missing file is an empty map.
func readKVFile(path string) (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return values, nil
	}

	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}
