package entity

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/vedsharma/adminkit/internal/logging"
)

// ErrUnknownEntity is returned for slugs that were never registered.
var ErrUnknownEntity = errors.New("unknown entity")

// Manager holds registered entity metadata. Registered metadata is not
// modified afterwards; Get hands out copies.
type Manager struct {
	mu       sync.RWMutex
	entities map[string]Meta
	validate *validator.Validate
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		entities: make(map[string]Meta),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register applies defaults to meta, validates it and stores it under slug,
// replacing any previous registration.
func (m *Manager) Register(slug string, meta Meta) error {
	if slug == "" {
		return errors.New("entity slug is required")
	}

	meta = meta.clone()
	meta.applyDefaults()

	if err := m.validate.Struct(meta); err != nil {
		return fmt.Errorf("invalid entity %q: %w", slug, err)
	}
	if _, ok := meta.Views[meta.DefaultView]; !ok {
		return fmt.Errorf("invalid entity %q: default view %q is not defined", slug, meta.DefaultView)
	}

	m.mu.Lock()
	m.entities[slug] = meta
	m.mu.Unlock()

	logging.Debug().Str("entity", slug).Str("endpoint", meta.APIEndpoint).Msg("Entity registered")
	return nil
}

// Get returns a copy of the metadata registered under slug.
func (m *Manager) Get(slug string) (Meta, error) {
	m.mu.RLock()
	meta, ok := m.entities[slug]
	m.mu.RUnlock()
	if !ok {
		return Meta{}, fmt.Errorf("%w: %s", ErrUnknownEntity, slug)
	}
	return meta.clone(), nil
}

// Slugs returns the registered slugs, sorted.
func (m *Manager) Slugs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.entities))
	for k := range m.entities {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
