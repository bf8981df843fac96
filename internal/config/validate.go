package config

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/vedsharma/adminkit/internal/entity"
)

// Validate checks field constraints and that every entity registers.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Auth.Provider == ProviderHTTPToken && c.Auth.Endpoints.Authenticate == "" {
		return fmt.Errorf("auth.endpoints.authenticate is required for the %s provider", ProviderHTTPToken)
	}
	_, err := c.EntityManager()
	return err
}

// EntityManager registers all configured entities in a new manager.
func (c *Config) EntityManager() (*entity.Manager, error) {
	m := entity.NewManager()

	slugs := make([]string, 0, len(c.Entities))
	for slug := range c.Entities {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	for _, slug := range slugs {
		if err := m.Register(slug, c.Entities[slug]); err != nil {
			return nil, err
		}
	}
	return m, nil
}
