// Package config loads adminkit settings from built-in defaults, an
// optional YAML file and ADMINKIT_* environment variables.
package config

import (
	"time"

	"github.com/vedsharma/adminkit/internal/auth"
	"github.com/vedsharma/adminkit/internal/entity"
	"github.com/vedsharma/adminkit/internal/storage"
)

// Auth provider names.
const (
	ProviderHTTPToken = "http_token"
	ProviderPublic    = "public"
)

// Config is the complete adminkit configuration.
type Config struct {
	API          APIConfig              `koanf:"api"`
	Auth         AuthConfig             `koanf:"auth"`
	Storage      StorageConfig          `koanf:"storage"`
	Notification NotificationConfig     `koanf:"notification"`
	I18n         I18nConfig             `koanf:"i18n"`
	Logging      LoggingConfig          `koanf:"logging"`
	Entities     map[string]entity.Meta `koanf:"entities"`
}

// APIConfig controls the HTTP client.
type APIConfig struct {
	BaseURL        string        `koanf:"base_url" validate:"omitempty,url"`
	Timeout        time.Duration `koanf:"timeout" validate:"gt=0"`
	RateLimit      float64       `koanf:"rate_limit" validate:"gte=0"`
	RateBurst      int           `koanf:"rate_burst" validate:"gte=0"`
	CircuitBreaker bool          `koanf:"circuit_breaker"`
}

// AuthConfig selects and configures the auth provider.
type AuthConfig struct {
	Provider  string         `koanf:"provider" validate:"oneof=http_token public"`
	Endpoints auth.Endpoints `koanf:"endpoints"`
	BodyKeys  auth.BodyKeys  `koanf:"body_keys"`
}

// StorageConfig selects the persistent key-value store.
type StorageConfig struct {
	Driver    string `koanf:"driver" validate:"oneof=sqlite json"`
	Dir       string `koanf:"dir"`
	KeyPrefix string `koanf:"key_prefix"`
}

type NotificationConfig struct {
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
}

type I18nConfig struct {
	Lang         string `koanf:"lang"`
	FallbackLang string `koanf:"fallback_lang"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error disabled off"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

// defaultConfig returns a Config struct with all default values.
func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Timeout:   30 * time.Second,
			RateBurst: 1,
		},
		Auth: AuthConfig{
			Provider:  ProviderHTTPToken,
			Endpoints: auth.DefaultEndpoints(),
			BodyKeys:  auth.DefaultBodyKeys(),
		},
		Storage: StorageConfig{
			Driver:    storage.DriverSQLite,
			KeyPrefix: storage.DefaultKeyPrefix,
		},
		Notification: NotificationConfig{
			Timeout: 3 * time.Second,
		},
		I18n: I18nConfig{
			Lang:         "en",
			FallbackLang: "en",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}
