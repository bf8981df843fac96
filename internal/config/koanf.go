package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// ConfigPathEnvVar overrides the config file search.
	ConfigPathEnvVar = "ADMINKIT_CONFIG"

	EnvPrefix = "ADMINKIT_"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The home directory entry is added at runtime.
var DefaultConfigPaths = []string{
	"adminkit.yaml",
	"adminkit.yml",
}

// Load builds the configuration from, in increasing priority:
//  1. built-in defaults
//  2. the YAML file at path, or the first file found by the search
//  3. ADMINKIT_* environment variables
//
// An explicit path that does not exist is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// ADMINKIT_API_BASE_URL -> api.base_url
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	paths := append([]string(nil), DefaultConfigPaths...)
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".adminkit", "config.yaml"))
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envKeys maps lowercased variable names (prefix removed) to config paths.
// Variables not listed are ignored; entities can only come from the file.
var envKeys = map[string]string{
	"api_base_url":        "api.base_url",
	"api_timeout":         "api.timeout",
	"api_rate_limit":      "api.rate_limit",
	"api_rate_burst":      "api.rate_burst",
	"api_circuit_breaker": "api.circuit_breaker",

	"auth_provider":                  "auth.provider",
	"auth_authenticate_endpoint":     "auth.endpoints.authenticate",
	"auth_refresh_endpoint":          "auth.endpoints.refresh",
	"auth_logout_endpoint":           "auth.endpoints.logout",
	"auth_access_token_key":          "auth.body_keys.access_token",
	"auth_refresh_token_key":         "auth.body_keys.refresh_token",
	"auth_login_key":                 "auth.body_keys.login",
	"auth_password_key":              "auth.body_keys.password",
	"auth_refresh_token_request_key": "auth.body_keys.refresh_token_in_request_body",

	"storage_driver":     "storage.driver",
	"storage_dir":        "storage.dir",
	"storage_key_prefix": "storage.key_prefix",

	"notification_timeout": "notification.timeout",

	"lang":          "i18n.lang",
	"fallback_lang": "i18n.fallback_lang",

	"log_level":  "logging.level",
	"log_format": "logging.format",
}

func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return envKeys[key]
}
