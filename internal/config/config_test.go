package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adminkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, ProviderHTTPToken, cfg.Auth.Provider)
	assert.Equal(t, "/api/auth", cfg.Auth.Endpoints.Authenticate)
	assert.Equal(t, "/api/auth/refresh", cfg.Auth.Endpoints.Refresh)
	assert.Equal(t, "token", cfg.Auth.BodyKeys.AccessToken)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "__adminkit", cfg.Storage.KeyPrefix)
	assert.Equal(t, 3*time.Second, cfg.Notification.Timeout)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Empty(t, cfg.Entities)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://admin.example.com
  timeout: 5s
  rate_limit: 10
auth:
  body_keys:
    login: email
  endpoints:
    logout: /api/auth/logout
storage:
  driver: json
entities:
  users:
    title: Users
    api_endpoint: /api/users
    views:
      table:
        columns: [name, email]
        per_page: 50
        static_filters:
          active: true
    form:
      fields:
        - key: name
        - key: role
          type: select
          default: user
      inline_related: [group]
`)
	t.Setenv("ADMINKIT_API_TIMEOUT", "12s")
	t.Setenv("ADMINKIT_LOG_LEVEL", "debug")
	t.Setenv("ADMINKIT_LANG", "ru")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://admin.example.com", cfg.API.BaseURL)
	assert.Equal(t, 12*time.Second, cfg.API.Timeout)
	assert.Equal(t, 10.0, cfg.API.RateLimit)
	assert.Equal(t, "email", cfg.Auth.BodyKeys.Login)
	assert.Equal(t, "password", cfg.Auth.BodyKeys.Password)
	assert.Equal(t, "/api/auth/logout", cfg.Auth.Endpoints.Logout)
	assert.Equal(t, "json", cfg.Storage.Driver)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "ru", cfg.I18n.Lang)

	m, err := cfg.EntityManager()
	require.NoError(t, err)
	users, err := m.Get("users")
	require.NoError(t, err)
	assert.Equal(t, "table", users.DefaultView)
	assert.Equal(t, 50, users.Views["table"].PerPage)
	assert.Equal(t, []string{"name", "email"}, users.Views["table"].Columns)
	assert.Equal(t, true, users.Views["table"].StaticFilters["active"])
	assert.Equal(t, "Role", users.Form.Fields[1].Label)
	assert.Equal(t, "user", users.Form.Fields[1].Default)
	assert.Equal(t, []string{"group"}, users.Form.InlineRelated)
}

func TestLoadConfigPathEnv(t *testing.T) {
	path := writeConfig(t, "storage:\n  key_prefix: custom\n")
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.Storage.KeyPrefix)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown provider", "auth:\n  provider: oauth\n"},
		{"unknown driver", "storage:\n  driver: redis\n"},
		{"bad log format", "logging:\n  format: xml\n"},
		{"entity without endpoint", "entities:\n  users:\n    title: Users\n"},
		{"bad base url", "api:\n  base_url: not a url\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	assert.Equal(t, "api.base_url", envTransformFunc("ADMINKIT_API_BASE_URL"))
	assert.Equal(t, "auth.body_keys.refresh_token_in_request_body", envTransformFunc("ADMINKIT_AUTH_REFRESH_TOKEN_REQUEST_KEY"))
	assert.Equal(t, "", envTransformFunc("ADMINKIT_CONFIG"))
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (stand-in for testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
