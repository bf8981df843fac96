package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/adminkit/internal/format"
	httpclient "github.com/vedsharma/adminkit/internal/http"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestParseHeaders(t *testing.T) {
	got := parseHeaders([]string{"Accept: application/json", "X-Trace:  abc ", "broken"})
	assert.Equal(t, map[string]string{"Accept": "application/json", "X-Trace": "abc"}, got)
}

func TestFilterSensitiveHeaders(t *testing.T) {
	got := filterSensitiveHeaders(map[string]string{
		"Authorization": "Bearer x",
		"X-Api-Key":     "k",
		"Accept":        "*/*",
	})
	assert.Equal(t, "[REDACTED]", got["Authorization"])
	assert.Equal(t, "[REDACTED]", got["X-Api-Key"])
	assert.Equal(t, "*/*", got["Accept"])
	assert.Nil(t, filterSensitiveHeaders(nil))
}

func TestRequestBody(t *testing.T) {
	assert.Nil(t, requestBody(""))
	assert.Equal(t, "plain", requestBody("plain"))
	assert.Equal(t, httpclient.RawBody{Data: []byte(`{"a":1}`), ContentType: "application/json"}, requestBody(`{"a":1}`))
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"name=Alice", "age=30", "active=true", "tags=[\"a\"]", "note=a=b", "address.city=Oslo"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":         "Alice",
		"age":          float64(30),
		"active":       true,
		"tags":         []any{"a"},
		"note":         "a=b",
		"address.city": "Oslo",
	}, got)

	_, err = parseAssignments([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"=x"})
	assert.Error(t, err)
}

func TestReadBodyFromFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "body.json"), []byte(`{"ok":true}`), 0o600))

	got, err := readBodyFromFile("body.json")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, got)

	_, err = readBodyFromFile("../outside.json")
	assert.ErrorContains(t, err, "access denied")
}

// adminBackend serves the token endpoints and a JSON:API users collection.
func adminBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["username"] != "admin" || body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"token":"access-1","refresh_token":"refresh-1"}`)
	})
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "25", r.URL.Query().Get("page[limit]"))
		w.Header().Set("Content-Type", "application/vnd.api+json")
		fmt.Fprint(w, `{"data":[{"id":"1","type":"users","attributes":{"name":"Alice"}}],"meta":{"total":1}}`)
	})
	mux.HandleFunc("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pong":true}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "adminkit.yaml")
	cfg := fmt.Sprintf(`api:
  base_url: %s
storage:
  driver: json
  dir: %s
logging:
  level: disabled
entities:
  users:
    title: Users
    api_endpoint: /api/users
    form:
      fields:
        - key: name
`, baseURL, filepath.Join(dir, "data"))
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevOut, prevErr := format.Out, format.ErrOut
	format.Out, format.ErrOut = &out, &errOut
	t.Cleanup(func() { format.Out, format.ErrOut = prevOut, prevErr })

	rootCmd.SetArgs(args)
	rootCmd.SetErr(&errOut)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestLoginThenList(t *testing.T) {
	srv := adminBackend(t)
	cfgPath := writeConfig(t, srv.URL)

	_, _, err := run(t, "--config", cfgPath, "list", "users")
	assert.Error(t, err)

	out, _, err := run(t, "--config", cfgPath, "login", "-u", "admin", "-p", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as admin")

	out, _, err = run(t, "--config", cfgPath, "list", "users")
	require.NoError(t, err)
	assert.Regexp(t, `ID\s+NAME`, out)
	assert.Regexp(t, `1\s+Alice`, out)

	out, _, err = run(t, "--config", cfgPath, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in")

	out, _, err = run(t, "--config", cfgPath, "entities")
	require.NoError(t, err)
	assert.Contains(t, out, "/api/users")
}

func TestLoginWrongCredentials(t *testing.T) {
	srv := adminBackend(t)
	cfgPath := writeConfig(t, srv.URL)

	_, errOut, err := run(t, "--config", cfgPath, "login", "-u", "admin", "-p", "nope")
	assert.EqualError(t, err, "login failed")
	assert.Contains(t, errOut, "Wrong credentials")
}

func TestRawRequest(t *testing.T) {
	srv := adminBackend(t)
	cfgPath := writeConfig(t, srv.URL)

	out, _, err := run(t, "--config", cfgPath, "get", "/api/ping")
	require.NoError(t, err)
	assert.Contains(t, out, "200 OK")
	assert.Contains(t, out, `"pong": true`)
}

func TestUnknownEntity(t *testing.T) {
	srv := adminBackend(t)
	cfgPath := writeConfig(t, srv.URL)

	_, _, err := run(t, "--config", cfgPath, "show", "posts", "1")
	assert.ErrorContains(t, err, "posts")
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
