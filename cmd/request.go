package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vedsharma/adminkit/internal/format"
	httpclient "github.com/vedsharma/adminkit/internal/http"
)

// sensitiveHeaders are redacted before request headers are printed
var sensitiveHeaders = map[string]bool{
	// Standard authentication headers
	"authorization":       true,
	"proxy-authorization": true,
	"www-authenticate":    true,

	// Session and token headers
	"cookie":       true,
	"set-cookie":   true,
	"x-api-key":    true,
	"api-key":      true,
	"x-auth-token": true,
	"x-csrf-token": true,
	"x-xsrf-token": true,

	// AWS credentials
	"x-amz-security-token": true,
	"x-amz-credential":     true,
	"x-amz-signature":      true,

	// GCP credentials
	"x-goog-authenticated-user-email": true,
	"x-goog-authenticated-user-id":    true,
	"x-goog-iap-jwt-assertion":        true,

	// Azure credentials
	"x-ms-client-principal":    true,
	"x-ms-client-principal-id": true,
	"x-ms-token-aad-id-token":  true,

	// Other common auth headers
	"x-access-token":  true,
	"x-refresh-token": true,
	"x-session-token": true,
	"x-secret-key":    true,
	"x-private-key":   true,
}

var (
	headers []string
	data    string
)

func init() {
	for _, method := range []string{"GET", "POST", "PUT", "PATCH", "DELETE"} {
		cmd := &cobra.Command{
			Use:   strings.ToLower(method) + " <url>",
			Short: fmt.Sprintf("Send a %s request through the signed-in client", method),
			Long: fmt.Sprintf(`Send a %s request. Relative URLs are resolved against api.base_url
and carry the stored access token, refreshed on 401/403.`, method),
			Args: cobra.ExactArgs(1),
			RunE: runRequest(method),
		}
		addRequestFlags(cmd)
		rootCmd.AddCommand(cmd)
	}
}

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Add header (can be used multiple times)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "Request body (JSON string or @filename)")
}

func runRequest(method string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		url := args[0]
		verbose, _ := cmd.Flags().GetBool("verbose")

		headerMap := parseHeaders(headers)

		// Read body from file if prefixed with @
		body := data
		if strings.HasPrefix(body, "@") {
			content, err := readBodyFromFile(strings.TrimPrefix(body, "@"))
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			body = content
		}

		if verbose {
			format.PrintRequest(method, url, filterSensitiveHeaders(headerMap))
		}

		start := time.Now()
		res, err := current.client.Fetch(cmd.Context(), url, method, requestBody(body), headerMap, nil)
		duration := time.Since(start)

		var reqErr *httpclient.RequestError
		if errors.As(err, &reqErr) && reqErr.Response != nil {
			format.PrintResponse(reqErr.Response, duration, verbose)
			return fmt.Errorf("request failed with status %d", reqErr.Status())
		}
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		format.PrintResponse(res, duration, verbose)
		return nil
	}
}

// requestBody sends JSON text with a JSON content type and anything else
// as plain text.
func requestBody(body string) any {
	if body == "" {
		return nil
	}
	if json.Valid([]byte(body)) {
		return httpclient.RawBody{Data: []byte(body), ContentType: "application/json"}
	}
	return body
}

func parseHeaders(headerStrings []string) map[string]string {
	result := make(map[string]string)
	for _, h := range headerStrings {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}

// readBodyFromFile reads file content with path validation to prevent directory traversal
func readBodyFromFile(filename string) (string, error) {
	// Get working directory
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	// Get absolute path of the requested file
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}

	// Clean the path to resolve any .. or . components
	cleanPath := filepath.Clean(absPath)

	// Ensure file is within working directory (prevent path traversal)
	if !strings.HasPrefix(cleanPath, wd+string(filepath.Separator)) && cleanPath != wd {
		return "", fmt.Errorf("access denied: file must be within current directory")
	}

	// Check for symlinks - resolve and verify target is also within working directory
	realPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		// If file doesn't exist, we'll let ReadFile handle the error
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		realPath = cleanPath
	} else {
		// Verify symlink target is also within working directory
		if !strings.HasPrefix(realPath, wd+string(filepath.Separator)) && realPath != wd {
			return "", fmt.Errorf("access denied: symlink target must be within current directory")
		}
	}

	content, err := os.ReadFile(realPath)
	if err != nil {
		return "", err
	}

	return string(content), nil
}

// filterSensitiveHeaders returns a copy of headers with sensitive values redacted
func filterSensitiveHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}

	filtered := make(map[string]string)
	for k, v := range headers {
		if sensitiveHeaders[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
