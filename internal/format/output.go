package format

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/fatih/color"
	"github.com/goccy/go-json"

	httpclient "github.com/vedsharma/adminkit/internal/http"
)

// Out and ErrOut receive all printed output. Tests swap them for buffers.
var (
	Out    io.Writer = color.Output
	ErrOut io.Writer = color.Error
)

// sanitizeOutput removes or escapes potentially dangerous control characters
// that could manipulate terminal display or execute commands
func sanitizeOutput(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			result.WriteRune(r)
		case r == '\x1b':
			// Escape ANSI escape sequences
			result.WriteString("\\x1b")
		case unicode.IsControl(r) && r < 0x20:
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		case r == 0x7F:
			result.WriteString("\\x7f")
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

var (
	successColor   = color.New(color.FgGreen, color.Bold)
	redirectColor  = color.New(color.FgYellow, color.Bold)
	clientErrColor = color.New(color.FgRed, color.Bold)
	serverErrColor = color.New(color.FgRed, color.Bold, color.BgWhite)
	headerKeyColor = color.New(color.FgCyan)
	methodColor    = color.New(color.FgMagenta, color.Bold)
	urlColor       = color.New(color.FgBlue)
	dimColor       = color.New(color.Faint)
	infoColor      = color.New(color.FgCyan, color.Bold)
)

// PrintResponse prints a formatted HTTP response
func PrintResponse(res *httpclient.Response, duration time.Duration, showHeaders bool) {
	statusColor := getStatusColor(res.Status)
	statusColor.Fprintf(Out, "%d %s\n", res.Status, sanitizeOutput(res.StatusText))

	dimColor.Fprintf(Out, "  Time: %dms\n\n", duration.Milliseconds())

	if showHeaders {
		printHeaders(flattenHeader(res.Header))
	}

	printBody(res.Body)
}

// PrintRequest prints the request line and, when given, its headers.
// Callers redact secrets before passing headers in.
func PrintRequest(method, url string, headers map[string]string) {
	methodColor.Fprintf(Out, "%s ", strings.ToUpper(method))
	urlColor.Fprintln(Out, sanitizeOutput(url))
	if len(headers) > 0 {
		printHeaders(headers)
	}
}

func getStatusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return successColor
	case code >= 300 && code < 400:
		return redirectColor
	case code >= 400 && code < 500:
		return clientErrColor
	default:
		return serverErrColor
	}
}

func flattenHeader(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = strings.Join(v, ", ")
	}
	return out
}

func printHeaders(headers map[string]string) {
	if len(headers) == 0 {
		return
	}

	fmt.Fprintln(Out, "Headers:")

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		headerKeyColor.Fprintf(Out, "  %s: ", sanitizeOutput(key))
		fmt.Fprintln(Out, sanitizeOutput(headers[key]))
	}
	fmt.Fprintln(Out)
}

func printBody(body []byte) {
	if len(body) == 0 {
		dimColor.Fprintln(Out, "(empty body)")
		return
	}
	fmt.Fprintln(Out, sanitizeOutput(prettyJSON(string(body))))
}

func prettyJSON(s string) string {
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(s), "", "  "); err != nil {
		// Not valid JSON, return as-is
		return s
	}
	return out.String()
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	successColor.Fprintf(Out, "✓ %s\n", sanitizeOutput(msg))
}

// PrintError prints an error message
func PrintError(msg string) {
	clientErrColor.Fprintf(ErrOut, "✗ %s\n", sanitizeOutput(msg))
}

// PrintInfo prints a neutral message
func PrintInfo(msg string) {
	dimColor.Fprintln(Out, sanitizeOutput(msg))
}
