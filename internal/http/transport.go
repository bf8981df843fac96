package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vedsharma/adminkit/internal/logging"
)

// NetSender sends requests with net/http, JSON-encoding structured bodies.
type NetSender struct {
	baseURL string
	client  *http.Client
}

// NewNetSender creates a sender resolving relative URLs against baseURL.
func NewNetSender(baseURL string, client *http.Client) *NetSender {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &NetSender{baseURL: baseURL, client: client}
}

// Send executes the request and reads the whole response body.
func (s *NetSender) Send(ctx context.Context, req *Request) (*Response, error) {
	target, err := s.resolve(req.URL)
	if err != nil {
		return nil, err
	}
	if err := validateURL(target); err != nil {
		return nil, err
	}

	data, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if data != nil {
		bodyReader = bytes.NewReader(data)
		if req.Progress != nil {
			bodyReader = &progressReader{r: bodyReader, total: int64(len(data)), fn: req.Progress}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if data != nil {
		httpReq.ContentLength = int64(len(data))
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if data != nil && contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Read response body with size limit to prevent memory exhaustion
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(respBody)) > MaxResponseSize {
		respBody = respBody[:MaxResponseSize]
		logging.Warn().Str("url", target).Msg("response body truncated (exceeded 50MB limit)")
	}

	return &Response{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

func (s *NetSender) resolve(rawURL string) (string, error) {
	if s.baseURL == "" {
		return rawURL, nil
	}
	ref, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if ref.IsAbs() {
		return rawURL, nil
	}
	// Join paths instead of RFC 3986 resolution so a base like
	// https://host/api keeps its path prefix.
	return strings.TrimRight(s.baseURL, "/") + "/" + strings.TrimLeft(rawURL, "/"), nil
}

// encodeBody returns nil data for a nil body.
func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case RawBody:
		return b.Data, b.ContentType, nil
	case *RawBody:
		if b == nil {
			return nil, "", nil
		}
		return b.Data, b.ContentType, nil
	case []byte:
		return b, "application/octet-stream", nil
	case string:
		return []byte(b), "text/plain; charset=utf-8", nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("marshaling body: %w", err)
		}
		return data, "application/json", nil
	}
}

type progressReader struct {
	r      io.Reader
	loaded int64
	total  int64
	fn     ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.loaded += int64(n)
		p.fn(p.loaded, p.total)
	}
	return n, err
}

// validateURL rejects non-HTTP schemes and cloud metadata endpoints.
func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (only http and https are allowed)", parsed.Scheme)
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	if isCloudMetadataEndpoint(hostname) {
		return fmt.Errorf("blocked request to cloud metadata endpoint: %s", hostname)
	}
	return nil
}

// isCloudMetadataEndpoint checks if the hostname is a cloud metadata service
func isCloudMetadataEndpoint(hostname string) bool {
	metadataHosts := map[string]bool{
		"169.254.169.254":          true, // AWS, GCP, Azure metadata
		"metadata.google.internal": true, // GCP metadata
		"metadata.goog":            true, // GCP metadata alternative
		"100.100.100.200":          true, // Alibaba Cloud metadata
		"169.254.170.2":            true, // AWS ECS task metadata
	}
	return metadataHosts[strings.ToLower(hostname)]
}
