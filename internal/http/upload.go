package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// UploadOptions configures Upload.
type UploadOptions struct {
	// Method defaults to POST.
	Method string

	// FieldName selects a multipart/form-data upload; empty sends the raw bytes.
	FieldName string
	FileName  string

	// ContentType of the file itself; defaults to application/octet-stream.
	ContentType string

	Headers    map[string]string
	OnProgress ProgressFunc
}

// Upload transfers the contents of r, reporting progress while the body is
// written. The body is buffered so that error handlers can retry it.
func (c *Client) Upload(ctx context.Context, url string, r io.Reader, opts UploadOptions) (*Response, error) {
	body, err := buildUploadBody(r, opts)
	if err != nil {
		return nil, err
	}

	method := opts.Method
	if method == "" {
		method = http.MethodPost
	}
	req := &Request{
		URL:      url,
		Method:   method,
		Body:     body,
		Headers:  make(map[string]string, len(opts.Headers)),
		Metadata: map[any]any{},
		Progress: opts.OnProgress,
	}
	for k, v := range opts.Headers {
		req.Headers[k] = v
	}
	return c.Do(ctx, req)
}

func buildUploadBody(r io.Reader, opts UploadOptions) (RawBody, error) {
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if opts.FieldName == "" {
		data, err := io.ReadAll(r)
		if err != nil {
			return RawBody{}, fmt.Errorf("reading upload: %w", err)
		}
		return RawBody{Data: data, ContentType: contentType}, nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(opts.FieldName), escapeQuotes(opts.FileName)))
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return RawBody{}, fmt.Errorf("creating multipart part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return RawBody{}, fmt.Errorf("reading upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return RawBody{}, fmt.Errorf("closing multipart body: %w", err)
	}
	return RawBody{Data: buf.Bytes(), ContentType: mw.FormDataContentType()}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
