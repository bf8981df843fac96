package cmd

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/vedsharma/adminkit/internal/format"
	httpclient "github.com/vedsharma/adminkit/internal/http"
)

var (
	uploadField  string
	uploadMethod string
	uploadType   string
)

func init() {
	uploadCmd := &cobra.Command{
		Use:   "upload <url> <file>",
		Short: "Upload a file with progress",
		Long: `Upload a file through the signed-in client.

With --field the file is sent as multipart/form-data, otherwise the raw
bytes are the request body.`,
		Args: cobra.ExactArgs(2),
		RunE: runUpload,
	}
	uploadCmd.Flags().StringVar(&uploadField, "field", "file", "Multipart field name; empty sends the raw file")
	uploadCmd.Flags().StringVarP(&uploadMethod, "method", "X", "POST", "HTTP method")
	uploadCmd.Flags().StringVar(&uploadType, "type", "", "File content type (default: from the extension)")
	uploadCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Add header (can be used multiple times)")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	url, path := args[0], args[1]
	verbose, _ := cmd.Flags().GetBool("verbose")

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	contentType := uploadType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}

	stderr := cmd.ErrOrStderr()
	start := time.Now()
	res, err := current.client.Upload(cmd.Context(), url, f, httpclient.UploadOptions{
		Method:      uploadMethod,
		FieldName:   uploadField,
		FileName:    filepath.Base(path),
		ContentType: contentType,
		Headers:     parseHeaders(headers),
		OnProgress: func(loaded, total int64) {
			if total > 0 {
				fmt.Fprintf(stderr, "\r%3d%% %d/%d bytes", loaded*100/total, loaded, total)
			}
		},
	})
	fmt.Fprintln(stderr)
	duration := time.Since(start)

	var reqErr *httpclient.RequestError
	if errors.As(err, &reqErr) && reqErr.Response != nil {
		format.PrintResponse(reqErr.Response, duration, verbose)
		return fmt.Errorf("upload failed with status %d", reqErr.Status())
	}
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	format.PrintResponse(res, duration, verbose)
	return nil
}
