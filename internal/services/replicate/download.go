package replicate

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"reelsmith/internal/workspace"
)

// Download fetches a prediction output file and writes it atomically to the
// destination path.
func (c *Client) Download(ctx context.Context, fileURL, destPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return 0, fmt.Errorf("replicate download: new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("replicate download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return 0, fmt.Errorf("replicate download: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	written, err := workspace.WriteStreamAtomic(destPath, resp.Body, 0o644)
	if err != nil {
		return 0, fmt.Errorf("replicate download: write %s: %w", destPath, err)
	}
	return written, nil
}

// DataURI encodes a local file as a data URI suitable for model file inputs.
func DataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("replicate data uri: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
