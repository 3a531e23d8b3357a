package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// AllowedMimeTypes is the pre-filter for image sources. Anything else is
// reported and skipped before the compressor ever sees it.
var AllowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// Allowed reports whether the MIME type passes the image allow-list.
// Parameters after the media type (e.g. "; charset=...") are ignored.
func Allowed(mimeType string) bool {
	media := strings.TrimSpace(strings.ToLower(mimeType))
	if i := strings.Index(media, ";"); i >= 0 {
		media = strings.TrimSpace(media[:i])
	}
	return AllowedMimeTypes[media]
}

// Sniff detects the MIME type from the payload itself.
func Sniff(data []byte) string {
	return mimetype.Detect(data).String()
}

// Fetcher downloads image payloads referenced by URL.
type Fetcher struct {
	client  *http.Client
	maxSize int64
}

// New creates a Fetcher with the given per-request timeout and download
// size cap in bytes.
func New(timeout time.Duration, maxSize int64) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		maxSize: maxSize,
	}
}

// ResolveURL makes a source URL absolute. Relative references are joined
// onto the host base URL; a relative reference without a base is an error.
func ResolveURL(rawURL, hostURL string) (string, error) {
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		return rawURL, nil
	}
	if hostURL == "" {
		return "", fmt.Errorf("relative url %q requires a host_url", rawURL)
	}
	return strings.TrimRight(hostURL, "/") + "/" + strings.TrimLeft(rawURL, "/"), nil
}

// Get downloads the payload at the resolved URL. A non-2xx status or a
// payload over the size cap is an error; the caller reports it per-image
// and moves on to the next one.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to download %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}
	if int64(len(data)) > f.maxSize {
		return nil, fmt.Errorf("payload of %s exceeds %d byte limit", url, f.maxSize)
	}

	return data, nil
}
