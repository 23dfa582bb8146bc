// Package geoscf talks to the GEOS-CF forecast archive over HTTP.
package geoscf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const userAgent = "heatwave-forecast-service/1.0"

// downloadBufSize is the copy buffer for streaming grid files to disk.
const downloadBufSize = 64 * 1024

// Client implements existence probes and streaming downloads against the
// forecast archive. Probes and downloads use separate HTTP clients because
// their timeout profiles differ by more than an order of magnitude.
type Client struct {
	baseURL        string
	probeClient    *http.Client
	downloadClient *http.Client
	logger         *slog.Logger
}

// NewClient creates an archive client rooted at baseURL.
func NewClient(baseURL string, probeTimeout, downloadTimeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		probeClient:    &http.Client{Timeout: probeTimeout},
		downloadClient: &http.Client{Timeout: downloadTimeout},
		logger:         logger,
	}
}

// FileURL builds the remote locator for one hourly file of a forecast run.
// The archive keys its directory tree by initialization time and literally
// includes the '+' of the filename, which must be percent-encoded.
func (c *Client) FileURL(initTime time.Time, filename string) string {
	t := initTime.UTC()
	return fmt.Sprintf("%s/Y%04d/M%02d/D%02d/H%02d/%s",
		c.baseURL, t.Year(), int(t.Month()), t.Day(), t.Hour(),
		strings.ReplaceAll(filename, "+", "%2B"),
	)
}

// Exists performs a lightweight HEAD probe against a remote locator. A
// network error is reported as non-existence with the error attached so the
// caller can distinguish "not published yet" from "archive unreachable".
func (c *Client) Exists(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, fmt.Errorf("create probe request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.probeClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("probe %s: %w", url, err)
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}

// Download streams the remote file to w with a 64 KiB buffer and returns the
// number of bytes written.
func (c *Client) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create download request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	n, err := io.CopyBuffer(w, resp.Body, make([]byte, downloadBufSize))
	if err != nil {
		return n, fmt.Errorf("download %s: copy body: %w", url, err)
	}
	return n, nil
}
