// Package client talks to a running spmhost server.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spmhost/pkg/log"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	DefaultRetryMax     = 3
	DefaultRetryWaitMin = 500 * time.Millisecond
	DefaultRetryWaitMax = 5 * time.Second
	DefaultTimeout      = 10 * time.Minute
)

// Options configure retries and the per-request timeout. A negative RetryMax and
// zero durations fall back to the defaults; RetryMax 0 disables retries.
type Options struct {
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
}

// Client uploads and downloads artifacts.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// New creates a Client for the server at baseURL, e.g. "http://127.0.0.1:8080".
func New(baseURL string, opts Options) *Client {
	if opts.RetryMax < 0 {
		opts.RetryMax = DefaultRetryMax
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = DefaultRetryWaitMin
	}
	if opts.RetryWaitMax <= 0 {
		opts.RetryWaitMax = DefaultRetryWaitMax
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = opts.RetryMax
	httpClient.RetryWaitMin = opts.RetryWaitMin
	httpClient.RetryWaitMax = opts.RetryWaitMax
	httpClient.HTTPClient.Timeout = opts.Timeout
	httpClient.Logger = nil
	httpClient.CheckRetry = retryPolicy
	httpClient.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			log.Warn().Str("url", req.URL.String()).Int("attempt", attempt).Msg("Retrying request")
		}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// retryPolicy retries connection and timeout errors only. Any HTTP response,
// including 5xx, is returned to the caller as-is.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if resp != nil {
		return false, nil
	}
	if err != nil {
		return true, nil //nolint:nilerr // retryablehttp reports the final error
	}
	return false, nil
}

// UploadFile sends the archive at path as a raw body and returns the Package.swift manifest.
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	//nolint:gosec // path is chosen by the caller
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Failed to close upload file")
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return "", err
	}

	return c.Upload(ctx, filepath.Base(path), file, info.Size())
}

// Upload sends body under filename. The body is rewound before each retry.
func (c *Client) Upload(ctx context.Context, filename string, body io.ReadSeeker, size int64) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/zip")
	req.Header.Set("X-Filename", filename)

	log.Info().Str("filename", filename).Int64("size", size).Str("server", c.baseURL).Msg("Uploading artifact")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", readStatusError(resp)
	}

	manifest, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read manifest: %w", err)
	}
	return string(manifest), nil
}

// Download streams the named artifact into w and returns the number of bytes written.
func (c *Client) Download(ctx context.Context, name string, w io.Writer) (int64, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/artifacts/"+url.PathEscape(name), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, readStatusError(resp)
	}

	return io.Copy(w, resp.Body)
}

func readStatusError(resp *http.Response) error {
	statusErr := &StatusError{StatusCode: resp.StatusCode}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		statusErr.Message = payload.Error
	}
	return statusErr
}
