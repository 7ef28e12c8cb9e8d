// Package fetch downloads remote files to disk and unpacks archives.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"
)

// ErrUnexpectedStatus is returned when a download does not answer 200 OK.
var ErrUnexpectedStatus = errors.New("download returned unexpected status")

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher stores a remote file at a local path.
type Fetcher interface {
	Download(ctx context.Context, url, dest string) (int64, error)
}

// Downloader is a rate-limited HTTP Fetcher.
type Downloader struct {
	client  HTTPClient    // HTTP client for making requests
	limiter *rate.Limiter // Rate limiter shared by all workers
	log     *slog.Logger  // Logger for logging operations
}

// NewDownloader creates a Downloader allowing rateLimit requests per second.
// A non-positive rateLimit disables throttling.
func NewDownloader(timeout time.Duration, rateLimit int, log *slog.Logger) *Downloader {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(rateLimit), rateLimit)
	}

	return &Downloader{
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		log:     log,
	}
}

// NewDownloaderWithClient allows injecting a custom HTTP client and limiter.
func NewDownloaderWithClient(client HTTPClient, limiter *rate.Limiter, log *slog.Logger) *Downloader {
	return &Downloader{client: client, limiter: limiter, log: log}
}

// Download writes the body of url to dest and returns the number of bytes written.
// The body is streamed into a temporary file next to dest, which is renamed
// into place only once the transfer is complete.
func (d *Downloader) Download(ctx context.Context, url, dest string) (int64, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %d for %s", ErrUnexpectedStatus, resp.StatusCode, url)
	}

	if err = os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create destination directory: %w", err)
	}

	written, err := writeAtomic(dest, resp.Body)
	if err != nil {
		return 0, err
	}

	d.log.DebugContext(ctx, "Downloaded file", "url", url, "dest", dest, "bytes", written)

	return written, nil
}

// Copy duplicates an already downloaded file to another destination.
func Copy(src, dest string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	if err = os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create destination directory: %w", err)
	}

	return writeAtomic(dest, in)
}

func writeAtomic(dest string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	written, err := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to write %s: %w", dest, err)
	}

	if err = os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to move %s into place: %w", dest, err)
	}

	return written, nil
}
