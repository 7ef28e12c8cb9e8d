// Package catalog fetches the listing of forest-loss tile URLs.
package catalog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultURL is the Hansen Global Forest Change loss-year listing.
const DefaultURL = "https://storage.googleapis.com/earthenginepartners-hansen/GFC-2020-v1.8/lossyear.txt"

// ErrUnexpectedStatus is returned when the listing endpoint does not answer 200 OK.
var ErrUnexpectedStatus = errors.New("catalog endpoint returned unexpected status")

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Source provides the list of available tile URLs.
type Source interface {
	Fetch(ctx context.Context) ([]string, error)
}

// HTTPSource reads a plaintext, newline-delimited URL listing over HTTP.
type HTTPSource struct {
	client HTTPClient   // HTTP client for making requests
	url    string       // Location of the listing
	log    *slog.Logger // Logger for logging operations
}

// NewHTTPSource creates a listing source with a default HTTP client.
func NewHTTPSource(url string, timeout time.Duration, log *slog.Logger) *HTTPSource {
	return &HTTPSource{
		client: &http.Client{Timeout: timeout},
		url:    url,
		log:    log,
	}
}

// NewHTTPSourceWithClient creates a listing source with a custom HTTP client.
// Useful for testing with mocked HTTP clients.
func NewHTTPSourceWithClient(client HTTPClient, url string, log *slog.Logger) *HTTPSource {
	return &HTTPSource{client: client, url: url, log: log}
}

// Fetch downloads the listing and returns one entry per non-blank line, in order.
func (s *HTTPSource) Fetch(ctx context.Context) ([]string, error) {
	s.log.DebugContext(ctx, "Fetching tile catalog", "url", s.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.log.ErrorContext(ctx, "Catalog endpoint error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	entries, err := Parse(resp.Body)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Tile catalog fetched", "entries", len(entries))

	return entries, nil
}

// Parse splits a listing into trimmed, non-empty lines.
func Parse(r io.Reader) ([]string, error) {
	entries := []string{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog body: %w", err)
	}

	return entries, nil
}
