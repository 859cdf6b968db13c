package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxFeedBytes       = 64 << 20
	userAgent          = "vitrine-ingest/1.0"
)

// Fetcher reads feed content from HTTP(S) URLs or local files.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a fetcher whose HTTP requests time out after timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch returns the raw bytes behind location.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if !isRemote(location) {
		content, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return content, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", location, resp.Status)
	}
	content, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return content, nil
}

func isRemote(location string) bool {
	l := strings.ToLower(strings.TrimSpace(location))
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
