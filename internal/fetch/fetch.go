// Package fetch resolves image locators (remote URLs or local paths) to bytes.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kozaktomas/reclaim/internal/constants"
)

var (
	ErrEmptyLocator = errors.New("empty locator")
	ErrTooLarge     = errors.New("image exceeds size limit")
	ErrOutsideRoot  = errors.New("local path outside allowed root")
)

// StatusError reports a non-2xx response from a remote image host.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: status %d", e.URL, e.StatusCode)
}

// Fetcher downloads remote images and reads local ones.
type Fetcher struct {
	Timeout   time.Duration // per fetch, 0 disables
	MaxBytes  int64
	LocalRoot string // when set, local paths must resolve inside it
	UserAgent string
	client    *http.Client
}

// New creates a fetcher with the given per-call timeout and size cap.
func New(timeout time.Duration, maxBytes int64) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = constants.MaxFetchSize
	}
	return &Fetcher{
		Timeout:   timeout,
		MaxBytes:  maxBytes,
		UserAgent: "reclaim",
		client:    &http.Client{},
	}
}

// Fetch returns the bytes behind locator. http(s) locators are downloaded,
// file:// locators and bare paths are read from disk.
func (f *Fetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if strings.TrimSpace(locator) == "" {
		return nil, ErrEmptyLocator
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	lower := strings.ToLower(locator)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return f.fetchRemote(ctx, locator)
	case strings.HasPrefix(lower, "file://"):
		u, err := url.Parse(locator)
		if err != nil {
			return nil, fmt.Errorf("invalid file locator: %w", err)
		}
		return f.readLocal(ctx, u.Path)
	default:
		return f.readLocal(ctx, locator)
	}
}

func (f *Fetcher) fetchRemote(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := f.httpClient().Do(req) //nolint:gosec // locators come from the image search backend
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: locator, StatusCode: resp.StatusCode}
	}
	return f.readLimited(resp.Body)
}

func (f *Fetcher) readLocal(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.LocalRoot != "" {
		root, err := filepath.Abs(f.LocalRoot)
		if err != nil {
			return nil, fmt.Errorf("resolving local root: %w", err)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolving path: %w", err)
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, ErrOutsideRoot
		}
		path = abs
	}

	file, err := os.Open(path) //nolint:gosec // confined to LocalRoot when configured
	if err != nil {
		return nil, fmt.Errorf("opening local image: %w", err)
	}
	defer file.Close()
	return f.readLimited(file)
}

// readLimited reads at most MaxBytes, failing with ErrTooLarge beyond that.
func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	limit := f.MaxBytes
	if limit <= 0 {
		limit = constants.MaxFetchSize
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("could not read image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

func (f *Fetcher) httpClient() *http.Client {
	if f.client == nil {
		return http.DefaultClient
	}
	return f.client
}
