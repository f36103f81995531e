package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

const (
	maxRedirects = 10

	// DefaultMaxFileBytes bounds the size of a downloaded document
	DefaultMaxFileBytes int64 = 25 << 20
	// DefaultFetchTimeout bounds a single download
	DefaultFetchTimeout = 30 * time.Second
)

// ErrFileTooLarge is returned when a document exceeds the configured size
var ErrFileTooLarge = errors.New("file exceeds maximum size")

// FetchError is returned when the document could not be retrieved
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch file: status %d", e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch file: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher downloads documents by URL
type Fetcher struct {
	client       *http.Client
	maxBytes     int64
	allowedHosts []string
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithMaxBytes sets the maximum accepted document size
func WithMaxBytes(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithAllowedHosts restricts downloads to the given hosts. An empty list allows any host.
func WithAllowedHosts(hosts []string) FetcherOption {
	return func(f *Fetcher) {
		f.allowedHosts = nil
		for _, h := range hosts {
			if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
				f.allowedHosts = append(f.allowedHosts, h)
			}
		}
	}
}

// WithHTTPClient replaces the HTTP client used for downloads
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// NewFetcher creates a document fetcher
func NewFetcher(timeout time.Duration, opts ...FetcherOption) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	f := &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: DefaultMaxFileBytes,
	}
	for _, opt := range opts {
		opt(f)
	}

	// Every redirect hop must pass the same host check as the original URL
	client := *f.client
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return f.checkURL(req.URL)
	}
	f.client = &client
	return f
}

func (f *Fetcher) checkURL(u *url.URL) error {
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid file URL")
	}
	if len(f.allowedHosts) > 0 && !slices.Contains(f.allowedHosts, strings.ToLower(u.Hostname())) {
		return fmt.Errorf("host %s is not allowed", u.Hostname())
	}
	return nil
}

// Fetch downloads the document at fileURL
func (f *Fetcher) Fetch(ctx context.Context, fileURL string) ([]byte, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return nil, &FetchError{URL: fileURL, Err: fmt.Errorf("invalid file URL")}
	}
	if err := f.checkURL(u); err != nil {
		return nil, &FetchError{URL: fileURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, &FetchError{URL: fileURL, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: fileURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: fileURL, StatusCode: resp.StatusCode}
	}

	if resp.ContentLength > f.maxBytes {
		return nil, ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &FetchError{URL: fileURL, Err: err}
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrFileTooLarge
	}

	return data, nil
}
