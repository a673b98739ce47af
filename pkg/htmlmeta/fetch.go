package htmlmeta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetch defaults.
const (
	DefaultTimeout   = 10 * time.Second
	DefaultMaxBytes  = 500 * 1024
	DefaultUserAgent = "Mozilla/5.0 (compatible; SEOAuditorBot/1.0; +https://seoauditor.app)"
)

// ErrUnreachable matches every fetch failure: network errors, timeouts and
// non-2xx responses.
var ErrUnreachable = errors.New("site unreachable")

// FetchError describes why a page could not be fetched.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is makes every FetchError match ErrUnreachable.
func (e *FetchError) Is(target error) bool { return target == ErrUnreachable }

// Timeout reports whether the fetch hit its deadline.
func (e *FetchError) Timeout() bool { return errors.Is(e.Err, context.DeadlineExceeded) }

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher performs bounded page fetches and extracts their metadata.
type Fetcher struct {
	Client    Doer
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
}

// NewFetcher creates a Fetcher with the default limits. If client is nil,
// a client that follows redirects is used.
func NewFetcher(client Doer) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{
		Client:    client,
		Timeout:   DefaultTimeout,
		MaxBytes:  DefaultMaxBytes,
		UserAgent: DefaultUserAgent,
	}
}

// FetchHTML returns at most MaxBytes of the page body. The request is
// aborted once the timeout elapses.
func (f *Fetcher) FetchHTML(ctx context.Context, pageURL string) ([]byte, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	ua := f.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	return body, nil
}

// Fetch downloads pageURL and extracts its metadata.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Metadata, error) {
	body, err := f.FetchHTML(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return Extract(body, pageURL), nil
}
