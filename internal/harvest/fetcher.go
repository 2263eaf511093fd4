package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnreachable is returned when a page cannot be retrieved
var ErrUnreachable = errors.New("page unreachable")

const (
	maxPageBytes = 16 << 20
	maxRedirects = 10
)

// NewHTTPClient returns a client that gives up after maxRedirects redirects.
// timeout bounds the whole exchange; zero means none.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}

// PageFetcher retrieves the HTML of a page
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type HTTPPageFetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// NewHTTPPageFetcher creates a new page fetcher
func NewHTTPPageFetcher(client *http.Client, timeout time.Duration, userAgent string) *HTTPPageFetcher {
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &HTTPPageFetcher{client: client, timeout: timeout, userAgent: userAgent}
}

func (f *HTTPPageFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("User-Agent", resolveUserAgent(f.userAgent))

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", ErrUnreachable, err)
	}
	return string(body), nil
}
