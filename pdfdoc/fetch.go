package pdfdoc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/sync/singleflight"
)

// DefaultMaxSize is the largest document a Fetcher reads.
const DefaultMaxSize = 256 << 20

// ErrTooLarge is returned for documents above the size limit.
var ErrTooLarge = errors.New("document too large")

// Fetcher reads documents from local paths, file:// urls and http(s) urls.
// Concurrent fetches of the same url share one request.
type Fetcher struct {
	client  *http.Client
	maxSize int64
	group   singleflight.Group
}

// NewFetcher creates a Fetcher. A nil client means http.DefaultClient.
func NewFetcher(client *http.Client, maxSize int64) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Fetcher{client: client, maxSize: maxSize}
}

// Fetch returns the contents of the document at rawURL. Cancelling ctx
// abandons the fetch.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	ch := f.group.DoChan(rawURL, func() (any, error) {
		return f.fetch(ctx, rawURL)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			// The shared fetch belonged to a caller that gave up.
			if res.Shared && ctx.Err() == nil && errors.Is(res.Err, context.Canceled) {
				f.group.Forget(rawURL)
				return f.fetch(ctx, rawURL)
			}
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain path, or a Windows drive letter.
		return f.readFile(rawURL)
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		return f.readFile(u.Path)
	case "http", "https":
		return f.get(ctx, rawURL)
	default:
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	return f.readAll(fd)
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	if resp.ContentLength > f.maxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}
	return f.readAll(resp.Body)
}

func (f *Fetcher) readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if int64(len(data)) > f.maxSize {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, f.maxSize)
	}
	return data, nil
}
