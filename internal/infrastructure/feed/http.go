// Package feed provides the transport behind the remote rule provider.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/doeshing/cmdguard/internal/ports"
)

const maxFeedBytes = 4 << 20

// HTTPFetcher retrieves a rule feed over HTTP(S). An optional bearer token
// (typically loaded from the config directory's .env) is attached when set.
type HTTPFetcher struct {
	URL    string
	Token  string
	Client *http.Client
}

// NewHTTPFetcher builds a fetcher with a sane default client.
func NewHTTPFetcher(url, token string) *HTTPFetcher {
	return &HTTPFetcher{
		URL:    url,
		Token:  token,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch implements ports.FeedFetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, err
	}
	if f.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}
	req.Header.Set("Accept", "application/yaml, text/yaml, text/plain")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s: unexpected status %s", f.URL, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
}

var _ ports.FeedFetcher = (*HTTPFetcher)(nil)
