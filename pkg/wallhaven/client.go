// Package wallhaven is a minimal client for the wallhaven.cc search API.
package wallhaven

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dixieflatline76/rngpaper/pkg/errkind"
	"github.com/dixieflatline76/rngpaper/util/log"
	"github.com/google/go-querystring/query"
	"golang.org/x/time/rate"
)

// Client performs paced search requests against the wallhaven API. It does not retry.
type Client struct {
	searchURL  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithSearchURL points the client at another search endpoint.
func WithSearchURL(u string) Option {
	return func(c *Client) { c.searchURL = u }
}

// WithLimiter replaces the default request limiter. A nil limiter disables pacing.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewClient returns a search client using httpClient.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		searchURL:  SearchURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(requestInterval), requestBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchURLFor returns the request URL for q and page. page <= 0 leaves the page parameter out.
func (c *Client) SearchURLFor(q Query, page int) (string, error) {
	u, err := url.Parse(c.searchURL)
	if err != nil {
		return "", fmt.Errorf("invalid search URL: %w", err)
	}
	if page < 0 {
		page = 0
	}
	values, err := query.Values(searchParams{Query: q, Page: page})
	if err != nil {
		return "", fmt.Errorf("encode query: %w", err)
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// Search fetches one page of results for q. Failures are classified as errkind.ErrNetwork
// (transport or status) or errkind.ErrDecode (unexpected body).
func (c *Client) Search(ctx context.Context, q Query, page int) (Page, error) {
	reqURL, err := c.SearchURLFor(q, page)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", errkind.ErrNetwork, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Page{}, fmt.Errorf("%w: rate limiter: %w", errkind.ErrNetwork, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("%w: failed to create request: %v", errkind.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	log.Debugf("Searching wallhaven: %s page %d", q, page)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("%w: failed to fetch from wallhaven: %w", errkind.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return Page{}, fmt.Errorf("%w: wallhaven API returned status: %d", errkind.ErrNetwork, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Page{}, fmt.Errorf("%w: failed to read response body: %w", errkind.ErrNetwork, err)
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return Page{}, fmt.Errorf("%w: failed to parse JSON: %v", errkind.ErrDecode, err)
	}

	return Page{Items: response.Data, TotalPages: response.Meta.LastPage}, nil
}
