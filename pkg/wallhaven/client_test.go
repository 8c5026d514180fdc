package wallhaven

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/dixieflatline76/rngpaper/pkg/errkind"
	"github.com/dixieflatline76/rngpaper/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoItemsJSON = `{
	"data": [
		{"id": "abc123", "path": "https://w.wallhaven.cc/full/ab/wallhaven-abc123.jpg", "short_url": "https://whvn.cc/abc123", "file_type": "image/jpeg", "resolution": "1920x1080", "views": 12},
		{"id": "def456", "path": "https://w.wallhaven.cc/full/de/wallhaven-def456.png", "file_type": "image/png"}
	],
	"meta": {"current_page": 1, "last_page": 7, "per_page": "24", "total": 150}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(NewHTTPClient("rngpaper-test", 5*time.Second), WithSearchURL(ts.URL+"/api/v1/search"), WithLimiter(nil))
}

func TestSearch(t *testing.T) {
	var got url.Values
	var agent string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/search", r.URL.Path)
		got = r.URL.Query()
		agent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(twoItemsJSON))
	})

	q := Query{Tag: "@arkas", Categories: "010", Purity: "100"}
	page, err := c.Search(context.Background(), q, 0)
	require.NoError(t, err)

	assert.Equal(t, 7, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "abc123", page.Items[0].ID)
	assert.Equal(t, "https://w.wallhaven.cc/full/ab/wallhaven-abc123.jpg", page.Items[0].Path)
	assert.Equal(t, "https://whvn.cc/abc123", page.Items[0].ShortURL)
	assert.Equal(t, "image/png", page.Items[1].FileType)

	assert.Equal(t, "@arkas", got.Get("q"))
	assert.Equal(t, "010", got.Get("categories"))
	assert.Equal(t, "100", got.Get("purity"))
	assert.False(t, got.Has("page"), "page 0 must not send a page parameter")
	assert.False(t, got.Has("apikey"), "empty API key must not be sent")
	assert.Equal(t, "rngpaper-test", agent)
}

func TestSearchPageAndAPIKey(t *testing.T) {
	var got url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`{"data": [], "meta": {"last_page": 3}}`))
	})

	q := Query{Tag: "@arkas", Categories: "010", Purity: "110", APIKey: "secret"}
	_, err := c.Search(context.Background(), q, 3)
	require.NoError(t, err)

	assert.Equal(t, "3", got.Get("page"))
	assert.Equal(t, "secret", got.Get("apikey"))
	assert.Equal(t, "@arkas", got.Get("q"), "paged requests keep the base query")
	assert.Equal(t, "110", got.Get("purity"))
}

func TestSearchErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		_, err := c.Search(context.Background(), Query{Tag: "@a"}, 0)
		assert.ErrorIs(t, err, errkind.ErrNetwork)
	})

	t.Run("decode", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data": "not a list"}`))
		})
		_, err := c.Search(context.Background(), Query{Tag: "@a"}, 0)
		assert.ErrorIs(t, err, errkind.ErrDecode)
	})

	t.Run("unreachable", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		addr := ts.URL
		ts.Close()
		c := NewClient(http.DefaultClient, WithSearchURL(addr), WithLimiter(nil))
		_, err := c.Search(context.Background(), Query{Tag: "@a"}, 0)
		assert.ErrorIs(t, err, errkind.ErrNetwork)
	})

	t.Run("cancelled", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(twoItemsJSON))
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.Search(ctx, Query{Tag: "@a"}, 0)
		assert.ErrorIs(t, err, errkind.ErrNetwork)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSearchURLFor(t *testing.T) {
	c := NewClient(nil)
	u, err := c.SearchURLFor(Query{Tag: "@arkas", Categories: "010", Purity: "100"}, 2)
	require.NoError(t, err)
	assert.Equal(t, "https://wallhaven.cc/api/v1/search?categories=010&page=2&purity=100&q=%40arkas", u)

	u, err = c.SearchURLFor(Query{Tag: "@arkas", Categories: "010", Purity: "100"}, -4)
	require.NoError(t, err)
	assert.NotContains(t, u, "page=")
}

func TestNewQuery(t *testing.T) {
	snap := settings.Snapshot{
		Collections: []string{"@first", "@second", "@third"},
		Categories:  settings.Categories{Anime: true},
		Purity:      settings.Purity{SFW: true},
		APIKey:      "key",
	}

	q := NewQueryWith(snap, func(n int) int {
		assert.Equal(t, 3, n)
		return 2
	})
	assert.Equal(t, Query{Tag: "@third", Categories: "010", Purity: "100", APIKey: "key"}, q)

	for range 50 {
		q := NewQuery(snap)
		assert.NotEmpty(t, q.Tag)
		assert.Contains(t, snap.Collections, q.Tag)
	}
	assert.NotContains(t, q.String(), "key")
}
