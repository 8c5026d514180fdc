package wallpaper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// imageServer serves fixed bytes for every path and counts requests.
func imageServer(t *testing.T, body []byte, delay time.Duration) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if delay > 0 {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(body)
	}))
	t.Cleanup(ts.Close)
	return ts, &hits
}

func TestResolveOrFetchDownloadsOnce(t *testing.T) {
	ts, hits := imageServer(t, []byte("jpeg-bytes"), 0)
	dir := filepath.Join(t.TempDir(), "cache")
	store := NewCacheStore(dir, ts.Client())

	remote := ts.URL + "/full/ab/wallhaven-abc123.jpg"
	first, err := store.ResolveOrFetch(context.Background(), remote)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "wallhaven-abc123.jpg"), first)

	second, err := store.ResolveOrFetch(context.Background(), remote)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load(), "a cached file must not be downloaded again")

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestResolveOrFetchExistingFileIsHit(t *testing.T) {
	ts, hits := imageServer(t, []byte("remote"), 0)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("local"), 0o644))

	store := NewCacheStore(dir, ts.Client())
	path, err := store.ResolveOrFetch(context.Background(), ts.URL+"/x/a.jpg")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "local", string(data), "existing files are never overwritten")
	assert.Zero(t, hits.Load())
}

func TestEmptyCacheThenRedownload(t *testing.T) {
	ts, hits := imageServer(t, []byte("img"), 0)
	dir := filepath.Join(t.TempDir(), "cache")
	store := NewCacheStore(dir, ts.Client())
	remote := ts.URL + "/a.png"

	path, err := store.ResolveOrFetch(context.Background(), remote)
	require.NoError(t, err)

	require.NoError(t, store.EmptyCache())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "cache dir should be gone")

	again, err := store.ResolveOrFetch(context.Background(), remote)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	assert.Equal(t, int32(2), hits.Load())
}

func TestEmptyCacheMissingDir(t *testing.T) {
	store := NewCacheStore(filepath.Join(t.TempDir(), "never-created"), nil)
	assert.NoError(t, store.EmptyCache())
}

func TestResolveOrFetchConcurrentSameFile(t *testing.T) {
	ts, hits := imageServer(t, []byte("slow"), 50*time.Millisecond)
	store := NewCacheStore(t.TempDir(), ts.Client())
	remote := ts.URL + "/same.jpg"

	var wg sync.WaitGroup
	paths := make([]string, 8)
	for i := range paths {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := store.ResolveOrFetch(context.Background(), remote)
			assert.NoError(t, err)
			paths[i] = p
		}(i)
	}
	wg.Wait()

	for _, p := range paths {
		assert.Equal(t, paths[0], p)
	}
	assert.Equal(t, int32(1), hits.Load(), "concurrent fetches of one file share a download")
}

func TestResolveOrFetchFallbackName(t *testing.T) {
	ts, _ := imageServer(t, []byte("x"), 0)
	store := NewCacheStore(t.TempDir(), ts.Client())

	path, err := store.ResolveOrFetch(context.Background(), ts.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, FallbackFileName, filepath.Base(path))
}

func TestEntries(t *testing.T) {
	dir := t.TempDir()
	store := NewCacheStore(dir, nil)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.jpg"), []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.jpg"), []byte("22"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".new.jpg.part-123"), []byte("partial"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, FittedImgDir), 0o755))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.jpg"), past, past))

	entries, err := store.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "new.jpg", entries[0].Name)
	assert.Equal(t, int64(2), entries[0].Size)
	assert.Equal(t, "old.jpg", entries[1].Name)

	missing := NewCacheStore(filepath.Join(dir, "missing"), nil)
	entries, err = missing.Entries()
	assert.NoError(t, err)
	assert.Empty(t, entries)
}
