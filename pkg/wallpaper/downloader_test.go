package wallpaper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dixieflatline76/rngpaper/pkg/errkind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadBadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	dir := t.TempDir()
	store := NewCacheStore(dir, ts.Client())
	_, err := store.ResolveOrFetch(context.Background(), ts.URL+"/missing.jpg")
	assert.ErrorIs(t, err, errkind.ErrNetwork)
	assertNoFiles(t, dir)
}

func TestDownloadTruncatedBodyLeavesNoFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("short"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	store := NewCacheStore(dir, ts.Client())
	_, err := store.ResolveOrFetch(context.Background(), ts.URL+"/partial.jpg")
	assert.ErrorIs(t, err, errkind.ErrNetwork)
	assertNoFiles(t, dir)
}

func TestDownloadUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	store := NewCacheStore(t.TempDir(), nil)
	_, err := store.ResolveOrFetch(context.Background(), url+"/a.jpg")
	assert.ErrorIs(t, err, errkind.ErrNetwork)
}

func TestResolveOrFetchCacheDirIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o644))

	store := NewCacheStore(blocker, nil)
	_, err := store.ResolveOrFetch(context.Background(), "http://127.0.0.1:1/a.jpg")
	assert.ErrorIs(t, err, errkind.ErrFilesystem)
}

func assertNoFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed downloads must not leave files behind")
}
