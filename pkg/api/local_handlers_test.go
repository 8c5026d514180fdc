package api

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCachePath(t *testing.T) {
	root := t.TempDir()

	path, err := resolveCachePath(root, "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a.jpg"), path)

	for _, name := range []string{"", ".", "..", "../etc/passwd", `..\x`, "sub/a.jpg"} {
		_, err := resolveCachePath(root, name)
		assert.Error(t, err, "name %q", name)
	}
}

func TestCacheFile(t *testing.T) {
	s, _, _ := newTestServer(t)
	dir := s.cache.Dir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("jpeg"), 0o644))

	rr := do(t, s, http.MethodGet, "/cache/files/a.jpg")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "jpeg", rr.Body.String())

	rr = do(t, s, http.MethodGet, "/cache/files/missing.jpg")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, s, http.MethodGet, "/cache/files/")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
