package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// resolveCachePath resolves name inside the cache directory and rejects anything that would
// escape it.
func resolveCachePath(root, name string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid cache root: %w", err)
	}
	absRoot = filepath.Clean(absRoot)

	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	absFile := filepath.Clean(filepath.Join(absRoot, name))
	if !strings.HasPrefix(absFile, absRoot+string(os.PathSeparator)) {
		return "", fmt.Errorf("path traversal detected")
	}
	return absFile, nil
}

// handleCacheFile serves one cached wallpaper: /cache/files/{name}.
func (s *Server) handleCacheFile(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/cache/files/")
	path, err := resolveCachePath(s.cache.Dir(), name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "not cached")
		return
	}
	http.ServeFile(w, r, path)
}
