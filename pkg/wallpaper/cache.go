package wallpaper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dixieflatline76/rngpaper/config"
	"github.com/dixieflatline76/rngpaper/pkg/errkind"
	"github.com/dixieflatline76/rngpaper/util/log"
	"golang.org/x/sync/singleflight"
)

// CacheStore keeps downloaded wallpapers in a flat directory keyed by file name. An existing
// file is always a hit; its content is never revalidated.
type CacheStore struct {
	dir        string
	httpClient *http.Client

	// mu is the directory lock: fetches share it, EmptyCache takes it exclusively.
	mu    sync.RWMutex
	group singleflight.Group
}

// CacheEntry describes one cached file.
type CacheEntry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// NewCacheStore returns a store rooted at dir that downloads with httpClient.
func NewCacheStore(dir string, httpClient *http.Client) *CacheStore {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &CacheStore{dir: dir, httpClient: httpClient}
}

// Dir returns the cache directory.
func (c *CacheStore) Dir() string {
	return c.dir
}

// PathFor returns the local path remotePath maps to, whether or not it is cached.
func (c *CacheStore) PathFor(remotePath string) string {
	return filepath.Join(c.dir, FileNameFromURL(remotePath))
}

// ResolveOrFetch returns the local file for remotePath, downloading it first when it is not
// cached. Concurrent calls for the same file share a single download.
func (c *CacheStore) ResolveOrFetch(ctx context.Context, remotePath string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := os.MkdirAll(c.dir, config.DirPermissions); err != nil {
		return "", fmt.Errorf("%w: create cache dir %s: %v", errkind.ErrFilesystem, c.dir, err)
	}

	localPath := c.PathFor(remotePath)
	hit, err := exists(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: stat %s: %v", errkind.ErrFilesystem, localPath, err)
	}
	if hit {
		log.Debugf("Cache hit: %s", localPath)
		return localPath, nil
	}

	_, err, shared := c.group.Do(localPath, func() (any, error) {
		// Another caller may have finished the download between the check and Do.
		if hit, err := exists(localPath); err == nil && hit {
			return nil, nil
		}
		return nil, c.download(ctx, remotePath, localPath)
	})
	if err != nil {
		return "", err
	}
	if shared {
		log.Debugf("Shared download for %s", localPath)
	}
	return localPath, nil
}

// EmptyCache removes the cache directory and everything below it.
func (c *CacheStore) EmptyCache() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(c.dir); err != nil {
		log.Printf("Failed to empty cache %s: %v", c.dir, err)
		return fmt.Errorf("%w: empty cache: %v", errkind.ErrFilesystem, err)
	}
	log.Printf("Cache emptied: %s", c.dir)
	return nil
}

// Entries lists the cached wallpapers, newest first. Fitted derivatives and partial downloads
// are not included.
func (c *CacheStore) Entries() ([]CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read cache dir: %v", errkind.ErrFilesystem, err)
	}

	var entries []CacheEntry
	for _, de := range dirEntries {
		if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, CacheEntry{
			Name:    de.Name(),
			Path:    filepath.Join(c.dir, de.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ModTime.After(entries[j].ModTime)
	})
	return entries, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
