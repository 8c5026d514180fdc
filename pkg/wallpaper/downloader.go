package wallpaper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dixieflatline76/rngpaper/config"
	"github.com/dixieflatline76/rngpaper/pkg/errkind"
	"github.com/dixieflatline76/rngpaper/util/log"
)

// download fetches remoteURL into destPath. The body is written to a temporary file next to
// destPath and renamed into place only after it was fully received.
func (c *CacheStore) download(ctx context.Context, remoteURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", errkind.ErrNetwork, err)
	}

	log.Printf("Downloading %s", remoteURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to download %s: %w", errkind.ErrNetwork, remoteURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: download %s: status %d", errkind.ErrNetwork, remoteURL, resp.StatusCode)
	}

	dir, name := filepath.Split(destPath)
	tmp, err := os.CreateTemp(dir, "."+name+partFileSuffix)
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", errkind.ErrFilesystem, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		return fmt.Errorf("%w: download %s: %w", errkind.ErrNetwork, remoteURL, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %v", errkind.ErrFilesystem, err)
	}
	if err := os.Chmod(tmpPath, config.FilePermissions); err != nil {
		return fmt.Errorf("%w: chmod temp file: %v", errkind.ErrFilesystem, err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("%w: move download into cache: %v", errkind.ErrFilesystem, err)
	}
	committed = true

	log.Printf("Cached %s (%d bytes)", destPath, n)
	return nil
}
