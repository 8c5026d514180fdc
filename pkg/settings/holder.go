package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dixieflatline76/rngpaper/util/log"
	"github.com/fsnotify/fsnotify"
)

// reloadDelay collapses the burst of events editors produce when saving.
const reloadDelay = 200 * time.Millisecond

// Holder owns the current configuration and hands out copies of it.
type Holder struct {
	mu        sync.RWMutex
	path      string
	snap      Snapshot
	listeners []func(Snapshot)
}

// NewHolder returns a holder for an already loaded snapshot. path may be empty when the
// holder is never reloaded.
func NewHolder(path string, snap Snapshot) *Holder {
	return &Holder{path: path, snap: snap.clone()}
}

// LoadHolder loads the settings file at path and returns a holder for it. The API key falls
// back to the OS keyring.
func LoadHolder(path string) (*Holder, error) {
	snap, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewHolder(path, withStoredAPIKey(snap)), nil
}

// Snapshot returns a copy of the current configuration.
func (h *Holder) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap.clone()
}

// Path returns the settings file path.
func (h *Holder) Path() string {
	return h.path
}

// OnChange registers fn to be called with the new snapshot after each successful replace.
func (h *Holder) OnChange(fn func(Snapshot)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Replace swaps the held snapshot and notifies listeners.
func (h *Holder) Replace(snap Snapshot) {
	h.mu.Lock()
	h.snap = snap.clone()
	listeners := append([]func(Snapshot){}, h.listeners...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(snap.clone())
	}
}

// Reload re-reads the settings file. An invalid file leaves the held snapshot untouched.
func (h *Holder) Reload() error {
	if h.path == "" {
		return nil
	}
	snap, err := Load(h.path)
	if err != nil {
		return err
	}
	h.Replace(withStoredAPIKey(snap))
	return nil
}

// Watch reloads the settings whenever the file changes, until ctx is cancelled. The parent
// directory is watched so editors that replace the file are picked up.
func (h *Holder) Watch(ctx context.Context) error {
	if h.path == "" {
		<-ctx.Done()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		return fmt.Errorf("watch settings dir: %w", err)
	}

	target := filepath.Clean(h.path)
	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(reloadDelay)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Settings watcher error: %v", err)
		case <-timer.C:
			if err := h.Reload(); err != nil {
				log.Printf("Ignoring settings change: %v", err)
				continue
			}
			log.Printf("Settings reloaded from %s", h.path)
		}
	}
}
