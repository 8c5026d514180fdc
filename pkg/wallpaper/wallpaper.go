// Package wallpaper implements the fetch-select-cache pipeline: it picks a random wallhaven
// result, makes sure the image is in the local cache and hands the local file to the desktop.
package wallpaper

import (
	"context"
	"time"

	"github.com/dixieflatline76/rngpaper/pkg/history"
	"github.com/dixieflatline76/rngpaper/pkg/wallhaven"
)

// Desktop is the OS wallpaper capability.
type Desktop interface {
	SetWallpaper(path string) error
	CurrentWallpaper() (string, error)
}

// NewDesktop returns the desktop capability for the running OS.
func NewDesktop() Desktop {
	return getDesktop()
}

// Searcher fetches one page of search results. *wallhaven.Client implements it.
type Searcher interface {
	Search(ctx context.Context, q wallhaven.Query, page int) (wallhaven.Page, error)
}

// Recorder persists applied changes. *history.Store implements it.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Notifier is told about every applied change.
type Notifier interface {
	WallpaperChanged(r Result)
}

// Result describes one applied wallpaper change.
type Result struct {
	ID        string         `json:"id"`
	At        time.Time      `json:"at"`
	Source    string         `json:"source"`
	Tag       string         `json:"tag"`
	Item      wallhaven.Item `json:"item"`
	LocalPath string         `json:"local_path"`
	Previous  string         `json:"previous,omitempty"`
}

// entry converts the result into a history entry.
func (r Result) entry() history.Entry {
	return history.Entry{
		ID:         r.ID,
		At:         r.At,
		Source:     r.Source,
		Tag:        r.Tag,
		ItemID:     r.Item.ID,
		RemotePath: r.Item.Path,
		ShortURL:   r.Item.ShortURL,
		LocalPath:  r.LocalPath,
		Previous:   r.Previous,
	}
}
