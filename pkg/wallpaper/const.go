package wallpaper

import "time"

// Cache layout
const (
	FallbackFileName = "wallpaper" // FallbackFileName is used when a URL has no usable last path segment
	FittedImgDir     = "fitted"    // FittedImgDir holds fitted derivatives, one subdirectory per resolution
	partFileSuffix   = ".part-*"
)

// Selector defaults
const (
	DefaultMaxRetries = 5                      // DefaultMaxRetries caps page-1 refetches while the server reports zero pages
	EmptyPagesBackoff = 250 * time.Millisecond // EmptyPagesBackoff is the wait between those fetches
)

// Changer defaults
const (
	DefaultWorkers       = 2
	DefaultChangeTimeout = 2 * time.Minute
	jobQueueSize         = 16
)

// Trigger sources
const (
	SourceHotkey = "hotkey"
	SourceTimer  = "timer"
	SourceAPI    = "api"
	SourceCLI    = "cli"
	SourceStart  = "startup"
)
