package config

import (
	"strings"
	"time"
)

// AppVersion is the version of the application, set at build time with -ldflags.
var AppVersion = "0.1.0"

// AppName is the name of the application.
const AppName = "rngpaper"

// DataSubDir is the per-user directory, relative to the home directory, holding config, cache, history and logs.
var DataSubDir = "." + strings.ToLower(AppName)

// Layout of the data directory.
const (
	ConfigFileName = AppName + ".toml" // ConfigFileName is the settings file name
	ConfigEnvVar   = "RNGPAPER_CONFIG" // ConfigEnvVar overrides the settings file location
	CacheSubDir    = "cache"           // CacheSubDir holds downloaded wallpapers
	HistorySubDir  = "history"         // HistorySubDir holds the change history database
	LogSubDir      = "logs"            // LogSubDir holds the rotated log files of release builds
	LogFileName    = AppName + ".log"  // LogFileName is the current log file
)

// Network defaults.
const (
	UserAgent          = AppName + "/" + "0.1"
	DefaultControlAddr = "127.0.0.1:49453"
	HTTPClientTimeout  = 60 * time.Second
)

// File permissions.
const (
	DirPermissions  = 0o755
	FilePermissions = 0o644
)
