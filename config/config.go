package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DataDir returns the per-user data directory (~/.rngpaper).
func DataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(homeDir, DataSubDir), nil
}

// ConfigPath returns the settings file path, honouring RNGPAPER_CONFIG.
func ConfigPath() (string, error) {
	if p := os.Getenv(ConfigEnvVar); p != "" {
		return filepath.Abs(p)
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// CacheDir returns the wallpaper cache directory.
func CacheDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, CacheSubDir), nil
}

// HistoryDir returns the change history database directory.
func HistoryDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, HistorySubDir), nil
}

// LogFile returns the log file used by release builds.
func LogFile() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LogSubDir, LogFileName), nil
}
