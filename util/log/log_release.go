//go:build release

package log

import (
	"log"

	"github.com/dixieflatline76/rngpaper/config"
)

func init() {
	path, err := config.LogFile()
	if err != nil {
		log.Fatalf("Failed to resolve log file: %v", err)
	}
	w, err := newRotatingWriter(path)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	log.SetOutput(w)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
}

// Debug is a no-op in release builds
func Debug(v ...interface{}) {}

// Debugf is a no-op in release builds
func Debugf(format string, v ...interface{}) {}
