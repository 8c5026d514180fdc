package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dixieflatline76/rngpaper/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newRotatingWriter returns a size-rotated log file at path, creating its directory.
func newRotatingWriter(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), config.DirPermissions); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 2,
		MaxAge:     28, // days
		Compress:   true,
	}, nil
}
