//go:build !linux && !darwin && !windows

package sysinfo

import (
	"fmt"
	"runtime"
)

// ScreenDimensions is not available on this OS.
func ScreenDimensions() (int, int, error) {
	return 0, 0, fmt.Errorf("screen size detection is not supported on %s", runtime.GOOS)
}
