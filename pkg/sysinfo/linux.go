//go:build linux

package sysinfo

import (
	"fmt"
	"os/exec"
	"strings"
)

// ScreenDimensions returns the X screen size reported by xdpyinfo.
func ScreenDimensions() (int, int, error) {
	out, err := exec.Command("xdpyinfo").Output()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get screen resolution: %w", err)
	}
	return parseXdpyinfo(string(out))
}

// parseXdpyinfo finds "dimensions:    1920x1080 pixels (508x285 millimeters)".
func parseXdpyinfo(out string) (int, int, error) {
	for _, line := range strings.Split(out, "\n") {
		if _, rest, ok := strings.Cut(line, "dimensions:"); ok {
			return parseResolutionString(rest)
		}
	}
	return 0, 0, fmt.Errorf("no dimensions line in xdpyinfo output")
}
