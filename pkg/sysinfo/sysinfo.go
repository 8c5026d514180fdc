// Package sysinfo detects the primary screen size, used when wallpapers are fitted to the screen.
package sysinfo

import (
	"fmt"
	"regexp"
	"strconv"
)

// resolutionRegex matches strings like "3456 x 2234", "1920x1080 pixels" or "1710 x 1107 @ 60.00Hz".
var resolutionRegex = regexp.MustCompile(`(\d+)\s*x\s*(\d+)`)

func parseResolutionString(s string) (int, int, error) {
	matches := resolutionRegex.FindStringSubmatch(s)
	if len(matches) < 3 {
		return 0, 0, fmt.Errorf("failed to parse resolution from string: %q", s)
	}
	width, _ := strconv.Atoi(matches[1])
	height, _ := strconv.Atoi(matches[2])
	if width == 0 || height == 0 {
		return 0, 0, fmt.Errorf("empty resolution %dx%d", width, height)
	}
	return width, height, nil
}
