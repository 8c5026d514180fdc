//go:build !linux && !darwin && !windows

package wallpaper

import (
	"fmt"
	"runtime"
)

type unsupportedDesktop struct{}

func getDesktop() Desktop {
	return unsupportedDesktop{}
}

func (unsupportedDesktop) SetWallpaper(string) error {
	return fmt.Errorf("setting the wallpaper is not supported on %s", runtime.GOOS)
}

func (unsupportedDesktop) CurrentWallpaper() (string, error) {
	return "", fmt.Errorf("reading the wallpaper is not supported on %s", runtime.GOOS)
}
