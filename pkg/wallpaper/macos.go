//go:build darwin

package wallpaper

import (
	"fmt"
	"os/exec"
	"strings"
)

// macOSDesktop sets wallpapers through AppleScript.
type macOSDesktop struct{}

func getDesktop() Desktop {
	return &macOSDesktop{}
}

// SetWallpaper sets the picture of every desktop.
func (m *macOSDesktop) SetWallpaper(imagePath string) error {
	script := fmt.Sprintf(`tell application "System Events" to tell every desktop to set picture to %s`, appleScriptString(imagePath))
	if err := exec.Command("osascript", "-e", script).Run(); err != nil {
		return fmt.Errorf("failed to set wallpaper: %w", err)
	}
	return nil
}

// CurrentWallpaper returns the picture of the current desktop.
func (m *macOSDesktop) CurrentWallpaper() (string, error) {
	out, err := exec.Command("osascript", "-e", `tell application "System Events" to get picture of current desktop`).Output()
	if err != nil {
		return "", fmt.Errorf("failed to read wallpaper: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// appleScriptString quotes s as an AppleScript string literal.
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
