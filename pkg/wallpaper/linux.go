//go:build linux

package wallpaper

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// linuxDesktop sets wallpapers through the tools of the running desktop environment.
type linuxDesktop struct{}

func getDesktop() Desktop {
	return &linuxDesktop{}
}

// desktopEnv returns the lower-cased desktop environment name.
func desktopEnv() string {
	env := os.Getenv("XDG_CURRENT_DESKTOP")
	if env == "" {
		env = os.Getenv("DESKTOP_SESSION")
	}
	return strings.ToLower(env)
}

// SetWallpaper sets the desktop wallpaper, supporting X11 and some Wayland compositors.
func (l *linuxDesktop) SetWallpaper(imagePath string) error {
	env := desktopEnv()
	switch {
	case isGNOMELike(env):
		return l.setWallpaperGNOME(imagePath)
	case strings.Contains(env, "kde"):
		return l.setWallpaperKDE(imagePath)
	case strings.Contains(env, "xfce"):
		return l.setWallpaperXFCE(imagePath)
	case strings.Contains(env, "sway"):
		return l.setWallpaperSway(imagePath)
	default:
		return fmt.Errorf("unsupported desktop environment: %q", env)
	}
}

// CurrentWallpaper returns the wallpaper path where the desktop environment exposes it.
func (l *linuxDesktop) CurrentWallpaper() (string, error) {
	env := desktopEnv()
	switch {
	case isGNOMELike(env):
		out, err := exec.Command("gsettings", "get", "org.gnome.desktop.background", "picture-uri").Output()
		if err != nil {
			return "", fmt.Errorf("gsettings get: %w", err)
		}
		return parseGSettingsURI(string(out))
	case strings.Contains(env, "xfce"):
		out, err := exec.Command("xfconf-query",
			"--channel", "xfce4-desktop",
			"--property", xfceImageProperty).Output()
		if err != nil {
			return "", fmt.Errorf("xfconf-query: %w", err)
		}
		return strings.TrimSpace(string(out)), nil
	default:
		return "", fmt.Errorf("reading the wallpaper is not supported on %q", env)
	}
}

func isGNOMELike(env string) bool {
	for _, name := range []string{"gnome", "unity", "cinnamon", "mutter", "budgie"} {
		if strings.Contains(env, name) {
			return true
		}
	}
	return false
}

func (l *linuxDesktop) setWallpaperGNOME(imagePath string) error {
	uri := (&url.URL{Scheme: "file", Path: imagePath}).String()
	if err := exec.Command("gsettings", "set", "org.gnome.desktop.background", "picture-uri", uri).Run(); err != nil {
		return fmt.Errorf("gsettings set picture-uri: %w", err)
	}
	// Dark-style sessions read picture-uri-dark; older GNOME versions lack the key.
	_ = exec.Command("gsettings", "set", "org.gnome.desktop.background", "picture-uri-dark", uri).Run()
	return nil
}

const kdeScript = `var allDesktops = desktops();
for (var i = 0; i < allDesktops.length; i++) {
	var d = allDesktops[i];
	d.wallpaperPlugin = "org.kde.image";
	d.currentConfigGroup = Array("Wallpaper", "org.kde.image", "General");
	d.writeConfig("Image", %q);
}`

func (l *linuxDesktop) setWallpaperKDE(imagePath string) error {
	script := fmt.Sprintf(kdeScript, (&url.URL{Scheme: "file", Path: imagePath}).String())
	cmd := exec.Command("dbus-send", "--session",
		"--dest=org.kde.plasmashell", "--type=method_call",
		"/PlasmaShell", "org.kde.PlasmaShell.evaluateScript",
		"string:"+script)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("plasmashell evaluateScript: %w", err)
	}
	return nil
}

const xfceImageProperty = "/backdrop/screen0/monitor0/workspace0/last-image"

func (l *linuxDesktop) setWallpaperXFCE(imagePath string) error {
	configFile := filepath.Join(os.Getenv("HOME"), ".config", "xfce4", "xfconf", "xfce-perchannel-xml", "xfce4-desktop.xml")
	if _, err := os.Stat(configFile); err != nil {
		return fmt.Errorf("could not find XFCE desktop configuration file: %w", err)
	}
	cmd := exec.Command("xfconf-query",
		"--channel", "xfce4-desktop",
		"--property", xfceImageProperty,
		"--set", imagePath)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("xfconf-query set: %w", err)
	}
	return nil
}

func (l *linuxDesktop) setWallpaperSway(imagePath string) error {
	if err := exec.Command("swaymsg", "output", "*", "bg", imagePath, "fill").Run(); err != nil {
		return fmt.Errorf("swaymsg bg: %w", err)
	}
	return nil
}

// parseGSettingsURI turns gsettings output such as 'file:///home/me/a.jpg' into a path.
func parseGSettingsURI(out string) (string, error) {
	raw := strings.Trim(strings.TrimSpace(out), `'"`)
	if raw == "" {
		return "", nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse wallpaper URI %q: %w", raw, err)
	}
	if u.Scheme != "" && u.Scheme != "file" {
		return "", fmt.Errorf("unsupported wallpaper URI scheme %q", u.Scheme)
	}
	return u.Path, nil
}
