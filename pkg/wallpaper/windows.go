//go:build windows

package wallpaper

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	systemParametersInfo = user32.NewProc("SystemParametersInfoW")
)

// SystemParametersInfo actions and flags.
const (
	spiGetDeskWallpaper = 0x0073
	spiSetDeskWallpaper = 0x0014
	spifUpdateIniFile   = 0x01
	spifSendChange      = 0x02
)

// windowsDesktop sets wallpapers through SystemParametersInfoW.
type windowsDesktop struct{}

func getDesktop() Desktop {
	return &windowsDesktop{}
}

// SetWallpaper sets the wallpaper to the given image file path.
func (w *windowsDesktop) SetWallpaper(imagePath string) error {
	imagePathUTF16, err := windows.UTF16PtrFromString(imagePath)
	if err != nil {
		return err
	}

	ret, _, err := systemParametersInfo.Call(
		uintptr(spiSetDeskWallpaper),
		uintptr(0),
		uintptr(unsafe.Pointer(imagePathUTF16)),
		uintptr(spifUpdateIniFile|spifSendChange),
	)
	if ret == 0 {
		return fmt.Errorf("SystemParametersInfoW(SPI_SETDESKWALLPAPER): %w", err)
	}
	return nil
}

// CurrentWallpaper returns the path of the current wallpaper.
func (w *windowsDesktop) CurrentWallpaper() (string, error) {
	buf := make([]uint16, windows.MAX_LONG_PATH)
	ret, _, err := systemParametersInfo.Call(
		uintptr(spiGetDeskWallpaper),
		uintptr(len(buf)),
		uintptr(unsafe.Pointer(&buf[0])),
		0,
	)
	if ret == 0 {
		return "", fmt.Errorf("SystemParametersInfoW(SPI_GETDESKWALLPAPER): %w", err)
	}
	return windows.UTF16ToString(buf), nil
}
