//go:build !darwin && !windows && !(linux && hotkey_x11)

package hotkey

import (
	"context"
	"fmt"
	"runtime"

	"github.com/dixieflatline76/rngpaper/pkg/settings"
)

// ErrUnsupported is returned when this build has no global hotkey backend.
var ErrUnsupported = unsupported()

func unsupported() error {
	if runtime.GOOS == "linux" {
		return fmt.Errorf("global hotkeys need an X11 build (-tags hotkey_x11)")
	}
	return fmt.Errorf("global hotkeys are not supported on %s", runtime.GOOS)
}

// Listen reports that global hotkeys are unavailable.
func Listen(ctx context.Context, accel settings.Accelerator, action func()) error {
	return ErrUnsupported
}

// Run reports that global hotkeys are unavailable.
func Run(ctx context.Context, h *settings.Holder, action func()) error {
	return Listen(ctx, h.Snapshot().Hotkey, action)
}
