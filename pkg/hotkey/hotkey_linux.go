//go:build linux && hotkey_x11

package hotkey

import (
	"github.com/dixieflatline76/rngpaper/pkg/settings"
	"golang.design/x/hotkey"
)

// X11 maps Alt to Mod1 and Super to Mod4 on common keyboard layouts.
var modifiers = map[settings.Modifier]hotkey.Modifier{
	settings.ModCtrl:  hotkey.ModCtrl,
	settings.ModShift: hotkey.ModShift,
	settings.ModAlt:   hotkey.Mod1,
	settings.ModSuper: hotkey.Mod4,
}
