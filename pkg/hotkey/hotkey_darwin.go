//go:build darwin

package hotkey

import (
	"github.com/dixieflatline76/rngpaper/pkg/settings"
	"golang.design/x/hotkey"
)

var modifiers = map[settings.Modifier]hotkey.Modifier{
	settings.ModCtrl:  hotkey.ModCtrl,
	settings.ModShift: hotkey.ModShift,
	settings.ModAlt:   hotkey.ModOption,
	settings.ModSuper: hotkey.ModCmd,
}
