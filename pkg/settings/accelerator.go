package settings

import (
	"fmt"
	"strings"

	"github.com/dixieflatline76/rngpaper/pkg/errkind"
)

// Modifier is a platform-neutral hotkey modifier name.
type Modifier string

// Supported modifiers. Super is the Windows key on Windows and Linux and Command on macOS.
const (
	ModCtrl  Modifier = "ctrl"
	ModShift Modifier = "shift"
	ModAlt   Modifier = "alt"
	ModSuper Modifier = "super"
)

var modifierAliases = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"shift":   ModShift,
	"alt":     ModAlt,
	"option":  ModAlt,
	"opt":     ModAlt,
	"super":   ModSuper,
	"win":     ModSuper,
	"cmd":     ModSuper,
	"command": ModSuper,
	"meta":    ModSuper,
}

var keyAliases = map[string]string{
	"enter":  "return",
	"return": "return",
	"esc":    "escape",
	"escape": "escape",
	"space":  "space",
	"tab":    "tab",
	"del":    "delete",
	"delete": "delete",
	"left":   "left",
	"right":  "right",
	"up":     "up",
	"down":   "down",
}

// Accelerator is a parsed global shortcut such as "ctrl+alt+w".
type Accelerator struct {
	Modifiers []Modifier
	Key       string
}

// String returns the canonical form of the accelerator.
func (a Accelerator) String() string {
	parts := make([]string, 0, len(a.Modifiers)+1)
	for _, m := range a.Modifiers {
		parts = append(parts, string(m))
	}
	return strings.Join(append(parts, a.Key), "+")
}

// ParseAccelerator parses "mod+mod+key". At least one modifier is required and the key must be
// a letter, a digit, F1-F12 or one of the named keys.
func ParseAccelerator(s string) (Accelerator, error) {
	fields := strings.Split(strings.ToLower(strings.ReplaceAll(s, " ", "")), "+")
	if len(fields) < 2 {
		return Accelerator{}, fmt.Errorf("%w: hotkey %q needs at least one modifier and a key", errkind.ErrConfig, s)
	}

	var accel Accelerator
	seen := make(map[Modifier]bool)
	for _, f := range fields[:len(fields)-1] {
		mod, ok := modifierAliases[f]
		if !ok {
			return Accelerator{}, fmt.Errorf("%w: unknown hotkey modifier %q", errkind.ErrConfig, f)
		}
		if seen[mod] {
			return Accelerator{}, fmt.Errorf("%w: duplicate hotkey modifier %q", errkind.ErrConfig, f)
		}
		seen[mod] = true
		accel.Modifiers = append(accel.Modifiers, mod)
	}

	key, err := parseKey(fields[len(fields)-1])
	if err != nil {
		return Accelerator{}, fmt.Errorf("%w: hotkey %q: %v", errkind.ErrConfig, s, err)
	}
	accel.Key = key
	return accel, nil
}

func parseKey(k string) (string, error) {
	if len(k) == 1 && (k[0] >= 'a' && k[0] <= 'z' || k[0] >= '0' && k[0] <= '9') {
		return k, nil
	}
	if named, ok := keyAliases[k]; ok {
		return named, nil
	}
	var n int
	if _, err := fmt.Sscanf(k, "f%d", &n); err == nil && n >= 1 && n <= 12 && k == fmt.Sprintf("f%d", n) {
		return k, nil
	}
	if k == "" {
		return "", fmt.Errorf("missing key")
	}
	return "", fmt.Errorf("unsupported key %q", k)
}
