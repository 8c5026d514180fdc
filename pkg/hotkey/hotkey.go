//go:build (linux && hotkey_x11) || darwin || windows

// Package hotkey turns the configured global shortcut into wallpaper change triggers.
//
// On Linux the X11 backend is only built with the hotkey_x11 tag: the underlying library
// panics at init when no X display can be opened, which would take down every command.
package hotkey

import (
	"context"
	"fmt"
	"time"

	"github.com/dixieflatline76/rngpaper/pkg/settings"
	"github.com/dixieflatline76/rngpaper/util/log"
	"golang.design/x/hotkey"
)

// debounce drops key repeats that arrive this soon after a handled press.
const debounce = 200 * time.Millisecond

var keys = map[string]hotkey.Key{
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD, "e": hotkey.KeyE,
	"f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH, "i": hotkey.KeyI, "j": hotkey.KeyJ,
	"k": hotkey.KeyK, "l": hotkey.KeyL, "m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO,
	"p": hotkey.KeyP, "q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX, "y": hotkey.KeyY,
	"z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3, "4": hotkey.Key4,
	"5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7, "8": hotkey.Key8, "9": hotkey.Key9,
	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
	"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
	"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
	"space":  hotkey.KeySpace,
	"return": hotkey.KeyReturn,
	"escape": hotkey.KeyEscape,
	"tab":    hotkey.KeyTab,
	"delete": hotkey.KeyDelete,
	"left":   hotkey.KeyLeft,
	"right":  hotkey.KeyRight,
	"up":     hotkey.KeyUp,
	"down":   hotkey.KeyDown,
}

// translate maps a parsed accelerator onto the platform's modifiers and key codes.
func translate(accel settings.Accelerator) ([]hotkey.Modifier, hotkey.Key, error) {
	mods := make([]hotkey.Modifier, 0, len(accel.Modifiers))
	for _, m := range accel.Modifiers {
		mod, ok := modifiers[m]
		if !ok {
			return nil, 0, fmt.Errorf("modifier %q is not available on this platform", m)
		}
		mods = append(mods, mod)
	}
	key, ok := keys[accel.Key]
	if !ok {
		return nil, 0, fmt.Errorf("key %q is not available on this platform", accel.Key)
	}
	return mods, key, nil
}

// Listen registers accel and calls action on every key press until ctx is cancelled.
func Listen(ctx context.Context, accel settings.Accelerator, action func()) error {
	mods, key, err := translate(accel)
	if err != nil {
		return fmt.Errorf("hotkey %s: %w", accel, err)
	}

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("failed to register hotkey %s: %w", accel, err)
	}
	log.Printf("Registered hotkey: %s", accel)
	defer func() {
		if err := hk.Unregister(); err != nil {
			log.Printf("Failed to unregister hotkey %s: %v", accel, err)
		}
	}()

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-hk.Keydown():
			if !ok {
				return nil
			}
			if time.Since(last) < debounce {
				continue
			}
			last = time.Now()
			log.Debugf("Hotkey pressed: %s", accel)
			action()
		}
	}
}

// Run listens on the configured hotkey and re-registers it when a settings reload changes it.
func Run(ctx context.Context, h *settings.Holder, action func()) error {
	changed := make(chan struct{}, 1)
	h.OnChange(func(settings.Snapshot) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	for {
		accel := h.Snapshot().Hotkey
		listenCtx, cancel := context.WithCancel(ctx)
		errc := make(chan error, 1)
		go func() { errc <- Listen(listenCtx, accel, action) }()

	wait:
		for {
			select {
			case <-ctx.Done():
				cancel()
				<-errc
				return nil
			case err := <-errc:
				cancel()
				return err
			case <-changed:
				if h.Snapshot().Hotkey.String() == accel.String() {
					continue
				}
				log.Printf("Hotkey changed from %s, re-registering", accel)
				cancel()
				if err := <-errc; err != nil {
					return err
				}
				break wait
			}
		}
	}
}
