// Package errkind holds the error kinds shared across rngpaper.
//
// Callers wrap one of these sentinels with fmt.Errorf and classify with errors.Is.
package errkind

import "errors"

var (
	// ErrNetwork covers transport failures, timeouts and unexpected HTTP status codes.
	ErrNetwork = errors.New("network error")
	// ErrDecode is returned when a response body does not match the expected schema.
	ErrDecode = errors.New("decode error")
	// ErrExhausted is returned when selection finds no page or no item to use.
	ErrExhausted = errors.New("no wallpaper available")
	// ErrFilesystem covers cache directory and file I/O failures.
	ErrFilesystem = errors.New("filesystem error")
	// ErrConfig is returned for missing or invalid configuration values.
	ErrConfig = errors.New("config error")
)
