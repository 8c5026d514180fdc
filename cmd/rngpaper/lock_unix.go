//go:build !windows

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/dixieflatline76/rngpaper/config"
	"github.com/dixieflatline76/rngpaper/util/log"
)

var lockFile *os.File

// acquireLock takes an exclusive fcntl lock on a file in the data directory.
func acquireLock() (bool, error) {
	dir, err := config.DataDir()
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(dir, config.DirPermissions); err != nil {
		return false, fmt.Errorf("failed to create data dir: %w", err)
	}

	file, err := os.OpenFile(filepath.Join(dir, config.AppName+".lock"), os.O_RDWR|os.O_CREATE, config.FilePermissions)
	if err != nil {
		return false, fmt.Errorf("failed to open lock file: %w", err)
	}

	err = syscall.FcntlFlock(file.Fd(), syscall.F_SETLK, &syscall.Flock_t{
		Type:   syscall.F_WRLCK,
		Whence: 0,
		Start:  0,
		Len:    0, // whole file
	})
	if err != nil {
		file.Close()
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EACCES) {
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}

	lockFile = file
	return true, nil
}

// releaseLock releases the single-instance lock.
func releaseLock() {
	if lockFile == nil {
		return
	}
	err := syscall.FcntlFlock(lockFile.Fd(), syscall.F_SETLK, &syscall.Flock_t{
		Type:   syscall.F_UNLCK,
		Whence: 0,
		Start:  0,
		Len:    0,
	})
	if err != nil {
		log.Printf("Failed to release lock: %v", err)
	}
	lockFile.Close()
	lockFile = nil
}
