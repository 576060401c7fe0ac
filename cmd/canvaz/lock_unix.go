//go:build !windows

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dixieflatline76/Canvaz/config"
	"golang.org/x/sys/unix"
)

// errLocked is returned when another instance holds the apply lock.
var errLocked = errors.New("another canvaz apply is already running")

// applyLock is an exclusive lock on a file in the temp directory.
type applyLock struct {
	file *os.File
}

// acquireLock tries to take the apply lock without blocking.
func acquireLock() (*applyLock, error) {
	lockFilePath := filepath.Join(os.TempDir(), config.LockName)
	file, err := os.OpenFile(lockFilePath, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	err = unix.FcntlFlock(file.Fd(), unix.F_SETLK, &unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: 0,
		Start:  0,
		Len:    0, // Lock the entire file
	})
	if err != nil {
		file.Close()
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EACCES) {
			return nil, errLocked
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return &applyLock{file: file}, nil
}

// release drops the lock and closes the file. The file itself stays.
func (l *applyLock) release() {
	if l == nil || l.file == nil {
		return
	}
	unix.FcntlFlock(l.file.Fd(), unix.F_SETLK, &unix.Flock_t{
		Type:   unix.F_UNLCK,
		Whence: 0,
		Start:  0,
		Len:    0,
	})
	l.file.Close()
	l.file = nil
}
