//go:build windows

package main

import "errors"

var errLocked = errors.New("another canvaz apply is already running")

// applyLock is a no-op on Windows, where no backend is available anyway.
type applyLock struct{}

func acquireLock() (*applyLock, error) {
	return &applyLock{}, nil
}

func (l *applyLock) release() {}
