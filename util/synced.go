// Package util holds small concurrency helpers shared by the worker packages.
package util

import "sync/atomic"

// SafeCounter is an int counter safe to use concurrently.
type SafeCounter struct {
	value atomic.Int64
}

// NewSafeCounter creates a counter starting at zero.
func NewSafeCounter() *SafeCounter {
	return &SafeCounter{}
}

// Increment adds one and returns the new value.
func (c *SafeCounter) Increment() int {
	return int(c.value.Add(1))
}

// Add adds delta and returns the new value.
func (c *SafeCounter) Add(delta int) int {
	return int(c.value.Add(int64(delta)))
}

// Value returns the current value.
func (c *SafeCounter) Value() int {
	return int(c.value.Load())
}

// SafeFlag is a boolean safe to use concurrently. Scans use it as their
// cancellation token.
type SafeFlag struct {
	value atomic.Bool
}

// NewSafeFlag creates a cleared flag.
func NewSafeFlag() *SafeFlag {
	return &SafeFlag{}
}

// Set stores v.
func (f *SafeFlag) Set(v bool) {
	f.value.Store(v)
}

// Raise sets the flag and reports whether this call was the one that set it.
func (f *SafeFlag) Raise() bool {
	return f.value.CompareAndSwap(false, true)
}

// Value reports whether the flag is set.
func (f *SafeFlag) Value() bool {
	return f.value.Load()
}
