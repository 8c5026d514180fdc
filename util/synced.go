package util

import "sync/atomic"

// SafeCounter is safe to use concurrently.
type SafeCounter struct {
	value atomic.Int64
}

// NewSafeInt creates a new SafeCounter.
func NewSafeInt() *SafeCounter {
	return &SafeCounter{}
}

// Increment increments the counter's value and returns the new value.
func (sc *SafeCounter) Increment() int {
	return int(sc.value.Add(1))
}

// Decrement decrements the counter's value and returns the new value.
func (sc *SafeCounter) Decrement() int {
	return int(sc.value.Add(-1))
}

// Value returns the current value of the counter.
func (sc *SafeCounter) Value() int {
	return int(sc.value.Load())
}
