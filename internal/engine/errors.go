package engine

import "errors"

// ErrReentrancyTimeout is returned when a non-reentrant activation's
// 1-permit semaphore could not be acquired within the configured timeout.
var ErrReentrancyTimeout = errors.New("engine: reentrancy semaphore acquire timed out")

// ErrHandlerPanic wraps a recovered handler panic so it surfaces as an
// ordinary failed future instead of taking down a shard goroutine.
var ErrHandlerPanic = errors.New("engine: handler panicked")
