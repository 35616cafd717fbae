// Package scopelock re-exports the most used pieces of the library so
// simple callers need a single import. The subpackages remain the real
// API surface:
//
//   - pkg/locks     — Mutex and RWMutex with holder tracking
//   - pkg/guard     — scope-bound acquisition (RAII-style guards)
//   - pkg/multilock — deadlock-free multi-lock acquisition
//   - pkg/cond      — condition variable with FIFO wakeups
//   - pkg/lockgroup — keyed shared/exclusive lock manager with
//     waits-for deadlock detection
//   - pkg/lockerr   — the shared error sentinels
//   - pkg/instrument, pkg/logging — opt-in contention tracing
package scopelock

import (
	"scopelock/pkg/guard"
	"scopelock/pkg/lockerr"
	"scopelock/pkg/locks"
)

// Mutex is an alias for locks.Mutex.
type Mutex = locks.Mutex

// RWMutex is an alias for locks.RWMutex.
type RWMutex = locks.RWMutex

// Guard is an alias for guard.Guard.
type Guard = guard.Guard

// NewMutex creates an unlocked mutex.
func NewMutex(opts ...locks.Option) *Mutex {
	return locks.NewMutex(opts...)
}

// NewRWMutex creates an unlocked reader/writer mutex.
func NewRWMutex(opts ...locks.Option) *RWMutex {
	return locks.NewRWMutex(opts...)
}

// Locked acquires l, runs fn, and releases l on every exit path.
func Locked(l locks.Lockable, fn func()) error {
	return guard.Do(l, fn)
}

// Error sentinels, re-exported for callers that never import
// pkg/lockerr directly.
var (
	ErrNotOwned      = lockerr.ErrNotOwned
	ErrAlreadyOwning = lockerr.ErrAlreadyOwning
	ErrDeadlock      = lockerr.ErrDeadlock
	ErrTimeout       = lockerr.ErrTimeout
)
