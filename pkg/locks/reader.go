package locks

import (
	"context"
	"time"
)

// ReadFacade presents the shared side of an [RWMutex] through the
// [Lockable] interface, so guards and multi-lock sets can treat a read
// acquisition like any other lock. It shares the underlying lock's ID:
// a multi-lock set containing both a lock and its facade collapses them
// to a single entry, since one caller cannot hold both sides.
type ReadFacade struct {
	rw *RWMutex
}

// Reader returns the shared-side facade of rw.
func (rw *RWMutex) Reader() *ReadFacade {
	return &ReadFacade{rw: rw}
}

func (r *ReadFacade) ID() uint64   { return r.rw.id }
func (r *ReadFacade) Name() string { return r.rw.name }

func (r *ReadFacade) Lock() error                           { return r.rw.RLock() }
func (r *ReadFacade) LockContext(ctx context.Context) error { return r.rw.RLockContext(ctx) }
func (r *ReadFacade) TryLock() bool                         { return r.rw.TryRLock() }
func (r *ReadFacade) TryLockFor(d time.Duration) error      { return r.rw.TryRLockFor(d) }
func (r *ReadFacade) Unlock() error                         { return r.rw.RUnlock() }
func (r *ReadFacade) HeldByCaller() bool                    { return r.rw.ReadHeldByCaller() }
