// Package guard binds a lock acquisition to a lexical scope.
//
// A [Guard] owns at most one acquisition on a [locks.Lockable]. Arm it
// with one of four policies, then defer [Guard.Close]: whatever path the
// scope exits through — normal return, early return, or a panic
// unwinding past the defer — an owned acquisition is released exactly
// once.
//
//	g, err := guard.New(mu, guard.Immediate)
//	if err != nil {
//	    return err
//	}
//	defer g.Close()
//	// critical section; g.Unlock()/g.Lock() may be used to open
//	// windows inside the scope
//
// A Guard is used by a single goroutine within a single scope; it is not
// safe for concurrent use and must not be copied after first use.
package guard

import (
	"context"
	"time"

	"scopelock/pkg/lockerr"
	"scopelock/pkg/locks"
)

// Policy selects how a new Guard treats its lock at construction.
type Policy int

const (
	// Immediate acquires the lock in New, blocking if needed.
	Immediate Policy = iota

	// Deferred constructs the guard without acquiring; call
	// [Guard.Lock] or [Guard.TryLock] later.
	Deferred

	// Try attempts a non-blocking acquire in New; check [Guard.Owns]
	// before touching the protected resource.
	Try

	// Adopt takes over an acquisition the calling goroutine already
	// holds. The guard becomes responsible for releasing it, without
	// re-acquiring. Adopting a lock the caller does not actually hold
	// fails with lockerr.ErrNotOwned.
	Adopt
)

type guardState int

const (
	notOwning guardState = iota
	owning
	released // terminal: Close or Release was called
)

// Guard scopes one acquisition on one lock. The zero value is useless;
// construct with [New] or [NewContext].
type Guard struct {
	noCopy noCopy

	lock  locks.Lockable
	state guardState
}

// New constructs a guard over l armed per the policy. With Immediate the
// call blocks until the lock is acquired; an acquisition failure returns
// a nil guard. With Try the guard is always returned — inspect
// [Guard.Owns] for the outcome.
func New(l locks.Lockable, p Policy) (*Guard, error) {
	g := &Guard{lock: l}

	switch p {
	case Immediate:
		if err := l.Lock(); err != nil {
			return nil, err
		}
		g.state = owning
	case Deferred:
		// armed later
	case Try:
		if l.TryLock() {
			g.state = owning
		}
	case Adopt:
		if !l.HeldByCaller() {
			return nil, lockerr.New("Adopt", l.Name(), lockerr.ErrNotOwned)
		}
		g.state = owning
	default:
		return nil, lockerr.New("New", l.Name(), lockerr.ErrNotOwned)
	}
	return g, nil
}

// NewContext is New with the Immediate policy, abandoned when ctx is
// done.
func NewContext(ctx context.Context, l locks.Lockable) (*Guard, error) {
	if err := l.LockContext(ctx); err != nil {
		return nil, err
	}
	return &Guard{lock: l, state: owning}, nil
}

// Lockable returns the lock the guard scopes, whether or not the guard
// currently owns it.
func (g *Guard) Lockable() locks.Lockable {
	return g.lock
}

// Owns reports whether the guard currently holds its lock.
func (g *Guard) Owns() bool {
	return g.state == owning
}

// Lock acquires the guard's lock. It fails with lockerr.ErrAlreadyOwning
// if the guard already owns it, and with lockerr.ErrNotOwned if the
// guard was already closed.
func (g *Guard) Lock() error {
	if err := g.checkArmable("Lock"); err != nil {
		return err
	}
	if err := g.lock.Lock(); err != nil {
		return err
	}
	g.state = owning
	return nil
}

// LockContext is Lock, abandoned when ctx is done.
func (g *Guard) LockContext(ctx context.Context) error {
	if err := g.checkArmable("LockContext"); err != nil {
		return err
	}
	if err := g.lock.LockContext(ctx); err != nil {
		return err
	}
	g.state = owning
	return nil
}

// TryLock attempts a non-blocking acquire and reports whether the guard
// now owns the lock. A guard that already owns, or was closed, reports
// false.
func (g *Guard) TryLock() bool {
	if g.state != notOwning {
		return false
	}
	if !g.lock.TryLock() {
		return false
	}
	g.state = owning
	return true
}

// TryLockFor is Lock bounded by a deadline.
func (g *Guard) TryLockFor(d time.Duration) error {
	if err := g.checkArmable("TryLockFor"); err != nil {
		return err
	}
	if err := g.lock.TryLockFor(d); err != nil {
		return err
	}
	g.state = owning
	return nil
}

// Unlock releases the lock while keeping the guard usable: a later Lock
// on the same guard re-arms it. It fails with lockerr.ErrNotOwned if the
// guard does not own the lock.
func (g *Guard) Unlock() error {
	if g.state != owning {
		return lockerr.New("Unlock", g.lock.Name(), lockerr.ErrNotOwned)
	}
	if err := g.lock.Unlock(); err != nil {
		return err
	}
	g.state = notOwning
	return nil
}

// Close releases the lock if the guard owns it and retires the guard.
// Closing an already-closed or non-owning guard is a no-op, which makes
// Close safe to defer unconditionally. The release error, if any, is
// returned and must not be discarded silently — a failed release means
// the ownership bookkeeping is already corrupt.
func (g *Guard) Close() error {
	if g.state != owning {
		g.state = released
		return nil
	}
	g.state = released
	return g.lock.Unlock()
}

// Release detaches the acquisition from the guard without unlocking and
// retires the guard, returning the lock so another guard can Adopt it.
// Release on a non-owning guard returns nil.
func (g *Guard) Release() locks.Lockable {
	if g.state != owning {
		g.state = released
		return nil
	}
	g.state = released
	return g.lock
}

func (g *Guard) checkArmable(op string) error {
	switch g.state {
	case owning:
		return lockerr.New(op, g.lock.Name(), lockerr.ErrAlreadyOwning)
	case released:
		return lockerr.New(op, g.lock.Name(), lockerr.ErrNotOwned)
	}
	return nil
}

// Do runs fn while holding l. The lock is released on every exit path,
// including a panic in fn; in that case the panic resumes after the
// release. A release failure is returned (it cannot be swallowed).
func Do(l locks.Lockable, fn func()) (err error) {
	if err := l.Lock(); err != nil {
		return err
	}
	defer func() {
		uerr := l.Unlock()
		if err == nil {
			err = uerr
		}
	}()
	fn()
	return nil
}

// noCopy triggers go vet's copylocks check when a Guard is copied.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
