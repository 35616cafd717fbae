// Package cond provides a condition variable layered on scopelock locks.
//
// Unlike sync.Cond, [Cond.Wait] takes the guard that owns the bound lock
// and reports misuse (waiting without the lock, waiting with the wrong
// lock) as errors instead of corrupting state. Waiters are woken in FIFO
// order. As with every condition variable, spurious wakeups are
// permitted: Wait returning nil guarantees only that the lock is held
// again, never that the caller's predicate holds, so callers loop:
//
//	for !ready {
//	    if err := c.Wait(g); err != nil {
//	        return err
//	    }
//	}
package cond

import (
	"context"
	"sync"

	"scopelock/pkg/guard"
	"scopelock/pkg/lockerr"
	"scopelock/pkg/locks"
)

// Cond is a wait/notify point bound to one exclusive lock.
type Cond struct {
	lock locks.Lockable

	mu      sync.Mutex
	waiters []chan struct{} // FIFO; a closed channel is a delivered wakeup
}

// New creates a Cond bound to l. Waiters must hold l via the guard they
// pass to Wait.
func New(l locks.Lockable) *Cond {
	return &Cond{lock: l}
}

// Wait atomically releases the bound lock and suspends the calling
// goroutine until a notification arrives, then re-acquires the lock
// before returning. The waiter is enqueued before the lock is released,
// which closes the window where a notification sent between release and
// suspension would be lost.
//
// The guard must own the bound lock; otherwise Wait fails with
// lockerr.ErrNotOwned before touching any state.
func (c *Cond) Wait(g *guard.Guard) error {
	return c.wait(context.Background(), g)
}

// WaitContext is Wait, abandoned when ctx is done. On cancellation the
// bound lock is re-acquired before returning, so the caller's deferred
// release remains correct on every path. A notification that raced with
// the cancellation is passed on to the next waiter rather than dropped.
func (c *Cond) WaitContext(ctx context.Context, g *guard.Guard) error {
	return c.wait(ctx, g)
}

func (c *Cond) wait(ctx context.Context, g *guard.Guard) error {
	if err := c.checkGuard(g); err != nil {
		return err
	}

	ch := make(chan struct{})
	c.mu.Lock()
	c.waiters = append(c.waiters, ch)
	c.mu.Unlock()

	if err := g.Unlock(); err != nil {
		c.withdraw(ch)
		return err
	}

	var cause error
	select {
	case <-ch:
	case <-ctx.Done():
		if !c.withdraw(ch) {
			// A notification landed between cancellation and
			// withdrawal; hand it to the next waiter so it is not
			// lost.
			c.Signal()
		}
		cause = lockerr.New("Wait", c.lock.Name(), ctx.Err())
	}

	if err := g.Lock(); err != nil {
		return err
	}
	return cause
}

// Signal wakes the longest-waiting goroutine, if any. The caller does
// not need to hold the bound lock.
func (c *Cond) Signal() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.waiters) == 0 {
		return
	}
	ch := c.waiters[0]
	c.waiters = c.waiters[1:]
	close(ch)
}

// Broadcast wakes every current waiter.
func (c *Cond) Broadcast() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ch := range c.waiters {
		close(ch)
	}
	c.waiters = nil
}

// Waiters returns the number of goroutines currently parked in Wait.
// For tests and introspection.
func (c *Cond) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

func (c *Cond) checkGuard(g *guard.Guard) error {
	if !g.Owns() || g.Lockable().ID() != c.lock.ID() {
		return lockerr.New("Wait", c.lock.Name(), lockerr.ErrNotOwned)
	}
	return nil
}

// withdraw removes ch from the wait queue, reporting whether it was
// still queued. false means a wakeup was already delivered to ch.
func (c *Cond) withdraw(ch chan struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, w := range c.waiters {
		if w == ch {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return true
		}
	}
	return false
}
