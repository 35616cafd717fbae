package locks

import (
	"context"
	"sync"
	"time"

	"scopelock/pkg/goid"
	"scopelock/pkg/lockerr"
)

// rwWaiter is a queued acquisition request. The grant side closes ready
// after recording the grant, so a receiver returning from ready already
// holds the lock.
type rwWaiter struct {
	exclusive bool
	gid       int64
	ready     chan struct{}
}

// RWMutex is a reader/writer lock with holder tracking and a strictly
// FIFO wait queue. The FIFO policy gives writer preference: new readers
// do not overtake a queued writer. Construct with [NewRWMutex].
type RWMutex struct {
	id   uint64
	name string

	mu      sync.Mutex
	writer  int64         // goroutine ID of the exclusive holder, 0 when none
	readers map[int64]int // goroutine ID -> shared hold count
	queue   []*rwWaiter
}

// NewRWMutex creates an unlocked RWMutex.
func NewRWMutex(opts ...Option) *RWMutex {
	id := nextLockID()
	c := buildConfig(defaultName("rwmutex", id), opts)

	return &RWMutex{
		id:      id,
		name:    c.name,
		readers: make(map[int64]int),
	}
}

// ID returns the lock's process-unique identity.
func (rw *RWMutex) ID() uint64 { return rw.id }

// Name returns the lock's label.
func (rw *RWMutex) Name() string { return rw.name }

// Lock acquires the exclusive side, blocking until all readers and any
// earlier-queued waiters are done. A goroutine that already holds rw in
// either mode gets lockerr.ErrDeadlock: exclusive re-lock is a
// self-deadlock, and upgrading a shared hold in place would deadlock
// against the FIFO queue.
func (rw *RWMutex) Lock() error {
	return rw.lockExclusive(context.Background(), "Lock", nil)
}

// LockContext is Lock, abandoned when ctx is done.
func (rw *RWMutex) LockContext(ctx context.Context) error {
	return rw.lockExclusive(ctx, "LockContext", nil)
}

// TryLock acquires the exclusive side only if no one holds rw and no
// waiter is queued.
func (rw *RWMutex) TryLock() bool {
	gid := goid.ID()

	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.writer != 0 || len(rw.readers) > 0 || len(rw.queue) > 0 {
		return false
	}
	rw.writer = gid
	return true
}

// TryLockFor is Lock bounded by a deadline; an expired attempt fails
// with lockerr.ErrTimeout.
func (rw *RWMutex) TryLockFor(d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	return rw.lockExclusive(context.Background(), "TryLockFor", timer.C)
}

// Unlock releases the exclusive side. It fails with lockerr.ErrNotOwned
// when the calling goroutine is not the writer.
func (rw *RWMutex) Unlock() error {
	gid := goid.ID()

	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.writer != gid {
		return lockerr.New("Unlock", rw.name, lockerr.ErrNotOwned)
	}
	rw.writer = 0
	rw.grantLocked()
	return nil
}

// RLock acquires the shared side. Many goroutines may hold it at once;
// it blocks while a writer holds rw or is queued ahead.
func (rw *RWMutex) RLock() error {
	return rw.lockShared(context.Background(), "RLock", nil)
}

// RLockContext is RLock, abandoned when ctx is done.
func (rw *RWMutex) RLockContext(ctx context.Context) error {
	return rw.lockShared(ctx, "RLockContext", nil)
}

// TryRLock acquires the shared side only if that cannot block.
func (rw *RWMutex) TryRLock() bool {
	gid := goid.ID()

	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.writer != 0 || len(rw.queue) > 0 {
		return false
	}
	rw.readers[gid]++
	return true
}

// TryRLockFor is RLock bounded by a deadline; an expired attempt fails
// with lockerr.ErrTimeout.
func (rw *RWMutex) TryRLockFor(d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	return rw.lockShared(context.Background(), "TryRLockFor", timer.C)
}

// RUnlock releases one shared hold. It fails with lockerr.ErrNotOwned
// when the calling goroutine holds no shared lock on rw.
func (rw *RWMutex) RUnlock() error {
	gid := goid.ID()

	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.readers[gid] == 0 {
		return lockerr.New("RUnlock", rw.name, lockerr.ErrNotOwned)
	}
	rw.readers[gid]--
	if rw.readers[gid] == 0 {
		delete(rw.readers, gid)
	}
	if len(rw.readers) == 0 {
		rw.grantLocked()
	}
	return nil
}

// HeldByCaller reports whether the calling goroutine holds the
// exclusive side.
func (rw *RWMutex) HeldByCaller() bool {
	gid := goid.ID()
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.writer == gid
}

// ReadHeldByCaller reports whether the calling goroutine holds at least
// one shared lock on rw.
func (rw *RWMutex) ReadHeldByCaller() bool {
	gid := goid.ID()
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.readers[gid] > 0
}

// ReaderCount returns the number of goroutines currently holding the
// shared side. For tests and introspection; stale by the time it returns.
func (rw *RWMutex) ReaderCount() int {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return len(rw.readers)
}

// lockExclusive implements the blocking exclusive acquisition paths.
// timeout, when non-nil, expires the attempt with ErrTimeout.
func (rw *RWMutex) lockExclusive(ctx context.Context, op string, timeout <-chan time.Time) error {
	gid := goid.ID()

	rw.mu.Lock()
	if rw.writer == gid || rw.readers[gid] > 0 {
		rw.mu.Unlock()
		return lockerr.New(op, rw.name, lockerr.ErrDeadlock)
	}
	if rw.writer == 0 && len(rw.readers) == 0 && len(rw.queue) == 0 {
		rw.writer = gid
		rw.mu.Unlock()
		return nil
	}

	w := &rwWaiter{exclusive: true, gid: gid, ready: make(chan struct{})}
	rw.queue = append(rw.queue, w)
	rw.mu.Unlock()

	return rw.await(ctx, op, w, timeout)
}

// lockShared implements the blocking shared acquisition paths.
func (rw *RWMutex) lockShared(ctx context.Context, op string, timeout <-chan time.Time) error {
	gid := goid.ID()

	rw.mu.Lock()
	if rw.writer == gid {
		rw.mu.Unlock()
		return lockerr.New(op, rw.name, lockerr.ErrDeadlock)
	}
	if rw.readers[gid] > 0 {
		if len(rw.queue) > 0 {
			// Recursive read lock behind a queued writer would wait
			// on ourselves releasing. Refuse instead of hanging.
			rw.mu.Unlock()
			return lockerr.New(op, rw.name, lockerr.ErrDeadlock)
		}
		rw.readers[gid]++
		rw.mu.Unlock()
		return nil
	}
	if rw.writer == 0 && len(rw.queue) == 0 {
		rw.readers[gid]++
		rw.mu.Unlock()
		return nil
	}

	w := &rwWaiter{exclusive: false, gid: gid, ready: make(chan struct{})}
	rw.queue = append(rw.queue, w)
	rw.mu.Unlock()

	return rw.await(ctx, op, w, timeout)
}

// await parks a queued waiter until it is granted, the context is done,
// or the timeout fires. A grant that races with cancellation is undone
// so the lock is never leaked.
func (rw *RWMutex) await(ctx context.Context, op string, w *rwWaiter, timeout <-chan time.Time) error {
	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		return rw.abandon(op, w, ctx.Err())
	case <-timeout:
		return rw.abandon(op, w, lockerr.ErrTimeout)
	}
}

func (rw *RWMutex) abandon(op string, w *rwWaiter, cause error) error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	select {
	case <-w.ready:
		// Granted before we could withdraw; give the grant back.
		if w.exclusive {
			rw.writer = 0
		} else {
			rw.readers[w.gid]--
			if rw.readers[w.gid] == 0 {
				delete(rw.readers, w.gid)
			}
		}
		rw.grantLocked()
	default:
		rw.removeWaiterLocked(w)
	}
	return lockerr.New(op, rw.name, cause)
}

func (rw *RWMutex) removeWaiterLocked(w *rwWaiter) {
	for i, q := range rw.queue {
		if q == w {
			rw.queue = append(rw.queue[:i], rw.queue[i+1:]...)
			break
		}
	}
	// Removing a queued writer may unblock the readers behind it.
	rw.grantLocked()
}

// grantLocked hands the lock to the longest-waiting compatible waiters.
// A writer at the head is granted alone once the lock is free; a run of
// readers at the head is granted together. Called with rw.mu held.
func (rw *RWMutex) grantLocked() {
	if rw.writer != 0 {
		return
	}
	for len(rw.queue) > 0 {
		head := rw.queue[0]
		if head.exclusive {
			if len(rw.readers) > 0 {
				return
			}
			rw.writer = head.gid
			rw.queue = rw.queue[1:]
			close(head.ready)
			return
		}
		rw.readers[head.gid]++
		rw.queue = rw.queue[1:]
		close(head.ready)
	}
}
