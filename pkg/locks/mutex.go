package locks

import (
	"context"
	"sync"
	"time"

	"scopelock/pkg/goid"
	"scopelock/pkg/lockerr"
)

// Mutex is a non-reentrant mutual-exclusion lock with holder tracking.
// At most one goroutine holds it at a time; the zero value is not usable,
// construct with [NewMutex].
type Mutex struct {
	id   uint64
	name string

	// sem carries the single acquisition token. Receiving the token
	// acquires the lock; sending it back releases.
	sem chan struct{}

	mu     sync.Mutex
	holder int64 // goroutine ID of the current holder, 0 when free
}

// NewMutex creates an unlocked Mutex.
func NewMutex(opts ...Option) *Mutex {
	id := nextLockID()
	c := buildConfig(defaultName("mutex", id), opts)

	m := &Mutex{
		id:   id,
		name: c.name,
		sem:  make(chan struct{}, 1),
	}
	m.sem <- struct{}{}
	return m
}

// ID returns the lock's process-unique identity.
func (m *Mutex) ID() uint64 { return m.id }

// Name returns the lock's label.
func (m *Mutex) Name() string { return m.name }

// Lock blocks until the mutex is acquired. A goroutine that already
// holds m gets lockerr.ErrDeadlock immediately rather than hanging.
func (m *Mutex) Lock() error {
	gid := goid.ID()
	if err := m.checkSelfRelock("Lock", gid); err != nil {
		return err
	}

	<-m.sem
	m.setHolder(gid)
	return nil
}

// LockContext is Lock, abandoned when ctx is done.
func (m *Mutex) LockContext(ctx context.Context) error {
	gid := goid.ID()
	if err := m.checkSelfRelock("LockContext", gid); err != nil {
		return err
	}

	select {
	case <-m.sem:
		m.setHolder(gid)
		return nil
	case <-ctx.Done():
		return lockerr.New("LockContext", m.name, ctx.Err())
	}
}

// TryLock acquires the mutex without blocking and reports whether it did.
// Trying a mutex the caller already holds returns false and leaves the
// holder unchanged.
func (m *Mutex) TryLock() bool {
	select {
	case <-m.sem:
		m.setHolder(goid.ID())
		return true
	default:
		return false
	}
}

// TryLockFor blocks for at most d. An expired attempt fails with
// lockerr.ErrTimeout.
func (m *Mutex) TryLockFor(d time.Duration) error {
	gid := goid.ID()
	if err := m.checkSelfRelock("TryLockFor", gid); err != nil {
		return err
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-m.sem:
		m.setHolder(gid)
		return nil
	case <-timer.C:
		return lockerr.New("TryLockFor", m.name, lockerr.ErrTimeout)
	}
}

// Unlock releases the mutex. It fails with lockerr.ErrNotOwned when the
// calling goroutine is not the holder; the failure must not be ignored,
// since it means the caller's idea of lock ownership is already wrong.
func (m *Mutex) Unlock() error {
	gid := goid.ID()

	m.mu.Lock()
	if m.holder != gid {
		m.mu.Unlock()
		return lockerr.New("Unlock", m.name, lockerr.ErrNotOwned)
	}
	m.holder = 0
	m.mu.Unlock()

	m.sem <- struct{}{}
	return nil
}

// HeldByCaller reports whether the calling goroutine holds m.
func (m *Mutex) HeldByCaller() bool {
	gid := goid.ID()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holder == gid
}

// Held reports whether any goroutine holds m. The answer can be stale by
// the time the caller acts on it; it exists for tests and introspection.
func (m *Mutex) Held() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holder != 0
}

func (m *Mutex) checkSelfRelock(op string, gid int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.holder == gid {
		return lockerr.New(op, m.name, lockerr.ErrDeadlock)
	}
	return nil
}

func (m *Mutex) setHolder(gid int64) {
	m.mu.Lock()
	m.holder = gid
	m.mu.Unlock()
}
