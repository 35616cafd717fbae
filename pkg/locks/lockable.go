package locks

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Lockable is the exclusive-acquisition surface shared by [Mutex],
// [RWMutex] and the read facade returned by [RWMutex.Reader]. It is the
// contract pkg/guard, pkg/multilock and pkg/instrument build on.
type Lockable interface {
	// ID returns the process-unique identity of the underlying lock.
	// A lock and its read facade share one ID.
	ID() uint64

	// Name returns the human-readable label used in errors and logs.
	Name() string

	// Lock blocks until the lock is acquired. It fails with
	// lockerr.ErrDeadlock if the calling goroutine already holds the
	// underlying lock.
	Lock() error

	// LockContext is Lock, abandoned when ctx is done.
	LockContext(ctx context.Context) error

	// TryLock acquires the lock only if that is possible without
	// blocking and reports whether it did.
	TryLock() bool

	// TryLockFor is Lock bounded by a deadline; an expired attempt
	// fails with lockerr.ErrTimeout.
	TryLockFor(d time.Duration) error

	// Unlock releases the lock. It fails with lockerr.ErrNotOwned if
	// the calling goroutine does not hold it.
	Unlock() error

	// HeldByCaller reports whether the calling goroutine currently
	// holds the acquisition this Lockable grants.
	HeldByCaller() bool
}

var lockCounter uint64

// nextLockID hands out identities for the multi-lock total order.
func nextLockID() uint64 {
	return atomic.AddUint64(&lockCounter, 1)
}

type config struct {
	name string
}

// Option customizes a lock at construction time.
type Option func(*config)

// WithName sets the label the lock uses in errors and instrumentation.
// The default is "mutex-<id>" or "rwmutex-<id>".
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

func buildConfig(defaultName string, opts []Option) config {
	c := config{name: defaultName}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func defaultName(kind string, id uint64) string {
	return fmt.Sprintf("%s-%d", kind, id)
}
