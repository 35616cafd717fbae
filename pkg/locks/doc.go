// Package locks implements the two core mutual-exclusion primitives of
// scopelock: [Mutex] (at most one holder) and [RWMutex] (many readers or
// one writer).
//
// # Differences from sync.Mutex
//
// Unlike the standard library primitives, these locks know who holds
// them. Each acquisition records the calling goroutine, which buys three
// things sync.Mutex cannot offer:
//
//   - Unlock by a non-holder is reported as [lockerr.ErrNotOwned]
//     instead of corrupting state or panicking.
//   - A goroutine re-locking a lock it already holds gets
//     [lockerr.ErrDeadlock] immediately instead of hanging forever.
//   - Every blocking acquire has a context-aware variant and a timed
//     variant ([Mutex.LockContext], [Mutex.TryLockFor]).
//
// The cost is that a hold is bound to the goroutine that acquired it;
// handing a held lock to another goroutine for release is not supported.
//
// # Identity and ordering
//
// Every lock carries a process-unique [Mutex.ID] assigned at construction
// from a monotonic counter. IDs impose the total order that
// pkg/multilock uses for deadlock-free multi-lock acquisition.
//
// # Fairness
//
// Mutex waiters are resumed in the order the runtime queues channel
// receivers; this is FIFO in practice but not a documented guarantee.
// RWMutex services its wait queue strictly FIFO, which gives writer
// preference: once a writer is queued, later readers queue behind it
// rather than overtaking. The trade-off is that readers can wait behind
// a writer, but writers cannot starve.
package locks
