// Package lockgroup implements a keyed shared/exclusive lock manager.
//
// # Overview
//
// A [Group] hands out locks on arbitrary resource keys (any comparable
// type) to [Owner] tokens, without pre-allocating a lock per resource.
// Two modes are supported:
//
//   - [Shared]    — compatible with other shared holds on the same key.
//   - [Exclusive] — incompatible with every other hold.
//
// An owner holding a shared lock may upgrade it to exclusive (acquire
// the same key with [Exclusive]) provided it is the sole holder.
// Downgrading is never permitted.
//
// # Components
//
// [Group.Acquire] is the single entry point. Internally the group
// coordinates four structures:
//
//   - holdTable — dual index tracking which keys each owner holds and
//     which owners hold each key.
//   - waitQueue — per-key FIFO queues of pending requests for owners
//     that cannot be granted immediately.
//   - waitGraph — directed waits-for graph. An edge A→B means owner A
//     waits for a key held by B; a cycle is a deadlock.
//   - grantor   — stateless grant/upgrade eligibility checks.
//
// # Acquisition flow
//
// Acquire first returns immediately if the owner already holds a
// sufficient lock, then tries an in-place upgrade, then an immediate
// grant. Failing all three it enqueues the request and retries with
// exponential backoff until granted or the retry budget expires
// ([lockerr.ErrTimeout]). On every attempt the request's waits-for
// edges are re-recorded against the current holders and the graph is
// checked for a cycle, so a deadlock is reported as
// [lockerr.ErrDeadlock] even when the cycle closes long after the
// request first queued; the caller can then release its holds and
// retry.
//
// Pending requests are granted in FIFO order per key as releases come
// in, and a new request that conflicts with a queued one joins the
// queue behind it rather than barging past. The one exception is an
// upgrade: a sole shared holder asking for exclusive is promoted in
// place ahead of the queue, since queueing it behind a request it
// blocks could never resolve.
//
// # Owners, not goroutines
//
// Holds belong to [Owner] tokens rather than goroutines, so one logical
// agent may span several goroutines, and one goroutine may juggle
// several agents. This is the right shape for transaction-like callers;
// for plain code-path locking use pkg/locks, whose holds are
// goroutine-bound.
package lockgroup
