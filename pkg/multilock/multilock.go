// Package multilock acquires a set of locks as one atomic group without
// risking deadlock.
//
// Two ingredients make the acquisition deadlock-free regardless of the
// order call sites list their locks:
//
//  1. Total order. Every lock carries a process-unique ID; a [Set]
//     sorts and deduplicates by it, so all contenders walk the same
//     sequence and circular wait between Sets is impossible.
//  2. Release and retry. Only the lowest-ordered lock is acquired
//     blocking; the rest are try-acquires. If any of them is taken —
//     for example by a caller locking it directly, outside any Set —
//     everything already held is released and the whole attempt is
//     retried after a randomized exponential back-off, so the group
//     never sits on partial state while blocked.
//
// Acquire returns a [Release] that frees all locks of the group
// together, exactly once:
//
//	rel, err := multilock.NewSet([]locks.Lockable{a, b, c}).Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer rel.Close()
package multilock

import (
	"context"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"

	"scopelock/pkg/lockerr"
	"scopelock/pkg/locks"
)

// Set is an ordered, deduplicated group of locks. A Set is immutable
// after construction and may be shared by any number of goroutines;
// each Acquire produces an independent acquisition.
type Set struct {
	locks []locks.Lockable
	name  string

	initialBackoff time.Duration
	maxBackoff     time.Duration
	maxElapsed     time.Duration // 0: retry until ctx is done
}

// Option customizes a Set at construction time.
type Option func(*Set)

// WithName sets the label the Set uses in errors.
func WithName(name string) Option {
	return func(s *Set) { s.name = name }
}

// WithMaxElapsed bounds the total time Acquire spends retrying; an
// attempt that exceeds it fails with lockerr.ErrTimeout. The default is
// unbounded, leaving the caller's context in charge.
func WithMaxElapsed(d time.Duration) Option {
	return func(s *Set) { s.maxElapsed = d }
}

// WithBackoffBounds overrides the initial and maximum retry delays.
func WithBackoffBounds(initial, max time.Duration) Option {
	return func(s *Set) {
		s.initialBackoff = initial
		s.maxBackoff = max
	}
}

// NewSet builds a Set over the given locks. Duplicates (same lock ID,
// including a lock and its read facade) collapse to the first mention.
func NewSet(ls []locks.Lockable, opts ...Option) *Set {
	ordered := make([]locks.Lockable, len(ls))
	copy(ordered, ls)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ID() < ordered[j].ID()
	})

	dedup := ordered[:0]
	var lastID uint64
	for i, l := range ordered {
		if i > 0 && l.ID() == lastID {
			continue
		}
		dedup = append(dedup, l)
		lastID = l.ID()
	}

	s := &Set{
		locks:          dedup,
		name:           "multilock",
		initialBackoff: 500 * time.Microsecond,
		maxBackoff:     50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Len returns the number of distinct locks in the Set.
func (s *Set) Len() int { return len(s.locks) }

// Acquire takes every lock in the Set, blocking until all are held or
// ctx is done. On success all locks are held by the calling goroutine
// and must be released through the returned Release.
func (s *Set) Acquire(ctx context.Context) (*Release, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.initialBackoff
	bo.MaxInterval = s.maxBackoff
	bo.MaxElapsedTime = s.maxElapsed
	bo.Reset()

	for {
		ok, err := s.acquireOnce(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			return &Release{set: s}, nil
		}

		d := bo.NextBackOff()
		if d == backoff.Stop {
			return nil, lockerr.New("Acquire", s.name, lockerr.ErrTimeout)
		}
		timer := time.NewTimer(d)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, lockerr.New("Acquire", s.name, ctx.Err())
		}
	}
}

// TryAcquire takes the whole Set without blocking. It either returns a
// Release holding every lock, or holds nothing at all.
func (s *Set) TryAcquire() (*Release, bool) {
	for i, l := range s.locks {
		if !l.TryLock() {
			s.rollback(i)
			return nil, false
		}
	}
	return &Release{set: s}, true
}

// acquireOnce runs a single ordered pass: block on the first lock, try
// the rest. ok=false means a conflict was hit, everything was rolled
// back, and the caller should back off and retry.
func (s *Set) acquireOnce(ctx context.Context) (ok bool, err error) {
	for i, l := range s.locks {
		if i == 0 {
			if err := l.LockContext(ctx); err != nil {
				return false, err
			}
			continue
		}
		if !l.TryLock() {
			s.rollback(i)
			return false, nil
		}
	}
	return true, nil
}

// rollback releases locks [0, n) in reverse order. These unlocks cannot
// legitimately fail (the calling goroutine holds them); a failure is
// surfaced by panicking, since lock state is already corrupt.
func (s *Set) rollback(n int) {
	for i := n - 1; i >= 0; i-- {
		if err := s.locks[i].Unlock(); err != nil {
			panic("multilock: rollback unlock failed: " + err.Error())
		}
	}
}

// Release frees all locks of one successful acquisition together.
type Release struct {
	set  *Set
	done bool
}

// Close releases every lock of the group in reverse order, exactly
// once; later calls are no-ops. Must be called by the goroutine that
// acquired the group.
func (r *Release) Close() error {
	if r.done {
		return nil
	}
	r.done = true

	for i := len(r.set.locks) - 1; i >= 0; i-- {
		if err := r.set.locks[i].Unlock(); err != nil {
			return err
		}
	}
	return nil
}
