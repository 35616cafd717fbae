// Package lockerr defines the error surface shared by all scopelock
// primitives.
//
// Every failure a primitive can report wraps one of the four sentinel
// errors below, so callers branch with errors.Is regardless of which
// primitive produced the failure:
//
//	if err := mu.Unlock(); errors.Is(err, lockerr.ErrNotOwned) {
//	    // released something we never held
//	}
//
// The concrete type is [*LockError], which carries the operation and the
// resource involved. No primitive in this module swallows an error: a
// failed release in particular always surfaces, since silently ignoring
// it would corrupt the single-holder invariant.
package lockerr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotOwned reports a release or unlock by a caller that does not
	// hold the lock.
	ErrNotOwned = errors.New("lock not owned by caller")

	// ErrAlreadyOwning reports a re-acquire of a non-reentrant lock that
	// the caller already holds.
	ErrAlreadyOwning = errors.New("lock already owned by caller")

	// ErrDeadlock reports a detected deadlock: either a self-relock on a
	// non-reentrant lock, or a cycle in a waits-for graph.
	ErrDeadlock = errors.New("deadlock detected")

	// ErrTimeout reports an expired timed acquisition attempt.
	ErrTimeout = errors.New("lock acquisition timed out")
)

// LockError is the concrete error type returned by scopelock primitives.
// It wraps one of the package sentinels and records which operation on
// which resource failed.
type LockError struct {
	// Op is the operation that failed, e.g. "Unlock" or "Acquire".
	Op string

	// Resource identifies the lock involved, e.g. "mutex-42" or a
	// lockgroup key rendered with %v.
	Resource string

	// Err is the underlying sentinel (or a wrapped cause such as a
	// context error).
	Err error
}

// New builds a LockError around a sentinel.
func New(op, resource string, err error) *LockError {
	return &LockError{Op: op, Resource: resource, Err: err}
}

func (e *LockError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Resource, e.Err)
}

// Unwrap exposes the sentinel for errors.Is / errors.As chains.
func (e *LockError) Unwrap() error {
	return e.Err
}
