// Package goid extracts the ID of the calling goroutine.
//
// The Go runtime deliberately hides goroutine IDs, but holder tracking
// for non-reentrant locks needs a stable identity for "the current
// goroutine". This package uses the one portable source: the first line
// of a runtime.Stack dump, which has the fixed format
//
//	goroutine 123 [running]:
//
// The parse costs on the order of a microsecond per call. Lock
// implementations in this module call it only on the paths where holder
// identity matters (self-relock detection, unlock-by-owner checks), not
// on uncontended fast paths used without holder tracking.
package goid

import "runtime"

// ID returns the current goroutine's ID, or 0 if the stack header could
// not be parsed (which does not happen on any released Go runtime).
func ID() int64 {
	// The header fits well within 64 bytes.
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parse(buf[:n])
}

// parse extracts the numeric ID from a "goroutine N [state]:" header.
func parse(stack []byte) int64 {
	const prefix = "goroutine "
	if len(stack) <= len(prefix) {
		return 0
	}

	var id int64
	for _, c := range stack[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
	}
	return id
}
