package lockgroup

import "slices"

// waitQueue tracks pending requests in two directions: key → FIFO queue
// of requests on it, and owner → keys it is waiting for. The FIFO order
// decides who is granted next when a key frees up; the reverse index
// makes owner cleanup and waits-for bookkeeping cheap. All methods
// assume the Group's mutex is held.
type waitQueue[K comparable] struct {
	keyQueue     map[K][]*request
	ownerWaiting map[*Owner][]K
}

func newWaitQueue[K comparable]() *waitQueue[K] {
	return &waitQueue[K]{
		keyQueue:     make(map[K][]*request),
		ownerWaiting: make(map[*Owner][]K),
	}
}

// add enqueues owner's request for key at the tail. An owner may have
// at most one pending request per key; add reports false when one is
// already queued.
func (q *waitQueue[K]) add(owner *Owner, key K, mode Mode) bool {
	if q.waiting(owner, key) {
		return false
	}

	q.keyQueue[key] = append(q.keyQueue[key], newRequest(owner, mode))
	q.ownerWaiting[owner] = append(q.ownerWaiting[owner], key)
	return true
}

// blockedByOlder reports whether a conflicting request by another owner
// sits ahead of owner in key's queue. An owner not yet enqueued is
// checked against the whole queue, so a fresh arrival cannot barge past
// a pending conflicting request.
func (q *waitQueue[K]) blockedByOlder(owner *Owner, key K, mode Mode) bool {
	for _, r := range q.keyQueue[key] {
		if r.owner == owner {
			return false
		}
		if mode == Exclusive || r.mode == Exclusive {
			return true
		}
	}
	return false
}

// remove withdraws owner's pending request for key, if any.
func (q *waitQueue[K]) remove(owner *Owner, key K) {
	kept := slices.DeleteFunc(slices.Clone(q.keyQueue[key]), func(r *request) bool {
		return r.owner == owner
	})
	updateOrDelete(q.keyQueue, key, kept)

	keys := slices.DeleteFunc(slices.Clone(q.ownerWaiting[owner]), func(k K) bool {
		return k == key
	})
	updateOrDelete(q.ownerWaiting, owner, keys)
}

// removeAllForOwner withdraws every pending request of owner. Called on
// abort-like cleanup paths (deadlock victim, timeout, ReleaseAll).
func (q *waitQueue[K]) removeAllForOwner(owner *Owner) {
	for _, key := range slices.Clone(q.ownerWaiting[owner]) {
		q.remove(owner, key)
	}
}

// requests returns the pending queue for key in FIFO order.
func (q *waitQueue[K]) requests(key K) []*request {
	return slices.Clone(q.keyQueue[key])
}

func (q *waitQueue[K]) waiting(owner *Owner, key K) bool {
	return slices.ContainsFunc(q.keyQueue[key], func(r *request) bool {
		return r.owner == owner
	})
}

// updateOrDelete stores the slice under key, or deletes the entry when
// the slice is empty, so the maps never accumulate empty slices.
func updateOrDelete[M comparable, V any](m map[M][]V, key M, s []V) {
	if len(s) > 0 {
		m[key] = s
	} else {
		delete(m, key)
	}
}
