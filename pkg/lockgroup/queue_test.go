package lockgroup

import "testing"

func TestWaitQueueAdd(t *testing.T) {
	q := newWaitQueue[string]()
	owner := NewOwner()

	if !q.add(owner, "users", Exclusive) {
		t.Fatal("first add should succeed")
	}
	if q.add(owner, "users", Exclusive) {
		t.Error("duplicate request for the same key should be rejected")
	}

	reqs := q.requests("users")
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].owner != owner {
		t.Error("request has wrong owner")
	}
}

func TestWaitQueueFIFO(t *testing.T) {
	q := newWaitQueue[string]()
	first := NewOwner()
	second := NewOwner()
	third := NewOwner()

	for _, o := range []*Owner{first, second, third} {
		if !q.add(o, "users", Shared) {
			t.Fatalf("add for %s failed", o)
		}
	}

	reqs := q.requests("users")
	want := []*Owner{first, second, third}
	for i, o := range want {
		if reqs[i].owner != o {
			t.Errorf("position %d: expected %s, got %s", i, o, reqs[i].owner)
		}
	}
}

func TestWaitQueueBlockedByOlder(t *testing.T) {
	q := newWaitQueue[string]()
	writer := NewOwner()
	reader := NewOwner()
	late := NewOwner()

	q.add(writer, "users", Exclusive)
	q.add(reader, "users", Shared)

	// A new arrival conflicts with the queued exclusive request.
	if !q.blockedByOlder(late, "users", Shared) {
		t.Error("new shared request should be blocked by the queued exclusive")
	}
	// The head of the queue is blocked by nothing.
	if q.blockedByOlder(writer, "users", Exclusive) {
		t.Error("queue head should not be blocked by younger requests")
	}
	// The queued shared request is blocked by the older exclusive one.
	if !q.blockedByOlder(reader, "users", Shared) {
		t.Error("queued shared request should be blocked by the older exclusive")
	}

	q.remove(writer, "users")
	if q.blockedByOlder(late, "users", Shared) {
		t.Error("shared requests do not block each other")
	}
}

func TestWaitQueueRemove(t *testing.T) {
	q := newWaitQueue[string]()
	o1 := NewOwner()
	o2 := NewOwner()

	q.add(o1, "users", Shared)
	q.add(o2, "users", Shared)

	q.remove(o1, "users")
	reqs := q.requests("users")
	if len(reqs) != 1 || reqs[0].owner != o2 {
		t.Error("remove should drop exactly o1's request")
	}

	// Removing an absent request is a no-op.
	q.remove(o1, "users")
	if len(q.requests("users")) != 1 {
		t.Error("removing an absent request changed the queue")
	}
}

func TestWaitQueueRemoveAllForOwner(t *testing.T) {
	q := newWaitQueue[string]()
	owner := NewOwner()
	other := NewOwner()

	q.add(owner, "a", Shared)
	q.add(owner, "b", Exclusive)
	q.add(other, "a", Shared)

	q.removeAllForOwner(owner)

	if q.waiting(owner, "a") || q.waiting(owner, "b") {
		t.Error("owner should no longer wait anywhere")
	}
	if !q.waiting(other, "a") {
		t.Error("other's request must survive")
	}
	if len(q.ownerWaiting) != 1 {
		t.Errorf("reverse index should hold one owner, got %d", len(q.ownerWaiting))
	}
}
