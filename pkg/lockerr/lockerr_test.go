package lockerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestLockErrorUnwrapsSentinel(t *testing.T) {
	err := New("Unlock", "mutex-7", ErrNotOwned)

	if !errors.Is(err, ErrNotOwned) {
		t.Error("expected errors.Is to match ErrNotOwned")
	}
	if errors.Is(err, ErrDeadlock) {
		t.Error("should not match an unrelated sentinel")
	}
}

func TestLockErrorAs(t *testing.T) {
	var lerr *LockError
	err := fmt.Errorf("acquiring: %w", New("Lock", "mutex-1", ErrTimeout))

	if !errors.As(err, &lerr) {
		t.Fatal("expected errors.As to find *LockError in chain")
	}
	if lerr.Op != "Lock" {
		t.Errorf("expected op Lock, got %s", lerr.Op)
	}
	if lerr.Resource != "mutex-1" {
		t.Errorf("expected resource mutex-1, got %s", lerr.Resource)
	}
}

func TestLockErrorMessage(t *testing.T) {
	err := New("Release", "orders", ErrNotOwned)
	want := "Release orders: lock not owned by caller"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}

	bare := New("Wait", "", ErrDeadlock)
	if bare.Error() != "Wait: deadlock detected" {
		t.Errorf("unexpected message without resource: %q", bare.Error())
	}
}

func TestLockErrorWrapsCause(t *testing.T) {
	cause := errors.New("context canceled")
	err := New("LockContext", "mutex-3", cause)

	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable via errors.Is")
	}
}
