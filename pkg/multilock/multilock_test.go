package multilock

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"scopelock/pkg/lockerr"
	"scopelock/pkg/locks"
)

func TestAcquireAndRelease(t *testing.T) {
	a := locks.NewMutex(locks.WithName("a"))
	b := locks.NewMutex(locks.WithName("b"))
	s := NewSet([]locks.Lockable{a, b})

	rel, err := s.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !a.Held() || !b.Held() {
		t.Error("all locks should be held after Acquire")
	}

	if err := rel.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if a.Held() || b.Held() {
		t.Error("all locks should be free after Close")
	}
}

func TestCloseIdempotent(t *testing.T) {
	a := locks.NewMutex()
	s := NewSet([]locks.Lockable{a})

	rel, err := s.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := rel.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := rel.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestDeduplication(t *testing.T) {
	a := locks.NewMutex()
	b := locks.NewMutex()

	s := NewSet([]locks.Lockable{a, b, a, b, a})
	if s.Len() != 2 {
		t.Errorf("expected 2 distinct locks, got %d", s.Len())
	}

	// A lock and its read facade are the same resource.
	rw := locks.NewRWMutex()
	s2 := NewSet([]locks.Lockable{rw, rw.Reader()})
	if s2.Len() != 1 {
		t.Errorf("expected lock and facade to collapse, got %d entries", s2.Len())
	}

	rel, err := s.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire of deduplicated set failed: %v", err)
	}
	if err := rel.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestEmptySet(t *testing.T) {
	s := NewSet(nil)

	rel, err := s.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire of empty set failed: %v", err)
	}
	if err := rel.Close(); err != nil {
		t.Errorf("Close of empty acquisition failed: %v", err)
	}
}

func TestTryAcquire(t *testing.T) {
	a := locks.NewMutex()
	b := locks.NewMutex()
	s := NewSet([]locks.Lockable{a, b})

	if err := b.Lock(); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	// b is taken: all-or-nothing must leave a free too.
	got := make(chan bool, 1)
	go func() {
		rel, ok := s.TryAcquire()
		if ok {
			rel.Close()
		}
		got <- ok
	}()
	if <-got {
		t.Error("TryAcquire should fail while b is held")
	}
	if a.Held() {
		t.Error("failed TryAcquire leaked a hold on a")
	}

	if err := b.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	rel, ok := s.TryAcquire()
	if !ok {
		t.Fatal("TryAcquire should succeed on free locks")
	}
	if err := rel.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestOpposingOrdersNeverDeadlock(t *testing.T) {
	a := locks.NewMutex(locks.WithName("a"))
	b := locks.NewMutex(locks.WithName("b"))
	const rounds = 100

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var g errgroup.Group
	// Same pair, opposite listing orders.
	for _, ls := range [][]locks.Lockable{{a, b}, {b, a}} {
		s := NewSet(ls)
		g.Go(func() error {
			for i := 0; i < rounds; i++ {
				rel, err := s.Acquire(ctx)
				if err != nil {
					return err
				}
				if err := rel.Close(); err != nil {
					return err
				}
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("acquisition failed: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("opposing-order acquisition deadlocked")
	}
}

func TestAcquireAgainstDirectHolders(t *testing.T) {
	a := locks.NewMutex()
	b := locks.NewMutex()
	s := NewSet([]locks.Lockable{a, b})

	// An outside party holds b directly (not through a Set) and
	// releases it shortly; Acquire must back off and eventually win.
	holderDone := make(chan error, 1)
	go func() {
		if err := b.Lock(); err != nil {
			holderDone <- err
			return
		}
		time.Sleep(30 * time.Millisecond)
		holderDone <- b.Unlock()
	}()

	// Give the direct holder time to take b.
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rel, err := s.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire failed against a transient direct holder: %v", err)
	}
	if err := rel.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := <-holderDone; err != nil {
		t.Fatalf("direct holder failed: %v", err)
	}
}

func TestAcquireContextCancelled(t *testing.T) {
	a := locks.NewMutex()
	s := NewSet([]locks.Lockable{a})

	if err := a.Lock(); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	defer a.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Acquire(ctx)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled in chain, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Acquire did not observe cancellation")
	}
}

func TestAcquireMaxElapsedTimeout(t *testing.T) {
	a := locks.NewMutex()
	b := locks.NewMutex()
	s := NewSet([]locks.Lockable{a, b}, WithMaxElapsed(50*time.Millisecond))

	// Hold b from another goroutine for longer than the retry budget.
	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		if err := b.Lock(); err != nil {
			t.Errorf("Lock failed: %v", err)
			close(held)
			return
		}
		close(held)
		<-release
		if err := b.Unlock(); err != nil {
			t.Errorf("Unlock failed: %v", err)
		}
	}()
	<-held
	defer close(release)

	_, err := s.Acquire(context.Background())
	if !errors.Is(err, lockerr.ErrTimeout) {
		t.Errorf("expected ErrTimeout after retry budget, got %v", err)
	}
	if a.Held() {
		t.Error("timed-out Acquire leaked a hold on a")
	}
}

func TestManyContenders(t *testing.T) {
	ls := []locks.Lockable{
		locks.NewMutex(), locks.NewMutex(), locks.NewMutex(), locks.NewMutex(),
	}
	const workers = 8
	const rounds = 25

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	counter := 0
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		// Each worker lists the locks starting at a different offset.
		offset := w % len(ls)
		rotated := append(append([]locks.Lockable{}, ls[offset:]...), ls[:offset]...)
		s := NewSet(rotated)

		g.Go(func() error {
			for i := 0; i < rounds; i++ {
				rel, err := s.Acquire(ctx)
				if err != nil {
					return err
				}
				counter++
				if err := rel.Close(); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatalf("contender failed: %v", err)
	}
	if counter != workers*rounds {
		t.Errorf("expected %d critical sections, got %d", workers*rounds, counter)
	}
}
