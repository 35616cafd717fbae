package lockgroup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"scopelock/pkg/lockerr"
)

// Group manages shared/exclusive locks over keys of type K on behalf of
// [Owner] tokens. Construct with [New]; the zero value is not usable.
type Group[K comparable] struct {
	mu      sync.Mutex
	table   *holdTable[K]
	queue   *waitQueue[K]
	graph   *waitGraph
	grantor *grantor[K]

	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// GroupOption customizes a Group at construction time.
type GroupOption func(*groupConfig)

type groupConfig struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// WithMaxRetries bounds how many grant attempts Acquire makes before
// giving up with lockerr.ErrTimeout.
func WithMaxRetries(n int) GroupOption {
	return func(c *groupConfig) { c.maxRetries = n }
}

// WithRetryDelays overrides the initial and maximum backoff delays
// between grant attempts.
func WithRetryDelays(base, max time.Duration) GroupOption {
	return func(c *groupConfig) {
		c.baseDelay = base
		c.maxDelay = max
	}
}

// New creates an empty Group.
func New[K comparable](opts ...GroupOption) *Group[K] {
	cfg := groupConfig{
		maxRetries: 100,
		baseDelay:  time.Millisecond,
		maxDelay:   50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	table := newHoldTable[K]()
	queue := newWaitQueue[K]()
	return &Group[K]{
		table:      table,
		queue:      queue,
		graph:      newWaitGraph(),
		grantor:    newGrantor(table, queue),
		maxRetries: cfg.maxRetries,
		baseDelay:  cfg.baseDelay,
		maxDelay:   cfg.maxDelay,
	}
}

// Acquire takes key in mode on behalf of owner, blocking (with backoff)
// while the key is unavailable. Re-acquiring an already-sufficient hold
// is a no-op; acquiring Exclusive over an owned Shared hold upgrades it
// once the owner is the sole holder. A waits-for cycle fails fast with
// lockerr.ErrDeadlock so the caller can release and retry; an exhausted
// retry budget fails with lockerr.ErrTimeout.
func (g *Group[K]) Acquire(owner *Owner, key K, mode Mode) error {
	return g.AcquireContext(context.Background(), owner, key, mode)
}

// AcquireContext is Acquire, abandoned between attempts when ctx is
// done.
func (g *Group[K]) AcquireContext(ctx context.Context, owner *Owner, key K, mode Mode) error {
	if owner == nil {
		return lockerr.New("Acquire", keyName(key), lockerr.ErrNotOwned)
	}

	g.mu.Lock()
	if g.table.hasSufficient(owner, key, mode) {
		g.mu.Unlock()
		return nil
	}
	g.mu.Unlock()

	return g.acquireSlow(ctx, owner, key, mode)
}

// acquireSlow is the contended path: retry under backoff, enqueueing
// the request and probing the waits-for graph on the first miss.
func (g *Group[K]) acquireSlow(ctx context.Context, owner *Owner, key K, mode Mode) error {
	enqueued := false

	for attempt := 0; attempt < g.maxRetries; attempt++ {
		g.mu.Lock()

		if g.table.hasSufficient(owner, key, mode) {
			g.mu.Unlock()
			return nil
		}

		if mode == Exclusive && g.table.hasMode(owner, key, Shared) {
			if g.grantor.canUpgrade(owner, key) {
				g.table.upgrade(owner, key)
				g.queue.remove(owner, key)
				g.graph.removeWaiting(owner)
				g.mu.Unlock()
				return nil
			}
		}

		if g.grantor.canGrant(owner, key, mode) && !g.queue.blockedByOlder(owner, key, mode) {
			g.grantor.grant(owner, key, mode)
			g.graph.removeWaiting(owner)
			g.mu.Unlock()
			return nil
		}

		if !enqueued {
			if !g.queue.add(owner, key, mode) {
				g.mu.Unlock()
				return lockerr.New("Acquire", keyName(key), lockerr.ErrAlreadyOwning)
			}
			enqueued = true
		}
		g.recordWaits(owner, key, mode)

		if g.graph.hasCycle() {
			g.queue.remove(owner, key)
			g.graph.removeWaiting(owner)
			g.mu.Unlock()
			return lockerr.New("Acquire", keyName(key), lockerr.ErrDeadlock)
		}

		g.mu.Unlock()

		timer := time.NewTimer(g.retryDelay(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			if g.withdraw(owner, key, mode) {
				// The grant won the race against cancellation.
				return nil
			}
			return lockerr.New("Acquire", keyName(key), ctx.Err())
		}
	}

	if g.withdraw(owner, key, mode) {
		return nil
	}
	return lockerr.New("Acquire", keyName(key), lockerr.ErrTimeout)
}

// Release drops owner's hold on key and hands the key to eligible
// waiters in FIFO order. It fails with lockerr.ErrNotOwned when owner
// holds no lock on key.
func (g *Group[K]) Release(owner *Owner, key K) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.table.release(owner, key) {
		return lockerr.New("Release", keyName(key), lockerr.ErrNotOwned)
	}
	g.graph.removeHolder(owner)
	g.processQueue(key)
	return nil
}

// ReleaseAll drops every hold and pending request of owner, then
// re-runs the wait queue of each affected key. The typical caller is an
// agent finishing or aborting its work.
func (g *Group[K]) ReleaseAll(owner *Owner) {
	g.mu.Lock()
	defer g.mu.Unlock()

	affected := g.table.releaseAll(owner)
	g.graph.removeOwner(owner)
	g.queue.removeAllForOwner(owner)

	for _, key := range affected {
		g.processQueue(key)
	}
}

// IsLocked reports whether any owner holds key.
func (g *Group[K]) IsLocked(key K) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.table.isLocked(key)
}

// HoldCount returns the number of holds currently granted on key.
func (g *Group[K]) HoldCount(key K) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.table.holdsOn(key))
}

// processQueue grants pending requests on key in strict FIFO order,
// stopping at the first one that cannot be granted. Called with g.mu
// held after a release freed capacity on key.
func (g *Group[K]) processQueue(key K) {
	for _, req := range g.queue.requests(key) {
		if !g.grantor.canGrant(req.owner, key, req.mode) {
			break
		}
		g.grantor.grant(req.owner, key, req.mode)
		g.graph.removeWaiting(req.owner)
	}
}

// recordWaits replaces owner's waits-for edges with whoever currently
// blocks the request: holders whose hold conflicts with it, plus owners
// of conflicting requests queued ahead of it. Called on every attempt
// so the graph tracks holder churn and sees cycles that form after the
// request was first enqueued. Shared requests conflict only with
// exclusive holds; exclusive requests conflict with every foreign hold.
func (g *Group[K]) recordWaits(owner *Owner, key K, mode Mode) {
	blockers := make(map[*Owner]bool)
	for _, h := range g.table.holdsOn(key) {
		if h.owner == owner {
			continue
		}
		if mode == Exclusive || h.mode == Exclusive {
			blockers[h.owner] = true
		}
	}
	for _, r := range g.queue.requests(key) {
		if r.owner == owner {
			break
		}
		if mode == Exclusive || r.mode == Exclusive {
			blockers[r.owner] = true
		}
	}
	g.graph.setWaits(owner, blockers)
}

// withdraw cleans up after an acquisition that gave up. It reports true
// when the request was in fact granted while the caller was deciding to
// give up, in which case the hold stands and no cleanup is needed.
func (g *Group[K]) withdraw(owner *Owner, key K, mode Mode) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.table.hasSufficient(owner, key, mode) {
		return true
	}
	g.queue.remove(owner, key)
	g.graph.removeWaiting(owner)
	return false
}

// retryDelay grows the backoff every few attempts and caps it, keeping
// early retries cheap while bounding the tail.
func (g *Group[K]) retryDelay(attempt int) time.Duration {
	factor := min(attempt/5, 5)
	return min(g.baseDelay*time.Duration(1<<uint(factor)), g.maxDelay)
}

func keyName(key any) string {
	return fmt.Sprintf("%v", key)
}
