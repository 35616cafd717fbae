package lockgroup

// grantor holds the stateless eligibility rules for granting and
// upgrading locks. Split out of Group so the rules are testable without
// spinning up retry loops. All methods assume the Group's mutex is
// held.
type grantor[K comparable] struct {
	table *holdTable[K]
	queue *waitQueue[K]
}

func newGrantor[K comparable](table *holdTable[K], queue *waitQueue[K]) *grantor[K] {
	return &grantor[K]{table: table, queue: queue}
}

// canGrant reports whether owner could take key in mode right now.
// Exclusive requires no foreign holds at all; shared tolerates foreign
// shared holds but not a foreign exclusive one.
func (g *grantor[K]) canGrant(owner *Owner, key K, mode Mode) bool {
	holds := g.table.holdsOn(key)
	if len(holds) == 0 {
		return true
	}

	for _, h := range holds {
		if h.owner == owner {
			continue
		}
		if mode == Exclusive || h.mode == Exclusive {
			return false
		}
	}
	return true
}

// canUpgrade reports whether owner's shared hold on key can become
// exclusive: owner must hold shared and be the sole holder.
func (g *grantor[K]) canUpgrade(owner *Owner, key K) bool {
	if !g.table.hasMode(owner, key, Shared) {
		return false
	}
	for _, h := range g.table.holdsOn(key) {
		if h.owner != owner {
			return false
		}
	}
	return true
}

// grant records the hold and retires any pending request for it. A
// grant to an owner that already holds the key shared and asked for
// exclusive lands as an upgrade, never as a second hold entry.
func (g *grantor[K]) grant(owner *Owner, key K, mode Mode) {
	switch {
	case g.table.hasMode(owner, key, Shared) && mode == Exclusive:
		g.table.upgrade(owner, key)
	case !g.table.hasSufficient(owner, key, mode):
		g.table.add(owner, key, mode)
	}
	g.queue.remove(owner, key)
}
