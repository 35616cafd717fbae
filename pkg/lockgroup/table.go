package lockgroup

// holdTable is the dual index of granted locks: key → holds on it, and
// owner → mode per key it holds. All methods assume the Group's mutex
// is held.
type holdTable[K comparable] struct {
	keyHolds  map[K][]*hold
	ownerKeys map[*Owner]map[K]Mode
}

func newHoldTable[K comparable]() *holdTable[K] {
	return &holdTable[K]{
		keyHolds:  make(map[K][]*hold),
		ownerKeys: make(map[*Owner]map[K]Mode),
	}
}

// hasSufficient reports whether owner already holds key at least as
// strongly as mode requires. An exclusive hold satisfies a shared
// request; the reverse does not.
func (t *holdTable[K]) hasSufficient(owner *Owner, key K, mode Mode) bool {
	keys, ok := t.ownerKeys[owner]
	if !ok {
		return false
	}
	held, ok := keys[key]
	if !ok {
		return false
	}
	return held == Exclusive || mode == Shared
}

// hasMode reports whether owner holds key in exactly the given mode.
func (t *holdTable[K]) hasMode(owner *Owner, key K, mode Mode) bool {
	if keys, ok := t.ownerKeys[owner]; ok {
		if held, ok := keys[key]; ok {
			return held == mode
		}
	}
	return false
}

// holdsOn returns the holds currently granted on key.
func (t *holdTable[K]) holdsOn(key K) []*hold {
	return t.keyHolds[key]
}

func (t *holdTable[K]) isLocked(key K) bool {
	return len(t.keyHolds[key]) > 0
}

func (t *holdTable[K]) add(owner *Owner, key K, mode Mode) {
	t.keyHolds[key] = append(t.keyHolds[key], newHold(owner, mode))

	if t.ownerKeys[owner] == nil {
		t.ownerKeys[owner] = make(map[K]Mode)
	}
	t.ownerKeys[owner][key] = mode
}

// upgrade promotes owner's shared hold on key to exclusive in place.
func (t *holdTable[K]) upgrade(owner *Owner, key K) {
	for _, h := range t.keyHolds[key] {
		if h.owner == owner {
			h.mode = Exclusive
			break
		}
	}
	t.ownerKeys[owner][key] = Exclusive
}

// release drops owner's hold on key, reporting whether one existed.
func (t *holdTable[K]) release(owner *Owner, key K) bool {
	keys, ok := t.ownerKeys[owner]
	if !ok {
		return false
	}
	if _, ok := keys[key]; !ok {
		return false
	}

	t.dropFromKey(owner, key)
	delete(keys, key)
	if len(keys) == 0 {
		delete(t.ownerKeys, owner)
	}
	return true
}

// releaseAll drops every hold of owner and returns the affected keys so
// the caller can re-run the wait queues.
func (t *holdTable[K]) releaseAll(owner *Owner) []K {
	keys, ok := t.ownerKeys[owner]
	if !ok {
		return nil
	}

	affected := make([]K, 0, len(keys))
	for key := range keys {
		affected = append(affected, key)
	}
	for _, key := range affected {
		t.dropFromKey(owner, key)
	}

	delete(t.ownerKeys, owner)
	return affected
}

func (t *holdTable[K]) dropFromKey(owner *Owner, key K) {
	holds := t.keyHolds[key]
	kept := make([]*hold, 0, len(holds))
	for _, h := range holds {
		if h.owner != owner {
			kept = append(kept, h)
		}
	}
	updateOrDelete(t.keyHolds, key, kept)
}
