package lockgroup

// waitGraph is the directed waits-for graph used for deadlock
// detection: an edge A→B means owner A waits for a key B holds. A cycle
// means no owner in it can ever proceed. All methods assume the Group's
// mutex is held.
//
// Cycle detection is DFS with a recursion stack; the result is cached
// until the next structural change, since Acquire retries probe the
// graph far more often than it changes.
type waitGraph struct {
	edges      map[*Owner]map[*Owner]bool
	cacheValid bool
	lastResult bool
}

func newWaitGraph() *waitGraph {
	return &waitGraph{
		edges: make(map[*Owner]map[*Owner]bool),
	}
}

// addEdge records that waiter is blocked on a key held by holder.
func (g *waitGraph) addEdge(waiter, holder *Owner) {
	if g.edges[waiter] == nil {
		g.edges[waiter] = make(map[*Owner]bool)
	}
	g.edges[waiter][holder] = true
	g.cacheValid = false
}

// setWaits replaces waiter's outgoing edges with blockers. Holders come
// and go between retry attempts, so the edge set is rebuilt rather than
// accumulated. A no-change call keeps the cycle cache warm.
func (g *waitGraph) setWaits(waiter *Owner, blockers map[*Owner]bool) {
	if sameEdgeSet(g.edges[waiter], blockers) {
		return
	}
	if len(blockers) == 0 {
		delete(g.edges, waiter)
	} else {
		g.edges[waiter] = blockers
	}
	g.cacheValid = false
}

// removeWaiting drops waiter's outgoing edges once it stops waiting.
// Edges other waiters hold against it stay: they describe holds, not
// this waiter's request.
func (g *waitGraph) removeWaiting(waiter *Owner) {
	if _, ok := g.edges[waiter]; !ok {
		return
	}
	delete(g.edges, waiter)
	g.cacheValid = false
}

// removeHolder drops edges pointing at owner after it released a hold.
// Waiters still blocked on its remaining holds re-record their edges on
// the next attempt.
func (g *waitGraph) removeHolder(owner *Owner) {
	changed := false
	for waiter, blockers := range g.edges {
		if blockers[owner] {
			delete(blockers, owner)
			changed = true
			if len(blockers) == 0 {
				delete(g.edges, waiter)
			}
		}
	}
	if changed {
		g.cacheValid = false
	}
}

// removeOwner erases owner from the graph on both sides. Used when the
// owner abandons everything at once.
func (g *waitGraph) removeOwner(owner *Owner) {
	delete(g.edges, owner)
	for waiter, blockers := range g.edges {
		delete(blockers, owner)
		if len(blockers) == 0 {
			delete(g.edges, waiter)
		}
	}
	g.cacheValid = false
}

func sameEdgeSet(a, b map[*Owner]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for o := range a {
		if !b[o] {
			return false
		}
	}
	return true
}

// hasCycle reports whether the graph contains a cycle.
func (g *waitGraph) hasCycle() bool {
	if g.cacheValid {
		return g.lastResult
	}

	visited := make(map[*Owner]bool)
	onStack := make(map[*Owner]bool)

	g.lastResult = false
	for owner := range g.edges {
		if !visited[owner] && g.dfs(owner, visited, onStack) {
			g.lastResult = true
			break
		}
	}
	g.cacheValid = true
	return g.lastResult
}

func (g *waitGraph) dfs(owner *Owner, visited, onStack map[*Owner]bool) bool {
	visited[owner] = true
	onStack[owner] = true

	for next := range g.edges[owner] {
		if !visited[next] {
			if g.dfs(next, visited, onStack) {
				return true
			}
		} else if onStack[next] {
			return true
		}
	}

	onStack[owner] = false
	return false
}
