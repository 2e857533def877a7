package cycle

// Guard is the re-entrancy participant tracker: a DFS visited/in-path set
// keyed by any comparable identity, used where a cycle needs to be
// *detected* rather than iterated to a fixpoint (Region handles that
// case); internal/places uses it to stop its ancestor-scope walks on a
// looping parent chain. Grounded
// on the teacher's DFS visited/inPath pattern from its former module
// dependency linker.
type Guard[K comparable] struct {
	inPath  map[K]bool
	visited map[K]bool
	path    []K
}

// NewGuard creates an empty re-entrancy guard.
func NewGuard[K comparable]() *Guard[K] {
	return &Guard[K]{inPath: make(map[K]bool), visited: make(map[K]bool)}
}

// Enter marks k as being computed. If k is already on the path, it returns
// the cyclic sub-path (from k's first occurrence to here) and ok=false;
// the caller must not recurse into k again. Otherwise it returns ok=true
// and the caller must call Exit(k) when done (typically via defer).
func (g *Guard[K]) Enter(k K) (cyclePath []K, ok bool) {
	if g.inPath[k] {
		start := 0
		for i, p := range g.path {
			if p == k {
				start = i
				break
			}
		}
		return append(append([]K(nil), g.path[start:]...), k), false
	}
	g.inPath[k] = true
	g.visited[k] = true
	g.path = append(g.path, k)
	return nil, true
}

// Exit pops k from the in-progress path. Must be called exactly once per
// successful Enter, in LIFO order (defer right after a successful Enter).
func (g *Guard[K]) Exit(k K) {
	g.inPath[k] = false
	if n := len(g.path); n > 0 && g.path[n-1] == k {
		g.path = g.path[:n-1]
	}
}

// Visited reports whether k has ever been fully entered, regardless of
// whether it's currently active — useful for "already processed, skip"
// short-circuits distinct from cycle detection.
func (g *Guard[K]) Visited(k K) bool { return g.visited[k] }
