package query

import (
	"fmt"

	"github.com/prismafold/pytc/internal/typeir"
)

// entryState tracks where a memoized slot is in its lifecycle. A slot
// starts absent, becomes active (computation in progress, making it a
// re-entry candidate for cycle detection), then settles into done.
type entryState int

const (
	stateAbsent entryState = iota
	stateActive
	stateDone
)

type entry struct {
	state     entryState
	value     typeir.Type
	fallback  typeir.Type // the value returned to a re-entrant caller while state == stateActive
	iteration int         // how many times this slot has been recomputed under fixpoint iteration
}

// MultiPolicy governs what happens when a query is asked for the same Key
// more than once with a *different* result before it settles — the
// speculative multi-inference situation of spec.md §4.2/§7 (e.g. narrowing
// re-running expression inference under two different reachability
// predicates).
type MultiPolicy int

const (
	// MultiPanic is the default: a second distinct answer for the same key
	// indicates a bug in the caller's key construction, not a legitimate
	// ambiguity, so settle returns it as an error rather than silently
	// picking one.
	MultiPanic MultiPolicy = iota
	// MultiOverwrite keeps the most recent answer, discarding the earlier
	// one. Used for queries whose later call is known to be strictly more
	// informed (e.g. a second pass after narrowing has been applied).
	MultiOverwrite
	// MultiIgnore keeps the first answer and discards later distinct ones.
	MultiIgnore
	// MultiIntersect stores the intersection of the distinct answers —
	// the policy speculative multi-inference uses (spec.md §4.2): each
	// pass's answer is an upper bound on the expression's type, so the
	// value that survives is what every pass agreed on.
	MultiIntersect
)

// Cache is one memoization table, shared across a single module's
// inference pass. It has no locking and is not safe for concurrent use
// from multiple goroutines (the driver is single-threaded per module;
// spec.md §5 module-level parallelism, node-level is sequential).
type Cache struct {
	policy  MultiPolicy
	entries map[string]*entry
}

// NewCache creates an empty cache under the given multi-inference policy.
func NewCache(policy MultiPolicy) *Cache {
	return &Cache{policy: policy, entries: make(map[string]*entry)}
}

// ErrAmbiguousMultiInference is returned by settle under MultiPanic when a
// key settles on two non-equivalent answers.
type ErrAmbiguousMultiInference struct {
	Key   Key
	First typeir.Type
	Second typeir.Type
}

func (e *ErrAmbiguousMultiInference) Error() string {
	return fmt.Sprintf("ambiguous multi-inference for %s(node=%d): %s vs %s", e.Key.Kind, e.Key.Node, e.First, e.Second)
}

// Compute runs compute() for key if it has not yet settled, memoizing the
// result. If key is already active (a cycle: compute() for key transitively
// asked for key again), it returns fallback immediately without re-entering
// compute — the caller-supplied initial value for the fixpoint, matching
// the re-entrancy contract of spec.md §4.2/§4.8 ("re-entrancy cache keyed
// on (operation, operands) with caller-supplied initial value on
// re-entry").
func (c *Cache) Compute(key Key, fallback typeir.Type, compute func() (typeir.Type, error)) (typeir.Type, error) {
	hk := key.hashKey()
	if e, ok := c.entries[hk]; ok {
		switch e.state {
		case stateActive:
			return e.fallback, nil
		case stateDone:
			return e.value, nil
		}
	}

	e := &entry{state: stateActive, fallback: fallback}
	c.entries[hk] = e

	result, err := compute()
	if err != nil {
		delete(c.entries, hk)
		return nil, err
	}

	if prior, ok := c.entries[hk]; ok && prior.state == stateActive {
		// no recursive Settle happened (the common, non-cyclic case)
		_ = prior
	}
	return c.settle(hk, result)
}

// settle records result as key's answer, applying the multi-inference
// policy if a distinct answer is already recorded. Compute settles each key
// once, when its own computation returns, so a second answer only reaches
// an entry through a repeated settle call on a key that is already done.
func (c *Cache) settle(hk string, result typeir.Type) (typeir.Type, error) {
	e := c.entries[hk]
	if e.state == stateDone && !typeir.Same(e.value, result) {
		switch c.policy {
		case MultiOverwrite:
			e.value = result
		case MultiIgnore:
			// keep e.value as-is
		case MultiIntersect:
			e.value = typeir.NewIntersection([]typeir.Type{e.value, result}, nil)
		default:
			return nil, &ErrAmbiguousMultiInference{First: e.value, Second: result}
		}
		e.iteration++
		e.state = stateDone
		return e.value, nil
	}
	e.value = result
	e.state = stateDone
	e.iteration++
	return e.value, nil
}

// Peek returns the settled value for key without computing it, for tests
// and the cache-dump demo flag.
func (c *Cache) Peek(key Key) (typeir.Type, bool) {
	e, ok := c.entries[key.hashKey()]
	if !ok || e.state != stateDone {
		return nil, false
	}
	return e.value, true
}

// Len reports how many keys have settled, for the debug dump.
func (c *Cache) Len() int {
	n := 0
	for _, e := range c.entries {
		if e.state == stateDone {
			n++
		}
	}
	return n
}
