// Package cycle drives fixpoint resolution for a region of mutually
// recursive queries (spec.md §4.8 "Cycle/Recursion Controller"): a group
// of queries that re-enter each other get an initial fallback value on
// first re-entry (internal/query.Cache.Compute already does this at the
// single-key level), then the whole region is recomputed under the
// settled initial guesses, bounded by an iteration cap, until the answers
// stop changing or the cap is hit (in which case every unstable member
// becomes typeir.Divergent). Grounded on the DFS visited/in-path cycle
// idiom the teacher used for its now-removed module dependency linker,
// generalized here from "detect a cycle exists" to "iterate a cycle to a
// fixed point".
package cycle

import "github.com/prismafold/pytc/internal/typeir"

// MaxIterations bounds how many times a region is recomputed before giving
// up and marking every still-unstable member Divergent. Kept small: a
// well-formed recursive type alias or mutually recursive pair of functions
// settles in two or three passes; anything still moving past this is
// genuinely non-terminating self-reference.
const MaxIterations = 8

// Region is one fixpoint computation: Keys identifies its participants
// (for the caller's own bookkeeping), Step recomputes every participant's
// value given the previous iteration's values (indexed the same way as
// Keys), and returns the new values.
type Region[K comparable] struct {
	Keys []K
	Step func(previous map[K]typeir.Type) map[K]typeir.Type
}

// Run iterates r.Step until two consecutive iterations agree on every key,
// or MaxIterations is reached. Participants that never stabilize are
// forced to Divergent so downstream consumers get a concrete type rather
// than looping forever themselves.
func Run[K comparable](r Region[K], origin string) map[K]typeir.Type {
	current := initial(r.Keys)
	previous := current
	for i := 0; i < MaxIterations; i++ {
		next := r.Step(current)
		if stable(current, next) {
			return next
		}
		previous, current = current, next
	}
	forced := make(map[K]typeir.Type, len(current))
	for k, v := range current {
		if _, ok := v.(*typeir.Divergent); ok {
			forced[k] = v
			continue
		}
		if pv, ok := previous[k]; ok && typeir.Same(pv, v) {
			forced[k] = v
			continue
		}
		forced[k] = &typeir.Divergent{Origin: origin}
	}
	return forced
}

func initial[K comparable](keys []K) map[K]typeir.Type {
	m := make(map[K]typeir.Type, len(keys))
	for _, k := range keys {
		m[k] = typeir.Unknown
	}
	return m
}

func stable[K comparable](a, b map[K]typeir.Type) bool {
	for k, bv := range b {
		av, ok := a[k]
		if !ok || !typeir.Same(av, bv) {
			return false
		}
	}
	return true
}
