package places

import (
	"github.com/prismafold/pytc/internal/index"
	"github.com/prismafold/pytc/internal/typeir"
)

// ApplyNarrowing composes every constraint that bears on place — those
// recorded at the use itself, then those entering the enclosing scope,
// applied outer-to-inner so an inner narrowing on the same key wins
// (spec.md §4.5 "narrowing constraint composition: inner narrows outer on
// shared keys").
func ApplyNarrowing(ix index.NarrowingTable, use index.UseID, scope index.ScopeID, place index.PlaceID, declared typeir.Type) typeir.Type {
	t := declared
	for _, c := range ix.ConstraintsEnteringScope(scope) {
		if c.Place == place {
			t = applyOne(c, t)
		}
	}
	for _, c := range ix.ConstraintsAtUse(use) {
		if c.Place == place {
			t = applyOne(c, t)
		}
	}
	return t
}

func applyOne(c index.NarrowingConstraint, t typeir.Type) typeir.Type {
	if c.Apply == nil {
		return t
	}
	result := c.Apply(t)
	if narrowed, ok := result.(typeir.Type); ok {
		return narrowed
	}
	return t
}
