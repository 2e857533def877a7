package classmodel

import (
	"fmt"

	"github.com/prismafold/pytc/internal/typeir"
)

// ResolveMetaclass computes c's metaclass (spec.md §4.2): the most derived
// metaclass among an explicit `metaclass=` keyword and each base's own
// metaclass, written to c.DerivedMetaclass. Requires c.DerivedMRO (bases'
// metaclasses) to already be resolved, so call after LinearizeMRO.
func ResolveMetaclass(c *typeir.ClassLiteral, explicit *typeir.ClassLiteral, typeClass *typeir.ClassLiteral) error {
	if c.Computing() {
		return &InheritanceCycle{Class: c}
	}

	candidates := make([]*typeir.ClassLiteral, 0, len(c.DerivedBases)+1)
	if explicit != nil {
		candidates = append(candidates, explicit)
	}
	for _, b := range c.DerivedBases {
		if b.DerivedMetaclass != nil {
			candidates = append(candidates, b.DerivedMetaclass)
		}
	}
	if len(candidates) == 0 {
		c.DerivedMetaclass = typeClass
		return nil
	}

	winner := candidates[0]
	for _, cand := range candidates[1:] {
		switch {
		case winner == cand:
			continue
		case classIsAncestor(cand, winner):
			continue // winner already more derived
		case classIsAncestor(winner, cand):
			winner = cand
		default:
			return &ConflictingMetaclass{Class: c, A: winner, B: cand}
		}
	}
	c.DerivedMetaclass = winner
	return nil
}

func classIsAncestor(ancestor, of *typeir.ClassLiteral) bool {
	for _, m := range of.DerivedMRO {
		if m == ancestor {
			return true
		}
	}
	return false
}

type ConflictingMetaclass struct {
	Class *typeir.ClassLiteral
	A, B  *typeir.ClassLiteral
}

func (e *ConflictingMetaclass) Error() string {
	return fmt.Sprintf("metaclass conflict for %q: %q and %q are unrelated", e.Class.Name, e.A.Name, e.B.Name)
}

type InvalidMetaclass struct {
	Class    *typeir.ClassLiteral
	NotAType string
}

func (e *InvalidMetaclass) Error() string {
	return fmt.Sprintf("metaclass of %q is not a type: %s", e.Class.Name, e.NotAType)
}
