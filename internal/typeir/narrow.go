package typeir

// Narrowing combinators for the two predicate shapes the semantic index's
// constraint tables most commonly encode: `isinstance(x, C)` and
// `x is None` (spec.md §4.5, glossary "Narrowing"). Each is a total
// function Type -> Type, fit for use as a NarrowingConstraint's Apply
// callback; truthiness narrowing lives in truthiness.go.

// NarrowToClass is the positive isinstance branch: keep the union members
// that can be instances of class. A member already at or below the class
// survives unchanged; a member strictly above it (or a dynamic atom)
// narrows to the class instance itself; anything disjoint is dropped.
func NarrowToClass(t Type, class *ClassLiteral) Type {
	target := Type(&NominalInstance{Class: class})
	members := UnionMembers(t)
	kept := make([]Type, 0, len(members))
	for _, m := range members {
		switch {
		case IsDynamic(m):
			kept = append(kept, target)
		case IsSubtype(m, target):
			kept = append(kept, m)
		case IsSubtype(target, m):
			kept = append(kept, target)
		case !IsDisjoint(m, target):
			kept = append(kept, NewIntersection([]Type{m, target}, nil))
		}
	}
	return NewUnion(kept...)
}

// NarrowAwayClass is the negative isinstance branch: drop the union
// members that are provably instances of class; everything ambiguous
// survives (gradual narrowing never invents precision).
func NarrowAwayClass(t Type, class *ClassLiteral) Type {
	target := Type(&NominalInstance{Class: class})
	members := UnionMembers(t)
	kept := make([]Type, 0, len(members))
	for _, m := range members {
		if !IsDynamic(m) && IsSubtype(m, target) {
			continue
		}
		kept = append(kept, m)
	}
	return NewUnion(kept...)
}
