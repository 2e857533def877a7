package typeir

// NewIntersection builds the normal form of an intersection of positive and
// negative atoms (spec.md §4.1):
//   - flatten nested intersections (both polarities)
//   - dedupe each polarity by identity
//   - object is absorbing: a positive `object` is dropped whenever another
//     positive atom is present
//   - Never anywhere (positive) collapses the whole thing to Never
//   - a type that appears both positive and negative is directly disjoint
//     from itself under negation, so the whole thing collapses to Never
//   - two pairwise-disjoint positive atoms collapse the whole thing to
//     Never (spec.md §8: `T ⊥ U` implies `T ∩ U ≡ Never`)
//   - a negative atom disjoint from every positive atom is dropped as
//     redundant rather than kept as dead weight
//   - a single positive atom with no negatives collapses to that atom
//   - no positives at all collapses to AnyType, since an intersection needs
//     at least one positive bound to mean anything on its own
func NewIntersection(positive, negative []Type) Type {
	var posFlat, negFlat []Type
	flattenIntersection(positive, false, &posFlat, &negFlat)
	flattenIntersection(negative, true, &posFlat, &negFlat)

	posSeen := make(map[string]bool, len(posFlat))
	pos := make([]Type, 0, len(posFlat))
	for _, p := range posFlat {
		if Same(p, Never) {
			return Never
		}
		k := p.key()
		if posSeen[k] {
			continue
		}
		posSeen[k] = true
		pos = append(pos, p)
	}

	negSeen := make(map[string]bool, len(negFlat))
	neg := make([]Type, 0, len(negFlat))
	for _, n := range negFlat {
		k := n.key()
		if negSeen[k] {
			continue
		}
		negSeen[k] = true
		neg = append(neg, n)
	}

	for _, n := range neg {
		if posSeen[n.key()] {
			return Never
		}
	}

	// A negative atom disjoint from every positive atom is redundant: it
	// can never have excluded anything the positives didn't already rule
	// out, so it's dropped rather than carried as dead weight.
	if len(pos) > 0 && len(neg) > 0 {
		kept := neg[:0:0]
		for _, n := range neg {
			redundant := true
			for _, p := range pos {
				if !IsDisjoint(p, n) {
					redundant = false
					break
				}
			}
			if !redundant {
				kept = append(kept, n)
			}
		}
		neg = kept
	}

	// Two pairwise-disjoint positive atoms mean nothing can inhabit the
	// intersection at all: `A & B` with `A ⊥ B` is Never (spec.md §8).
	for i := 0; i < len(pos); i++ {
		for j := i + 1; j < len(pos); j++ {
			if IsDisjoint(pos[i], pos[j]) {
				return Never
			}
		}
	}

	if len(pos) > 1 {
		filtered := pos[:0:0]
		for _, p := range pos {
			if Same(p, objectInstance()) {
				continue
			}
			filtered = append(filtered, p)
		}
		if len(filtered) > 0 {
			pos = filtered
		}
	}

	if len(pos) == 0 {
		return AnyType
	}
	if len(pos) == 1 && len(neg) == 0 {
		return pos[0]
	}
	return &IntersectionType{Positive: pos, Negative: neg}
}

func flattenIntersection(elems []Type, negated bool, pos, neg *[]Type) {
	for _, e := range elems {
		if i, ok := e.(*IntersectionType); ok {
			if !negated {
				*pos = append(*pos, i.Positive...)
				*neg = append(*neg, i.Negative...)
			} else {
				// negating a nested intersection would require De Morgan
				// expansion into a union; this checker never constructs
				// negated intersections, so treat it as an opaque atom.
				*neg = append(*neg, e)
			}
			continue
		}
		if negated {
			*neg = append(*neg, e)
		} else {
			*pos = append(*pos, e)
		}
	}
}

// objectInstance is a best-effort identity probe for the root `object`
// class; intersection's absorbing-element rule only fires when callers
// construct positive atoms for the actual object NominalInstance, which
// compares equal by key() to any other object instance reference.
func objectInstance() Type {
	return &NominalInstance{Class: &ClassLiteral{Name: "object", DefiningFile: "<builtins>"}}
}
