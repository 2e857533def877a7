package typeir

// NewUnion builds the normal form of a union of elems (spec.md §4.1):
//   - flatten nested unions
//   - drop Never (the identity element for union)
//   - dedupe by identity (key equality)
//   - an empty result is Never; a singleton result is returned unwrapped
//   - insertion order is preserved for the surviving elements, which keeps
//     diagnostic rendering stable across equivalent construction orders
//
// Unknown/Any are NOT specially absorbed here: `Unknown | int` stays a
// two-element union, because assignability (not equivalence) is where the
// gradual atoms do their collapsing (spec.md §4.1 "Unknown and Any
// participate only in assignability").
func NewUnion(elems ...Type) Type {
	flat := make([]Type, 0, len(elems))
	flatten(elems, &flat)

	seen := make(map[string]bool, len(flat))
	out := make([]Type, 0, len(flat))
	for _, e := range flat {
		if Same(e, Never) {
			continue
		}
		k := e.key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}

	switch len(out) {
	case 0:
		return Never
	case 1:
		return out[0]
	default:
		return &UnionType{Elements: out}
	}
}

func flatten(elems []Type, out *[]Type) {
	for _, e := range elems {
		if u, ok := e.(*UnionType); ok {
			flatten(u.Elements, out)
			continue
		}
		*out = append(*out, e)
	}
}

// UnionMembers returns t's elements if t is a union, or []Type{t} otherwise
// — the usual way callers iterate "the union, or the one type" uniformly
// (spec.md §4.4 "union mapping": distributing an operator over each member).
func UnionMembers(t Type) []Type {
	if u, ok := t.(*UnionType); ok {
		return u.Elements
	}
	return []Type{t}
}
