package signature

import "github.com/prismafold/pytc/internal/typeir"

// Solve infers a Specialization for sig.Generic from a completed Binding:
// each typevar's solution is the join (union) of every argument type
// assigned to a parameter annotated with exactly that typevar. No meet
// (intersection) is ever taken: every occurrence counts the same way,
// whatever its variance. A typevar with no such argument takes its
// declared default, or stays unbound (nil) when it has none.
func Solve(b *Binding) *typeir.Specialization {
	gc := b.Sig.Generic
	if gc == nil {
		return nil
	}
	args := make([]typeir.Type, len(gc.Vars))
	occurrences := make([][]typeir.Type, len(gc.Vars))

	for _, p := range b.Sig.Params {
		tv, idx := typevarIn(gc, p.Annotated)
		if tv == nil {
			continue
		}
		if val, ok := b.Params[p.Name]; ok {
			occurrences[idx] = append(occurrences[idx], val)
		}
	}

	for i, occ := range occurrences {
		if len(occ) == 0 {
			if gc.Vars[i].Default != nil {
				args[i] = gc.Vars[i].Default
			}
			continue
		}
		args[i] = typeir.NewUnion(occ...)
	}
	return &typeir.Specialization{Context: gc, Args: args}
}

// typevarIn reports whether t is exactly one of gc's typevars (the common,
// directly-annotated case; nested occurrences inside a generic alias are
// not unified by this simplified solver).
func typevarIn(gc *typeir.GenericContext, t typeir.Type) (*typeir.TypeVarType, int) {
	if t == nil {
		return nil, -1
	}
	tv, ok := t.(*typeir.TypeVarType)
	if !ok {
		return nil, -1
	}
	idx := gc.IndexOf(tv.Name)
	if idx < 0 {
		return nil, -1
	}
	return tv, idx
}

// Substitute replaces every occurrence of a bound typevar in t with its
// solved type from spec. Unresolved typevars (no occurrence in the call)
// fall back to Unknown rather than leaking an unbound TypeVarType into the
// return type.
func Substitute(t typeir.Type, spec *typeir.Specialization) typeir.Type {
	if t == nil || spec == nil {
		return t
	}
	switch v := t.(type) {
	case *typeir.TypeVarType:
		if val, ok := spec.Get(v.Name); ok {
			return val
		}
		return typeir.Unknown
	case *typeir.UnionType:
		elems := make([]typeir.Type, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = Substitute(e, spec)
		}
		return typeir.NewUnion(elems...)
	case *typeir.GenericAlias:
		if v.Specialization == nil {
			return v
		}
		newArgs := make([]typeir.Type, len(v.Specialization.Args))
		for i, a := range v.Specialization.Args {
			if a != nil {
				newArgs[i] = Substitute(a, spec)
			}
		}
		return &typeir.GenericAlias{Class: v.Class, Specialization: &typeir.Specialization{Context: v.Specialization.Context, Args: newArgs}}
	default:
		return t
	}
}
