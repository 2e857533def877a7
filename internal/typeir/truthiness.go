package typeir

// Truthiness models Python's three-valued `bool(x)` outcome for a static
// type: always truthy, always falsy, or ambiguous (spec.md §4.1 "try_bool").
// TryBoolResult has room for an error describing an ill-typed
// `__bool__`/`__len__`, but TryBool never fills it: it looks up neither
// dunder, so an ill-typed one goes unreported.
type Truthiness int

const (
	TruthAmbiguous Truthiness = iota
	TruthAlwaysTrue
	TruthAlwaysFalse
)

// TryBoolResult is the outcome of evaluating a type's static truthiness.
type TryBoolResult struct {
	Truthiness Truthiness
	Err        *BoolConversionError // non-nil only when Truthiness can't be determined because __bool__ is malformed
}

// BoolConversionError records that invoking `__bool__` on a type didn't
// produce a usable bool (e.g. it returns NoReturn, or isn't callable at
// all). Carried, not panicked: the caller decides whether this blocks
// narrowing or just falls back to TruthAmbiguous (spec.md §7).
type BoolConversionError struct {
	Type   Type
	Detail string
}

// TryBool computes t's static truthiness from its known-class identity and
// literal value. Every other type, including a class with a user
// `__bool__`/`__len__`, is TruthAmbiguous with a nil Err; nothing in the
// checker resolves truthiness through those dunders.
func TryBool(t Type) TryBoolResult {
	switch v := t.(type) {
	case *BooleanLiteral:
		if v.Value {
			return TryBoolResult{Truthiness: TruthAlwaysTrue}
		}
		return TryBoolResult{Truthiness: TruthAlwaysFalse}
	case *IntLiteral:
		if v.Value == 0 {
			return TryBoolResult{Truthiness: TruthAlwaysFalse}
		}
		return TryBoolResult{Truthiness: TruthAlwaysTrue}
	case *StringLiteral:
		if v.Value == "" {
			return TryBoolResult{Truthiness: TruthAlwaysFalse}
		}
		return TryBoolResult{Truthiness: TruthAlwaysTrue}
	case *BytesLiteral:
		if v.Value == "" {
			return TryBoolResult{Truthiness: TruthAlwaysFalse}
		}
		return TryBoolResult{Truthiness: TruthAlwaysTrue}
	case *UnionType:
		result := TryBoolResult{}
		for i, m := range v.Elements {
			r := TryBool(m)
			if i == 0 {
				result = r
				continue
			}
			if r.Truthiness != result.Truthiness {
				return TryBoolResult{Truthiness: TruthAmbiguous}
			}
		}
		return result
	}
	return TryBoolResult{Truthiness: TruthAmbiguous}
}

// NarrowByTruthiness keeps the union members of t that can produce the
// given truth value, dropping those TryBool proves cannot; ambiguous
// members are kept unchanged, with no intersection against
// AlwaysTruthy/AlwaysFalsy (spec.md §4.1). Nothing in the checker calls it.
func NarrowByTruthiness(t Type, wantTruthy bool) Type {
	members := UnionMembers(t)
	kept := make([]Type, 0, len(members))
	for _, m := range members {
		r := TryBool(m)
		switch r.Truthiness {
		case TruthAlwaysTrue:
			if wantTruthy {
				kept = append(kept, m)
			}
		case TruthAlwaysFalse:
			if !wantTruthy {
				kept = append(kept, m)
			}
		default:
			kept = append(kept, m)
		}
	}
	return NewUnion(kept...)
}
