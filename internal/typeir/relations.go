package typeir

// This file implements the four core relations of spec.md §4.1: strict
// subtyping, gradual assignability, equivalence and disjointness. They are
// mutually recursive by construction (union/intersection distribute through
// each other), so they live together rather than split per-relation.

// IsEquivalent reports whether a and b denote the same set of values. For
// almost everything this is identity (Same), but unions/intersections built
// in different orders must still compare equal, and Any is equivalent only
// to itself (never to Unknown, despite both being gradual).
func IsEquivalent(a, b Type) bool {
	if Same(a, b) {
		return true
	}
	if ua, ok := a.(*UnionType); ok {
		if ub, ok := b.(*UnionType); ok {
			return sameMemberSet(ua.Elements, ub.Elements, IsEquivalent)
		}
		return false
	}
	if ia, ok := a.(*IntersectionType); ok {
		if ib, ok := b.(*IntersectionType); ok {
			return sameMemberSet(ia.Positive, ib.Positive, IsEquivalent) &&
				sameMemberSet(ia.Negative, ib.Negative, IsEquivalent)
		}
		return false
	}
	return false
}

func sameMemberSet(a, b []Type, eq func(x, y Type) bool) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, x := range a {
		found := false
		for i, y := range b {
			if !used[i] && eq(x, y) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// IsSubtype reports strict (non-gradual) subtyping: every value of `sub` is
// also a value of `super`. Unknown/Any never participate — callers that
// allow the gradual atoms must use IsAssignable instead (spec.md §4.1).
func IsSubtype(sub, super Type) bool {
	if a, ok := sub.(*TypeAlias); ok && a.Expansion != nil {
		return IsSubtype(a.Expansion, super)
	}
	if a, ok := super.(*TypeAlias); ok && a.Expansion != nil {
		return IsSubtype(sub, a.Expansion)
	}
	if isDynamic(sub) || isDynamic(super) {
		return false
	}
	if Same(sub, Never) {
		return true
	}
	if Same(super, objectNominal) {
		return true
	}
	if IsEquivalent(sub, super) {
		return true
	}

	if u, ok := sub.(*UnionType); ok {
		for _, m := range u.Elements {
			if !IsSubtype(m, super) {
				return false
			}
		}
		return true
	}
	if u, ok := super.(*UnionType); ok {
		for _, m := range u.Elements {
			if IsSubtype(sub, m) {
				return true
			}
		}
		return false
	}

	if i, ok := sub.(*IntersectionType); ok {
		for _, p := range i.Positive {
			if IsSubtype(p, super) {
				return true
			}
		}
		return false
	}
	if i, ok := super.(*IntersectionType); ok {
		for _, p := range i.Positive {
			if !IsSubtype(sub, p) {
				return false
			}
		}
		for _, n := range i.Negative {
			if IsDisjoint(sub, n) {
				continue
			}
			return false
		}
		return true
	}

	switch s := sub.(type) {
	case *NominalInstance:
		if sup, ok := super.(*NominalInstance); ok {
			return classIsSubclass(s.Class, sup.Class)
		}
		if sup, ok := super.(*ProtocolInstance); ok {
			return classImplementsProtocol(s.Class, sup.Class)
		}
	case *GenericAlias:
		if sup, ok := super.(*GenericAlias); ok && s.Class == sup.Class {
			return specializationSubtype(s, sup)
		}
		if sup, ok := super.(*NominalInstance); ok {
			// erasure: list[int] is a list
			return classIsSubclass(s.Class, sup.Class)
		}
		if sup, ok := super.(*ProtocolInstance); ok {
			return classImplementsProtocol(s.Class, sup.Class)
		}
	case *ProtocolInstance:
		if sup, ok := super.(*ProtocolInstance); ok {
			return classImplementsProtocol(s.Class, sup.Class)
		}
	case *TypedDictType:
		if sup, ok := super.(*TypedDictType); ok {
			return classIsSubclass(s.Class, sup.Class)
		}
	case *NewTypeInstance:
		// a NewType is a distinct nominal wrapper, but every supertype of
		// its base admits it
		return IsSubtype(s.Base, super)
	case *EnumLiteral:
		if sup, ok := super.(*NominalInstance); ok {
			return classIsSubclass(s.Class, sup.Class)
		}
		if sup, ok := super.(*EnumLiteral); ok {
			return s.Class == sup.Class && s.Member == sup.Member
		}
	case *ClassLiteralType:
		if sup, ok := super.(*SubclassOf); ok {
			return IsSubtype(&NominalInstance{Class: s.Class}, sup.Of)
		}
		if sup, ok := super.(*ClassLiteralType); ok {
			return classIsSubclass(s.Class, sup.Class)
		}
	case *CallableType:
		if sup, ok := super.(*CallableType); ok {
			return callableSubtype(s.Signatures, sup.Signatures)
		}
	case *FunctionLiteral:
		if sup, ok := super.(*CallableType); ok {
			return callableSubtype(s.Overloads, sup.Signatures)
		}
	case *BoundMethod:
		if sup, ok := super.(*CallableType); ok {
			return callableSubtype(s.Function.Overloads, sup.Signatures)
		}
	case *IntLiteral:
		if sup, ok := super.(*NominalInstance); ok {
			return sup.Class.KnownClass == KnownInt
		}
	case *BooleanLiteral:
		if sup, ok := super.(*NominalInstance); ok {
			return sup.Class.KnownClass == KnownBool || sup.Class.KnownClass == KnownInt
		}
	case *StringLiteral:
		if Same(super, LiteralStringType) {
			return true
		}
		if sup, ok := super.(*NominalInstance); ok {
			return sup.Class.KnownClass == KnownStr
		}
	case *BytesLiteral:
		if sup, ok := super.(*NominalInstance); ok {
			return sup.Class.KnownClass == KnownBytes
		}
	}
	return false
}

// IsAssignable is the gradual relation used everywhere a declared type is
// checked against an inferred one: identical to IsSubtype except Unknown
// and Any are assignable to, and from, everything (spec.md §4.1).
func IsAssignable(value, target Type) bool {
	if isDynamic(value) || isDynamic(target) {
		return true
	}
	if Same(target, Never) {
		return Same(value, Never)
	}
	return materializedAssignable(value, target)
}

// materializedAssignable handles the cases where a gradual atom is nested
// inside a compound type (`list[Any]` assignable to `list[int]`), by
// checking structural compatibility member-wise rather than falling back to
// strict subtyping, which would reject it.
func materializedAssignable(value, target Type) bool {
	if a, ok := value.(*TypeAlias); ok && a.Expansion != nil {
		return IsAssignable(a.Expansion, target)
	}
	if a, ok := target.(*TypeAlias); ok && a.Expansion != nil {
		return IsAssignable(value, a.Expansion)
	}
	if u, ok := value.(*UnionType); ok {
		for _, m := range u.Elements {
			if !IsAssignable(m, target) {
				return false
			}
		}
		return true
	}
	if u, ok := target.(*UnionType); ok {
		for _, m := range u.Elements {
			if IsAssignable(value, m) {
				return true
			}
		}
		return false
	}
	if ga, ok := value.(*GenericAlias); ok {
		if gt, ok := target.(*GenericAlias); ok && ga.Class == gt.Class {
			return specializationAssignable(ga.Specialization, gt.Specialization)
		}
	}
	return IsSubtype(value, target)
}

func specializationAssignable(a, b *Specialization) bool {
	if a == nil || b == nil || len(a.Args) != len(b.Args) {
		return a == b
	}
	for i := range a.Args {
		av, bv := a.Args[i], b.Args[i]
		if av == nil || bv == nil {
			continue
		}
		if !IsAssignable(av, bv) {
			return false
		}
	}
	return true
}

// IsDisjoint reports whether no value can inhabit both a and b — used by
// match-statement exhaustiveness and by negative intersection members
// (spec.md §4.1, §4.6).
func IsDisjoint(a, b Type) bool {
	if isDynamic(a) || isDynamic(b) {
		return false
	}
	if Same(a, Never) || Same(b, Never) {
		return true
	}
	if u, ok := a.(*UnionType); ok {
		for _, m := range u.Elements {
			if !IsDisjoint(m, b) {
				return false
			}
		}
		return true
	}
	if u, ok := b.(*UnionType); ok {
		for _, m := range u.Elements {
			if !IsDisjoint(a, m) {
				return false
			}
		}
		return true
	}
	if IsSubtype(a, b) || IsSubtype(b, a) {
		return false
	}

	an, aok := a.(*NominalInstance)
	bn, bok := b.(*NominalInstance)
	if aok && bok {
		// IsSubtype already ruled out a direct MRO relationship above; the
		// remaining exception is structural compatibility (spec.md §4.1
		// "neither class is itself structural (protocol/NewType) compatible
		// with the other") — a concrete class disjoint by MRO can still
		// satisfy a protocol the other side names.
		return !classImplementsProtocol(an.Class, bn.Class) && !classImplementsProtocol(bn.Class, an.Class)
	}
	return false
}

// specializationSubtype compares two specializations of the same class:
// tuples are covariant elementwise (length-respecting); every other
// builtin generic is invariant, matching spec.md §4.1 "where variance is
// not annotated, invariant is assumed".
func specializationSubtype(sub, super *GenericAlias) bool {
	a, b := sub.Specialization, super.Specialization
	if a == nil || b == nil {
		return a == b
	}
	if sub.Class.KnownClass == KnownTuple {
		if len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if a.Args[i] == nil || b.Args[i] == nil {
				continue
			}
			if !IsSubtype(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	}
	if len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if a.Args[i] == nil || b.Args[i] == nil {
			continue
		}
		if !IsEquivalent(a.Args[i], b.Args[i]) {
			return false
		}
	}
	return true
}

// callableSubtype: every supertype signature must be satisfiable by some
// subtype overload (contravariant params, covariant return via
// SignatureAssignable).
func callableSubtype(sub []*Signature, super []*Signature) bool {
	for _, sup := range super {
		ok := false
		for _, s := range sub {
			if SignatureAssignable(s, sup) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func isDynamic(t Type) bool {
	_, ok := t.(*dynamic)
	return ok
}

// IsDynamic reports whether t is Unknown or Any — the two atoms that
// participate in neither subtyping nor callability/operator checks.
func IsDynamic(t Type) bool { return isDynamic(t) }

var objectNominal Type = &NominalInstance{Class: &ClassLiteral{Name: "object", DefiningFile: "<builtins>", KnownClass: KnownObject}}

// classIsSubclass and classImplementsProtocol walk DerivedMRO /
// DerivedIsProtocol membership, the fields internal/classmodel computes
// (spec.md §4.2). They're defined here, not in classmodel, so the algebra
// package has no dependency on it — classmodel depends on typeir, never the
// reverse.
func classIsSubclass(sub, super *ClassLiteral) bool {
	if sub == super {
		return true
	}
	if sub.DerivedMRO == nil {
		return false
	}
	for _, c := range sub.DerivedMRO {
		if c == super || (c.Name == super.Name && c.DefiningFile == super.DefiningFile) {
			return true
		}
	}
	return false
}

func classImplementsProtocol(concrete, proto *ClassLiteral) bool {
	if !proto.DerivedIsProtocol {
		return false
	}
	protoMembers := make(map[string]bool, len(proto.DerivedFields)+len(proto.DerivedMembers))
	addNames(protoMembers, proto)
	if len(protoMembers) == 0 {
		return true
	}
	concreteMembers := make(map[string]bool)
	addNames(concreteMembers, concrete)
	for _, c := range concrete.DerivedMRO {
		addNames(concreteMembers, c)
	}
	for name := range protoMembers {
		if !concreteMembers[name] {
			return false
		}
	}
	return true
}

func addNames(into map[string]bool, c *ClassLiteral) {
	for _, f := range c.DerivedFields {
		into[f.Name] = true
	}
	for _, m := range c.DerivedMembers {
		into[m.Name] = true
	}
}
