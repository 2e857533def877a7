package typeir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// This file exercises the algebraic laws and literal-widening boundary
// behaviors spec.md §8 requires of the type algebra, grounded on the
// teacher's own `internal/types` unification tests (equivalence up to
// normal form, rather than byte-identical construction order).

func intClass() *ClassLiteral {
	return &ClassLiteral{Name: "int", DefiningFile: "<builtins>", KnownClass: KnownInt}
}

func strClass() *ClassLiteral {
	return &ClassLiteral{Name: "str", DefiningFile: "<builtins>", KnownClass: KnownStr}
}

func instanceOf(c *ClassLiteral) Type { return &NominalInstance{Class: c} }

func TestUnionIdempotentAndAbsorbsNever(t *testing.T) {
	intT := instanceOf(intClass())
	require.True(t, IsEquivalent(NewUnion(intT), intT))
	require.True(t, IsEquivalent(NewUnion(intT, intT), intT))
	require.True(t, IsEquivalent(NewUnion(intT, Never), intT))
}

func TestUnionFlattensNested(t *testing.T) {
	intT, strT := instanceOf(intClass()), instanceOf(strClass())
	flat := NewUnion(intT, strT)
	nested := NewUnion(NewUnion(intT), strT)
	require.True(t, IsEquivalent(flat, nested))
}

func TestUnionCommutativeAndAssociative(t *testing.T) {
	a, b, c := instanceOf(intClass()), instanceOf(strClass()), &BooleanLiteral{Value: true}
	require.True(t, IsEquivalent(NewUnion(a, b), NewUnion(b, a)))
	require.True(t, IsEquivalent(NewUnion(NewUnion(a, b), c), NewUnion(a, NewUnion(b, c))))
}

func TestIntersectionIdempotentAndObjectIdentity(t *testing.T) {
	intT := instanceOf(intClass())
	require.True(t, IsEquivalent(NewIntersection([]Type{intT, intT}, nil), intT))
	require.True(t, IsEquivalent(NewIntersection([]Type{intT, objectInstance()}, nil), intT))
}

func TestIntersectionWithNeverIsNever(t *testing.T) {
	intT := instanceOf(intClass())
	require.True(t, Same(NewIntersection([]Type{intT, Never}, nil), Never))
}

func TestDisjointTypesIntersectToNever(t *testing.T) {
	a := &ClassLiteral{Name: "A", DefiningFile: "t.py"}
	b := &ClassLiteral{Name: "B", DefiningFile: "t.py"}
	object := &ClassLiteral{Name: "object", DefiningFile: "<builtins>"}
	a.DerivedMRO = []*ClassLiteral{a, object}
	b.DerivedMRO = []*ClassLiteral{b, object}

	ai, bi := instanceOf(a), instanceOf(b)
	require.True(t, IsDisjoint(ai, bi))
	require.True(t, Same(NewIntersection([]Type{ai, bi}, nil), Never))

	// (T | U) & T == T when T and U are disjoint.
	union := NewUnion(ai, bi)
	narrowed := NewIntersection([]Type{union, ai}, nil)
	require.True(t, IsSubtype(narrowed, ai) && IsSubtype(ai, narrowed))
}

func TestSubtypeReflexiveAndTransitive(t *testing.T) {
	intT := instanceOf(intClass())
	require.True(t, IsSubtype(intT, intT))

	grandparent := &ClassLiteral{Name: "G", DefiningFile: "t.py"}
	parent := &ClassLiteral{Name: "P", DefiningFile: "t.py"}
	child := &ClassLiteral{Name: "C", DefiningFile: "t.py"}
	parent.DerivedMRO = []*ClassLiteral{parent, grandparent}
	child.DerivedMRO = []*ClassLiteral{child, parent, grandparent}

	require.True(t, IsSubtype(instanceOf(child), instanceOf(parent)))
	require.True(t, IsSubtype(instanceOf(parent), instanceOf(grandparent)))
	require.True(t, IsSubtype(instanceOf(child), instanceOf(grandparent)))
}

func TestEquivalenceIsSymmetricClosureOfSubtypeInNonGradualFragment(t *testing.T) {
	a, b := instanceOf(intClass()), instanceOf(strClass())
	union1 := NewUnion(a, b)
	union2 := NewUnion(b, a)
	require.True(t, IsSubtype(union1, union2) && IsSubtype(union2, union1))
	require.True(t, IsEquivalent(union1, union2))
}

func TestLiteralWidening(t *testing.T) {
	require.True(t, IsSubtype(&IntLiteral{Value: 7}, instanceOf(intClass())))

	str := strClass()
	require.True(t, IsSubtype(&StringLiteral{Value: "x"}, LiteralStringType))
	require.True(t, IsSubtype(&StringLiteral{Value: "x"}, instanceOf(str)))

	boolC := &ClassLiteral{Name: "bool", DefiningFile: "<builtins>", KnownClass: KnownBool}
	intC := intClass()
	require.True(t, IsSubtype(&BooleanLiteral{Value: true}, instanceOf(boolC)))
	require.True(t, IsSubtype(&BooleanLiteral{Value: true}, instanceOf(intC)))
}

func TestAssignabilityIsGradual(t *testing.T) {
	intT := instanceOf(intClass())
	require.True(t, IsAssignable(Unknown, intT))
	require.True(t, IsAssignable(intT, Unknown))
	require.True(t, IsAssignable(AnyType, intT))
	require.True(t, IsAssignable(intT, AnyType))
	require.False(t, IsSubtype(Unknown, intT)) // dynamic atoms never participate in strict subtyping
}

func TestNeverIsBottom(t *testing.T) {
	intT := instanceOf(intClass())
	require.True(t, IsSubtype(Never, intT))
	require.True(t, IsAssignable(Never, intT))
}

func TestUnionSingletonCollapses(t *testing.T) {
	intT := instanceOf(intClass())
	require.Same(t, intT, NewUnion(intT))
}

func TestTruthinessNarrowing(t *testing.T) {
	res := TryBool(&BooleanLiteral{Value: true})
	require.Equal(t, TruthAlwaysTrue, res.Truthiness)
	res = TryBool(&BooleanLiteral{Value: false})
	require.Equal(t, TruthAlwaysFalse, res.Truthiness)
	res = TryBool(instanceOf(intClass()))
	require.Equal(t, TruthAmbiguous, res.Truthiness)
}
