package typeir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Narrowing-combinator behavior for the isinstance / is-None predicate
// shapes (spec.md §8 scenario 2: `x: int | None` narrows to `int` on the
// `is not None` edge).

func linkToObject(classes ...*ClassLiteral) {
	object := &ClassLiteral{Name: "object", DefiningFile: "<builtins>", KnownClass: KnownObject}
	for _, c := range classes {
		c.DerivedMRO = []*ClassLiteral{c, object}
	}
}

func TestNarrowAwayNoneLeavesInt(t *testing.T) {
	intC := &ClassLiteral{Name: "int", DefiningFile: "<builtins>", KnownClass: KnownInt}
	noneC := &ClassLiteral{Name: "NoneType", DefiningFile: "<builtins>", KnownClass: KnownNoneType}
	linkToObject(intC, noneC)

	declared := NewUnion(&NominalInstance{Class: intC}, &NominalInstance{Class: noneC})
	narrowed := NarrowAwayClass(declared, noneC)
	inst, ok := narrowed.(*NominalInstance)
	require.True(t, ok, "got %T: %s", narrowed, narrowed)
	require.Equal(t, KnownInt, inst.Class.KnownClass)
}

func TestNarrowToNoneLeavesNone(t *testing.T) {
	intC := &ClassLiteral{Name: "int", DefiningFile: "<builtins>", KnownClass: KnownInt}
	noneC := &ClassLiteral{Name: "NoneType", DefiningFile: "<builtins>", KnownClass: KnownNoneType}
	linkToObject(intC, noneC)

	declared := NewUnion(&NominalInstance{Class: intC}, &NominalInstance{Class: noneC})
	narrowed := NarrowToClass(declared, noneC)
	inst, ok := narrowed.(*NominalInstance)
	require.True(t, ok, "got %T: %s", narrowed, narrowed)
	require.Equal(t, KnownNoneType, inst.Class.KnownClass)
}

func TestNarrowToClassRefinesSupertypeMember(t *testing.T) {
	base := &ClassLiteral{Name: "Base", DefiningFile: "t.py"}
	sub := &ClassLiteral{Name: "Sub", DefiningFile: "t.py"}
	object := &ClassLiteral{Name: "object", DefiningFile: "<builtins>", KnownClass: KnownObject}
	base.DerivedMRO = []*ClassLiteral{base, object}
	sub.DerivedMRO = []*ClassLiteral{sub, base, object}

	// isinstance(x, Sub) on x: Base narrows to Sub
	narrowed := NarrowToClass(&NominalInstance{Class: base}, sub)
	inst, ok := narrowed.(*NominalInstance)
	require.True(t, ok, "got %T: %s", narrowed, narrowed)
	require.Equal(t, "Sub", inst.Class.Name)
}

func TestNarrowToClassOnDynamicYieldsTheClass(t *testing.T) {
	intC := &ClassLiteral{Name: "int", DefiningFile: "<builtins>", KnownClass: KnownInt}
	linkToObject(intC)
	narrowed := NarrowToClass(Unknown, intC)
	inst, ok := narrowed.(*NominalInstance)
	require.True(t, ok)
	require.Equal(t, KnownInt, inst.Class.KnownClass)
}

func TestLiteralMembersNarrowWithTheirClass(t *testing.T) {
	intC := &ClassLiteral{Name: "int", DefiningFile: "<builtins>", KnownClass: KnownInt}
	noneC := &ClassLiteral{Name: "NoneType", DefiningFile: "<builtins>", KnownClass: KnownNoneType}
	linkToObject(intC, noneC)

	declared := NewUnion(&IntLiteral{Value: 1}, &NominalInstance{Class: noneC})
	narrowed := NarrowToClass(declared, intC)
	lit, ok := narrowed.(*IntLiteral)
	require.True(t, ok, "got %T: %s", narrowed, narrowed)
	require.Equal(t, int64(1), lit.Value)
}

func TestCallableSubtypingIsContravariantInParams(t *testing.T) {
	intC := &ClassLiteral{Name: "int", DefiningFile: "<builtins>", KnownClass: KnownInt}
	boolC := &ClassLiteral{Name: "bool", DefiningFile: "<builtins>", KnownClass: KnownBool}
	object := &ClassLiteral{Name: "object", DefiningFile: "<builtins>", KnownClass: KnownObject}
	intC.DerivedMRO = []*ClassLiteral{intC, object}
	boolC.DerivedMRO = []*ClassLiteral{boolC, intC, object}

	intT := Type(&NominalInstance{Class: intC})
	boolT := Type(&NominalInstance{Class: boolC})

	acceptsInt := &CallableType{Signatures: []*Signature{{
		Params: []Parameter{{Name: "x", Kind: ParamPositionalOrKeyword, Annotated: intT}},
		Return: boolT,
	}}}
	acceptsBool := &CallableType{Signatures: []*Signature{{
		Params: []Parameter{{Name: "x", Kind: ParamPositionalOrKeyword, Annotated: boolT}},
		Return: intT,
	}}}

	// (int) -> bool is usable where (bool) -> int is expected
	require.True(t, IsSubtype(acceptsInt, acceptsBool))
	// but not the other way around: bool params don't accept int arguments
	require.False(t, IsSubtype(acceptsBool, acceptsInt))
}

func TestTupleSubtypingIsElementwiseCovariant(t *testing.T) {
	intC := &ClassLiteral{Name: "int", DefiningFile: "<builtins>", KnownClass: KnownInt}
	boolC := &ClassLiteral{Name: "bool", DefiningFile: "<builtins>", KnownClass: KnownBool}
	tupleC := &ClassLiteral{Name: "tuple", DefiningFile: "<builtins>", KnownClass: KnownTuple}
	object := &ClassLiteral{Name: "object", DefiningFile: "<builtins>", KnownClass: KnownObject}
	intC.DerivedMRO = []*ClassLiteral{intC, object}
	boolC.DerivedMRO = []*ClassLiteral{boolC, intC, object}

	mk := func(elems ...Type) *GenericAlias {
		return &GenericAlias{Class: tupleC, Specialization: &Specialization{Args: elems}}
	}
	intT := Type(&NominalInstance{Class: intC})
	boolT := Type(&NominalInstance{Class: boolC})

	require.True(t, IsSubtype(mk(boolT, boolT), mk(intT, intT)))
	require.False(t, IsSubtype(mk(intT, intT), mk(boolT, boolT)))
	require.False(t, IsSubtype(mk(boolT), mk(boolT, boolT)))
}
