package infer

import (
	"testing"

	"github.com/prismafold/pytc/internal/ast"
	"github.com/prismafold/pytc/internal/index"
	"github.com/prismafold/pytc/internal/typeir"
	"github.com/stretchr/testify/require"
)

// This file pins the member-table half of operator dispatch (spec.md §4.4):
// plain dunder lookup, the reflected-priority rule for proper subclasses,
// the unsupported-operator diagnostic, and division by zero.

func classWithMethod(t *testing.T, c *Checker, ix *index.SimpleIndex, clsName, method string, returns ast.Expr, retVal ast.Expr, bases ...ast.Expr) *typeir.ClassLiteral {
	t.Helper()
	def := funcDef(method, []ast.Param{param("self", nil), param("other", nil)}, returns, returnBody(retVal))
	classDef := &ast.ClassDef{Base: ast.Base{NodeID: freshID()}, Name: clsName, Bases: bases, Body: []ast.Stmt{def}}
	bindName(ix, clsName, classDef)
	clt, ok := c.InferDefinition(classDef).(*typeir.ClassLiteralType)
	require.True(t, ok)
	return clt.Class
}

func TestDunderAddOnUserClass(t *testing.T) {
	ix := index.NewSimpleIndex()
	c := NewChecker(&ast.Module{Path: "t.py"}, NewIndexBundle(ix))
	vec := classWithMethod(t, c, ix, "Vec", "__add__", name("str"), strLit("s"))

	got := c.binOpPair(ast.OpAdd, &typeir.NominalInstance{Class: vec}, &typeir.IntLiteral{Value: 2}, &ast.Span{})
	inst, ok := got.(*typeir.NominalInstance)
	require.True(t, ok, "got %T: %s", got, got)
	require.Equal(t, typeir.KnownStr, inst.Class.KnownClass)
	require.Empty(t, c.Sink.All(), "kinds: %v", kindsOf(c.Sink.All()))
}

func TestReflectedDunderWinsForProperSubclass(t *testing.T) {
	ix := index.NewSimpleIndex()
	c := NewChecker(&ast.Module{Path: "t.py"}, NewIndexBundle(ix))

	baseDef := funcDef("__add__", []ast.Param{param("self", nil), param("other", nil)}, name("int"), returnBody(intLit(0)))
	baseClass := &ast.ClassDef{Base: ast.Base{NodeID: freshID()}, Name: "Base", Body: []ast.Stmt{baseDef}}
	baseRef := name("Base")
	bindName(ix, "Base", baseClass, baseRef)
	base, ok := c.InferDefinition(baseClass).(*typeir.ClassLiteralType)
	require.True(t, ok)

	subDef := funcDef("__radd__", []ast.Param{param("self", nil), param("other", nil)}, name("str"), returnBody(strLit("s")))
	subClass := &ast.ClassDef{Base: ast.Base{NodeID: freshID()}, Name: "Sub", Bases: []ast.Expr{baseRef}, Body: []ast.Stmt{subDef}}
	bindName(ix, "Sub", subClass)
	sub, ok := c.InferDefinition(subClass).(*typeir.ClassLiteralType)
	require.True(t, ok)

	// Base() + Sub(): Sub is a proper subclass of Base, so Sub.__radd__
	// is consulted before Base.__add__
	got := c.binOpPair(ast.OpAdd, &typeir.NominalInstance{Class: base.Class}, &typeir.NominalInstance{Class: sub.Class}, &ast.Span{})
	inst, ok := got.(*typeir.NominalInstance)
	require.True(t, ok, "got %T: %s", got, got)
	require.Equal(t, typeir.KnownStr, inst.Class.KnownClass)
}

func TestUnsupportedOperatorIsDiagnosed(t *testing.T) {
	ix := index.NewSimpleIndex()
	c := NewChecker(&ast.Module{Path: "t.py"}, NewIndexBundle(ix))

	bareDef := &ast.ClassDef{Base: ast.Base{NodeID: freshID()}, Name: "Bare"}
	bindName(ix, "Bare", bareDef)
	bare, ok := c.InferDefinition(bareDef).(*typeir.ClassLiteralType)
	require.True(t, ok)

	got := c.binOpPair(ast.OpAdd, &typeir.NominalInstance{Class: bare.Class}, &typeir.IntLiteral{Value: 1}, &ast.Span{})
	require.True(t, typeir.Same(got, typeir.Unknown))
	require.Contains(t, kindsOf(c.Sink.All()), "unsupported-operator")
}

func TestDivisionByZeroIsDiagnosed(t *testing.T) {
	c := newTestChecker()
	got := c.InferExpr(binOp(intLit(1), ast.OpFloorDiv, intLit(0)), NoContext)
	inst, ok := got.(*typeir.NominalInstance)
	require.True(t, ok)
	require.Equal(t, typeir.KnownInt, inst.Class.KnownClass)
	require.Contains(t, kindsOf(c.Sink.All()), "division-by-zero")
}

func TestTrueDivisionOfIntsIsFloat(t *testing.T) {
	c := newTestChecker()
	got := c.InferExpr(binOp(intLit(1), ast.OpDiv, intLit(2)), NoContext)
	inst, ok := got.(*typeir.NominalInstance)
	require.True(t, ok)
	require.Equal(t, typeir.KnownFloat, inst.Class.KnownClass)
}

func TestUnsupportedComparisonBetweenScalarCategories(t *testing.T) {
	c := newTestChecker()
	cmp := &ast.Compare{
		Base:        ast.Base{NodeID: freshID()},
		Left:        intLit(1),
		Ops:         []ast.CmpOpKind{ast.CmpLt},
		Comparators: []ast.Expr{strLit("a")},
	}
	got := c.InferExpr(cmp, NoContext)
	inst, ok := got.(*typeir.NominalInstance)
	require.True(t, ok)
	require.Equal(t, typeir.KnownBool, inst.Class.KnownClass)
	require.Contains(t, kindsOf(c.Sink.All()), "unsupported-comparison")
}

func TestEqualityNeverReportsUnsupported(t *testing.T) {
	c := newTestChecker()
	cmp := &ast.Compare{
		Base:        ast.Base{NodeID: freshID()},
		Left:        intLit(1),
		Ops:         []ast.CmpOpKind{ast.CmpEq},
		Comparators: []ast.Expr{strLit("a")},
	}
	c.InferExpr(cmp, NoContext)
	require.Empty(t, c.Sink.All(), "kinds: %v", kindsOf(c.Sink.All()))
}

func TestAugmentedAssignmentPrefersInPlaceDunder(t *testing.T) {
	ix := index.NewSimpleIndex()
	c := NewChecker(&ast.Module{Path: "t.py"}, NewIndexBundle(ix))
	acc := classWithMethod(t, c, ix, "Acc", "__iadd__", name("int"), intLit(0))

	got := c.augOpPair(ast.OpAdd, &typeir.NominalInstance{Class: acc}, &typeir.IntLiteral{Value: 1}, &ast.Span{})
	inst, ok := got.(*typeir.NominalInstance)
	require.True(t, ok, "got %T: %s", got, got)
	require.Equal(t, typeir.KnownInt, inst.Class.KnownClass)
	require.Empty(t, c.Sink.All(), "kinds: %v", kindsOf(c.Sink.All()))
}
