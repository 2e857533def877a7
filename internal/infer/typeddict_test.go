package infer

import (
	"testing"

	"github.com/prismafold/pytc/internal/ast"
	"github.com/prismafold/pytc/internal/index"
	"github.com/prismafold/pytc/internal/typeir"
	"github.com/stretchr/testify/require"
)

// This file is spec.md §8 scenario 6 end to end: TypedDict construction
// from a dict display, subscript stores against the field map, and the
// required-key pop rule.

func typedDictFixture(t *testing.T) (*Checker, *index.SimpleIndex, *ast.ClassDef, func() *ast.Name) {
	t.Helper()
	ix := index.NewSimpleIndex()
	c := NewChecker(&ast.Module{Path: "t.py"}, NewIndexBundle(ix))

	fieldX := &ast.AnnAssign{Base: ast.Base{NodeID: freshID()}, Target: name("x"), Annotation: name("int")}
	fieldY := &ast.AnnAssign{Base: ast.Base{NodeID: freshID()}, Target: name("y"), Annotation: name("int")}
	classDef := &ast.ClassDef{
		Base:  ast.Base{NodeID: freshID()},
		Name:  "Pt",
		Bases: []ast.Expr{name("TypedDict")},
		Body:  []ast.Stmt{fieldX, fieldY},
	}
	place := ix.InternPlace(index.ModuleScope, index.PlaceSymbol, "Pt", 0)
	binding := ix.AddBinding(place, classDef)
	ref := func() *ast.Name {
		n := name("Pt")
		ix.SetReachingAtUse(index.UseID(n.ID()), binding)
		return n
	}
	c.InferStmt(classDef)
	require.Empty(t, c.Sink.All(), "class body should check clean: %v", kindsOf(c.Sink.All()))
	return c, ix, classDef, ref
}

func dictLit(items ...ast.DictItem) *ast.DictExpr {
	return &ast.DictExpr{Base: ast.Base{NodeID: freshID()}, Items: items}
}

func item(key, val ast.Expr) ast.DictItem { return ast.DictItem{Key: key, Value: val} }

func TestTypedDictLiteralAgainstDeclaredContext(t *testing.T) {
	c, ix, _, ref := typedDictFixture(t)

	target := name("p")
	assign := &ast.AnnAssign{
		Base:       ast.Base{NodeID: freshID()},
		Target:     target,
		Annotation: ref(),
		Value:      dictLit(item(strLit("x"), intLit(1)), item(strLit("y"), intLit(2))),
	}
	place := ix.InternPlace(index.ModuleScope, index.PlaceSymbol, "p", 0)
	binding := ix.AddBinding(place, assign)
	ix.SetReachingAtUse(index.UseID(target.ID()), binding)

	c.InferStmt(assign)
	require.Empty(t, c.Sink.All(), "kinds: %v", kindsOf(c.Sink.All()))
}

func TestTypedDictLiteralRejectsUnknownAndMissingKeys(t *testing.T) {
	c, _, _, ref := typedDictFixture(t)

	assign := &ast.AnnAssign{
		Base:       ast.Base{NodeID: freshID()},
		Target:     name("p"),
		Annotation: ref(),
		Value:      dictLit(item(strLit("x"), intLit(1)), item(strLit("z"), intLit(3))),
	}
	c.InferStmt(assign)
	kinds := kindsOf(c.Sink.All())
	require.Contains(t, kinds, "invalid-key") // both the unknown "z" and the missing "y"
}

func TestTypedDictSubscriptStoreRejectsUnknownKey(t *testing.T) {
	c, ix, _, ref := typedDictFixture(t)

	target := name("p")
	decl := &ast.AnnAssign{
		Base:       ast.Base{NodeID: freshID()},
		Target:     target,
		Annotation: ref(),
		Value:      dictLit(item(strLit("x"), intLit(1)), item(strLit("y"), intLit(2))),
	}
	place := ix.InternPlace(index.ModuleScope, index.PlaceSymbol, "p", 0)
	binding := ix.AddBinding(place, decl)
	ix.SetReachingAtUse(index.UseID(target.ID()), binding)
	c.InferStmt(decl)
	require.Empty(t, c.Sink.All(), "kinds: %v", kindsOf(c.Sink.All()))

	pUse := name("p")
	ix.SetReachingAtUse(index.UseID(pUse.ID()), binding)
	store := &ast.Assign{
		Base:    ast.Base{NodeID: freshID()},
		Targets: []ast.Expr{subscript(pUse, strLit("z"))},
		Value:   intLit(3),
	}
	c.InferStmt(store)
	require.Equal(t, []string{"invalid-key"}, kindsOf(c.Sink.All()))
}

func TestTypedDictPopOfRequiredKeyIsDiagnosed(t *testing.T) {
	c, ix, _, ref := typedDictFixture(t)

	target := name("p")
	decl := &ast.AnnAssign{
		Base:       ast.Base{NodeID: freshID()},
		Target:     target,
		Annotation: ref(),
		Value:      dictLit(item(strLit("x"), intLit(1)), item(strLit("y"), intLit(2))),
	}
	place := ix.InternPlace(index.ModuleScope, index.PlaceSymbol, "p", 0)
	binding := ix.AddBinding(place, decl)
	ix.SetReachingAtUse(index.UseID(target.ID()), binding)
	c.InferStmt(decl)

	pUse := name("p")
	ix.SetReachingAtUse(index.UseID(pUse.ID()), binding)
	pop := &ast.Call{
		Base: ast.Base{NodeID: freshID()},
		Func: &ast.Attribute{Base: ast.Base{NodeID: freshID()}, Value: pUse, Attr: "pop"},
		Args: []ast.Expr{strLit("x")},
	}
	c.InferExpr(pop, NoContext)
	require.Contains(t, kindsOf(c.Sink.All()), "invalid-key")
}

func TestTypedDictNotRequiredKeyPopsCleanly(t *testing.T) {
	ix := index.NewSimpleIndex()
	c := NewChecker(&ast.Module{Path: "t.py"}, NewIndexBundle(ix))

	fieldX := &ast.AnnAssign{Base: ast.Base{NodeID: freshID()}, Target: name("x"), Annotation: name("int")}
	fieldY := &ast.AnnAssign{
		Base:       ast.Base{NodeID: freshID()},
		Target:     name("y"),
		Annotation: subscript(name("NotRequired"), name("int")),
	}
	classDef := &ast.ClassDef{
		Base:  ast.Base{NodeID: freshID()},
		Name:  "Opt",
		Bases: []ast.Expr{name("TypedDict")},
		Body:  []ast.Stmt{fieldX, fieldY},
	}
	place := ix.InternPlace(index.ModuleScope, index.PlaceSymbol, "Opt", 0)
	binding := ix.AddBinding(place, classDef)
	c.InferStmt(classDef)

	pUse := name("Opt")
	ix.SetReachingAtUse(index.UseID(pUse.ID()), binding)
	construct := &ast.Call{
		Base:     ast.Base{NodeID: freshID()},
		Func:     pUse,
		Keywords: []ast.Keyword{{Name: "x", Value: intLit(1)}},
	}
	got := c.InferExpr(construct, NoContext)
	td, ok := got.(*typeir.TypedDictType)
	require.True(t, ok, "got %T: %s", got, got)
	require.Equal(t, "Opt", td.Class.Name)
	require.Empty(t, c.Sink.All(), "y is NotRequired: %v", kindsOf(c.Sink.All()))

	pop := &ast.Call{
		Base: ast.Base{NodeID: freshID()},
		Func: &ast.Attribute{Base: ast.Base{NodeID: freshID()}, Value: construct, Attr: "pop"},
		Args: []ast.Expr{strLit("y")},
	}
	c.InferExpr(pop, NoContext)
	require.Empty(t, c.Sink.All(), "popping a NotRequired key is fine: %v", kindsOf(c.Sink.All()))
}
