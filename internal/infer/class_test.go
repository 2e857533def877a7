package infer

import (
	"testing"

	"github.com/prismafold/pytc/internal/ast"
	"github.com/prismafold/pytc/internal/diagnostics"
	"github.com/prismafold/pytc/internal/index"
	"github.com/prismafold/pytc/internal/typeir"
	"github.com/stretchr/testify/require"
)

// This file exercises the class model end to end through the Checker:
// user-defined __init__ constructor resolution, protocol instantiation
// (spec.md §8 scenario 4), dataclass __init__ synthesis, enum members,
// final-class subclassing and Liskov override checking.

func param(name string, annotation ast.Expr) ast.Param {
	return ast.Param{Name: name, Kind: ast.ParamPositionalOrKeyword, Annotation: annotation}
}

func funcDef(name string, params []ast.Param, returns ast.Expr, body []ast.Stmt, decorators ...ast.Decorator) *ast.FunctionDef {
	return &ast.FunctionDef{
		Base:       ast.Base{NodeID: freshID()},
		Name:       name,
		Params:     &ast.Parameters{Params: params},
		Returns:    returns,
		Body:       body,
		Decorators: decorators,
	}
}

func ellipsisBody() []ast.Stmt {
	return []ast.Stmt{&ast.ExprStmt{
		Base:  ast.Base{NodeID: freshID()},
		Value: &ast.Constant{Base: ast.Base{NodeID: freshID()}, Kind: ast.ConstEllipsis},
	}}
}

func returnBody(value ast.Expr) []ast.Stmt {
	return []ast.Stmt{&ast.ReturnStmt{Base: ast.Base{NodeID: freshID()}, Value: value}}
}

func decorator(nm string) ast.Decorator {
	return ast.Decorator{Expr: name(nm)}
}

// bindName wires a module-scope binding for a definition and a use of it.
func bindName(ix *index.SimpleIndex, nm string, def ast.Node, uses ...*ast.Name) index.BindingID {
	place := ix.InternPlace(index.ModuleScope, index.PlaceSymbol, nm, 0)
	binding := ix.AddBinding(place, def)
	for _, u := range uses {
		ix.SetReachingAtUse(index.UseID(u.ID()), binding)
	}
	return binding
}

func kindsOf(diags []*diagnostics.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = string(d.Kind)
	}
	return out
}

func TestUserInitShapesConstructorCall(t *testing.T) {
	ix := index.NewSimpleIndex()
	c := NewChecker(&ast.Module{Path: "t.py"}, NewIndexBundle(ix))

	init := funcDef("__init__",
		[]ast.Param{param("self", nil), param("x", name("int")), param("y", name("int"))},
		nil, []ast.Stmt{&ast.PassStmt{Base: ast.Base{NodeID: freshID()}}})
	classDef := &ast.ClassDef{Base: ast.Base{NodeID: freshID()}, Name: "Point", Body: []ast.Stmt{init}}

	okRef, badRef := name("Point"), name("Point")
	bindName(ix, "Point", classDef, okRef, badRef)
	c.InferStmt(classDef)

	okCall := &ast.Call{Base: ast.Base{NodeID: freshID()}, Func: okRef, Args: []ast.Expr{intLit(1), intLit(2)}}
	got := c.InferExpr(okCall, NoContext)
	inst, ok := got.(*typeir.NominalInstance)
	require.True(t, ok, "got %T", got)
	require.Equal(t, "Point", inst.Class.Name)
	require.Empty(t, c.Sink.All(), "kinds: %v", kindsOf(c.Sink.All()))

	badCall := &ast.Call{Base: ast.Base{NodeID: freshID()}, Func: badRef, Args: []ast.Expr{intLit(1)}}
	c.InferExpr(badCall, NoContext)
	require.Contains(t, kindsOf(c.Sink.All()), "missing-argument")
}

func TestProtocolInstantiationIsDiagnosed(t *testing.T) {
	ix := index.NewSimpleIndex()
	c := NewChecker(&ast.Module{Path: "t.py"}, NewIndexBundle(ix))

	f := funcDef("f", []ast.Param{param("self", nil)}, name("int"), ellipsisBody())
	classDef := &ast.ClassDef{
		Base:  ast.Base{NodeID: freshID()},
		Name:  "P",
		Bases: []ast.Expr{name("Protocol")},
		Body:  []ast.Stmt{f},
	}
	ref := name("P")
	bindName(ix, "P", classDef, ref)
	c.InferStmt(classDef)
	require.Empty(t, c.Sink.All(), "protocol body should check clean, got %v", kindsOf(c.Sink.All()))

	call := &ast.Call{Base: ast.Base{NodeID: freshID()}, Func: ref}
	c.InferExpr(call, NoContext)
	require.Contains(t, kindsOf(c.Sink.All()), "invalid-protocol")
}

func TestDataclassSynthesizesInit(t *testing.T) {
	ix := index.NewSimpleIndex()
	c := NewChecker(&ast.Module{Path: "t.py"}, NewIndexBundle(ix))

	fieldX := &ast.AnnAssign{Base: ast.Base{NodeID: freshID()}, Target: name("x"), Annotation: name("int")}
	fieldY := &ast.AnnAssign{Base: ast.Base{NodeID: freshID()}, Target: name("y"), Annotation: name("int"), Value: intLit(0)}
	classDef := &ast.ClassDef{
		Base:       ast.Base{NodeID: freshID()},
		Name:       "Pair",
		Body:       []ast.Stmt{fieldX, fieldY},
		Decorators: []ast.Decorator{decorator("dataclass")},
	}
	okRef, badRef := name("Pair"), name("Pair")
	bindName(ix, "Pair", classDef, okRef, badRef)
	c.InferStmt(classDef)
	require.Empty(t, c.Sink.All(), "kinds: %v", kindsOf(c.Sink.All()))

	okCall := &ast.Call{Base: ast.Base{NodeID: freshID()}, Func: okRef, Args: []ast.Expr{intLit(1)}}
	c.InferExpr(okCall, NoContext)
	require.Empty(t, c.Sink.All(), "y has a default, x is given: %v", kindsOf(c.Sink.All()))

	badCall := &ast.Call{Base: ast.Base{NodeID: freshID()}, Func: badRef}
	c.InferExpr(badCall, NoContext)
	require.Contains(t, kindsOf(c.Sink.All()), "missing-argument")
}

func TestEnumMembersBecomeEnumLiterals(t *testing.T) {
	ix := index.NewSimpleIndex()
	c := NewChecker(&ast.Module{Path: "t.py"}, NewIndexBundle(ix))

	red := &ast.Assign{Base: ast.Base{NodeID: freshID()}, Targets: []ast.Expr{name("RED")}, Value: intLit(1)}
	classDef := &ast.ClassDef{
		Base:  ast.Base{NodeID: freshID()},
		Name:  "Color",
		Bases: []ast.Expr{name("Enum")},
		Body:  []ast.Stmt{red},
	}
	ref := name("Color")
	bindName(ix, "Color", classDef, ref)
	c.InferStmt(classDef)

	attr := &ast.Attribute{Base: ast.Base{NodeID: freshID()}, Value: ref, Attr: "RED"}
	got := c.InferExpr(attr, NoContext)
	lit, ok := got.(*typeir.EnumLiteral)
	require.True(t, ok, "got %T: %s", got, got)
	require.Equal(t, "RED", lit.Member)
	require.Equal(t, "Color", lit.Class.Name)
}

func TestSubclassOfFinalClassIsDiagnosed(t *testing.T) {
	ix := index.NewSimpleIndex()
	c := NewChecker(&ast.Module{Path: "t.py"}, NewIndexBundle(ix))

	sealed := &ast.ClassDef{
		Base:       ast.Base{NodeID: freshID()},
		Name:       "Sealed",
		Decorators: []ast.Decorator{decorator("final")},
	}
	baseRef := name("Sealed")
	bindName(ix, "Sealed", sealed, baseRef)
	c.InferStmt(sealed)

	sub := &ast.ClassDef{Base: ast.Base{NodeID: freshID()}, Name: "Leak", Bases: []ast.Expr{baseRef}}
	c.InferStmt(sub)
	require.Contains(t, kindsOf(c.Sink.All()), "subclass-of-final-class")
}

func TestIncompatibleOverrideIsDiagnosed(t *testing.T) {
	ix := index.NewSimpleIndex()
	c := NewChecker(&ast.Module{Path: "t.py"}, NewIndexBundle(ix))

	baseF := funcDef("f", []ast.Param{param("self", nil), param("x", name("int"))}, name("int"), returnBody(intLit(0)))
	baseDef := &ast.ClassDef{Base: ast.Base{NodeID: freshID()}, Name: "Base", Body: []ast.Stmt{baseF}}
	baseRef := name("Base")
	bindName(ix, "Base", baseDef, baseRef)
	c.InferStmt(baseDef)
	require.Empty(t, c.Sink.All(), "kinds: %v", kindsOf(c.Sink.All()))

	subF := funcDef("f", []ast.Param{param("self", nil), param("x", name("int"))}, name("str"), returnBody(strLit("s")))
	subDef := &ast.ClassDef{Base: ast.Base{NodeID: freshID()}, Name: "Sub", Bases: []ast.Expr{baseRef}, Body: []ast.Stmt{subF}}
	c.InferStmt(subDef)
	require.Contains(t, kindsOf(c.Sink.All()), "invalid-override")
}

func TestBoundMethodCallBindsSelf(t *testing.T) {
	ix := index.NewSimpleIndex()
	c := NewChecker(&ast.Module{Path: "t.py"}, NewIndexBundle(ix))

	scale := funcDef("scale",
		[]ast.Param{param("self", nil), param("k", name("int"))},
		name("int"), returnBody(intLit(0)))
	classDef := &ast.ClassDef{Base: ast.Base{NodeID: freshID()}, Name: "Box", Body: []ast.Stmt{scale}}
	mkRef, useRef := name("Box"), name("Box")
	bindName(ix, "Box", classDef, mkRef, useRef)
	c.InferStmt(classDef)

	// Box().scale(2) — self must not count against the explicit arguments
	construct := &ast.Call{Base: ast.Base{NodeID: freshID()}, Func: mkRef}
	attr := &ast.Attribute{Base: ast.Base{NodeID: freshID()}, Value: construct, Attr: "scale"}
	call := &ast.Call{Base: ast.Base{NodeID: freshID()}, Func: attr, Args: []ast.Expr{intLit(2)}}
	got := c.InferExpr(call, NoContext)
	inst, ok := got.(*typeir.NominalInstance)
	require.True(t, ok, "got %T: %s", got, got)
	require.Equal(t, typeir.KnownInt, inst.Class.KnownClass)
	require.Empty(t, c.Sink.All(), "kinds: %v", kindsOf(c.Sink.All()))
}
