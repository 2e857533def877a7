package infer

import (
	"github.com/prismafold/pytc/internal/ast"
	"github.com/prismafold/pytc/internal/builtinscope"
	"github.com/prismafold/pytc/internal/index"
	"github.com/prismafold/pytc/internal/typeir"
)

// evalTypeExpr evaluates an expression in annotation/type-expression
// position (spec.md §4.6 "annotation vs. type-expression vs. value-
// expression evaluation modes"): a bare class name denotes an instance of
// that class rather than the class object, subscripting a generic class
// constructs its GenericAlias, `X | Y` builds a union, and the handful of
// `typing` special forms recognized as syntax (Union, Optional, Literal,
// ...) are interpreted structurally instead of being looked up as ordinary
// callables. No import graph is modeled (spec.md §1), so these special-form
// names are pre-bound directly in builtins scope rather than reached
// through a `from typing import ...` binding — the same simplification
// every unresolved-import diagnostic already implies for this core.
func (c *Checker) evalTypeExpr(e ast.Expr) typeir.Type {
	switch v := e.(type) {
	case *ast.Constant:
		switch v.Kind {
		case ast.ConstNone:
			return &typeir.NominalInstance{Class: builtinscope.Classes[typeir.KnownNoneType]}
		case ast.ConstEllipsis:
			return typeir.AnyType
		case ast.ConstString:
			// A string constant here is a forward reference. The general
			// case needs a parser round-trip, out of scope for this core
			// (spec.md §1) — but a bare identifier resolves against the
			// module's end-of-scope bindings (deferred-evaluation
			// semantics, §4.5) without one.
			return c.resolveStringAnnotation(v.Str)
		default:
			return typeir.Unknown
		}
	case *ast.Name:
		return c.evalTypeName(v)
	case *ast.Attribute:
		// e.g. `typing.Union`: only bare names are recognized as special
		// forms, so a qualified reference evaluates as an ordinary value
		// and is carried through as an opaque (non-special-form) type.
		return c.InferExpr(v, NoContext)
	case *ast.BinOp:
		if v.Op == ast.OpBitOr {
			return typeir.NewUnion(c.evalTypeExpr(v.Left), c.evalTypeExpr(v.Right))
		}
		return typeir.Unknown
	case *ast.Subscript:
		return c.evalSubscriptTypeExpr(v)
	default:
		return typeir.Unknown
	}
}

func (c *Checker) evalTypeName(v *ast.Name) typeir.Type {
	if sf, ok := specialFormOf(v.Id); ok {
		switch sf.Kind {
		case typeir.FormNever, typeir.FormNoReturn:
			return typeir.Never
		case typeir.FormLiteralStringForm:
			return typeir.LiteralStringType
		case typeir.FormSelf:
			if len(c.classStack) > 0 {
				return instanceTypeOf(c.classStack[len(c.classStack)-1])
			}
			return typeir.Unknown
		}
		return sf // bare `Callable`, `Protocol`, ... used unsubscripted
	}
	// route through InferExpr (not inferName directly) so the memoized
	// expression query deduplicates diagnostics when the same name node is
	// visited both as a field annotation and by the class-body walk
	val := c.InferExpr(v, NoContext)
	return typeToInstanceForm(val)
}

// typeToInstanceForm converts a value-position result into what the same
// expression denotes in type position: a class object denotes its
// instances, a constructed legacy typevar denotes the variable itself.
func typeToInstanceForm(val typeir.Type) typeir.Type {
	if clt, ok := val.(*typeir.ClassLiteralType); ok {
		return instanceTypeOf(clt.Class)
	}
	if ki, ok := val.(*typeir.KnownInstance); ok && ki.TypeVar != nil {
		return ki.TypeVar
	}
	if fn, ok := val.(*typeir.FunctionLiteral); ok && fn.DefSite == "<newtype>" && len(fn.Overloads) == 1 {
		if nt, ok := fn.Overloads[0].Return.(*typeir.NewTypeInstance); ok {
			return nt
		}
	}
	return val
}

// instanceTypeOf mirrors signature.InstanceOf for annotation positions:
// `Pt` in `p: Pt` denotes a TypedDictType for a TypedDict class, a
// ProtocolInstance for a protocol, a NominalInstance otherwise.
func instanceTypeOf(class *typeir.ClassLiteral) typeir.Type {
	if class.Dataclass != nil && class.Dataclass.Kind == typeir.DataclassTypedDict {
		return &typeir.TypedDictType{Class: class}
	}
	if class.DerivedIsProtocol {
		return &typeir.ProtocolInstance{Class: class}
	}
	return &typeir.NominalInstance{Class: class}
}

// resolveStringAnnotation resolves a stringified annotation whose content
// is a plain identifier against the module's end-of-scope place table,
// then builtins — the forward-reference case deferred evaluation exists
// for. Anything more structured widens to Unknown.
func (c *Checker) resolveStringAnnotation(content string) typeir.Type {
	if !isIdentifier(content) {
		return typeir.Unknown
	}
	if placeID, ok := c.Places.Lookup(index.ModuleScope, index.PlaceSymbol, content, 0); ok {
		if bindings := c.Index.EndOfScopeBindings(index.ModuleScope, placeID); len(bindings) > 0 {
			types := make([]typeir.Type, 0, len(bindings))
			for _, rb := range bindings {
				types = append(types, c.typeOfBinding(rb.Binding))
			}
			return typeToInstanceForm(typeir.NewUnion(types...))
		}
	}
	if t, ok := builtinscope.Lookup(content); ok {
		return typeToInstanceForm(t)
	}
	return typeir.Unknown
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		alpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		if !alpha && (i == 0 || r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func specialFormOf(name string) (*typeir.SpecialForm, bool) {
	t, ok := builtinscope.Lookup(name)
	if !ok {
		return nil, false
	}
	sf, ok := t.(*typeir.SpecialForm)
	return sf, ok
}

// evalSubscriptTypeExpr handles `Base[args]` in type-expression position:
// the small set of `typing` special forms spec.md §3 lists as recognized
// syntax, and otherwise an ordinary generic class specialization.
func (c *Checker) evalSubscriptTypeExpr(v *ast.Subscript) typeir.Type {
	args := subscriptArgs(v.Index)

	if name, ok := v.Value.(*ast.Name); ok {
		if sf, ok := specialFormOf(name.Id); ok {
			return c.evalSpecialFormSubscript(sf, args)
		}
	}

	base := c.evalTypeExpr(v.Value)
	class, _ := classAndSpecOf(base)
	if class == nil || class.Generic == nil {
		return typeir.Unknown
	}
	specialized := make([]typeir.Type, len(args))
	for i, a := range args {
		specialized[i] = c.evalTypeExpr(a)
	}
	return &typeir.GenericAlias{Class: class, Specialization: &typeir.Specialization{Context: class.Generic, Args: specialized}}
}

func (c *Checker) evalSpecialFormSubscript(sf *typeir.SpecialForm, args []ast.Expr) typeir.Type {
	switch sf.Kind {
	case typeir.FormUnion:
		elems := make([]typeir.Type, len(args))
		for i, a := range args {
			elems[i] = c.evalTypeExpr(a)
		}
		return typeir.NewUnion(elems...)
	case typeir.FormOptional:
		if len(args) != 1 {
			return typeir.Unknown
		}
		return typeir.NewUnion(c.evalTypeExpr(args[0]), &typeir.NominalInstance{Class: builtinscope.Classes[typeir.KnownNoneType]})
	case typeir.FormLiteral:
		lits := make([]typeir.Type, len(args))
		for i, a := range args {
			lits[i] = c.literalFormArg(a)
		}
		return typeir.NewUnion(lits...)
	case typeir.FormClassVar, typeir.FormFinal, typeir.FormRequired, typeir.FormNotRequired, typeir.FormReadOnly, typeir.FormAnnotated:
		// These wrap an inner type without changing it for ordinary
		// annotation inference; the qualifier itself (final-ness,
		// required-ness, ...) is consumed by classmodel's field synthesis,
		// not by expression inference.
		if len(args) == 0 {
			return typeir.Unknown
		}
		return c.evalTypeExpr(args[0])
	case typeir.FormTypeGuard, typeir.FormTypeIs:
		if len(args) != 1 {
			return typeir.Unknown
		}
		return &typeir.TypeIs{Carrier: c.evalTypeExpr(args[0])}
	case typeir.FormType:
		if len(args) != 1 {
			return typeir.Unknown
		}
		return &typeir.SubclassOf{Of: c.evalTypeExpr(args[0])}
	case typeir.FormCallable:
		return c.evalCallableForm(args)
	case typeir.FormTuple:
		class := builtinscope.Classes[typeir.KnownTuple]
		elems := make([]typeir.Type, len(args))
		for i, a := range args {
			elems[i] = c.evalTypeExpr(a)
		}
		return &typeir.GenericAlias{Class: class, Specialization: &typeir.Specialization{Context: class.Generic, Args: elems}}
	default:
		// Generic/Protocol subscription is only meaningful in a class's
		// base-list (`class C(Protocol[T]):`), handled syntactically by the
		// class-definition path; Unpack/Concatenate stay Todo-shaped and
		// widen to Unknown here (spec.md §9 Open Questions).
		return typeir.Unknown
	}
}

func subscriptArgs(index ast.Expr) []ast.Expr {
	if t, ok := index.(*ast.Tuple); ok {
		return t.Elts
	}
	return []ast.Expr{index}
}

// literalFormArg evaluates one `Literal[...]` argument: only literal
// constants are legal here (spec.md §3), never arbitrary expressions.
func (c *Checker) literalFormArg(e ast.Expr) typeir.Type {
	cst, ok := e.(*ast.Constant)
	if !ok {
		return typeir.Unknown
	}
	switch cst.Kind {
	case ast.ConstInt:
		if cst.Big != "" {
			return intInstance()
		}
		return &typeir.IntLiteral{Value: cst.Int}
	case ast.ConstString:
		return &typeir.StringLiteral{Value: cst.Str}
	case ast.ConstBool:
		return &typeir.BooleanLiteral{Value: cst.Bool}
	case ast.ConstNone:
		return &typeir.NominalInstance{Class: builtinscope.Classes[typeir.KnownNoneType]}
	default:
		return typeir.Unknown
	}
}

// evalCallableForm handles `Callable[[arg, ...], Ret]` and the bare
// `Callable[..., Ret]` (literal Ellipsis parameter list, meaning "accepts
// any arguments").
func (c *Checker) evalCallableForm(args []ast.Expr) typeir.Type {
	if len(args) != 2 {
		return typeir.Unknown
	}
	ret := c.evalTypeExpr(args[1])
	params, ok := args[0].(*ast.List)
	if !ok {
		return &typeir.CallableType{Signatures: []*typeir.Signature{{Return: ret}}}
	}
	sig := make([]typeir.Parameter, len(params.Elts))
	for i, p := range params.Elts {
		sig[i] = typeir.Parameter{Kind: typeir.ParamPositionalOnly, Annotated: c.evalTypeExpr(p)}
	}
	return &typeir.CallableType{Signatures: []*typeir.Signature{{Params: sig, Return: ret}}}
}
