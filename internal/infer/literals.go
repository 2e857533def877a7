package infer

import (
	"fmt"

	"github.com/prismafold/pytc/internal/ast"
	"github.com/prismafold/pytc/internal/builtinscope"
	"github.com/prismafold/pytc/internal/diagnostics"
	"github.com/prismafold/pytc/internal/typeir"
)

// inferConstant implements spec.md §4.6's literal fast paths: every
// constant kind maps directly to a typeir literal atom. An int literal the
// parser couldn't fit in int64 (Constant.Big) widens to the `int` instance
// type — literal tracking stops at the i64 boundary, it never truncates.
func (c *Checker) inferConstant(v *ast.Constant) typeir.Type {
	switch v.Kind {
	case ast.ConstInt:
		if v.Big != "" {
			return intInstance()
		}
		return &typeir.IntLiteral{Value: v.Int}
	case ast.ConstFloat:
		return &typeir.NominalInstance{Class: builtinscope.Classes[typeir.KnownFloat]}
	case ast.ConstComplex:
		return typeir.Unknown // complex is out of scope; see Non-goals
	case ast.ConstString:
		return &typeir.StringLiteral{Value: v.Str}
	case ast.ConstBytes:
		return &typeir.BytesLiteral{Value: string(v.Bytes)}
	case ast.ConstBool:
		return &typeir.BooleanLiteral{Value: v.Bool}
	case ast.ConstNone:
		return &typeir.NominalInstance{Class: builtinscope.Classes[typeir.KnownNoneType]}
	case ast.ConstEllipsis:
		return typeir.AnyType
	default:
		return typeir.Unknown
	}
}

type sequenceKind int

const (
	sequenceTuple sequenceKind = iota
	sequenceList
	sequenceSet
	sequenceGenerator
)

// inferSequenceLiteral infers a tuple/list/set display. In union context
// (spec.md §4.6 "union-context list literal"), each element is inferred
// against the argument of the first union member that specializes the
// display's own class with one argument, and a list or set display whose
// elements all fit that argument takes it as its element type, so
// `x: list[int] | list[str] = [1, 2]` picks `list[int]` rather than
// widening to `list[int | str]`.
func (c *Checker) inferSequenceLiteral(elems []ast.Expr, tc *TypeContext, kind sequenceKind) typeir.Type {
	known := map[sequenceKind]typeir.KnownClass{sequenceTuple: typeir.KnownTuple, sequenceList: typeir.KnownList, sequenceSet: typeir.KnownSet}[kind]
	elemCtx := NoContext
	if tc != nil && tc.Expected != nil {
		for _, member := range typeir.UnionMembers(tc.Expected) {
			if ga, ok := member.(*typeir.GenericAlias); ok && ga.Class.KnownClass == known && len(ga.Specialization.Args) == 1 {
				elemCtx = &TypeContext{Expected: ga.Specialization.Args[0]}
				break
			}
		}
	}

	elemTypes := make([]typeir.Type, 0, len(elems))
	for _, e := range elems {
		if st, ok := e.(*ast.Starred); ok {
			elemTypes = append(elemTypes, c.InferExpr(st.Value, NoContext))
			continue
		}
		elemTypes = append(elemTypes, c.InferExpr(e, elemCtx))
	}
	elemType := typeir.NewUnion(elemTypes...)
	if len(elemTypes) == 0 {
		elemType = typeir.Unknown
	}
	if kind != sequenceTuple && elemCtx.Expected != nil && (len(elemTypes) == 0 || typeir.IsAssignable(elemType, elemCtx.Expected)) {
		elemType = elemCtx.Expected
	}

	switch kind {
	case sequenceTuple:
		class := builtinscope.Classes[typeir.KnownTuple]
		return &typeir.GenericAlias{Class: class, Specialization: &typeir.Specialization{Context: class.Generic, Args: []typeir.Type{elemType}}}
	case sequenceList:
		return oneArgGeneric(typeir.KnownList, elemType)
	case sequenceSet:
		return oneArgGeneric(typeir.KnownSet, elemType)
	case sequenceGenerator:
		return typeir.Unknown // generator expressions are typed by inferComprehension, not here
	default:
		return typeir.Unknown
	}
}

func oneArgGeneric(known typeir.KnownClass, arg typeir.Type) typeir.Type {
	class := builtinscope.Classes[known]
	return &typeir.GenericAlias{Class: class, Specialization: &typeir.Specialization{Context: class.Generic, Args: []typeir.Type{arg}}}
}

// inferDict infers a dict display. Under a TypedDict declared context the
// bespoke field validator runs instead of element-type union building
// (spec.md §4.6 "for dictionary literals under a TypedDict context it
// validates each key against the field map"); with several TypedDict
// members live in a union context, each is tried speculatively with
// diagnostics suppressed and the first clean fit wins — the replay-only-
// the-winner policy of spec.md §4.2/§7.
func (c *Checker) inferDict(v *ast.DictExpr, tc *TypeContext) typeir.Type {
	if tc != nil && tc.Expected != nil {
		var tds []*typeir.TypedDictType
		for _, m := range typeir.UnionMembers(tc.Expected) {
			if td, ok := m.(*typeir.TypedDictType); ok {
				tds = append(tds, td)
			}
		}
		if len(tds) == 1 {
			c.checkTypedDictLiteral(v, tds[0])
			return tds[0]
		}
		if len(tds) > 1 {
			for _, td := range tds {
				clean := false
				c.Sink.Suppress(func() { clean = c.checkTypedDictLiteral(v, td) })
				if clean {
					return td
				}
			}
			c.checkTypedDictLiteral(v, tds[0])
			return tds[0]
		}
	}
	var keys, vals []typeir.Type
	for _, item := range v.Items {
		if item.Key == nil {
			// `**other` merge: contributes no direct key/value pair to the
			// static element type, matching CPython's own disregard for
			// static merge-source typing here.
			continue
		}
		keys = append(keys, c.InferExpr(item.Key, NoContext))
		vals = append(vals, c.InferExpr(item.Value, NoContext))
	}
	keyType := typeir.NewUnion(keys...)
	valType := typeir.NewUnion(vals...)
	if len(keys) == 0 {
		keyType, valType = typeir.Unknown, typeir.Unknown
	}
	class := builtinscope.Classes[typeir.KnownDict]
	return &typeir.GenericAlias{Class: class, Specialization: &typeir.Specialization{Context: class.Generic, Args: []typeir.Type{keyType, valType}}}
}

// checkTypedDictLiteral validates a dict display against a TypedDict's
// field map: string-literal keys only, every key declared, every value
// assignable to its field type, every required field present (spec.md
// §4.3, §8 scenario 6). Reports through the sink (the caller suppresses
// for speculative attempts) and reports fitness back.
func (c *Checker) checkTypedDictLiteral(v *ast.DictExpr, td *typeir.TypedDictType) bool {
	ok := true
	seen := make(map[string]bool)
	for _, item := range v.Items {
		if item.Key == nil {
			c.InferExpr(item.Value, NoContext)
			continue
		}
		keyType := c.InferExpr(item.Key, NoContext)
		lit, isLit := keyType.(*typeir.StringLiteral)
		if !isLit {
			c.reportf(diagnostics.KindInvalidKey, spanOf(v), "TypedDict "+td.Class.Name+" keys must be string literals")
			ok = false
			c.InferExpr(item.Value, NoContext)
			continue
		}
		f, found := lookupField(td.Class, lit.Value)
		if !found {
			c.reportf(diagnostics.KindInvalidKey, spanOf(v), "TypedDict "+td.Class.Name+" has no key "+lit.Value)
			ok = false
			c.InferExpr(item.Value, NoContext)
			continue
		}
		seen[lit.Value] = true
		valType := c.InferExpr(item.Value, &TypeContext{Expected: f.Declared})
		if f.Declared != nil && !typeir.IsAssignable(valType, f.Declared) {
			c.reportf(diagnostics.KindInvalidAssignment, spanOf(v), valType.String()+" is not assignable to TypedDict key "+lit.Value+" of type "+f.Declared.String())
			ok = false
		}
	}
	for _, f := range td.Class.DerivedFields {
		if f.Name == "" || f.NotRequired || seen[f.Name] {
			continue
		}
		c.reportf(diagnostics.KindInvalidKey, spanOf(v), "TypedDict "+td.Class.Name+" is missing required key "+f.Name)
		ok = false
	}
	return ok
}

// inferJoinedStr implements the size-capped f-string concatenation rule
// (spec.md §4.6): if every part's literal value is statically known and
// the combined length stays under the cap, the whole f-string is a
// StringLiteral; otherwise it widens to LiteralString (still more precise
// than plain str, since every part contributes only string-like content).
const stringConcatCap = 4096

func (c *Checker) inferJoinedStr(v *ast.JoinedStr) typeir.Type {
	var combined string
	allLiteral := true
	for _, part := range v.Values {
		switch p := part.(type) {
		case *ast.Constant:
			if p.Kind == ast.ConstString {
				combined += p.Str
				continue
			}
			allLiteral = false
		case *ast.FormattedValue:
			t := c.InferExpr(p.Value, NoContext)
			if lit, ok := t.(*typeir.StringLiteral); ok && p.Conversion == 0 && p.FormatSpec == nil {
				combined += lit.Value
				continue
			}
			allLiteral = false
		default:
			allLiteral = false
		}
	}
	if allLiteral && len(combined) <= stringConcatCap {
		return &typeir.StringLiteral{Value: combined}
	}
	return typeir.LiteralStringType
}

func unresolvedReference(n *ast.Name) *diagnostics.Diagnostic {
	return diagnostics.New(diagnostics.KindUnresolvedReference, fmt.Sprintf("name %q is not defined", n.Id), &n.Base.Span)
}

func possiblyUnresolvedReference(n *ast.Name) *diagnostics.Diagnostic {
	return diagnostics.New(diagnostics.KindPossiblyUnresolvedReference, fmt.Sprintf("name %q may be unbound here", n.Id), &n.Base.Span)
}

func unresolvedGlobal(n *ast.Name) *diagnostics.Diagnostic {
	return diagnostics.New(diagnostics.KindUnresolvedGlobal, fmt.Sprintf("global name %q is never bound at module scope", n.Id), &n.Base.Span)
}
