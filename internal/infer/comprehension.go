package infer

import (
	"github.com/prismafold/pytc/internal/ast"
	"github.com/prismafold/pytc/internal/builtinscope"
	"github.com/prismafold/pytc/internal/typeir"
)

// inferComprehension infers a list/set/generator comprehension (spec.md
// §4.6): each `for`/`if` clause's iterable and condition are inferred for
// their diagnostics (an unresolved name inside a comprehension still
// reports), then the element expression's type is wrapped in the
// container the comprehension produces. Comprehension scoping (the target
// names are local to the comprehension, not the enclosing scope) is the
// semantic index's concern — it already assigns the comprehension its own
// ScopeID, so no extra handling is needed here beyond inferring the
// clauses in source order.
func (c *Checker) inferComprehension(gens []ast.Comprehension, elt ast.Expr, kind sequenceKind) typeir.Type {
	for _, g := range gens {
		c.InferExpr(g.Iter, NoContext)
		for _, cond := range g.Ifs {
			c.InferExpr(cond, NoContext)
		}
	}
	elemType := c.InferExpr(elt, NoContext)
	switch kind {
	case sequenceList:
		return oneArgGeneric(typeir.KnownList, elemType)
	case sequenceSet:
		return oneArgGeneric(typeir.KnownSet, elemType)
	case sequenceGenerator:
		return oneArgGeneric(typeir.KnownList, elemType) // no modeled Generator[...] wrapper; see Non-goals
	default:
		return typeir.Unknown
	}
}

func (c *Checker) inferDictComprehension(v *ast.DictComp) typeir.Type {
	for _, g := range v.Generators {
		c.InferExpr(g.Iter, NoContext)
		for _, cond := range g.Ifs {
			c.InferExpr(cond, NoContext)
		}
	}
	keyType := c.InferExpr(v.Key, NoContext)
	valType := c.InferExpr(v.Value, NoContext)
	class := builtinscope.Classes[typeir.KnownDict]
	return &typeir.GenericAlias{Class: class, Specialization: &typeir.Specialization{Context: class.Generic, Args: []typeir.Type{keyType, valType}}}
}
