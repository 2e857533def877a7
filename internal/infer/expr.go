package infer

import (
	"github.com/prismafold/pytc/internal/ast"
	"github.com/prismafold/pytc/internal/index"
	"github.com/prismafold/pytc/internal/places"
	"github.com/prismafold/pytc/internal/query"
	"github.com/prismafold/pytc/internal/typeir"
)

// InferExpr is the expression-inference query's entry point (spec.md
// §4.6), memoized through c.Cache per expression node and expected type,
// so repeated requests for the same sub-expression under the same context
// share work (a different expected type is inferred anew), with Divergent as the
// re-entrancy fallback for the (rare) case an expression's own inference
// recursively depends on itself, e.g. via a recursive default argument.
func (c *Checker) InferExpr(e ast.Expr, tc *TypeContext) typeir.Type {
	key := query.Key{Kind: query.QueryExpressionInference, Node: e.ID(), Extra: contextKey(tc)}
	result, err := c.Cache.Compute(key, &typeir.Divergent{Origin: "expression"}, func() (typeir.Type, error) {
		return c.inferExprUncached(e, tc), nil
	})
	if err != nil {
		return typeir.Unknown
	}
	return result
}

func contextKey(tc *TypeContext) string {
	if tc == nil || tc.Expected == nil {
		return ""
	}
	return tc.Expected.String()
}

func (c *Checker) inferExprUncached(e ast.Expr, tc *TypeContext) typeir.Type {
	switch v := e.(type) {
	case *ast.Constant:
		return c.inferConstant(v)
	case *ast.Name:
		return c.inferName(v)
	case *ast.Attribute:
		return c.inferAttribute(v)
	case *ast.Subscript:
		return c.inferSubscript(v)
	case *ast.Tuple:
		return c.inferSequenceLiteral(v.Elts, tc, sequenceTuple)
	case *ast.List:
		return c.inferSequenceLiteral(v.Elts, tc, sequenceList)
	case *ast.SetExpr:
		return c.inferSequenceLiteral(v.Elts, tc, sequenceSet)
	case *ast.DictExpr:
		return c.inferDict(v, tc)
	case *ast.BoolOp:
		return c.inferBoolOp(v)
	case *ast.BinOp:
		return c.inferBinOp(v)
	case *ast.UnaryOp:
		return c.inferUnaryOp(v)
	case *ast.Compare:
		return c.inferCompare(v)
	case *ast.Call:
		return c.inferCall(v, tc)
	case *ast.IfExp:
		return typeir.NewUnion(c.InferExpr(v.Body, tc), c.InferExpr(v.OrElse, tc))
	case *ast.Lambda:
		return c.inferLambda(v)
	case *ast.NamedExpr:
		return c.InferExpr(v.Value, tc)
	case *ast.Starred:
		return c.InferExpr(v.Value, tc)
	case *ast.Await:
		return c.inferAwait(v)
	case *ast.Yield:
		if v.Value != nil {
			c.InferExpr(v.Value, NoContext)
		}
		c.markYield()
		// the type of a `yield` expression is what send() delivers, which
		// nothing in this core constrains
		return typeir.Unknown
	case *ast.YieldFrom:
		c.InferExpr(v.Value, NoContext)
		c.markYield()
		return typeir.Unknown
	case *ast.ListComp:
		return c.inferComprehension(v.Generators, v.Elt, sequenceList)
	case *ast.SetComp:
		return c.inferComprehension(v.Generators, v.Elt, sequenceSet)
	case *ast.GeneratorExp:
		return c.inferComprehension(v.Generators, v.Elt, sequenceGenerator)
	case *ast.DictComp:
		return c.inferDictComprehension(v)
	case *ast.JoinedStr:
		return c.inferJoinedStr(v)
	default:
		return typeir.Unknown
	}
}

func (c *Checker) inferName(n *ast.Name) typeir.Type {
	res := places.Resolve(c.Index, c.Places, c.Scopes, index.UseID(n.ID()), index.ModuleScope, n.Id, c.typeOfBinding)
	if res.UnresolvedGlobal {
		c.Sink.Report(unresolvedGlobal(n))
	} else if res.WhollyUnresolved {
		c.Sink.Report(unresolvedReference(n))
	} else if res.PossiblyUnbound {
		c.Sink.Report(possiblyUnresolvedReference(n))
	}
	placeID, _ := c.Places.Lookup(index.ModuleScope, index.PlaceSymbol, n.Id, 0)
	return places.ApplyNarrowing(c.Narrow, index.UseID(n.ID()), index.ModuleScope, placeID, res.Type)
}

func (c *Checker) typeOfBinding(b index.BindingID) typeir.Type {
	binding := c.Index.BindingNode(b)
	if decls := c.Index.DeclarationsAtBinding(b); len(decls) > 0 {
		d := c.Index.Declaration(decls[0])
		if d.Annotation != nil {
			return c.inferAnnotation(d.Annotation)
		}
	}
	switch n := binding.Node.(type) {
	case *ast.Assign:
		return c.InferExpr(n.Value, NoContext)
	case *ast.FunctionDef, *ast.ClassDef, *ast.TypeAliasStmt:
		return c.InferDefinition(n.(ast.Stmt))
	case *ast.AnnAssign:
		// declarations override (spec.md §3): downstream loads see the
		// declared type, and the value infers under it as context
		declared := c.inferAnnotation(n.Annotation)
		if n.Value != nil {
			c.InferExpr(n.Value, &TypeContext{Expected: declared})
		}
		return declared
	case *ast.ForStmt:
		iter := c.InferExpr(n.Iter, NoContext)
		elem, _ := iterationElement(iter)
		return elem
	}
	return typeir.Unknown
}

func (c *Checker) inferAnnotation(e ast.Expr) typeir.Type {
	c.pushMode(ModeAnnotation)
	defer c.popMode()
	return c.evalTypeExpr(e)
}
