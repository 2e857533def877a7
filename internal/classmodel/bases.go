package classmodel

import (
	"github.com/prismafold/pytc/internal/ast"
	"github.com/prismafold/pytc/internal/typeir"
)

// BaseExprEvaluator resolves one base-class expression to a Type; it is
// the expression-inference entry point (`internal/infer`), injected here
// to avoid classmodel depending on the inference driver (infer depends on
// classmodel, not the reverse).
type BaseExprEvaluator func(ast.Expr) (typeir.Type, error)

// ResolveBases evaluates c's base-class expressions and normalizes them
// into a concrete []*ClassLiteral (spec.md §4.2 "base resolution"). The
// `Protocol`/`Generic` marker forms never reach this function — the driver
// strips them syntactically before handing over c.BaseExprs — so anything
// left that isn't a class is an InvalidBases error.
func ResolveBases(c *typeir.ClassLiteral, eval BaseExprEvaluator) ([]*typeir.ClassLiteral, error) {
	bases := make([]*typeir.ClassLiteral, 0, len(c.BaseExprs))
	for i, expr := range c.BaseExprs {
		t, err := eval(expr)
		if err != nil {
			return nil, err
		}
		base, ok := classFromBaseType(t)
		if !ok {
			return nil, &InvalidBases{Class: c, BaseIdx: i, Reason: "not a class"}
		}
		bases = append(bases, base)
	}
	return bases, nil
}

func classFromBaseType(t typeir.Type) (*typeir.ClassLiteral, bool) {
	switch v := t.(type) {
	case *typeir.ClassLiteralType:
		return v.Class, true
	case *typeir.GenericAlias:
		return v.Class, true
	default:
		return nil, false
	}
}
