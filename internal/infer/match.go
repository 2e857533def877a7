package infer

import (
	"github.com/prismafold/pytc/internal/ast"
	"github.com/prismafold/pytc/internal/diagnostics"
	"github.com/prismafold/pytc/internal/dtree"
	"github.com/prismafold/pytc/internal/typeir"
)

// inferMatchStmt infers a `match` statement (spec.md §4.6): the subject
// and every pattern's own sub-expressions (class-pattern callees,
// value-pattern comparands, mapping-pattern keys) are inferred for their
// diagnostics, each guard is inferred and passed through typeir.TryBool
// (its result is not reported, so a guard with an unusable `__bool__`
// raises no diagnostic), and every case body is inferred in turn. internal/dtree's decision-tree
// compilation is exercised here for its structural validation (an
// unreachable case — one whose row is dropped before ever producing a
// leaf — surfaces as unreachable code) rather than to drive evaluation
// order, since this core type-checks rather than executes.
func (c *Checker) inferMatchStmt(v *ast.MatchStmt) {
	c.InferExpr(v.Subject, NoContext)

	for _, mc := range v.Cases {
		c.inferPattern(mc.Pattern)
		if mc.Guard != nil {
			guard := c.InferExpr(mc.Guard, NoContext)
			typeir.TryBool(guard)
		}
		c.InferBody(mc.Body)
	}

	if dtree.CanCompileToTree(v.Cases) {
		reached := reachableCases(dtree.NewCompiler(v.Cases).Compile())
		for i, mc := range v.Cases {
			if !reached[i] && mc.Guard == nil {
				c.reportf(diagnostics.KindUnreachableCode, spanOf(mc.Pattern), "this pattern can never match")
			}
		}
	}
}

func reachableCases(t dtree.DecisionTree) map[int]bool {
	reached := make(map[int]bool)
	var walk func(dtree.DecisionTree)
	walk = func(n dtree.DecisionTree) {
		switch v := n.(type) {
		case *dtree.LeafNode:
			reached[v.CaseIndex] = true
		case *dtree.SwitchNode:
			for _, sub := range v.Cases {
				walk(sub)
			}
			if v.Default != nil {
				walk(v.Default)
			}
		}
	}
	walk(t)
	return reached
}

// inferPattern recurses through a pattern's own sub-expressions so that,
// e.g., a class pattern's callee (`case Point(x, y):`) and a value
// pattern's comparand both get ordinary expression diagnostics.
func (c *Checker) inferPattern(p ast.Pattern) {
	switch v := p.(type) {
	case *ast.ValuePattern:
		c.InferExpr(v.Value, NoContext)
	case *ast.CapturePattern:
		if v.Pattern != nil {
			c.inferPattern(v.Pattern)
		}
	case *ast.OrPattern:
		for _, sub := range v.Patterns {
			c.inferPattern(sub)
		}
	case *ast.SequencePattern:
		for _, sub := range v.Elements {
			c.inferPattern(sub)
		}
	case *ast.MappingPattern:
		for _, k := range v.Keys {
			c.InferExpr(k, NoContext)
		}
		for _, sub := range v.Values {
			c.inferPattern(sub)
		}
	case *ast.ClassPattern:
		c.InferExpr(v.Cls, NoContext)
		for _, sub := range v.Positional {
			c.inferPattern(sub)
		}
		for _, sub := range v.KeywordValues {
			c.inferPattern(sub)
		}
	}
}
