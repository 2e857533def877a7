// Package dtree compiles a Python `match` statement's cases into a
// decision tree (spec.md §4.6): a matrix-based pattern-match compiler that
// avoids re-testing a subject against the same sub-pattern twice when
// several cases share a prefix. Grounded directly on the teacher's
// decision_tree.go matrix-compilation algorithm (row specialization by
// constructor, column switch construction, wildcard-row collapse to a
// leaf), generalized here from AILANG's core ConstructorPattern/LitPattern
// to `internal/ast`'s match-pattern node set (ValuePattern, ClassPattern,
// SequencePattern, MappingPattern, OrPattern, CapturePattern,
// WildcardPattern, StarPattern).
package dtree

import (
	"fmt"

	"github.com/prismafold/pytc/internal/ast"
)

// DecisionTree is the compiled form of a match statement's cases.
type DecisionTree interface {
	isDecisionTree()
	String() string
}

// LeafNode is a matched case: its body (and, per spec.md §4.6, the guard
// that must additionally be truthy) should run.
type LeafNode struct {
	CaseIndex int
	Case      ast.MatchCase
}

func (l *LeafNode) isDecisionTree() {}
func (l *LeafNode) String() string  { return fmt.Sprintf("Leaf(case=%d)", l.CaseIndex) }

// FailNode is reached when no case's pattern matches the subject — a
// non-exhaustive match falls through with no effect, matching `match`
// statement runtime semantics (there is no implicit MatchError).
type FailNode struct{}

func (f *FailNode) isDecisionTree() {}
func (f *FailNode) String() string  { return "Fail" }

// SwitchNode dispatches on one structural test (a literal/class/length
// discriminator) at Path within the subject, matching Cases or falling to
// Default.
type SwitchNode struct {
	Path    []int
	Cases   map[string]DecisionTree
	Default DecisionTree
}

func (s *SwitchNode) isDecisionTree() {}
func (s *SwitchNode) String() string {
	return fmt.Sprintf("Switch(path=%v, cases=%d, default=%v)", s.Path, len(s.Cases), s.Default != nil)
}

// Compiler builds a DecisionTree from a match statement's cases.
type Compiler struct{ cases []ast.MatchCase }

// NewCompiler creates a compiler for the given cases, in source order.
func NewCompiler(cases []ast.MatchCase) *Compiler { return &Compiler{cases: cases} }

// Compile builds the tree.
func (c *Compiler) Compile() DecisionTree {
	matrix := make([]matchRow, len(c.cases))
	for i, cs := range c.cases {
		matrix[i] = matchRow{patterns: []ast.Pattern{cs.Pattern}, caseIndex: i, mc: cs}
	}
	return c.compileMatrix(matrix, nil)
}

type matchRow struct {
	patterns  []ast.Pattern
	caseIndex int
	mc        ast.MatchCase
}

func (c *Compiler) compileMatrix(matrix []matchRow, path []int) DecisionTree {
	if len(matrix) == 0 {
		return &FailNode{}
	}
	if isIrrefutableRow(matrix[0]) {
		return &LeafNode{CaseIndex: matrix[0].caseIndex, Case: matrix[0].mc}
	}

	colIndex := 0
	if colIndex >= len(matrix[0].patterns) {
		return &LeafNode{CaseIndex: matrix[0].caseIndex, Case: matrix[0].mc}
	}
	return c.buildSwitch(matrix, path, colIndex)
}

// isIrrefutableRow reports whether every pattern in row always matches:
// wildcards, bare captures, and an or-pattern whose last alternative is
// irrefutable (mirroring CPython's own irrefutability check).
func isIrrefutableRow(row matchRow) bool {
	for _, pat := range row.patterns {
		if !patternAlwaysMatches(pat) {
			return false
		}
	}
	return true
}

func patternAlwaysMatches(p ast.Pattern) bool {
	switch v := p.(type) {
	case *ast.WildcardPattern, *ast.CapturePattern:
		return true
	case *ast.OrPattern:
		if len(v.Patterns) == 0 {
			return false
		}
		return patternAlwaysMatches(v.Patterns[len(v.Patterns)-1])
	default:
		return false
	}
}

func (c *Compiler) buildSwitch(matrix []matchRow, path []int, colIndex int) DecisionTree {
	cases := make(map[string][]matchRow)
	var order []string
	var defaultRows []matchRow

	for _, row := range matrix {
		if colIndex >= len(row.patterns) {
			defaultRows = append(defaultRows, row)
			continue
		}
		pat := row.patterns[colIndex]
		switch p := pat.(type) {
		case *ast.ValuePattern:
			key := "value:" + exprKey(p.Value)
			if _, ok := cases[key]; !ok {
				order = append(order, key)
			}
			cases[key] = append(cases[key], row)
		case *ast.ClassPattern:
			key := "class:" + exprKey(p.Cls)
			if _, ok := cases[key]; !ok {
				order = append(order, key)
			}
			cases[key] = append(cases[key], specializeClassRow(row, colIndex, p))
		case *ast.SequencePattern:
			key := fmt.Sprintf("seq:%d:%v", len(p.Elements), hasStar(p.Elements))
			if _, ok := cases[key]; !ok {
				order = append(order, key)
			}
			cases[key] = append(cases[key], specializeSequenceRow(row, colIndex, p))
		case *ast.MappingPattern:
			key := fmt.Sprintf("map:%d", len(p.Keys))
			if _, ok := cases[key]; !ok {
				order = append(order, key)
			}
			cases[key] = append(cases[key], specializeMappingRow(row, colIndex, p))
		case *ast.OrPattern:
			for _, alt := range p.Patterns {
				expanded := row
				expanded.patterns = replaceAt(row.patterns, colIndex, alt)
				defaultRows = append(defaultRows, expanded)
			}
		case *ast.WildcardPattern, *ast.CapturePattern:
			defaultRows = append(defaultRows, row)
		default:
			defaultRows = append(defaultRows, row)
		}
	}

	if len(cases) == 0 && len(defaultRows) > 0 {
		return &LeafNode{CaseIndex: defaultRows[0].caseIndex, Case: defaultRows[0].mc}
	}

	node := &SwitchNode{Path: append(append([]int(nil), path...), colIndex), Cases: make(map[string]DecisionTree)}
	for _, key := range order {
		node.Cases[key] = c.compileMatrix(dropColumn(cases[key], colIndex), append(path, colIndex))
	}
	if len(defaultRows) > 0 {
		node.Default = c.compileMatrix(dropColumn(defaultRows, colIndex), append(path, colIndex))
	} else {
		node.Default = &FailNode{}
	}
	return node
}

func dropColumn(rows []matchRow, colIndex int) []matchRow {
	out := make([]matchRow, len(rows))
	for i, row := range rows {
		out[i] = matchRow{
			patterns:  append(append([]ast.Pattern(nil), row.patterns[:colIndex]...), row.patterns[colIndex+1:]...),
			caseIndex: row.caseIndex,
			mc:        row.mc,
		}
	}
	return out
}

func replaceAt(patterns []ast.Pattern, idx int, with ast.Pattern) []ast.Pattern {
	out := append([]ast.Pattern(nil), patterns...)
	out[idx] = with
	return out
}

// specializeClassRow expands a class pattern's positional/keyword
// sub-patterns into additional matrix columns, the same "args expand into
// new columns" specialization the teacher's ConstructorPattern case does.
func specializeClassRow(row matchRow, colIndex int, p *ast.ClassPattern) matchRow {
	extra := make([]ast.Pattern, 0, len(p.Positional)+len(p.KeywordValues))
	extra = append(extra, p.Positional...)
	extra = append(extra, p.KeywordValues...)
	return expandColumn(row, colIndex, extra)
}

func specializeSequenceRow(row matchRow, colIndex int, p *ast.SequencePattern) matchRow {
	return expandColumn(row, colIndex, p.Elements)
}

func specializeMappingRow(row matchRow, colIndex int, p *ast.MappingPattern) matchRow {
	return expandColumn(row, colIndex, p.Values)
}

func expandColumn(row matchRow, colIndex int, sub []ast.Pattern) matchRow {
	patterns := make([]ast.Pattern, 0, len(row.patterns)-1+len(sub))
	patterns = append(patterns, row.patterns[:colIndex]...)
	patterns = append(patterns, sub...)
	patterns = append(patterns, row.patterns[colIndex+1:]...)
	return matchRow{patterns: patterns, caseIndex: row.caseIndex, mc: row.mc}
}

func hasStar(elems []ast.Pattern) bool {
	for _, e := range elems {
		if _, ok := e.(*ast.StarPattern); ok {
			return true
		}
	}
	return false
}

// exprKey renders an expression used as a pattern discriminator (a value
// pattern's comparison value, a class pattern's class reference) into a
// matrix grouping key. It only needs to be stable and distinguishing, not
// human-readable; Name/Attribute chains cover every class/value pattern
// Python's grammar allows here.
func exprKey(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.Name:
		return v.Id
	case *ast.Attribute:
		return exprKey(v.Value) + "." + v.Attr
	case *ast.Constant:
		return fmt.Sprintf("const:%d:%d:%s:%g:%q:%q:%t", v.Kind, v.Int, v.Big, v.Float, v.Str, v.Bytes, v.Bool)
	default:
		return fmt.Sprintf("%p", e)
	}
}

// CanCompileToTree reports whether a match's cases have enough testable
// (non-capture) patterns to benefit from tree compilation rather than a
// linear if/elif chain.
func CanCompileToTree(cases []ast.MatchCase) bool {
	count := 0
	for _, c := range cases {
		switch c.Pattern.(type) {
		case *ast.ValuePattern, *ast.ClassPattern, *ast.SequencePattern, *ast.MappingPattern:
			count++
		}
	}
	return count >= 2
}
