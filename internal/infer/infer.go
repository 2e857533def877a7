// Package infer is the expression/definition/scope inference driver
// (spec.md §4.6): the recursive-descent walker that turns an AST plus a
// semantic index into inferred types and diagnostics, dispatching into
// typeir for the algebra, query for memoization, places for name
// resolution, classmodel/signature for class and call semantics, and
// dtree for match-statement compilation. Grounded on the teacher's
// CoreTypeChecker (typechecker_core.go): a single stateful Checker struct
// carrying its instance environment, error list and a var/node counter,
// generalized here from a Hindley-Milner-over-Core walk to a bidirectional
// gradual walk over a Python-shaped AST.
package infer

import (
	"github.com/prismafold/pytc/internal/ast"
	"github.com/prismafold/pytc/internal/diagnostics"
	"github.com/prismafold/pytc/internal/index"
	"github.com/prismafold/pytc/internal/query"
	"github.com/prismafold/pytc/internal/typeir"
)

// Mode tracks which of the three expression-evaluation contexts the walker
// is currently in (spec.md §4.6 "mode stack"): ordinary value position,
// annotation position (where bare classes mean "instance of", not "the
// class object"), or type-expression position (inside a `typing`
// subscript, where special forms like Union/Literal are recognized as
// syntax).
type Mode int

const (
	ModeValue Mode = iota
	ModeAnnotation
	ModeTypeExpression
)

// Checker is the inference driver's state for one module.
type Checker struct {
	Module *ast.Module
	Index  index.UseDefMap
	Places index.PlaceTable
	Scopes index.Scopes
	Narrow index.NarrowingTable

	Pool  *query.Pool
	Cache *query.Cache
	Sink  *diagnostics.Sink

	modeStack  []Mode
	retStack   []*returnCtx
	classStack []*typeir.ClassLiteral
}

// returnCtx is one function's return-collection frame (spec.md §4.6
// "control flow-sensitive returns"): the declared return type (nil when
// unannotated) plus what the body walk observed.
type returnCtx struct {
	declared  typeir.Type
	sawReturn bool
	sawYield  bool
}

func (c *Checker) currentRet() *returnCtx {
	if len(c.retStack) == 0 {
		return nil
	}
	return c.retStack[len(c.retStack)-1]
}

func (c *Checker) markYield() {
	if rc := c.currentRet(); rc != nil {
		rc.sawYield = true
	}
}

func (c *Checker) inProtocolClass() bool {
	return len(c.classStack) > 0 && c.classStack[len(c.classStack)-1].DerivedIsProtocol
}

// NewChecker creates a driver for one module against an already-built
// semantic index.
func NewChecker(mod *ast.Module, ix *indexBundle) *Checker {
	return &Checker{
		Module: mod,
		Index:  ix.UseDefMap,
		Places: ix.PlaceTable,
		Scopes: ix.Scopes,
		Narrow: ix.NarrowingTable,
		Pool:   query.NewPool(),
		Cache:  query.NewCache(query.MultiIntersect),
		Sink:   diagnostics.NewSink(),
	}
}

// indexBundle groups the four semantic-index facets a Checker needs; a
// single concrete index implementation (internal/index.SimpleIndex)
// satisfies all four, but the driver only depends on the interfaces.
type indexBundle struct {
	UseDefMap      index.UseDefMap
	PlaceTable     index.PlaceTable
	Scopes         index.Scopes
	NarrowingTable index.NarrowingTable
}

// NewIndexBundle adapts a single concrete index (typically a
// *index.SimpleIndex) that implements every facet into the bundle
// NewChecker wants.
func NewIndexBundle(ix interface {
	index.UseDefMap
	index.PlaceTable
	index.Scopes
	index.NarrowingTable
}) *indexBundle {
	return &indexBundle{UseDefMap: ix, PlaceTable: ix, Scopes: ix, NarrowingTable: ix}
}

func (c *Checker) pushMode(m Mode) { c.modeStack = append(c.modeStack, m) }
func (c *Checker) popMode()        { c.modeStack = c.modeStack[:len(c.modeStack)-1] }
func (c *Checker) mode() Mode {
	if len(c.modeStack) == 0 {
		return ModeValue
	}
	return c.modeStack[len(c.modeStack)-1]
}

// TypeContext is the bidirectional "expected type" carried down into an
// expression's inference (spec.md §4.6 "bidirectional TypeContext
// propagation"): a union-context list literal infers its elements against
// the union's list-compatible member, a parameter default infers against
// the parameter's annotation, and so on. Call arguments are inferred
// without an expected type. Nil means no expectation.
type TypeContext struct {
	Expected typeir.Type
}

// NoContext is the zero TypeContext, for expressions inferred
// bottom-up with no expected type.
var NoContext = &TypeContext{}
