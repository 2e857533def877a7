// Package typeir is the type algebra (spec.md §4.1): the closed, interned
// sum of type variants every inferred type is built from, plus the
// subtyping/assignability/equivalence/disjointness relations and the
// union/intersection normal forms. It is grounded on the teacher's
// `internal/types` package (types.go's `Type` interface with
// String/Equals/Substitute, types_v2.go's kinded variables and rows,
// unification.go's structural dispatch) generalized from AILANG's
// Hindley-Milner sum to Python's gradual one: literal types, unions that
// flatten and dedupe, protocol/nominal instances, and the dynamic/bottom
// atoms (Unknown, Any, Todo, Divergent, Never) a monomorphic ML-family type
// system never needed.
package typeir

import "fmt"

// Type is the central sum (spec.md §3). It is immutable once constructed.
// Two values are the same type when their canonical keys match (see Same),
// whether or not they are the same Go value; constructors such as NewUnion
// build fresh values rather than interning them.
type Type interface {
	fmt.Stringer
	// key is the canonical key; two types with the same key are the same
	// identity. Atoms return a fixed string; compound variants compute it
	// from their children's keys.
	key() string
}

// Same reports whether a and b are the same type by comparing their
// canonical keys — the check the query layer and the algebra both rely
// on; a compound type's key is rebuilt from its children on each call.
func Same(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.key() == b.key()
}

// ---------------------------------------------------------------------
// Dynamic atoms
// ---------------------------------------------------------------------

type dynamicKind int

const (
	dynUnknown dynamicKind = iota
	dynAny
)

// dynamic is Unknown or Any: the gradual escape hatches. Both participate
// only in assignability, never in strict subtyping (spec.md §4.1).
type dynamic struct{ kind dynamicKind }

func (d *dynamic) String() string {
	if d.kind == dynUnknown {
		return "Unknown"
	}
	return "Any"
}
func (d *dynamic) key() string { return d.String() }

// Unknown is the gradual bottom used on inference errors and missing
// annotations.
var Unknown Type = &dynamic{kind: dynUnknown}

// AnyType is the explicit gradual escape hatch spelled `typing.Any`.
var AnyType Type = &dynamic{kind: dynAny}

// Todo records an intentionally unimplemented type-system corner (spec.md
// §9 Open Questions: Concatenate, TypeVarTuple/Unpack, infer_variance).
// Downstream operations treat it as Unknown for assignability.
type Todo struct{ Reason string }

func (t *Todo) String() string { return fmt.Sprintf("Todo(%s)", t.Reason) }
func (t *Todo) key() string    { return "Todo:" + t.Reason }

// Divergent is the fixed point returned when recursive type expansion (a
// self-referential alias or protocol) would not otherwise terminate
// (spec.md §4.2 cycle policy). Origin names the definition whose expansion
// diverged, for diagnostics.
type Divergent struct{ Origin string }

func (d *Divergent) String() string { return "Divergent" }
func (d *Divergent) key() string    { return "Divergent:" + d.Origin }

// ---------------------------------------------------------------------
// Bottom / synthetic truthiness atoms
// ---------------------------------------------------------------------

type neverType struct{}

func (n *neverType) String() string { return "Never" }
func (n *neverType) key() string    { return "Never" }

// Never is the uninhabited bottom type.
var Never Type = &neverType{}

type truthyAtom struct{ truthy bool }

func (t *truthyAtom) String() string {
	if t.truthy {
		return "AlwaysTruthy"
	}
	return "AlwaysFalsy"
}
func (t *truthyAtom) key() string { return t.String() }

// AlwaysTruthy / AlwaysFalsy are synthetic truthiness atoms (`try_bool`,
// spec.md §4.1). Nothing in the checker builds intersections with them:
// NarrowByTruthiness filters union members through TryBool instead.
var AlwaysTruthy Type = &truthyAtom{truthy: true}
var AlwaysFalsy Type = &truthyAtom{truthy: false}

// ---------------------------------------------------------------------
// Literal scalars
// ---------------------------------------------------------------------

// IntLiteral is `Literal[n]` for an int64-representable int. A literal
// value that does not fit in int64 is never carried here — it widens to
// the plain `int` instance type at the point it arises (`10**20`, a huge
// source literal), matching the data model's IntLiteral(i64) shape.
type IntLiteral struct {
	Value int64
}

func (i *IntLiteral) String() string { return fmt.Sprintf("Literal[%d]", i.Value) }
func (i *IntLiteral) key() string    { return fmt.Sprintf("IntLit:%d", i.Value) }

type BooleanLiteral struct{ Value bool }

func (b *BooleanLiteral) String() string { return fmt.Sprintf("Literal[%v]", b.Value) }
func (b *BooleanLiteral) key() string    { return fmt.Sprintf("BoolLit:%v", b.Value) }

type StringLiteral struct{ Value string }

func (s *StringLiteral) String() string { return fmt.Sprintf("Literal[%q]", s.Value) }
func (s *StringLiteral) key() string    { return "StrLit:" + s.Value }

// LiteralStringType is the type of all statically-known strings whose exact
// value inference gave up on tracking (spec.md: size-capped concatenation,
// f-strings of unknown-literal parts).
type literalStringType struct{}

func (l *literalStringType) String() string { return "LiteralString" }
func (l *literalStringType) key() string    { return "LiteralString" }

var LiteralStringType Type = &literalStringType{}

type BytesLiteral struct{ Value string }

func (b *BytesLiteral) String() string { return fmt.Sprintf("Literal[b%q]", b.Value) }
func (b *BytesLiteral) key() string    { return "BytesLit:" + b.Value }

// EnumLiteral is `Literal[SomeEnum.MEMBER]`.
type EnumLiteral struct {
	Class  *ClassLiteral
	Member string
}

func (e *EnumLiteral) String() string { return fmt.Sprintf("Literal[%s.%s]", e.Class.Name, e.Member) }
func (e *EnumLiteral) key() string    { return fmt.Sprintf("EnumLit:%s.%s", e.Class.Name, e.Member) }
