package typeir

import (
	"fmt"
	"strings"

	"github.com/prismafold/pytc/internal/ast"
)

// ClassLiteral is a class object: a non-generic class, or a generic class'
// unspecialized "origin" (spec.md §3 "Class literal"). It is a mutable
// record, not interned. A class's identity is its defining file plus its
// name: same-named classes from different files are never the same Type,
// while two records with the same name and file compare as the same Type
// (Same) whatever their other fields. The MRO/metaclass/field-map
// derivation that mutates the Derived* fields lives in
// `internal/classmodel`, which only this package's `ClassLiteral` is
// exported for — classmodel computes into it, it never defines a
// competing class type.
type ClassLiteral struct {
	Name         string
	DefiningFile string
	KnownClass   KnownClass // tag for special-cased stdlib classes, or KnownNone
	Deprecated   string     // empty if not deprecated
	IsTypeCheckOnly bool
	IsFinalClass bool

	Generic *GenericContext // nil if the class is not generic

	// ExplicitBases / ExplicitMetaclass are resolved lazily by classmodel
	// via BaseResolver; storing the resolver (rather than resolved types)
	// keeps ClassLiteral constructible before its bases are type-checked,
	// matching spec.md's "explicit base-class expressions (resolved
	// lazily)".
	BaseExprs     []ast.Expr
	MetaclassExpr ast.Expr
	Keywords      []ast.Keyword

	Dataclass *DataclassParams // nil unless dataclass-like

	// Derived / memoized by internal/classmodel.
	DerivedBases     []*ClassLiteral
	DerivedMRO       []*ClassLiteral
	DerivedMetaclass *ClassLiteral
	DerivedFields    []Field
	DerivedMembers   []Member // class-body methods/attrs, in source order
	DerivedIsProtocol bool
	computing        bool // participant flag for cycle detection during MRO/metaclass construction
}

// Member is one class-body member that isn't a synthesized field: a method
// (FunctionLiteral, possibly overloaded), a property object, an enum
// literal, or a plain class attribute's inferred type. Ordered by source
// position so member-order-sensitive checks stay deterministic.
type Member struct {
	Name  string
	Value Type
}

// OwnMember returns c's directly-declared member of the given name.
func (c *ClassLiteral) OwnMember(name string) (Type, bool) {
	for _, m := range c.DerivedMembers {
		if m.Name == name {
			return m.Value, true
		}
	}
	return nil, false
}

// LookupClassMember resolves a member name on c or the nearest MRO
// ancestor declaring it, returning the declaring class alongside the value
// (spec.md §4.4 "resolve __init__/__new__ through the MRO"; the same walk
// serves ordinary attribute access and dunder dispatch).
func LookupClassMember(c *ClassLiteral, name string) (Type, *ClassLiteral, bool) {
	if v, ok := c.OwnMember(name); ok {
		return v, c, true
	}
	for _, anc := range c.DerivedMRO {
		if anc == c {
			continue
		}
		if v, ok := anc.OwnMember(name); ok {
			return v, anc, true
		}
	}
	return nil, nil, false
}

func (c *ClassLiteral) String() string { return c.Name }
func (c *ClassLiteral) key() string    { return "Class:" + c.DefiningFile + ":" + c.Name }

// Computing/SetComputing are used by internal/classmodel's cycle-guarded
// MRO/metaclass construction (spec.md §4.8: "an explicit participant flag
// set during MRO construction").
func (c *ClassLiteral) Computing() bool      { return c.computing }
func (c *ClassLiteral) SetComputing(v bool)  { c.computing = v }

// KnownClass tags classes the checker special-cases construction/behavior
// for (bool, str, type, object, property, super, tuple, ... per §4.4).
type KnownClass int

const (
	KnownNone KnownClass = iota
	KnownObject
	KnownType
	KnownBool
	KnownInt
	KnownFloat
	KnownStr
	KnownBytes
	KnownTuple
	KnownList
	KnownDict
	KnownSet
	KnownFrozenSet
	KnownProperty
	KnownSuper
	KnownNoneType
	KnownEnum
	KnownTypedDict
	KnownNamedTuple
	KnownBaseException
	KnownException
)

// Field describes one dataclass-like field, in class-body source order
// (spec.md §4.3 "Dataclass-like code generation").
type Field struct {
	Name      string
	Declared  Type
	HasDefault bool
	KeywordOnly bool
	ClassVar  bool
	InitVar   bool
	Final     bool
	// NotRequired marks a TypedDict field wrapped in NotRequired[...] (or
	// declared under total=False); such a key may be absent and may be
	// popped.
	NotRequired bool
	// ReadOnly marks a TypedDict field wrapped in ReadOnly[...].
	ReadOnly bool
}

// DataclassParams mirrors `@dataclass(...)` (or a `dataclass_transform`
// decorator's) keyword parameters.
type DataclassParams struct {
	Init      bool
	Eq        bool
	Order     bool
	Frozen    bool
	KWOnly    bool
	Kind      DataclassKind
}

// DataclassKind distinguishes plain dataclasses from NamedTuple/TypedDict,
// which share field-synthesis machinery but have their own extra rules
// (spec.md §4.3).
type DataclassKind int

const (
	DataclassPlain DataclassKind = iota
	DataclassNamedTuple
	DataclassTypedDict
)

// ---------------------------------------------------------------------
// Generic context & specialization
// ---------------------------------------------------------------------

// GenericContext is an ordered set of typevars a definition binds (spec.md
// glossary: "Generic context").
type GenericContext struct {
	BindingSite string // the definition's qualified name, for display/debug
	Vars        []*TypeVarType
}

func (g *GenericContext) IndexOf(name string) int {
	for i, v := range g.Vars {
		if v.Name == name {
			return i
		}
	}
	return -1
}

// Specialization maps each typevar of a context to a concrete Type, or
// leaves it unbound (nil) for a partial specialization.
type Specialization struct {
	Context *GenericContext
	Args    []Type // parallel to Context.Vars; nil entries are unbound
}

// Get returns the bound type for a typevar name, or (nil, false) if unbound
// or not in this specialization's context.
func (s *Specialization) Get(name string) (Type, bool) {
	i := s.Context.IndexOf(name)
	if i < 0 || s.Args[i] == nil {
		return nil, false
	}
	return s.Args[i], true
}

func (s *Specialization) String() string {
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		if a == nil {
			parts[i] = "?"
		} else {
			parts[i] = a.String()
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// TypeVarKind distinguishes PEP-695 `class C[T]` vars from legacy
// `T = TypeVar("T")` ones, and plain vars from ParamSpecs (spec.md §3).
type TypeVarKind int

const (
	TypeVarPEP695 TypeVarKind = iota
	TypeVarLegacy
	TypeVarPEP695ParamSpec
	TypeVarLegacyParamSpec
)

// Variance is a typevar's declared or inferred variance.
type Variance int

const (
	Invariant Variance = iota
	Covariant
	Contravariant
	VarianceInferred
)

// TypeVarType is a type variable: identity is (Name, DefSite, Kind), so two
// same-named typevars from different definitions are different types.
type TypeVarType struct {
	Name        string
	DefSite     string
	Kind        TypeVarKind
	Bound       Type   // mutually exclusive with Constraints
	Constraints []Type // lazily evaluated tuple of candidates
	Default     Type   // nil if none
	Variance    Variance
}

func (t *TypeVarType) String() string { return t.Name }
func (t *TypeVarType) key() string    { return "TypeVar:" + t.DefSite + ":" + t.Name }

// ---------------------------------------------------------------------
// Class objects as types
// ---------------------------------------------------------------------

// ClassLiteralType is a class used as a value (not instantiated): `int`,
// `MyClass`, the unspecialized origin of a generic class.
type ClassLiteralType struct{ Class *ClassLiteral }

func (c *ClassLiteralType) String() string { return fmt.Sprintf("type[%s]", c.Class.Name) }
func (c *ClassLiteralType) key() string    { return "ClassLit:" + c.Class.key() }

// GenericAlias is a specialized generic class, e.g. `list[int]`.
type GenericAlias struct {
	Class          *ClassLiteral
	Specialization *Specialization
}

func (g *GenericAlias) String() string {
	return fmt.Sprintf("%s%s", g.Class.Name, g.Specialization.String())
}
func (g *GenericAlias) key() string {
	return "GenericAlias:" + g.Class.key() + g.Specialization.String()
}

// SubclassOf is `type[X]` for a non-literal X (a typevar, Any, or a union).
type SubclassOf struct{ Of Type } // Of is Unknown/AnyType for `type[Any]`, or a class/union of classes

func (s *SubclassOf) String() string { return fmt.Sprintf("type[%s]", s.Of) }
func (s *SubclassOf) key() string    { return "SubclassOf:" + s.Of.key() }

// ---------------------------------------------------------------------
// Instances
// ---------------------------------------------------------------------

// NominalInstance is an ordinary instance of a (possibly generic,
// possibly specialized) class.
type NominalInstance struct {
	Class          *ClassLiteral
	Specialization *Specialization // nil for a non-generic class
}

func (n *NominalInstance) String() string {
	if n.Specialization == nil {
		return n.Class.Name
	}
	return fmt.Sprintf("%s%s", n.Class.Name, n.Specialization.String())
}
func (n *NominalInstance) key() string {
	if n.Specialization == nil {
		return "Inst:" + n.Class.key()
	}
	return "Inst:" + n.Class.key() + n.Specialization.String()
}

// ProtocolInstance is an instance of a structural (Protocol) class; it
// participates in subtyping by structural membership, not MRO, per
// spec.md §4.3.
type ProtocolInstance struct {
	Class          *ClassLiteral
	Specialization *Specialization
}

func (p *ProtocolInstance) String() string { return p.Class.Name }
func (p *ProtocolInstance) key() string    { return "Proto:" + p.Class.key() }

// TypedDictType is a dict type whose keys are string-literal fields with
// per-key declared types (spec.md glossary: "TypedDict").
type TypedDictType struct {
	Class *ClassLiteral // carries DerivedFields as the field map, Required via Field semantics
}

func (t *TypedDictType) String() string { return t.Class.Name }
func (t *TypedDictType) key() string    { return "TypedDict:" + t.Class.key() }

// NewTypeInstance is an instance of a `NewType("X", base)` nominal wrapper.
type NewTypeInstance struct {
	Name string
	Base Type
}

func (n *NewTypeInstance) String() string { return n.Name }
func (n *NewTypeInstance) key() string    { return "NewType:" + n.Name }
