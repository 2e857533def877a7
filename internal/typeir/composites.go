package typeir

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------
// Modules & special forms
// ---------------------------------------------------------------------

// ModuleLiteral is the type of an imported module object.
type ModuleLiteral struct{ Name string }

func (m *ModuleLiteral) String() string { return fmt.Sprintf("<module %q>", m.Name) }
func (m *ModuleLiteral) key() string    { return "Module:" + m.Name }

// SpecialFormKind enumerates the `typing` symbols that are recognized as
// syntax, not ordinary values, in type-expression position (spec.md §3).
type SpecialFormKind int

const (
	FormUnion SpecialFormKind = iota
	FormOptional
	FormLiteral
	FormAnnotated
	FormCallable
	FormGeneric
	FormProtocol
	FormTuple
	FormType
	FormUnpack
	FormConcatenate
	FormClassVar
	FormFinal
	FormTypeGuard
	FormTypeIs
	FormRequired
	FormNotRequired
	FormReadOnly
	FormSelf
	FormNever
	FormNoReturn
	FormLiteralStringForm
)

type SpecialForm struct{ Kind SpecialFormKind }

func (s *SpecialForm) String() string { return fmt.Sprintf("SpecialForm(%d)", s.Kind) }
func (s *SpecialForm) key() string    { return fmt.Sprintf("SpecialForm:%d", s.Kind) }

// KnownInstanceKind enumerates the handful of `typing`-module objects whose
// *value* the checker must model precisely (a TypeVar object, a
// TypeAliasType, ...) as opposed to forms that only mean something in type
// position.
type KnownInstanceKind int

const (
	KnownInstanceTypeVar KnownInstanceKind = iota
	KnownInstanceParamSpec
	KnownInstanceTypeAliasType
	KnownInstanceUnionTypeInstance
	KnownInstanceConstraintSet
	KnownInstanceDeprecated
	KnownInstanceNewType
)

type KnownInstance struct {
	Kind    KnownInstanceKind
	TypeVar *TypeVarType // set when Kind == KnownInstanceTypeVar/ParamSpec
	Alias   *TypeAlias   // set when Kind == KnownInstanceTypeAliasType
}

func (k *KnownInstance) String() string { return "KnownInstance" }
func (k *KnownInstance) key() string    { return fmt.Sprintf("KnownInstance:%d:%p", k.Kind, k) }

// TypeAlias is a (possibly generic, possibly PEP-695) type alias
// definition. Expansion is cycle-guarded the same way MRO is (spec.md §4.2,
// §9: `type JSON = ... | list[JSON] | ...`).
type TypeAlias struct {
	Name       string
	DefSite    string
	Generic    *GenericContext // nil for a legacy non-generic alias
	expanding  bool            // cycle participant flag, mirrors ClassLiteral.computing
	Expansion  Type            // filled in once by the owner of alias expansion
}

func (t *TypeAlias) String() string { return t.Name }
func (t *TypeAlias) key() string    { return "Alias:" + t.DefSite + ":" + t.Name }

func (t *TypeAlias) Expanding() bool     { return t.expanding }
func (t *TypeAlias) SetExpanding(v bool) { t.expanding = v }

// ---------------------------------------------------------------------
// Union / Intersection (composite algebra; construction lives in union.go
// and intersection.go, these are just the carrier types)
// ---------------------------------------------------------------------

// UnionType is a normalized union: flattened, deduplicated by identity,
// never containing Never, never a singleton (spec.md §3 invariants).
// Construct via NewUnion, never directly.
type UnionType struct{ Elements []Type } // ordered for display stability

func (u *UnionType) String() string {
	parts := make([]string, len(u.Elements))
	for i, e := range u.Elements {
		parts[i] = e.String()
	}
	return strings.Join(parts, " | ")
}
func (u *UnionType) key() string {
	parts := make([]string, len(u.Elements))
	for i, e := range u.Elements {
		parts[i] = e.key()
	}
	return "Union(" + strings.Join(parts, ",") + ")"
}

// IntersectionType is a normalized intersection: positive and negative atom
// sets, disjoint, with no redundant members (spec.md §3 invariants).
// Construct via NewIntersection, never directly.
type IntersectionType struct {
	Positive []Type
	Negative []Type
}

func (i *IntersectionType) String() string {
	parts := make([]string, 0, len(i.Positive)+len(i.Negative))
	for _, p := range i.Positive {
		parts = append(parts, p.String())
	}
	for _, n := range i.Negative {
		parts = append(parts, "~"+n.String())
	}
	return strings.Join(parts, " & ")
}
func (i *IntersectionType) key() string {
	parts := make([]string, 0, len(i.Positive)+len(i.Negative))
	for _, p := range i.Positive {
		parts = append(parts, "+"+p.key())
	}
	for _, n := range i.Negative {
		parts = append(parts, "-"+n.key())
	}
	return "Intersection(" + strings.Join(parts, ",") + ")"
}

// ---------------------------------------------------------------------
// Misc composites
// ---------------------------------------------------------------------

// PropertyInstance is the type of a `property` object: getter and setter
// signatures (setter nil for a read-only property).
type PropertyInstance struct {
	Getter *Signature
	Setter *Signature // nil if read-only
}

func (p *PropertyInstance) String() string { return "property" }
func (p *PropertyInstance) key() string    { return fmt.Sprintf("Property:%p", p) }

// TypeIs is the return-type carrier for a `TypeIs[T]`-annotated function
// (PEP 742): narrows its first parameter to T on a truthy return, and to
// the complement on a falsy one, at the *call site*.
type TypeIs struct{ Carrier Type }

func (t *TypeIs) String() string { return fmt.Sprintf("TypeIs[%s]", t.Carrier) }
func (t *TypeIs) key() string    { return "TypeIs:" + t.Carrier.key() }

// BoundSuper is the type of a `super()` (or `super(Pivot, owner)`) call
// result: attribute lookup on it starts one step past Pivot in Owner's MRO.
type BoundSuper struct {
	Pivot *ClassLiteral
	Owner Type // NominalInstance or ClassLiteralType
}

func (b *BoundSuper) String() string { return fmt.Sprintf("super(%s, %s)", b.Pivot.Name, b.Owner) }
func (b *BoundSuper) key() string    { return fmt.Sprintf("Super:%s:%s", b.Pivot.key(), b.Owner.key()) }
