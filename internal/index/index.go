// Package index fixes the shape of the semantic index the type-checking
// core consumes (spec.md §6): place tables, use-def maps, narrowing
// constraint tables, ancestor-scope iteration and scope-kind classification.
// Building this index from an AST — scope construction, symbol binding,
// use-def chains, reachability, narrowing-constraint derivation — is
// explicitly out of scope for the core (spec.md §1); this package only
// states the read-only contract and, for tests and the demo CLI, a minimal
// in-memory implementation of it (SimpleIndex) that a real host would
// replace with its own incremental index.
package index

import "github.com/prismafold/pytc/internal/ast"

// PlaceID is a stable id for a place within a scope.
type PlaceID int

// PlaceKind classifies what a place denotes.
type PlaceKind int

const (
	PlaceSymbol PlaceKind = iota
	PlaceAttribute
	PlaceSubscript
)

// Place is a program-visible slot: a symbol, an attribute path, or a
// subscript path (spec.md glossary: "Place").
type Place struct {
	ID   PlaceID
	Kind PlaceKind
	// Name is the symbol name for PlaceSymbol, or the trailing attribute
	// name for PlaceAttribute.
	Name string
	// Base is the place id of the object the attribute/subscript hangs off,
	// or -1 for PlaceSymbol.
	Base PlaceID
}

// ScopeID identifies a lexical scope.
type ScopeID int

// ScopeKind classifies a scope the way spec.md §6 enumerates.
type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeClass
	ScopeFunction
	ScopeLambda
	ScopeComprehension
	ScopeAnnotation
	ScopeTypeAliasParams
)

// BindingID identifies one binding (an assignment, parameter, import, etc.)
// of a place within a scope.
type BindingID int

// DeclarationID identifies one declaration (an annotation) of a place.
type DeclarationID int

// UseID identifies one load reference to a place.
type UseID int

// Binding is one point where a place receives a value.
type Binding struct {
	ID        BindingID
	Place     PlaceID
	Node      ast.Node // the RHS expression, parameter, or import node
	IsGlobal  bool      // bound via an explicit `global` statement
	IsNonlocal bool     // bound via an explicit `nonlocal` statement
}

// Declaration is one point where a place's static type is announced.
type Declaration struct {
	ID         DeclarationID
	Place      PlaceID
	Annotation ast.Expr // the annotation expression, evaluated in annotation mode
	Final      bool
	ClassVar   bool
	InitVar    bool
}

// ReachabilityPredicate decides whether a binding or declaration is live at
// a use, or whether a node is reachable at all (dead-code elimination from
// e.g. `if TYPE_CHECKING:` or a `NoReturn` call).
type ReachabilityPredicate func() bool

// NarrowingConstraint is a partial function Type -> Type keyed by place,
// derived from the predicates (isinstance, is None, truthiness, ...) that
// reach a use site. It is represented as an opaque callback so the core
// never needs to know how the index derived it.
type NarrowingConstraint struct {
	Place PlaceID
	Apply func(narrowed interface{}) interface{}
}

// UseDefMap is the per-scope use-def chain the core consults in Place
// Resolution (spec.md §4.5 step 1).
type UseDefMap interface {
	// BindingsAtUse returns the bindings that reach a given use, each paired
	// with the predicate that must hold for it to be live.
	BindingsAtUse(use UseID) []ReachingBinding
	// BindingsAtDefinition returns, for a given binding, the prior bindings
	// visible at its own right-hand-side (for self-referential patterns like
	// `x = x or []`).
	BindingsAtDefinition(b BindingID) []ReachingBinding
	// DeclarationsAtBinding returns the declarations that constrain a binding.
	DeclarationsAtBinding(b BindingID) []DeclarationID
	// EndOfScopeBindings returns the bindings of a place visible at the end
	// of a scope (used for deferred annotation evaluation, spec.md §4.5).
	EndOfScopeBindings(scope ScopeID, place PlaceID) []ReachingBinding
	// BindingsAtScopeDefinition returns the bindings of a place in scope
	// that were visible at the point the inner scope's definition executed —
	// the snapshot an eager inner scope (class or module body) resolves
	// enclosing names against, where a lazy (function) scope would see the
	// end-of-scope state instead (spec.md §4.5 step 4).
	BindingsAtScopeDefinition(inner ScopeID, scope ScopeID, place PlaceID) []ReachingBinding
	Declaration(id DeclarationID) Declaration
	BindingNode(id BindingID) Binding
}

// ReachingBinding pairs a binding with the predicate that must hold for it
// to reach a particular use.
type ReachingBinding struct {
	Binding       BindingID
	Reachable     ReachabilityPredicate
	PossiblyUnbound bool
}

// PlaceTable is the bidirectional map between place descriptors and ids for
// one scope.
type PlaceTable interface {
	Lookup(scope ScopeID, kind PlaceKind, name string, base PlaceID) (PlaceID, bool)
	Place(id PlaceID) Place
}

// NarrowingTable maps a use (or a nested scope boundary) to the constraints
// reaching it. Constraints compose left-to-right: the inner (closer)
// narrows the outer, per spec.md §4.5.
type NarrowingTable interface {
	ConstraintsAtUse(use UseID) []NarrowingConstraint
	ConstraintsEnteringScope(scope ScopeID) []NarrowingConstraint
}

// Scopes exposes ancestor-scope iteration and classification (spec.md §6).
type Scopes interface {
	Kind(scope ScopeID) ScopeKind
	// Parent returns the lexically enclosing scope, or (0, false) for the
	// module scope.
	Parent(scope ScopeID) (ScopeID, bool)
	// IsEager reports whether a scope's bindings are visible to inner scopes
	// at definition time rather than call time (module and class body
	// scopes; spec.md §4.5 step 4).
	IsEager(scope ScopeID) bool
}

// StdlibVersionTable answers, for a stdlib submodule, the Python version
// range it exists on — consulted when resolving `sys.version_info`-guarded
// imports. Out of scope to populate accurately; the core only needs the
// query shape.
type StdlibVersionTable interface {
	Exists(module string, pyMajor, pyMinor int) bool
}

// ModuleResolver is the module-resolution contract (spec.md §6).
type ModuleResolver interface {
	ResolveModule(name string) (ModuleInfo, bool)
	PackageForFile(file string) (string, bool)
}

// ModuleInfo is what the core needs to know about a resolved module: its
// dotted name and the exported-place table of its top-level scope.
type ModuleInfo struct {
	Name  string
	Scope ScopeID
}
