package index

import "github.com/prismafold/pytc/internal/ast"

// SimpleIndex is a minimal, eagerly-built in-memory semantic index. It is
// not the host's real (presumably incremental) index — that machinery is
// out of scope for this core — but it implements PlaceTable, UseDefMap,
// NarrowingTable and Scopes faithfully enough to drive the inference driver
// in tests and in the `pytc repl` demo, the same role the teacher's
// `internal/types/env.go` TypeEnv plays as a minimal environment for its
// own tests.
type SimpleIndex struct {
	scopes      []scopeRec
	places      []Place
	placeByKey  map[placeKey]PlaceID
	bindings    []Binding
	decls       []Declaration
	useBindings map[UseID][]ReachingBinding
	endOfScope  map[scopePlaceKey][]ReachingBinding
	defSnapshot map[scopeDefKey][]ReachingBinding
	narrowUse   map[UseID][]NarrowingConstraint
	narrowScope map[ScopeID][]NarrowingConstraint
	bindingDefs map[BindingID][]ReachingBinding
	bindingDecl map[BindingID][]DeclarationID
}

type scopeRec struct {
	kind   ScopeKind
	parent ScopeID
	hasParent bool
	eager  bool
}

type placeKey struct {
	scope ScopeID
	kind  PlaceKind
	name  string
	base  PlaceID
}

type scopePlaceKey struct {
	scope ScopeID
	place PlaceID
}

type scopeDefKey struct {
	inner ScopeID
	scope ScopeID
	place PlaceID
}

// NewSimpleIndex creates an empty index with a single module scope (id 0).
func NewSimpleIndex() *SimpleIndex {
	return &SimpleIndex{
		scopes:      []scopeRec{{kind: ScopeModule, eager: true}},
		placeByKey:  make(map[placeKey]PlaceID),
		useBindings: make(map[UseID][]ReachingBinding),
		endOfScope:  make(map[scopePlaceKey][]ReachingBinding),
		defSnapshot: make(map[scopeDefKey][]ReachingBinding),
		narrowUse:   make(map[UseID][]NarrowingConstraint),
		narrowScope: make(map[ScopeID][]NarrowingConstraint),
		bindingDefs: make(map[BindingID][]ReachingBinding),
		bindingDecl: make(map[BindingID][]DeclarationID),
	}
}

// ModuleScope is the id of the top-level module scope.
const ModuleScope ScopeID = 0

// NewScope adds a child scope and returns its id.
func (ix *SimpleIndex) NewScope(kind ScopeKind, parent ScopeID, eager bool) ScopeID {
	ix.scopes = append(ix.scopes, scopeRec{kind: kind, parent: parent, hasParent: true, eager: eager})
	return ScopeID(len(ix.scopes) - 1)
}

// InternPlace returns the id for (scope, kind, name, base), creating it if absent.
func (ix *SimpleIndex) InternPlace(scope ScopeID, kind PlaceKind, name string, base PlaceID) PlaceID {
	k := placeKey{scope, kind, name, base}
	if id, ok := ix.placeByKey[k]; ok {
		return id
	}
	id := PlaceID(len(ix.places))
	ix.places = append(ix.places, Place{ID: id, Kind: kind, Name: name, Base: base})
	ix.placeByKey[k] = id
	return id
}

// AddBinding records a binding for a place and returns its id.
func (ix *SimpleIndex) AddBinding(place PlaceID, node ast.Node) BindingID {
	id := BindingID(len(ix.bindings))
	ix.bindings = append(ix.bindings, Binding{ID: id, Place: place, Node: node})
	return id
}

// MarkBindingGlobal flags a binding as declared via a `global` statement.
func (ix *SimpleIndex) MarkBindingGlobal(b BindingID) { ix.bindings[b].IsGlobal = true }

// MarkBindingNonlocal flags a binding as declared via a `nonlocal` statement.
func (ix *SimpleIndex) MarkBindingNonlocal(b BindingID) { ix.bindings[b].IsNonlocal = true }

// AddDeclaration records a declaration for a place and returns its id.
func (ix *SimpleIndex) AddDeclaration(place PlaceID, ann ast.Expr, final, classVar, initVar bool) DeclarationID {
	id := DeclarationID(len(ix.decls))
	ix.decls = append(ix.decls, Declaration{ID: id, Place: place, Annotation: ann, Final: final, ClassVar: classVar, InitVar: initVar})
	return id
}

// SetReachingAtUse wires which bindings reach a use, all unconditionally
// reachable and definitely bound — enough for straight-line test fixtures.
func (ix *SimpleIndex) SetReachingAtUse(use UseID, bindings ...BindingID) {
	rs := make([]ReachingBinding, len(bindings))
	for i, b := range bindings {
		rs[i] = ReachingBinding{Binding: b, Reachable: func() bool { return true }}
	}
	ix.useBindings[use] = rs
}

// SetPossiblyUnboundAtUse is like SetReachingAtUse but flags the binding as
// possibly (not definitely) reaching, for PossiblyUnresolvedReference tests.
func (ix *SimpleIndex) SetPossiblyUnboundAtUse(use UseID, bindings ...BindingID) {
	rs := make([]ReachingBinding, len(bindings))
	for i, b := range bindings {
		rs[i] = ReachingBinding{Binding: b, Reachable: func() bool { return true }, PossiblyUnbound: true}
	}
	ix.useBindings[use] = rs
}

func (ix *SimpleIndex) SetDeclarationsAtBinding(b BindingID, decls ...DeclarationID) {
	ix.bindingDecl[b] = decls
}

// SetNarrowingAtUse records the narrowing constraints entering a single use
// site (the innermost, closest-to-the-reference layer of spec.md §4.5's
// composition order).
func (ix *SimpleIndex) SetNarrowingAtUse(use UseID, constraints ...NarrowingConstraint) {
	ix.narrowUse[use] = constraints
}

// SetNarrowingEnteringScope records the narrowing constraints that hold on
// entry to a scope (the outer layer narrowed by SetNarrowingAtUse's inner
// one).
func (ix *SimpleIndex) SetNarrowingEnteringScope(scope ScopeID, constraints ...NarrowingConstraint) {
	ix.narrowScope[scope] = constraints
}

func (ix *SimpleIndex) SetEndOfScope(scope ScopeID, place PlaceID, bindings ...BindingID) {
	rs := make([]ReachingBinding, len(bindings))
	for i, b := range bindings {
		rs[i] = ReachingBinding{Binding: b, Reachable: func() bool { return true }}
	}
	ix.endOfScope[scopePlaceKey{scope, place}] = rs
}

// SetBindingsAtScopeDefinition records the snapshot of a place's bindings
// in scope as seen at the point inner's definition executed — what an
// eager inner scope resolves against instead of the end-of-scope state.
func (ix *SimpleIndex) SetBindingsAtScopeDefinition(inner, scope ScopeID, place PlaceID, bindings ...BindingID) {
	rs := make([]ReachingBinding, len(bindings))
	for i, b := range bindings {
		rs[i] = ReachingBinding{Binding: b, Reachable: func() bool { return true }}
	}
	ix.defSnapshot[scopeDefKey{inner, scope, place}] = rs
}

// --- PlaceTable ---

func (ix *SimpleIndex) Lookup(scope ScopeID, kind PlaceKind, name string, base PlaceID) (PlaceID, bool) {
	id, ok := ix.placeByKey[placeKey{scope, kind, name, base}]
	return id, ok
}

func (ix *SimpleIndex) Place(id PlaceID) Place { return ix.places[id] }

// --- UseDefMap ---

func (ix *SimpleIndex) BindingsAtUse(use UseID) []ReachingBinding { return ix.useBindings[use] }

func (ix *SimpleIndex) BindingsAtDefinition(b BindingID) []ReachingBinding { return ix.bindingDefs[b] }

func (ix *SimpleIndex) DeclarationsAtBinding(b BindingID) []DeclarationID { return ix.bindingDecl[b] }

func (ix *SimpleIndex) EndOfScopeBindings(scope ScopeID, place PlaceID) []ReachingBinding {
	return ix.endOfScope[scopePlaceKey{scope, place}]
}

func (ix *SimpleIndex) BindingsAtScopeDefinition(inner, scope ScopeID, place PlaceID) []ReachingBinding {
	if rs, ok := ix.defSnapshot[scopeDefKey{inner, scope, place}]; ok {
		return rs
	}
	// no recorded snapshot: this flow-insensitive index's end-of-scope
	// view doubles as the definition-site state
	return ix.endOfScope[scopePlaceKey{scope, place}]
}

func (ix *SimpleIndex) Declaration(id DeclarationID) Declaration { return ix.decls[id] }

func (ix *SimpleIndex) BindingNode(id BindingID) Binding { return ix.bindings[id] }

// --- NarrowingTable ---

func (ix *SimpleIndex) ConstraintsAtUse(use UseID) []NarrowingConstraint { return ix.narrowUse[use] }

func (ix *SimpleIndex) ConstraintsEnteringScope(scope ScopeID) []NarrowingConstraint {
	return ix.narrowScope[scope]
}

// --- Scopes ---

func (ix *SimpleIndex) Kind(scope ScopeID) ScopeKind { return ix.scopes[scope].kind }

func (ix *SimpleIndex) Parent(scope ScopeID) (ScopeID, bool) {
	r := ix.scopes[scope]
	return r.parent, r.hasParent
}

func (ix *SimpleIndex) IsEager(scope ScopeID) bool { return ix.scopes[scope].eager }
