// Package places implements the load algorithm (spec.md §4.5 "Place
// Resolution & narrowing"): resolving a name use to its reaching bindings
// by walking local use-def data, then global/nonlocal redirects, then
// enclosing scopes (respecting eager vs. lazy evaluation), then module
// globals, then implicit module attributes, then builtins — producing an
// UnresolvedReference/PossiblyUnresolvedReference diagnostic when the walk
// comes up empty or partial. Grounded on the teacher's internal/types/env.go
// TypeEnv scope-chain walk (local -> parent -> ... -> nil), generalized
// from a single lexical chain to Python's eager/lazy scope-kind split and
// global/nonlocal redirection.
package places

import (
	"github.com/prismafold/pytc/internal/builtinscope"
	"github.com/prismafold/pytc/internal/cycle"
	"github.com/prismafold/pytc/internal/index"
	"github.com/prismafold/pytc/internal/typeir"
)

// TypeOfBinding resolves a single binding's node to a Type; supplied by
// the inference driver (internal/infer depends on places, not the other
// way around).
type TypeOfBinding func(index.BindingID) typeir.Type

// Resolution is the outcome of resolving one use: the union of types from
// every binding that can reach it, plus whether any reaching path leaves
// it possibly or definitely unbound.
type Resolution struct {
	Type             typeir.Type
	PossiblyUnbound  bool
	WhollyUnresolved bool
	// UnresolvedGlobal marks a `global`-declared name that is never bound
	// at module scope (spec.md §7 "unresolved global").
	UnresolvedGlobal bool
}

// Resolve runs the load algorithm for a use of name in scope — the six
// steps of spec.md §4.5 in order: the local use-def contribution, the
// `global` redirect, the `nonlocal` ancestor walk, the enclosing-scope
// walk (eager scopes see the snapshot at their definition site, lazy ones
// the end-of-scope state), the module's explicit then implicit globals,
// and finally builtins. useID is index.UseID(0) (no local use-def entry)
// when resolving a synthetic lookup, e.g. while evaluating a deferred
// annotation after the module has finished.
func Resolve(ix index.UseDefMap, places index.PlaceTable, scopes index.Scopes, use index.UseID, scope index.ScopeID, name string, typeOf TypeOfBinding) Resolution {
	reaching := ix.BindingsAtUse(use)
	if len(reaching) > 0 {
		global, nonlocal := redirectFlags(ix, reaching)
		if global {
			return resolveGlobal(ix, places, scopes, scope, name, typeOf)
		}
		if nonlocal {
			if res, ok := resolveNonlocal(ix, places, scopes, scope, name, typeOf); ok {
				return res
			}
			// no declaring ancestor: the grammar layer raises the
			// SyntaxError; fall back to the local contribution
		}
		return fromReachingBindings(reaching, typeOf)
	}

	if res, ok := walkEnclosing(ix, places, scopes, scope, name, typeOf); ok {
		return res
	}

	// module explicit globals (when the use wasn't already at module scope)
	if root := rootScope(scopes, scope); root != scope {
		if placeID, ok := places.Lookup(root, index.PlaceSymbol, name, 0); ok {
			if rs := ix.EndOfScopeBindings(root, placeID); len(rs) > 0 {
				return fromReachingBindings(rs, typeOf)
			}
		}
	}
	if t, ok := implicitModuleGlobal(name); ok {
		return Resolution{Type: t}
	}
	if t, ok := builtinscope.Lookup(name); ok {
		return Resolution{Type: t}
	}
	return Resolution{Type: typeir.Unknown, WhollyUnresolved: true}
}

// redirectFlags reads the `global`/`nonlocal` markers off the reaching
// bindings (spec.md §4.5 steps 2-3: the redirect is a property of how the
// place is bound in this scope, recorded by the semantic index).
func redirectFlags(ix index.UseDefMap, reaching []index.ReachingBinding) (global, nonlocal bool) {
	for _, rb := range reaching {
		b := ix.BindingNode(rb.Binding)
		global = global || b.IsGlobal
		nonlocal = nonlocal || b.IsNonlocal
	}
	return global, nonlocal
}

// resolveGlobal is step 2: a `global x` binding resolves against module
// scope regardless of any local contribution; a name never bound there
// (and not a builtin) is an unresolved global.
func resolveGlobal(ix index.UseDefMap, places index.PlaceTable, scopes index.Scopes, scope index.ScopeID, name string, typeOf TypeOfBinding) Resolution {
	root := rootScope(scopes, scope)
	if placeID, ok := places.Lookup(root, index.PlaceSymbol, name, 0); ok {
		if rs := ix.EndOfScopeBindings(root, placeID); len(rs) > 0 {
			return fromReachingBindings(rs, typeOf)
		}
	}
	if t, ok := builtinscope.Lookup(name); ok {
		return Resolution{Type: t}
	}
	return Resolution{Type: typeir.Unknown, WhollyUnresolved: true, UnresolvedGlobal: true}
}

// resolveNonlocal is step 3: walk outward through function-like ancestor
// scopes until the first one declaring the place. Reports ok=false when no
// ancestor declares it — the caller falls back to the local contribution,
// since rejecting the statement itself is the grammar layer's job.
func resolveNonlocal(ix index.UseDefMap, places index.PlaceTable, scopes index.Scopes, scope index.ScopeID, name string, typeOf TypeOfBinding) (Resolution, bool) {
	guard := cycle.NewGuard[index.ScopeID]()
	cur := scope
	guard.Enter(cur)
	for {
		parent, ok := scopes.Parent(cur)
		if !ok || !functionLike(scopes.Kind(parent)) {
			return Resolution{}, false
		}
		if _, ok := guard.Enter(parent); !ok {
			return Resolution{}, false
		}
		cur = parent
		if placeID, ok := places.Lookup(cur, index.PlaceSymbol, name, 0); ok {
			if rs := ix.EndOfScopeBindings(cur, placeID); len(rs) > 0 {
				return fromReachingBindings(rs, typeOf), true
			}
		}
	}
}

// walkEnclosing is step 4: walk outward as long as the outer scope is
// function-like or is the class scope immediately enclosing an annotation
// scope. Class bodies are otherwise invisible to nested scopes, per
// Python's scoping rules. An eager inner scope (class or module body,
// evaluated at definition time) sees the snapshot at its definition site;
// a lazy one (a function, evaluated when called) sees the end-of-scope
// state. A cycle guard protects the walk against a malformed index whose
// parent chain loops (spec.md §4.8).
func walkEnclosing(ix index.UseDefMap, places index.PlaceTable, scopes index.Scopes, scope index.ScopeID, name string, typeOf TypeOfBinding) (Resolution, bool) {
	guard := cycle.NewGuard[index.ScopeID]()
	cur := scope
	guard.Enter(cur)
	for {
		parent, ok := scopes.Parent(cur)
		if !ok {
			return Resolution{}, false
		}
		if _, ok := guard.Enter(parent); !ok {
			return Resolution{}, false
		}
		kind := scopes.Kind(parent)
		if kind == index.ScopeModule {
			return Resolution{}, false // module globals are step 5's job
		}
		if kind == index.ScopeClass && scopes.Kind(cur) != index.ScopeAnnotation {
			// invisible class body: keep walking without consulting it
			cur = parent
			continue
		}
		if kind != index.ScopeClass && !functionLike(kind) {
			return Resolution{}, false
		}
		inner := cur
		cur = parent
		placeID, ok := places.Lookup(cur, index.PlaceSymbol, name, 0)
		if !ok {
			continue
		}
		var rs []index.ReachingBinding
		if scopes.IsEager(inner) {
			rs = ix.BindingsAtScopeDefinition(inner, cur, placeID)
		} else {
			rs = ix.EndOfScopeBindings(cur, placeID)
		}
		if len(rs) > 0 {
			return fromReachingBindings(rs, typeOf), true
		}
	}
}

func functionLike(kind index.ScopeKind) bool {
	switch kind {
	case index.ScopeFunction, index.ScopeLambda, index.ScopeComprehension:
		return true
	default:
		return false
	}
}

// rootScope walks to the outermost (module) scope, guarded like every
// other parent-chain traversal.
func rootScope(scopes index.Scopes, scope index.ScopeID) index.ScopeID {
	guard := cycle.NewGuard[index.ScopeID]()
	cur := scope
	guard.Enter(cur)
	for {
		parent, ok := scopes.Parent(cur)
		if !ok {
			return cur
		}
		if _, ok := guard.Enter(parent); !ok {
			return cur
		}
		cur = parent
	}
}

// implicitModuleGlobal covers the attributes every module object carries
// without declaring them (spec.md §4.5 step 5: "the implicit globals
// attached to the module's inferred ModuleType").
func implicitModuleGlobal(name string) (typeir.Type, bool) {
	str := &typeir.NominalInstance{Class: builtinscope.Classes[typeir.KnownStr]}
	none := &typeir.NominalInstance{Class: builtinscope.Classes[typeir.KnownNoneType]}
	switch name {
	case "__name__", "__file__":
		return str, true
	case "__doc__", "__package__":
		return typeir.NewUnion(str, none), true
	default:
		return nil, false
	}
}

func fromReachingBindings(reaching []index.ReachingBinding, typeOf TypeOfBinding) Resolution {
	var types []typeir.Type
	possiblyUnbound := false
	for _, rb := range reaching {
		if rb.Reachable != nil && !rb.Reachable() {
			continue
		}
		if rb.PossiblyUnbound {
			possiblyUnbound = true
		}
		types = append(types, typeOf(rb.Binding))
	}
	if len(types) == 0 {
		return Resolution{Type: typeir.Unknown, WhollyUnresolved: true}
	}
	return Resolution{Type: typeir.NewUnion(types...), PossiblyUnbound: possiblyUnbound}
}
