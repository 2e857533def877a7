package places

import (
	"testing"

	"github.com/prismafold/pytc/internal/builtinscope"
	"github.com/prismafold/pytc/internal/index"
	"github.com/prismafold/pytc/internal/typeir"
	"github.com/stretchr/testify/require"
)

// These tests drive the load algorithm's redirect and enclosing-scope
// steps (spec.md §4.5 steps 2-4) against the in-memory SimpleIndex: the
// `global` redirect to module scope, the `nonlocal` ancestor walk, the
// eager-vs-lazy snapshot selection, and class-body invisibility.

func typeOfMap(m map[index.BindingID]typeir.Type) TypeOfBinding {
	return func(b index.BindingID) typeir.Type {
		if t, ok := m[b]; ok {
			return t
		}
		return typeir.Unknown
	}
}

func intInst() typeir.Type {
	return &typeir.NominalInstance{Class: builtinscope.Classes[typeir.KnownInt]}
}

func strInst() typeir.Type {
	return &typeir.NominalInstance{Class: builtinscope.Classes[typeir.KnownStr]}
}

func TestGlobalBindingRedirectsToModuleScope(t *testing.T) {
	ix := index.NewSimpleIndex()
	fn := ix.NewScope(index.ScopeFunction, index.ModuleScope, false)

	modPlace := ix.InternPlace(index.ModuleScope, index.PlaceSymbol, "x", 0)
	modBinding := ix.AddBinding(modPlace, nil)
	ix.SetEndOfScope(index.ModuleScope, modPlace, modBinding)

	localPlace := ix.InternPlace(fn, index.PlaceSymbol, "x", 0)
	localBinding := ix.AddBinding(localPlace, nil)
	ix.MarkBindingGlobal(localBinding)
	ix.SetReachingAtUse(1, localBinding)

	types := map[index.BindingID]typeir.Type{modBinding: intInst(), localBinding: strInst()}
	res := Resolve(ix, ix, ix, 1, fn, "x", typeOfMap(types))
	require.False(t, res.WhollyUnresolved)
	require.True(t, typeir.Same(res.Type, intInst()), "got %s, want the module binding's type", res.Type)
}

func TestGlobalWithoutModuleBindingIsUnresolvedGlobal(t *testing.T) {
	ix := index.NewSimpleIndex()
	fn := ix.NewScope(index.ScopeFunction, index.ModuleScope, false)

	localPlace := ix.InternPlace(fn, index.PlaceSymbol, "missing_everywhere", 0)
	localBinding := ix.AddBinding(localPlace, nil)
	ix.MarkBindingGlobal(localBinding)
	ix.SetReachingAtUse(2, localBinding)

	res := Resolve(ix, ix, ix, 2, fn, "missing_everywhere", typeOfMap(nil))
	require.True(t, res.UnresolvedGlobal)
	require.True(t, res.WhollyUnresolved)
}

func TestNonlocalWalksFunctionAncestors(t *testing.T) {
	ix := index.NewSimpleIndex()
	outer := ix.NewScope(index.ScopeFunction, index.ModuleScope, false)
	inner := ix.NewScope(index.ScopeFunction, outer, false)

	outerPlace := ix.InternPlace(outer, index.PlaceSymbol, "x", 0)
	outerBinding := ix.AddBinding(outerPlace, nil)
	ix.SetEndOfScope(outer, outerPlace, outerBinding)

	localPlace := ix.InternPlace(inner, index.PlaceSymbol, "x", 0)
	localBinding := ix.AddBinding(localPlace, nil)
	ix.MarkBindingNonlocal(localBinding)
	ix.SetReachingAtUse(3, localBinding)

	types := map[index.BindingID]typeir.Type{outerBinding: intInst(), localBinding: strInst()}
	res := Resolve(ix, ix, ix, 3, inner, "x", typeOfMap(types))
	require.True(t, typeir.Same(res.Type, intInst()), "got %s, want the enclosing function binding's type", res.Type)
}

func TestNonlocalWithoutDeclaringScopeFallsBackToLocal(t *testing.T) {
	ix := index.NewSimpleIndex()
	fn := ix.NewScope(index.ScopeFunction, index.ModuleScope, false)

	localPlace := ix.InternPlace(fn, index.PlaceSymbol, "x", 0)
	localBinding := ix.AddBinding(localPlace, nil)
	ix.MarkBindingNonlocal(localBinding)
	ix.SetReachingAtUse(4, localBinding)

	// the grammar layer rejects the statement; resolution still answers
	// from the local contribution rather than failing the lookup
	types := map[index.BindingID]typeir.Type{localBinding: strInst()}
	res := Resolve(ix, ix, ix, 4, fn, "x", typeOfMap(types))
	require.False(t, res.WhollyUnresolved)
	require.True(t, typeir.Same(res.Type, strInst()))
}

func TestEagerInnerScopeSeesDefinitionSnapshot(t *testing.T) {
	ix := index.NewSimpleIndex()
	fn := ix.NewScope(index.ScopeFunction, index.ModuleScope, false)
	classBody := ix.NewScope(index.ScopeClass, fn, true) // a class defined inside a function

	place := ix.InternPlace(fn, index.PlaceSymbol, "x", 0)
	atDef := ix.AddBinding(place, nil)
	atEnd := ix.AddBinding(place, nil)
	ix.SetBindingsAtScopeDefinition(classBody, fn, place, atDef)
	ix.SetEndOfScope(fn, place, atEnd)

	types := map[index.BindingID]typeir.Type{atDef: intInst(), atEnd: strInst()}

	// the eager class body resolves x as it stood when the class statement
	// executed, not as the function later rebinds it
	res := Resolve(ix, ix, ix, 0, classBody, "x", typeOfMap(types))
	require.True(t, typeir.Same(res.Type, intInst()), "got %s, want the definition-site snapshot", res.Type)

	// a lazy nested function sees the end-of-scope state instead
	nested := ix.NewScope(index.ScopeFunction, fn, false)
	res = Resolve(ix, ix, ix, 0, nested, "x", typeOfMap(types))
	require.True(t, typeir.Same(res.Type, strInst()), "got %s, want the end-of-scope state", res.Type)
}

func TestClassBodyInvisibleToNestedFunction(t *testing.T) {
	ix := index.NewSimpleIndex()
	classBody := ix.NewScope(index.ScopeClass, index.ModuleScope, true)
	method := ix.NewScope(index.ScopeFunction, classBody, false)

	place := ix.InternPlace(classBody, index.PlaceSymbol, "attr", 0)
	binding := ix.AddBinding(place, nil)
	ix.SetEndOfScope(classBody, place, binding)

	types := map[index.BindingID]typeir.Type{binding: intInst()}
	res := Resolve(ix, ix, ix, 0, method, "attr", typeOfMap(types))
	require.True(t, res.WhollyUnresolved, "class-body names are not visible to nested function scopes, got %s", res.Type)
}

func TestImplicitModuleGlobals(t *testing.T) {
	ix := index.NewSimpleIndex()
	res := Resolve(ix, ix, ix, 0, index.ModuleScope, "__name__", typeOfMap(nil))
	require.False(t, res.WhollyUnresolved)
	require.True(t, typeir.Same(res.Type, strInst()))
}
