// Package query is the interning and memoization substrate (spec.md
// §4.2/§4.8): a Pool that canonicalizes compound Type constructors so
// identity implies equality, and a Cache of the four demand-driven queries
// (scope/definition/deferred-definition/expression inference) with
// re-entrant cycle handling. It is grounded on the teacher's
// `internal/sid` stable-id hashing (itself generalized here from
// surface-AST identity to query-key identity) and on the memoization shape
// of the teacher's typechecker_core.go constraint-solving passes, which
// cache solved types per AST node rather than recomputing them.
package query

import (
	"sync"

	"github.com/prismafold/pytc/internal/typeir"
)

// Pool canonicalizes compound Type values by their interning key so two
// structurally identical constructions (`list[int]` built twice from
// different call sites) passed through it return the same Go value.
// typeir.Same compares canonical keys and does not depend on the Pool, and
// typeir's constructors (NewUnion, NewIntersection) build values without it.
type Pool struct {
	mu    sync.Mutex
	byKey map[string]typeir.Type
}

// NewPool creates an empty interning pool.
func NewPool() *Pool {
	return &Pool{byKey: make(map[string]typeir.Type)}
}

// keyer is satisfied by every typeir.Type through String(); the canonical
// key() is unexported (different package), so query can't call it, and
// construction sites pass a precomputed string to Intern instead. This
// mirrors how the teacher's type tables intern by a caller-supplied
// canonical string rather than reflecting into the value.
type keyer interface{ String() string }

// Intern returns the canonical instance for key, constructing it via build
// only on first use. Callers pass a cheap, unique key (e.g.
// "GenericAlias:list:int") and a constructor thunk; Intern does not
// validate that two different keys never alias the same value — that's a
// construction-site invariant, not this type's job.
func (p *Pool) Intern(key string, build func() typeir.Type) typeir.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.byKey[key]; ok {
		return t
	}
	t := build()
	p.byKey[key] = t
	return t
}

// Union interns the normalized union of elems.
func (p *Pool) Union(elems ...typeir.Type) typeir.Type {
	u := typeir.NewUnion(elems...)
	return p.Intern(u.String()+"#u", func() typeir.Type { return u })
}

// Intersection interns the normalized intersection.
func (p *Pool) Intersection(positive, negative []typeir.Type) typeir.Type {
	i := typeir.NewIntersection(positive, negative)
	return p.Intern(i.String()+"#i", func() typeir.Type { return i })
}

// Size reports how many distinct compound types have been interned, for
// debug dumps (the `pytc check --dump-cache` flag).
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byKey)
}
