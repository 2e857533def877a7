// Package classmodel computes the derived shape of a class: its resolved
// bases, C3-linearized MRO, metaclass, dataclass-like field map and
// protocol membership (spec.md §4.2). It never defines its own class type —
// it computes into the `Derived*` fields `internal/typeir.ClassLiteral`
// exports for exactly this purpose, keeping the dependency graph acyclic.
// Grounded on the teacher's `internal/types/instances.go` coherence-checked
// registry (the same "compute once, cache the derived structure, surface a
// structured conflict error instead of panicking" shape, generalized from
// type-class instance resolution to class linearization) and on the DFS
// cycle-guard idiom from the teacher's now-removed module-linking pass.
package classmodel

import (
	"fmt"

	"github.com/prismafold/pytc/internal/typeir"
)

// LinearizeMRO computes c's method resolution order via C3 linearization
// (spec.md §4.2), writing it to c.DerivedMRO and c.DerivedBases. A base
// whose DerivedMRO is still nil is first linearized from its own
// DerivedBases; the re-entrancy guard below reports an InheritanceCycle
// when that recursion comes back to a class still being computed.
//
// object is guaranteed last unless c IS object.
func LinearizeMRO(c *typeir.ClassLiteral, bases []*typeir.ClassLiteral, object *typeir.ClassLiteral) error {
	if c.Computing() {
		return &InheritanceCycle{Class: c}
	}
	c.SetComputing(true)
	defer c.SetComputing(false)

	if err := checkDuplicateBases(c, bases); err != nil {
		return err
	}

	c.DerivedBases = bases

	if len(bases) == 0 {
		if c == object {
			c.DerivedMRO = []*typeir.ClassLiteral{c}
			return nil
		}
		c.DerivedMRO = []*typeir.ClassLiteral{c, object}
		return nil
	}

	sequences := make([][]*typeir.ClassLiteral, 0, len(bases)+1)
	for _, b := range bases {
		if b.DerivedMRO == nil {
			if err := LinearizeMRO(b, b.DerivedBases, object); err != nil {
				return err
			}
		}
		sequences = append(sequences, append([]*typeir.ClassLiteral(nil), b.DerivedMRO...))
	}
	sequences = append(sequences, append([]*typeir.ClassLiteral(nil), bases...))

	merged, err := merge(c, sequences)
	if err != nil {
		return err
	}
	c.DerivedMRO = append([]*typeir.ClassLiteral{c}, merged...)
	return nil
}

// merge implements the C3 merge step: repeatedly take the head of the
// first sequence if it appears nowhere else in any sequence's tail.
func merge(c *typeir.ClassLiteral, sequences [][]*typeir.ClassLiteral) ([]*typeir.ClassLiteral, error) {
	var result []*typeir.ClassLiteral
	for {
		sequences = dropEmpty(sequences)
		if len(sequences) == 0 {
			return result, nil
		}
		var candidate *typeir.ClassLiteral
		for _, seq := range sequences {
			head := seq[0]
			if !appearsInAnyTail(head, sequences) {
				candidate = head
				break
			}
		}
		if candidate == nil {
			return nil, &UnresolvableMro{Class: c}
		}
		result = append(result, candidate)
		for i, seq := range sequences {
			sequences[i] = removeHead(seq, candidate)
		}
	}
}

func dropEmpty(sequences [][]*typeir.ClassLiteral) [][]*typeir.ClassLiteral {
	out := sequences[:0]
	for _, s := range sequences {
		if len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func appearsInAnyTail(candidate *typeir.ClassLiteral, sequences [][]*typeir.ClassLiteral) bool {
	for _, seq := range sequences {
		for _, c := range seq[1:] {
			if c == candidate {
				return true
			}
		}
	}
	return false
}

func removeHead(seq []*typeir.ClassLiteral, candidate *typeir.ClassLiteral) []*typeir.ClassLiteral {
	if len(seq) > 0 && seq[0] == candidate {
		return seq[1:]
	}
	return seq
}

func checkDuplicateBases(c *typeir.ClassLiteral, bases []*typeir.ClassLiteral) error {
	seen := make(map[*typeir.ClassLiteral]bool, len(bases))
	for _, b := range bases {
		if seen[b] {
			return &DuplicateBases{Class: c, Base: b}
		}
		seen[b] = true
	}
	return nil
}

// --- structured errors (spec.md §7 "Class & inheritance") ---

type InheritanceCycle struct{ Class *typeir.ClassLiteral }

func (e *InheritanceCycle) Error() string {
	return fmt.Sprintf("class %q participates in an inheritance cycle", e.Class.Name)
}

type DuplicateBases struct {
	Class *typeir.ClassLiteral
	Base  *typeir.ClassLiteral
}

func (e *DuplicateBases) Error() string {
	return fmt.Sprintf("duplicate base class %q in bases of %q", e.Base.Name, e.Class.Name)
}

type UnresolvableMro struct{ Class *typeir.ClassLiteral }

func (e *UnresolvableMro) Error() string {
	return fmt.Sprintf("cannot create a consistent method resolution order for %q", e.Class.Name)
}

// InvalidBases is raised when a base expression does not resolve to a
// class, typevar-tuple unpack, or recognized special form (spec.md §4.2).
type InvalidBases struct {
	Class   *typeir.ClassLiteral
	BaseIdx int
	Reason  string
}

func (e *InvalidBases) Error() string {
	return fmt.Sprintf("invalid base class #%d of %q: %s", e.BaseIdx, e.Class.Name, e.Reason)
}

// Pep695ClassWithGenericInheritance fires when a PEP-695 `class C[T]`
// also subclasses a specialized `Generic[...]` — redundant and rejected by
// the runtime itself.
type Pep695ClassWithGenericInheritance struct{ Class *typeir.ClassLiteral }

func (e *Pep695ClassWithGenericInheritance) Error() string {
	return fmt.Sprintf("class %q uses PEP 695 type parameters and also inherits Generic[...]", e.Class.Name)
}
