package classmodel

import (
	"fmt"

	"github.com/prismafold/pytc/internal/typeir"
)

// MarkProtocol records c as a protocol class (a `Protocol` marker appeared
// among its base expressions) and enforces the protocol inheritance rule:
// a protocol may inherit only from other protocol classes or from object
// (spec.md §4.3 "Protocol membership"). Call after base resolution, before
// MRO linearization consumers rely on DerivedIsProtocol.
func MarkProtocol(c *typeir.ClassLiteral) error {
	c.DerivedIsProtocol = true
	for _, b := range c.DerivedBases {
		if !b.DerivedIsProtocol && b.KnownClass != typeir.KnownObject {
			return &NonProtocolBase{Class: c, Base: b}
		}
	}
	return nil
}

type NonProtocolBase struct {
	Class *typeir.ClassLiteral
	Base  *typeir.ClassLiteral
}

func (e *NonProtocolBase) Error() string {
	return fmt.Sprintf("protocol class %q may only inherit from other protocols or object, not %q", e.Class.Name, e.Base.Name)
}

// ProtocolMembers returns the set of attribute names a protocol class
// requires for structural membership: every field or member declared on
// the protocol itself or on a protocol ancestor (spec.md §4.3).
// Non-protocol ancestors never contribute, since a Protocol subclassing a
// concrete class is only a protocol for its own additions.
func ProtocolMembers(proto *typeir.ClassLiteral) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(c *typeir.ClassLiteral) {
		if !c.DerivedIsProtocol {
			return
		}
		for _, f := range c.DerivedFields {
			if !seen[f.Name] {
				seen[f.Name] = true
				names = append(names, f.Name)
			}
		}
		for _, m := range c.DerivedMembers {
			if !seen[m.Name] {
				seen[m.Name] = true
				names = append(names, m.Name)
			}
		}
	}
	add(proto)
	for _, c := range proto.DerivedMRO {
		add(c)
	}
	return names
}
