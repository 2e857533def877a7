package classmodel

import (
	"fmt"

	"github.com/prismafold/pytc/internal/typeir"
)

// SynthesizeFields computes a dataclass-like class's field list in
// class-body source order, merging inherited fields ahead of the class's
// own (spec.md §4.3 "Dataclass-like code generation"): a subclass field
// with the same name as a base field overrides its position, matching
// CPython's own @dataclass field-merging behavior.
//
// ownFields is the class's own declared fields, in source order. bases is
// c.DerivedBases (already-resolved ancestors, most-specific first, for
// fields that themselves came from a dataclass-like base).
func SynthesizeFields(c *typeir.ClassLiteral, ownFields []typeir.Field, bases []*typeir.ClassLiteral) error {
	index := make(map[string]int)
	var merged []typeir.Field

	appendOrReplace := func(f typeir.Field) {
		if i, ok := index[f.Name]; ok {
			merged[i] = f
			return
		}
		index[f.Name] = len(merged)
		merged = append(merged, f)
	}

	for i := len(bases) - 1; i >= 0; i-- {
		if bases[i].Dataclass == nil {
			continue
		}
		for _, f := range bases[i].DerivedFields {
			appendOrReplace(f)
		}
	}
	for _, f := range ownFields {
		appendOrReplace(f)
	}

	if c.Dataclass != nil && c.Dataclass.Kind == typeir.DataclassNamedTuple {
		for _, f := range merged {
			if len(f.Name) > 0 && f.Name[0] == '_' {
				return &InvalidNamedTupleField{Class: c, Field: f.Name}
			}
		}
		if err := checkNamedTupleOrdering(c, merged); err != nil {
			return err
		}
	}
	if err := checkKWOnlySentinel(c, merged); err != nil {
		return err
	}

	c.DerivedFields = merged
	return nil
}

// checkNamedTupleOrdering enforces that no required (no-default) field
// follows a field with a default, the same rule @dataclass enforces for
// `__init__` generation (spec.md §4.3).
func checkNamedTupleOrdering(c *typeir.ClassLiteral, fields []typeir.Field) error {
	seenDefault := false
	for _, f := range fields {
		if f.KeywordOnly {
			continue
		}
		if f.HasDefault {
			seenDefault = true
			continue
		}
		if seenDefault {
			return &NonDefaultFieldAfterDefault{Class: c, Field: f.Name}
		}
	}
	return nil
}

// checkKWOnlySentinel enforces that at most one bare `KW_ONLY` sentinel
// field marker appears (dataclasses.KW_ONLY is a once-per-class divider).
func checkKWOnlySentinel(c *typeir.ClassLiteral, fields []typeir.Field) error {
	count := 0
	for _, f := range fields {
		if f.Name == "" {
			count++
		}
	}
	if count > 1 {
		return &MultipleKWOnlySentinels{Class: c}
	}
	return nil
}

type NonDefaultFieldAfterDefault struct {
	Class *typeir.ClassLiteral
	Field string
}

func (e *NonDefaultFieldAfterDefault) Error() string {
	return fmt.Sprintf("non-default field %q follows a field with a default in %q", e.Field, e.Class.Name)
}

type InvalidNamedTupleField struct {
	Class *typeir.ClassLiteral
	Field string
}

func (e *InvalidNamedTupleField) Error() string {
	return fmt.Sprintf("NamedTuple field %q in %q cannot start with an underscore", e.Field, e.Class.Name)
}

type MultipleKWOnlySentinels struct{ Class *typeir.ClassLiteral }

func (e *MultipleKWOnlySentinels) Error() string {
	return fmt.Sprintf("class %q declares more than one KW_ONLY sentinel", e.Class.Name)
}
