package classmodel

import (
	"fmt"

	"github.com/prismafold/pytc/internal/typeir"
)

// CheckOverrides validates each of c's own method members against the
// nearest same-named method in its MRO (spec.md §4.3 "Override checking"):
// Liskov substitution (contravariant parameters, covariant return via
// typeir.SignatureAssignable), @final-method protection, and @override
// consistency (an @override member with nothing to override is itself an
// error). Call after member collection and MRO linearization.
func CheckOverrides(c *typeir.ClassLiteral) []error {
	var errs []error
	for _, m := range c.DerivedMembers {
		fn, ok := m.Value.(*typeir.FunctionLiteral)
		if !ok {
			continue
		}
		overridden, owner := nearestOverridden(c, m.Name)
		if overridden == nil {
			if fn.IsOverride {
				errs = append(errs, &OverrideWithoutBase{Class: c, Method: m.Name})
			}
			continue
		}
		if overridden.IsFinal {
			errs = append(errs, &OverrideOfFinal{Class: c, Method: m.Name, Base: owner})
			continue
		}
		if len(fn.Overloads) > 0 && len(overridden.Overloads) > 0 {
			if !typeir.SignatureAssignable(fn.Overloads[0], overridden.Overloads[0]) {
				errs = append(errs, &IncompatibleOverride{Class: c, Method: m.Name, Base: owner})
			}
		}
	}
	return errs
}

func nearestOverridden(c *typeir.ClassLiteral, name string) (*typeir.FunctionLiteral, *typeir.ClassLiteral) {
	for _, anc := range c.DerivedMRO {
		if anc == c {
			continue
		}
		if v, ok := anc.OwnMember(name); ok {
			if fn, ok := v.(*typeir.FunctionLiteral); ok {
				return fn, anc
			}
			return nil, nil
		}
	}
	return nil, nil
}

type IncompatibleOverride struct {
	Class  *typeir.ClassLiteral
	Method string
	Base   *typeir.ClassLiteral
}

func (e *IncompatibleOverride) Error() string {
	return fmt.Sprintf("%s.%s is incompatible with the signature it overrides in %q", e.Class.Name, e.Method, e.Base.Name)
}

type OverrideOfFinal struct {
	Class  *typeir.ClassLiteral
	Method string
	Base   *typeir.ClassLiteral
}

func (e *OverrideOfFinal) Error() string {
	return fmt.Sprintf("%s.%s overrides a method marked @final in %q", e.Class.Name, e.Method, e.Base.Name)
}

type OverrideWithoutBase struct {
	Class  *typeir.ClassLiteral
	Method string
}

func (e *OverrideWithoutBase) Error() string {
	return fmt.Sprintf("%s.%s is marked @override but overrides nothing", e.Class.Name, e.Method)
}
