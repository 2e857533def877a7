package infer

import (
	"github.com/prismafold/pytc/internal/ast"
	"github.com/prismafold/pytc/internal/diagnostics"
	"github.com/prismafold/pytc/internal/typeir"
)

// inferAttribute resolves `value.attr` (spec.md §4.6 "attribute access"):
// class-body members first (bound through the descriptor protocol per the
// receiver's shape), then synthesized dataclass-style fields, walking the
// MRO for both. A miss on a user-defined class reports
// unresolved-attribute; a miss on an unmodeled builtin widens to Unknown,
// since the builtins registry carries shapes, not full typeshed method
// tables.
func (c *Checker) inferAttribute(v *ast.Attribute) typeir.Type {
	base := c.InferExpr(v.Value, NoContext)
	if typeir.IsDynamic(base) {
		return typeir.Unknown
	}
	if u, ok := base.(*typeir.UnionType); ok {
		parts := make([]typeir.Type, len(u.Elements))
		for i, m := range u.Elements {
			parts[i] = c.attributeOn(m, v)
		}
		return typeir.NewUnion(parts...)
	}
	return c.attributeOn(base, v)
}

func (c *Checker) attributeOn(base typeir.Type, v *ast.Attribute) typeir.Type {
	if typeir.IsDynamic(base) {
		return typeir.Unknown
	}
	if td, ok := base.(*typeir.TypedDictType); ok {
		if m, ok := typedDictMethod(td, v.Attr); ok {
			return m
		}
	}
	if mod, ok := base.(*typeir.ModuleLiteral); ok {
		_ = mod // module member tables live in the resolver, out of scope
		return typeir.Unknown
	}

	class, spec := classAndSpecOf(base)
	if class == nil {
		return typeir.Unknown
	}

	isInstance := receiverIsInstance(base)
	if member, _, ok := typeir.LookupClassMember(class, v.Attr); ok {
		if isInstance {
			return bindInstanceMember(member, base)
		}
		return bindClassMember(member, class)
	}
	if f, ok := lookupField(class, v.Attr); ok {
		return substituteField(f, spec)
	}
	if class.DefiningFile != "<builtins>" && class.DerivedMRO != nil {
		c.reportf(diagnostics.KindUnresolvedAttribute, spanOf(v), "object of type "+class.Name+" has no attribute "+v.Attr)
	}
	return typeir.Unknown
}

// receiverIsInstance distinguishes an instance receiver (binds methods)
// from a class-object receiver (doesn't).
func receiverIsInstance(t typeir.Type) bool {
	switch t.(type) {
	case *typeir.NominalInstance, *typeir.ProtocolInstance, *typeir.GenericAlias, *typeir.TypedDictType, *typeir.NewTypeInstance:
		return true
	default:
		return false
	}
}

// typedDictMethod surfaces the handful of dict methods whose TypedDict
// behavior the checker models bespokely (spec.md §4.3, §8 scenario 6:
// `p.pop("x")` on a required key is an error).
func typedDictMethod(td *typeir.TypedDictType, name string) (typeir.Type, bool) {
	switch name {
	case "pop":
		return &typeir.KnownBoundMethod{Kind: typeir.KnownMethodTypedDictPop, Self: td}, true
	case "get":
		return &typeir.KnownBoundMethod{Kind: typeir.KnownMethodTypedDictGet, Self: td}, true
	case "setdefault":
		return &typeir.KnownBoundMethod{Kind: typeir.KnownMethodTypedDictSetdefault, Self: td}, true
	default:
		return nil, false
	}
}

func classAndSpecOf(t typeir.Type) (*typeir.ClassLiteral, *typeir.Specialization) {
	switch v := t.(type) {
	case *typeir.NominalInstance:
		return v.Class, v.Specialization
	case *typeir.ProtocolInstance:
		return v.Class, v.Specialization
	case *typeir.ClassLiteralType:
		return v.Class, nil
	case *typeir.GenericAlias:
		return v.Class, v.Specialization
	case *typeir.TypedDictType:
		return v.Class, nil
	default:
		return nil, nil
	}
}

func lookupField(class *typeir.ClassLiteral, name string) (typeir.Field, bool) {
	for _, f := range class.DerivedFields {
		if f.Name == name {
			return f, true
		}
	}
	for _, anc := range class.DerivedMRO {
		for _, f := range anc.DerivedFields {
			if f.Name == name {
				return f, true
			}
		}
	}
	return typeir.Field{}, false
}

func substituteField(f typeir.Field, spec *typeir.Specialization) typeir.Type {
	if f.Declared == nil {
		return typeir.Unknown
	}
	if spec == nil {
		return f.Declared
	}
	if tv, ok := f.Declared.(*typeir.TypeVarType); ok {
		if val, ok := spec.Get(tv.Name); ok {
			return val
		}
	}
	return f.Declared
}

// assignAttribute checks `obj.attr = value` (spec.md §4.6 "attribute and
// subscript assignment"): a data descriptor's setter wins, a read-only
// property reports, a plain field enforces declared-type assignability,
// and an unknown attribute on a user class reports unresolved-attribute.
func (c *Checker) assignAttribute(v *ast.Attribute, val typeir.Type) {
	base := c.InferExpr(v.Value, NoContext)
	if typeir.IsDynamic(base) {
		return
	}
	class, spec := classAndSpecOf(base)
	if class == nil {
		return
	}
	isInstance := receiverIsInstance(base)

	if member, _, ok := typeir.LookupClassMember(class, v.Attr); ok {
		if prop, isProp := member.(*typeir.PropertyInstance); isProp && isInstance {
			if prop.Setter == nil {
				c.reportf(diagnostics.KindReadOnlyProperty, spanOf(v), "property "+v.Attr+" of "+class.Name+" has no setter")
				return
			}
			if len(prop.Setter.Params) > 0 {
				if want := prop.Setter.Params[len(prop.Setter.Params)-1].Annotated; want != nil && !typeir.IsAssignable(val, want) {
					c.reportf(diagnostics.KindInvalidAssignment, spanOf(v), val.String()+" is not assignable to property "+v.Attr)
				}
			}
			return
		}
		return // rebinding a method or class attr; the index records the new binding
	}

	if f, ok := lookupField(class, v.Attr); ok {
		if f.ClassVar && isInstance {
			c.reportf(diagnostics.KindInvalidAssignment, spanOf(v), "cannot assign to ClassVar "+v.Attr+" from an instance")
			return
		}
		if f.Final {
			c.reportf(diagnostics.KindInvalidAssignment, spanOf(v), "cannot reassign Final attribute "+v.Attr)
			return
		}
		declared := substituteField(f, spec)
		if !typeir.IsAssignable(val, declared) {
			c.reportf(diagnostics.KindInvalidAssignment, spanOf(v), val.String()+" is not assignable to attribute "+v.Attr+" of type "+declared.String())
		}
		return
	}

	if class.DefiningFile != "<builtins>" && class.DerivedMRO != nil {
		c.reportf(diagnostics.KindUnresolvedAttribute, spanOf(v), "object of type "+class.Name+" has no attribute "+v.Attr)
	}
}

// assignSubscript checks `obj[key] = value`: TypedDicts get the bespoke
// string-literal key validator (spec.md §4.3), the safe mutable builtin
// containers enforce element-type assignability, user classes go through
// `__setitem__`.
func (c *Checker) assignSubscript(v *ast.Subscript, val typeir.Type) {
	base := c.InferExpr(v.Value, NoContext)
	key := c.InferExpr(v.Index, NoContext)
	if typeir.IsDynamic(base) {
		return
	}

	if td, ok := base.(*typeir.TypedDictType); ok {
		c.assignTypedDictKey(td, v, key, val)
		return
	}

	if ga, ok := base.(*typeir.GenericAlias); ok {
		switch ga.Class.KnownClass {
		case typeir.KnownList:
			if len(ga.Specialization.Args) == 1 && ga.Specialization.Args[0] != nil {
				if !typeir.IsAssignable(val, ga.Specialization.Args[0]) {
					c.reportf(diagnostics.KindInvalidAssignment, spanOf(v), val.String()+" is not assignable to list element type "+ga.Specialization.Args[0].String())
				}
			}
			return
		case typeir.KnownDict:
			if len(ga.Specialization.Args) == 2 {
				if kt := ga.Specialization.Args[0]; kt != nil && !typeir.IsAssignable(key, kt) {
					c.reportf(diagnostics.KindInvalidAssignment, spanOf(v), key.String()+" is not assignable to dict key type "+kt.String())
				}
				if vt := ga.Specialization.Args[1]; vt != nil && !typeir.IsAssignable(val, vt) {
					c.reportf(diagnostics.KindInvalidAssignment, spanOf(v), val.String()+" is not assignable to dict value type "+vt.String())
				}
			}
			return
		case typeir.KnownTuple, typeir.KnownFrozenSet:
			c.reportf(diagnostics.KindInvalidAssignment, spanOf(v), ga.Class.Name+" does not support item assignment")
			return
		}
	}

	class, _ := classAndSpecOf(base)
	if class == nil || class.DefiningFile == "<builtins>" {
		return
	}
	if _, _, ok := typeir.LookupClassMember(class, "__setitem__"); !ok {
		c.reportf(diagnostics.KindNotSubscriptable, spanOf(v), class.Name+" does not support item assignment")
	}
}

func (c *Checker) assignTypedDictKey(td *typeir.TypedDictType, v *ast.Subscript, key, val typeir.Type) {
	lit, ok := key.(*typeir.StringLiteral)
	if !ok {
		c.reportf(diagnostics.KindInvalidKey, spanOf(v), "TypedDict key must be a string literal")
		return
	}
	f, ok := lookupField(td.Class, lit.Value)
	if !ok {
		c.reportf(diagnostics.KindInvalidKey, spanOf(v), "TypedDict "+td.Class.Name+" has no key "+lit.Value)
		return
	}
	if f.ReadOnly {
		c.reportf(diagnostics.KindInvalidKey, spanOf(v), "TypedDict key "+lit.Value+" is read-only")
		return
	}
	if f.Declared != nil && !typeir.IsAssignable(val, f.Declared) {
		c.reportf(diagnostics.KindInvalidAssignment, spanOf(v), val.String()+" is not assignable to TypedDict key "+lit.Value+" of type "+f.Declared.String())
	}
}

// inferSubscript handles `value[index]`: GenericAlias subscripting (which
// only occurs in type-expression/annotation mode, handled by annotation
// inference, not here), tuple/list/dict element access, slices, and
// TypedDict's bespoke string-literal-keyed validation (spec.md §4.3
// "TypedDict construction/subscript diagnostics").
func (c *Checker) inferSubscript(v *ast.Subscript) typeir.Type {
	base := c.InferExpr(v.Value, NoContext)
	if sl, ok := v.Index.(*ast.Slice); ok {
		return c.inferSlice(base, sl, v)
	}
	index := c.InferExpr(v.Index, NoContext)

	if typeir.IsDynamic(base) {
		return typeir.Unknown
	}
	if td, ok := base.(*typeir.TypedDictType); ok {
		return c.inferTypedDictSubscript(td, v, index)
	}
	ga, ok := base.(*typeir.GenericAlias)
	if !ok {
		if typeir.Same(base, typeir.Never) {
			return typeir.Never
		}
		if class, _ := classAndSpecOf(base); class != nil && class.DefiningFile != "<builtins>" {
			if getitem, _, ok := typeir.LookupClassMember(class, "__getitem__"); ok {
				if fn, ok := getitem.(*typeir.FunctionLiteral); ok && len(fn.Overloads) > 0 && fn.Overloads[0].Return != nil {
					return fn.Overloads[0].Return
				}
				return typeir.Unknown
			}
			c.reportf(diagnostics.KindNotSubscriptable, spanOf(v), (&typeir.NotSubscriptable{Operand: base}).Error())
		}
		return typeir.Unknown
	}
	switch ga.Class.KnownClass {
	case typeir.KnownList, typeir.KnownSet, typeir.KnownFrozenSet:
		if len(ga.Specialization.Args) == 1 {
			return ga.Specialization.Args[0]
		}
	case typeir.KnownDict:
		if len(ga.Specialization.Args) == 2 {
			return ga.Specialization.Args[1]
		}
	case typeir.KnownTuple:
		if lit, ok := index.(*typeir.IntLiteral); ok && len(ga.Specialization.Args) > 0 {
			n := len(ga.Specialization.Args)
			i := int(lit.Value)
			if i < 0 {
				i += n
			}
			if i >= 0 && i < n {
				return ga.Specialization.Args[i]
			}
			c.reportf(diagnostics.KindIndexOutOfBounds, spanOf(v), "tuple index out of range")
			return typeir.Unknown
		}
		return typeir.NewUnion(ga.Specialization.Args...)
	}
	c.reportf(diagnostics.KindNotSubscriptable, spanOf(v), (&typeir.NotSubscriptable{Operand: base}).Error())
	return typeir.Unknown
}

// inferSlice types `base[lo:hi:step]`: slicing a sequence yields the same
// container, with a zero-literal step reported (spec.md §7 "slice step
// size zero").
func (c *Checker) inferSlice(base typeir.Type, sl *ast.Slice, v *ast.Subscript) typeir.Type {
	for _, part := range []ast.Expr{sl.Lower, sl.Upper} {
		if part != nil {
			c.InferExpr(part, NoContext)
		}
	}
	if sl.Step != nil {
		step := c.InferExpr(sl.Step, NoContext)
		if lit, ok := step.(*typeir.IntLiteral); ok && lit.Value == 0 {
			c.reportf(diagnostics.KindSliceStepZero, spanOf(v), "slice step cannot be zero")
		}
	}
	switch b := base.(type) {
	case *typeir.StringLiteral:
		return strInstance()
	case *typeir.GenericAlias:
		return b
	case *typeir.NominalInstance:
		if b.Class.KnownClass == typeir.KnownStr || b.Class.KnownClass == typeir.KnownBytes {
			return b
		}
	}
	return typeir.Unknown
}

// inferTypedDictSubscript validates that a TypedDict subscript's key is a
// string literal naming a declared field, the one bespoke rule TypedDict
// needs beyond ordinary dataclass field lookup (spec.md §4.3).
func (c *Checker) inferTypedDictSubscript(td *typeir.TypedDictType, v *ast.Subscript, index typeir.Type) typeir.Type {
	lit, ok := index.(*typeir.StringLiteral)
	if !ok {
		c.reportf(diagnostics.KindInvalidKey, spanOf(v), "TypedDict key must be a string literal")
		return typeir.Unknown
	}
	if f, ok := lookupField(td.Class, lit.Value); ok {
		return substituteField(f, nil)
	}
	c.reportf(diagnostics.KindInvalidKey, spanOf(v), "TypedDict "+td.Class.Name+" has no key "+lit.Value)
	return typeir.Unknown
}
