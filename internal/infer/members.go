package infer

import (
	"github.com/prismafold/pytc/internal/ast"
	"github.com/prismafold/pytc/internal/builtinscope"
	"github.com/prismafold/pytc/internal/typeir"
)

// This file is the driver's descriptor-protocol surface (spec.md §4.4
// "descriptor-protocol aware method binding", §4.6 attribute access):
// member lookup through the MRO, `__get__`-style binding of what the
// lookup found against the receiver, and the iteration protocol that
// for-statement targets consume (comprehension targets are not typed
// through it).

// classMember is the MemberLookup internal/signature's constructor
// resolution wants: a plain MRO-walking member probe with no binding.
func classMember(class *typeir.ClassLiteral, name string) (typeir.Type, bool) {
	v, _, ok := typeir.LookupClassMember(class, name)
	return v, ok
}

// bindInstanceMember applies the descriptor protocol for an instance
// receiver: a plain function binds to a BoundMethod (unless @staticmethod),
// a property evaluates to its getter's return type, everything else is
// returned as stored.
func bindInstanceMember(member typeir.Type, self typeir.Type) typeir.Type {
	switch v := member.(type) {
	case *typeir.FunctionLiteral:
		if v.IsStatic {
			return v
		}
		return &typeir.BoundMethod{Function: v, Self: self}
	case *typeir.PropertyInstance:
		if v.Getter != nil && v.Getter.Return != nil {
			return v.Getter.Return
		}
		return typeir.Unknown
	default:
		return member
	}
}

// bindClassMember applies the descriptor protocol for a class-object
// receiver: classmethods bind to the class, plain functions and
// properties are returned unbound (accessing a property on the class
// yields the property object itself, matching the runtime).
func bindClassMember(member typeir.Type, class *typeir.ClassLiteral) typeir.Type {
	if fn, ok := member.(*typeir.FunctionLiteral); ok && fn.IsClassMethod {
		return &typeir.BoundMethod{Function: fn, Self: &typeir.ClassLiteralType{Class: class}}
	}
	return member
}

// iterationElement computes the element type produced by iterating t
// (spec.md §4.1 "iteration protocols"; §4.6 for-statement targets). The
// second result is false only when t is concrete and provably not
// iterable — dynamic types and unmodeled receivers stay iterable with
// Unknown elements, the gradual default.
func iterationElement(t typeir.Type) (typeir.Type, bool) {
	if typeir.IsDynamic(t) {
		return typeir.Unknown, true
	}
	members := typeir.UnionMembers(t)
	if len(members) > 1 {
		elems := make([]typeir.Type, 0, len(members))
		for _, m := range members {
			e, ok := iterationElement(m)
			if !ok {
				return typeir.Unknown, false
			}
			elems = append(elems, e)
		}
		return typeir.NewUnion(elems...), true
	}

	switch v := t.(type) {
	case *typeir.StringLiteral:
		return strInstance(), true
	case *typeir.BytesLiteral:
		return intInstance(), true
	case *typeir.GenericAlias:
		switch v.Class.KnownClass {
		case typeir.KnownList, typeir.KnownSet, typeir.KnownFrozenSet:
			if len(v.Specialization.Args) == 1 && v.Specialization.Args[0] != nil {
				return v.Specialization.Args[0], true
			}
			return typeir.Unknown, true
		case typeir.KnownDict:
			if len(v.Specialization.Args) == 2 && v.Specialization.Args[0] != nil {
				return v.Specialization.Args[0], true
			}
			return typeir.Unknown, true
		case typeir.KnownTuple:
			args := make([]typeir.Type, 0, len(v.Specialization.Args))
			for _, a := range v.Specialization.Args {
				if a != nil {
					args = append(args, a)
				}
			}
			if len(args) > 0 {
				return typeir.NewUnion(args...), true
			}
			return typeir.Unknown, true
		}
		return iterViaDunder(v.Class)
	case *typeir.NominalInstance:
		switch v.Class.KnownClass {
		case typeir.KnownStr:
			return strInstance(), true
		case typeir.KnownBytes:
			return intInstance(), true
		case typeir.KnownList, typeir.KnownSet, typeir.KnownFrozenSet, typeir.KnownDict, typeir.KnownTuple:
			return typeir.Unknown, true
		}
		return iterViaDunder(v.Class)
	case *typeir.TypedDictType:
		return strInstance(), true
	case *typeir.ProtocolInstance:
		return iterViaDunder(v.Class)
	}
	if typeir.Same(t, typeir.LiteralStringType) {
		return strInstance(), true
	}
	return typeir.Unknown, true
}

// iterViaDunder answers iterability for a user class from its member
// table: `__iter__` wins; `__getitem__` is the legacy sequence protocol.
func iterViaDunder(class *typeir.ClassLiteral) (typeir.Type, bool) {
	if _, _, ok := typeir.LookupClassMember(class, "__iter__"); ok {
		// the element type is what the iterator's __next__ yields; without
		// a modeled Iterator[...] generic the best sound answer is Unknown
		return typeir.Unknown, true
	}
	if getitem, _, ok := typeir.LookupClassMember(class, "__getitem__"); ok {
		if fn, ok := getitem.(*typeir.FunctionLiteral); ok && len(fn.Overloads) > 0 && fn.Overloads[0].Return != nil {
			return fn.Overloads[0].Return, true
		}
		return typeir.Unknown, true
	}
	if class.DefiningFile == "<builtins>" {
		// unmodeled builtin: assume iterable rather than inventing a
		// diagnostic for our own model's gap
		return typeir.Unknown, true
	}
	return typeir.Unknown, false
}

func strInstance() typeir.Type {
	return &typeir.NominalInstance{Class: builtinscope.Classes[typeir.KnownStr]}
}

func intInstance() typeir.Type {
	return &typeir.NominalInstance{Class: builtinscope.Classes[typeir.KnownInt]}
}

func boolInstance() typeir.Type {
	return &typeir.NominalInstance{Class: builtinscope.Classes[typeir.KnownBool]}
}

func floatInstance() typeir.Type {
	return &typeir.NominalInstance{Class: builtinscope.Classes[typeir.KnownFloat]}
}

func noneInstance() typeir.Type {
	return &typeir.NominalInstance{Class: builtinscope.Classes[typeir.KnownNoneType]}
}

// decoratorName extracts the trailing identifier of a decorator
// expression: `@overload`, `@functools.cache` (-> "cache"),
// `@dataclass(frozen=True)` (-> "dataclass").
func decoratorName(d ast.Decorator) string {
	return trailingName(d.Expr)
}

func trailingName(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.Name:
		return v.Id
	case *ast.Attribute:
		return v.Attr
	case *ast.Call:
		return trailingName(v.Func)
	default:
		return ""
	}
}

// isPropertySetterDecorator matches `@name.setter` on a def.
func isPropertySetterDecorator(d ast.Decorator) (string, bool) {
	attr, ok := d.Expr.(*ast.Attribute)
	if !ok || attr.Attr != "setter" {
		return "", false
	}
	base, ok := attr.Value.(*ast.Name)
	if !ok {
		return "", false
	}
	return base.Id, true
}

// classIsEnum reports whether class has Enum in its MRO.
func classIsEnum(class *typeir.ClassLiteral) bool {
	enum := builtinscope.Classes[typeir.KnownEnum]
	if class == enum {
		return true
	}
	for _, c := range class.DerivedMRO {
		if c == enum {
			return true
		}
	}
	return false
}
