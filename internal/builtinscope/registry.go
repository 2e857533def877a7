// Package builtinscope is the implicit Python builtins scope: the classes
// and functions every module sees without an import (spec.md §4.5 "Place
// Resolution" step 5, falling off the end of the module scope). Grounded
// on the teacher's internal/builtins/registry.go name->metadata map
// populated by a set of `register*` functions invoked from `init()`
// (the same shape here, generalized from AILANG's builtin-function
// metadata to Python class/function literals).
package builtinscope

import (
	"github.com/prismafold/pytc/internal/classmodel"
	"github.com/prismafold/pytc/internal/typeir"
)

// Registry is name -> the Type that name denotes in builtins scope: a
// ClassLiteralType for classes (`int`, `str`, `object`, ...), a
// FunctionLiteral for free functions (`len`, `print`, `isinstance`, ...).
var Registry = make(map[string]typeir.Type)

// Classes indexes the same classes by KnownClass tag, for callers (mainly
// classmodel and signature) that need the ClassLiteral itself rather than
// its ClassLiteralType wrapper — e.g. resolving `object` as the universal
// base, or `type` as the default metaclass.
var Classes = make(map[typeir.KnownClass]*typeir.ClassLiteral)

func init() {
	registerCoreClasses()
	registerCollectionClasses()
	registerFreeFunctions()
	registerSpecialForms()
	registerTypingFactories()
	linearizeBuiltinClasses()
}

// linearizeBuiltinClasses gives every builtin class (other than object
// itself) the trivial one-base MRO [self, object]; the only multiple-step
// chain among them is Exception -> BaseException, linearized explicitly
// after the flat pass. Either way it is the single code path every class
// (builtin or user-defined) goes through.
func linearizeBuiltinClasses() {
	object := Classes[typeir.KnownObject]
	classmodel.LinearizeMRO(object, nil, object)
	for known, c := range Classes {
		if known == typeir.KnownObject || known == typeir.KnownException {
			continue
		}
		classmodel.LinearizeMRO(c, []*typeir.ClassLiteral{object}, object)
	}
	classmodel.LinearizeMRO(Classes[typeir.KnownException], []*typeir.ClassLiteral{Classes[typeir.KnownBaseException]}, object)
}

func defineClass(known typeir.KnownClass, name string, generic *typeir.GenericContext) *typeir.ClassLiteral {
	c := &typeir.ClassLiteral{Name: name, DefiningFile: "<builtins>", KnownClass: known, Generic: generic}
	Classes[known] = c
	Registry[name] = &typeir.ClassLiteralType{Class: c}
	return c
}

func registerCoreClasses() {
	object := defineClass(typeir.KnownObject, "object", nil)
	defineClass(typeir.KnownType, "type", nil)
	defineClass(typeir.KnownBool, "bool", nil)
	defineClass(typeir.KnownInt, "int", nil)
	defineClass(typeir.KnownFloat, "float", nil)
	defineClass(typeir.KnownStr, "str", nil)
	defineClass(typeir.KnownBytes, "bytes", nil)
	defineClass(typeir.KnownProperty, "property", nil)
	defineClass(typeir.KnownSuper, "super", nil)
	none := defineClass(typeir.KnownNoneType, "NoneType", nil)
	Registry["None"] = &typeir.NominalInstance{Class: none}

	defineClass(typeir.KnownBaseException, "BaseException", nil)
	defineClass(typeir.KnownException, "Exception", nil)

	// Enum / TypedDict / NamedTuple are typing/enum-module classes, not
	// true builtins, but this core models no import graph (spec.md §1), so
	// the same pre-binding rationale as registerSpecialForms applies.
	defineClass(typeir.KnownEnum, "Enum", nil)
	defineClass(typeir.KnownTypedDict, "TypedDict", nil)
	defineClass(typeir.KnownNamedTuple, "NamedTuple", nil)

	// Every class implicitly derives from object except object itself;
	// bases and MROs are filled in afterwards by linearizeBuiltinClasses,
	// the last step of this package's init.
	_ = object
}

func registerCollectionClasses() {
	tv := func(name string) *typeir.TypeVarType {
		return &typeir.TypeVarType{Name: name, DefSite: "<builtins>", Kind: typeir.TypeVarLegacy}
	}
	t := tv("_T")
	kt, vt := tv("_KT"), tv("_VT")

	defineClass(typeir.KnownTuple, "tuple", &typeir.GenericContext{BindingSite: "tuple", Vars: []*typeir.TypeVarType{t}})
	defineClass(typeir.KnownList, "list", &typeir.GenericContext{BindingSite: "list", Vars: []*typeir.TypeVarType{t}})
	defineClass(typeir.KnownSet, "set", &typeir.GenericContext{BindingSite: "set", Vars: []*typeir.TypeVarType{t}})
	defineClass(typeir.KnownFrozenSet, "frozenset", &typeir.GenericContext{BindingSite: "frozenset", Vars: []*typeir.TypeVarType{t}})
	defineClass(typeir.KnownDict, "dict", &typeir.GenericContext{BindingSite: "dict", Vars: []*typeir.TypeVarType{kt, vt}})
}

func registerFreeFunctions() {
	unknownParam := func(name string) typeir.Parameter {
		return typeir.Parameter{Name: name, Kind: typeir.ParamPositionalOrKeyword, Annotated: typeir.Unknown}
	}
	define := func(name string, sig *typeir.Signature) {
		Registry[name] = &typeir.FunctionLiteral{QualName: name, DefSite: "<builtins>", Overloads: []*typeir.Signature{sig}}
	}

	define("len", &typeir.Signature{
		Params: []typeir.Parameter{unknownParam("obj")},
		Return: &typeir.NominalInstance{Class: Classes[typeir.KnownInt]},
	})
	define("print", &typeir.Signature{
		Params: []typeir.Parameter{{Name: "values", Kind: typeir.ParamVarPositional, Annotated: typeir.Unknown}},
		Return: noneType(),
	})
	define("isinstance", &typeir.Signature{
		Params: []typeir.Parameter{unknownParam("obj"), unknownParam("class_or_tuple")},
		Return: &typeir.NominalInstance{Class: Classes[typeir.KnownBool]},
	})
	define("issubclass", &typeir.Signature{
		Params: []typeir.Parameter{unknownParam("cls"), unknownParam("class_or_tuple")},
		Return: &typeir.NominalInstance{Class: Classes[typeir.KnownBool]},
	})
	define("getattr", &typeir.Signature{
		Params: []typeir.Parameter{unknownParam("obj"), unknownParam("name"), {Name: "default", Kind: typeir.ParamPositionalOrKeyword, HasDefault: true}},
		Return: typeir.Unknown,
	})
	define("repr", &typeir.Signature{
		Params: []typeir.Parameter{unknownParam("obj")},
		Return: &typeir.NominalInstance{Class: Classes[typeir.KnownStr]},
	})
	// reveal_type is recognized by the inference driver itself (it emits a
	// revealed-type diagnostic rather than going through binding); the
	// registration here only makes the name resolve.
	define("reveal_type", &typeir.Signature{
		Params: []typeir.Parameter{unknownParam("obj")},
		Return: typeir.Unknown,
	})

	// Decorator names the driver recognizes syntactically; registering them
	// keeps a decorator expression from reporting unresolved-reference when
	// it is evaluated as an ordinary value.
	for _, name := range []string{"overload", "abstractmethod", "final", "override", "type_check_only", "staticmethod", "classmethod", "dataclass_transform"} {
		define(name, &typeir.Signature{Params: []typeir.Parameter{unknownParam("obj")}, Return: typeir.Unknown})
	}
}

func noneType() typeir.Type {
	return &typeir.NominalInstance{Class: Classes[typeir.KnownNoneType]}
}

// Lookup returns the builtins-scope type bound to name, if any — the final
// fallback of spec.md §4.5's place-resolution walk.
func Lookup(name string) (typeir.Type, bool) {
	t, ok := Registry[name]
	return t, ok
}

// Object returns the root `object` class every class implicitly inherits.
func Object() *typeir.ClassLiteral { return Classes[typeir.KnownObject] }

// TypeClass returns the default metaclass `type`.
func TypeClass() *typeir.ClassLiteral { return Classes[typeir.KnownType] }
