package signature

import "github.com/prismafold/pytc/internal/typeir"

// MemberLookup resolves an attribute name on a class through its MRO; the
// inference driver supplies it since member storage (Fields, methods) is
// modeled by classmodel/infer, not by this package (spec.md §4.4
// "constructor call resolution... through MRO").
type MemberLookup func(class *typeir.ClassLiteral, name string) (typeir.Type, bool)

// ResolveConstructor computes the type a `ClassName(...)` call produces and
// the signature its arguments must match, following `__new__`/`__init__`
// resolution through MRO, with the small set of hand-rolled signatures for
// classes whose construction isn't expressible as ordinary `__init__`
// (spec.md §4.4 "known classes with non-standard construction": bool, str,
// type, object, property, super, tuple).
func ResolveConstructor(class *typeir.ClassLiteral, lookup MemberLookup) (*typeir.Signature, typeir.Type, bool) {
	if sig, ok := knownConstructor(class); ok {
		return sig, InstanceOf(class), true
	}
	if class.Dataclass != nil && class.Dataclass.Kind == typeir.DataclassTypedDict {
		return TypedDictConstructor(class), InstanceOf(class), true
	}

	if init, ok := lookup(class, "__init__"); ok {
		if fn, ok := callableOf(init); ok && len(fn.Overloads) > 0 {
			return WithoutSelf(fn.Overloads[0]), InstanceOf(class), true
		}
	}
	if class.Dataclass != nil && class.Dataclass.Init {
		return DataclassInit(class), InstanceOf(class), true
	}
	if newFn, ok := lookup(class, "__new__"); ok {
		if fn, ok := callableOf(newFn); ok && len(fn.Overloads) > 0 {
			return WithoutSelf(fn.Overloads[0]), InstanceOf(class), true
		}
	}
	// No user-defined constructor anywhere in the MRO: the implicit
	// `object.__init__`/`object.__new__` wrapper accepts no arguments.
	return &typeir.Signature{}, InstanceOf(class), true
}

// InstanceOf is the type a successful `ClassName(...)` call produces: a
// TypedDictType for TypedDict classes, a ProtocolInstance for protocols
// (the caller diagnoses the instantiation attempt separately), a partial
// GenericAlias for a generic origin, a NominalInstance otherwise.
func InstanceOf(class *typeir.ClassLiteral) typeir.Type {
	if class.Dataclass != nil && class.Dataclass.Kind == typeir.DataclassTypedDict {
		return &typeir.TypedDictType{Class: class}
	}
	if class.DerivedIsProtocol {
		return &typeir.ProtocolInstance{Class: class}
	}
	if class.Generic != nil {
		return &typeir.GenericAlias{Class: class, Specialization: &typeir.Specialization{Context: class.Generic, Args: make([]typeir.Type, len(class.Generic.Vars))}}
	}
	return &typeir.NominalInstance{Class: class}
}

// WithoutSelf drops a method signature's leading `self`/`cls` parameter,
// the shape a bound-method or constructor call binds against (spec.md §4.4
// descriptor-protocol aware method binding).
func WithoutSelf(sig *typeir.Signature) *typeir.Signature {
	if len(sig.Params) == 0 {
		return sig
	}
	first := sig.Params[0]
	if first.Kind != typeir.ParamPositionalOnly && first.Kind != typeir.ParamPositionalOrKeyword {
		return sig
	}
	return &typeir.Signature{Params: sig.Params[1:], Return: sig.Return, Generic: sig.Generic}
}

// DataclassInit synthesizes the `__init__` a dataclass-like class would
// generate from its field map (spec.md §4.3 "a synthesized __init__ is
// available to the constructor-call logic"). ClassVar fields and the bare
// KW_ONLY sentinel are skipped; keyword-only fields (or every field, under
// kw_only=True) become keyword-only parameters.
func DataclassInit(class *typeir.ClassLiteral) *typeir.Signature {
	params := make([]typeir.Parameter, 0, len(class.DerivedFields))
	kwOnlyAll := class.Dataclass != nil && class.Dataclass.KWOnly
	for _, f := range class.DerivedFields {
		if f.Name == "" || f.ClassVar {
			continue
		}
		kind := typeir.ParamPositionalOrKeyword
		if kwOnlyAll || f.KeywordOnly {
			kind = typeir.ParamKeywordOnly
		}
		params = append(params, typeir.Parameter{Name: f.Name, Kind: kind, Annotated: f.Declared, HasDefault: f.HasDefault})
	}
	return &typeir.Signature{Params: params}
}

// TypedDictConstructor is the keyword-only construction shape
// `Pt(x=1, y=2)`; required-ness follows each field's NotRequired flag.
func TypedDictConstructor(class *typeir.ClassLiteral) *typeir.Signature {
	params := make([]typeir.Parameter, 0, len(class.DerivedFields))
	for _, f := range class.DerivedFields {
		params = append(params, typeir.Parameter{Name: f.Name, Kind: typeir.ParamKeywordOnly, Annotated: f.Declared, HasDefault: f.NotRequired})
	}
	return &typeir.Signature{Params: params}
}

func callableOf(t typeir.Type) (*typeir.FunctionLiteral, bool) {
	switch v := t.(type) {
	case *typeir.FunctionLiteral:
		return v, true
	case *typeir.BoundMethod:
		return v.Function, true
	default:
		return nil, false
	}
}

// knownConstructor hand-rolls the signatures CPython implements in C and
// whose construction shape can't be read off a Python-level `__init__`
// (spec.md §4.4). Only the shape needed for binding is modeled; the
// semantic effect of each (e.g. `bool(x)` consulting `__bool__`) is the
// inference driver's concern.
func knownConstructor(class *typeir.ClassLiteral) (*typeir.Signature, bool) {
	switch class.KnownClass {
	case typeir.KnownBool:
		return &typeir.Signature{Params: []typeir.Parameter{{Name: "x", Kind: typeir.ParamPositionalOrKeyword, HasDefault: true}}}, true
	case typeir.KnownStr:
		return &typeir.Signature{Params: []typeir.Parameter{
			{Name: "object", Kind: typeir.ParamPositionalOrKeyword, HasDefault: true},
			{Name: "encoding", Kind: typeir.ParamPositionalOrKeyword, HasDefault: true},
			{Name: "errors", Kind: typeir.ParamPositionalOrKeyword, HasDefault: true},
		}}, true
	case typeir.KnownType:
		return &typeir.Signature{Params: []typeir.Parameter{
			{Name: "name_or_object", Kind: typeir.ParamPositionalOrKeyword},
			{Name: "bases", Kind: typeir.ParamPositionalOrKeyword, HasDefault: true},
			{Name: "dict", Kind: typeir.ParamPositionalOrKeyword, HasDefault: true},
		}}, true
	case typeir.KnownObject:
		return &typeir.Signature{}, true
	case typeir.KnownProperty:
		return &typeir.Signature{Params: []typeir.Parameter{
			{Name: "fget", Kind: typeir.ParamPositionalOrKeyword, HasDefault: true},
			{Name: "fset", Kind: typeir.ParamPositionalOrKeyword, HasDefault: true},
			{Name: "fdel", Kind: typeir.ParamPositionalOrKeyword, HasDefault: true},
			{Name: "doc", Kind: typeir.ParamPositionalOrKeyword, HasDefault: true},
		}}, true
	case typeir.KnownSuper:
		return &typeir.Signature{Params: []typeir.Parameter{
			{Name: "type", Kind: typeir.ParamPositionalOrKeyword, HasDefault: true},
			{Name: "obj_or_type", Kind: typeir.ParamPositionalOrKeyword, HasDefault: true},
		}}, true
	case typeir.KnownTuple, typeir.KnownList, typeir.KnownSet, typeir.KnownFrozenSet:
		return &typeir.Signature{Params: []typeir.Parameter{{Name: "iterable", Kind: typeir.ParamPositionalOrKeyword, HasDefault: true}}}, true
	case typeir.KnownDict:
		return &typeir.Signature{Params: []typeir.Parameter{
			{Name: "iterable", Kind: typeir.ParamPositionalOrKeyword, HasDefault: true},
			{Name: "kwargs", Kind: typeir.ParamVarKeyword},
		}}, true
	default:
		return nil, false
	}
}

// ValidateTypeVarConstruction checks a legacy `T = TypeVar("T", ...)` call
// shape: at most one of bound=/constraints is present, and constraints (if
// any) number at least two (spec.md §4.4 "legacy TypeVar/ParamSpec/NewType
// construction validation").
func ValidateTypeVarConstruction(hasBound bool, constraints []typeir.Type) error {
	if hasBound && len(constraints) > 0 {
		return errBoundAndConstraints
	}
	if len(constraints) == 1 {
		return errSingleConstraint
	}
	return nil
}

var (
	errBoundAndConstraints = constructionError("a TypeVar cannot have both a bound and constraints")
	errSingleConstraint    = constructionError("a TypeVar with constraints needs at least two")
)

type constructionError string

func (e constructionError) Error() string { return string(e) }
