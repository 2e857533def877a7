package typeir

import (
	"fmt"
	"strings"
)

// ParamKind mirrors ast.ParamKind but at the type level (no default
// expression, just the shape matching needs: spec.md §3 "Signature &
// binding").
type ParamKind int

const (
	ParamPositionalOnly ParamKind = iota
	ParamPositionalOrKeyword
	ParamVarPositional
	ParamKeywordOnly
	ParamVarKeyword
)

// Parameter is one formal parameter of a Signature.
type Parameter struct {
	Name       string
	Kind       ParamKind
	Annotated  Type // nil if unannotated (defaults to Unknown for inference purposes)
	HasDefault bool
}

// Signature is one overload of a callable type (spec.md §3 "Signature &
// binding"). Matching arguments against it, and solving its generic
// context from a call site, is `internal/signature`'s job — this type only
// carries the shape.
type Signature struct {
	Params  []Parameter
	Return  Type // nil means not yet known / Unknown
	Generic *GenericContext
}

func (s *Signature) String() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		name := p.Name
		switch p.Kind {
		case ParamVarPositional:
			name = "*" + name
		case ParamVarKeyword:
			name = "**" + name
		}
		if p.Annotated != nil {
			name += ": " + p.Annotated.String()
		}
		parts[i] = name
	}
	ret := "Unknown"
	if s.Return != nil {
		ret = s.Return.String()
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + ret
}

// SignatureAssignable reports whether a value with signature sub can stand
// in for one with signature super: contravariant parameters, covariant
// return (spec.md §4.1 callable subtyping; §4.3 Liskov override checking).
// Parameters are matched positionally; a missing annotation on either side
// is gradual and always compatible.
func SignatureAssignable(sub, super *Signature) bool {
	subPos := positionalParams(sub)
	superPos := positionalParams(super)
	if len(subPos) < requiredCount(superPos) && !hasVarPositional(sub) {
		return false
	}
	n := len(superPos)
	if len(subPos) < n {
		n = len(subPos)
	}
	for i := 0; i < n; i++ {
		sp, tp := superPos[i].Annotated, subPos[i].Annotated
		if sp == nil || tp == nil {
			continue
		}
		if !IsAssignable(sp, tp) { // contravariant: super's argument flows into sub's parameter
			return false
		}
	}
	if sub.Return != nil && super.Return != nil {
		if !IsAssignable(sub.Return, super.Return) { // covariant return
			return false
		}
	}
	return true
}

func positionalParams(s *Signature) []Parameter {
	out := make([]Parameter, 0, len(s.Params))
	for _, p := range s.Params {
		if p.Kind == ParamPositionalOnly || p.Kind == ParamPositionalOrKeyword {
			out = append(out, p)
		}
	}
	return out
}

func requiredCount(params []Parameter) int {
	n := 0
	for _, p := range params {
		if !p.HasDefault {
			n++
		}
	}
	return n
}

func hasVarPositional(s *Signature) bool {
	for _, p := range s.Params {
		if p.Kind == ParamVarPositional {
			return true
		}
	}
	return false
}

// CallableKind distinguishes a plain function-like callable from a
// class-like one (a constructor call goes through `__init__`/`__new__`
// resolution instead of direct signature matching; spec.md §3).
type CallableKind int

const (
	CallableFunctionLike CallableKind = iota
	CallableClassLike
)

// FunctionLiteral is a (possibly overloaded) function, by source identity.
type FunctionLiteral struct {
	QualName  string
	DefSite   string
	Overloads []*Signature // len == 1 for a non-overloaded function
	IsAsync   bool
	IsGenerator bool
	Deprecated string

	// Decorator-derived flags, set by the inference driver when it walks a
	// def's decorator list.
	IsOverloadDecl bool // @overload with no implementation merged in yet
	IsAbstract     bool // @abstractmethod
	IsStatic       bool // @staticmethod
	IsClassMethod  bool // @classmethod
	IsProperty     bool // @property (the class model wraps it in PropertyInstance)
	IsFinal        bool // @final
	IsOverride     bool // @override
}

func (f *FunctionLiteral) String() string { return "def " + f.QualName }
func (f *FunctionLiteral) key() string    { return "Func:" + f.DefSite + ":" + f.QualName }

// BoundMethod is a FunctionLiteral bound to an instance via the descriptor
// protocol (spec.md §3, §4.4 "descriptor-protocol aware method binding").
type BoundMethod struct {
	Function *FunctionLiteral
	Self     Type
}

func (b *BoundMethod) String() string { return "bound method " + b.Function.QualName }
func (b *BoundMethod) key() string    { return "BoundMethod:" + b.Function.key() + ":" + b.Self.key() }

// KnownBoundMethodKind enumerates builtin methods the checker hand-binds
// instead of synthesizing a FunctionLiteral for (spec.md §4.4 "known
// classes with non-standard construction" extends to their methods too,
// e.g. `str.format`, `dict.get`).
type KnownBoundMethodKind int

const (
	KnownMethodStrFormat KnownBoundMethodKind = iota
	KnownMethodDictGet
	KnownMethodTypeSubclasses
	KnownMethodTypedDictPop
	KnownMethodTypedDictGet
	KnownMethodTypedDictSetdefault
)

// KnownBoundMethod carries the receiver alongside the kind so the call
// logic can consult it (a TypedDict's pop needs the field map of the
// specific TypedDict it was looked up on).
type KnownBoundMethod struct {
	Kind KnownBoundMethodKind
	Self Type
}

func (k *KnownBoundMethod) String() string { return "known-method" }
func (k *KnownBoundMethod) key() string {
	self := ""
	if k.Self != nil {
		self = k.Self.key()
	}
	return fmt.Sprintf("KnownMethod:%d:%s", k.Kind, self)
}

// WrapperDescriptorKind enumerates the small set of C-implemented slot
// wrappers the checker needs signatures for without a user-visible def
// (`object.__init__`, `object.__new__`, ...).
type WrapperDescriptorKind int

const (
	WrapperObjectInit WrapperDescriptorKind = iota
	WrapperObjectNew
)

type WrapperDescriptor struct{ Kind WrapperDescriptorKind }

func (w *WrapperDescriptor) String() string { return "wrapper-descriptor" }
func (w *WrapperDescriptor) key() string    { return "WrapperDescriptor" }

// CallableType is a structural callable: `Callable[[int], str]`, or the
// synthesized type of a `__call__` lookup result.
type CallableType struct {
	Signatures []*Signature // overload set; len 1 for a plain Callable[...]
	Kind       CallableKind
}

func (c *CallableType) String() string {
	if len(c.Signatures) == 1 {
		return c.Signatures[0].String()
	}
	parts := make([]string, len(c.Signatures))
	for i, s := range c.Signatures {
		parts[i] = s.String()
	}
	return "Overload" + "(" + strings.Join(parts, " | ") + ")"
}
func (c *CallableType) key() string {
	parts := make([]string, len(c.Signatures))
	for i, s := range c.Signatures {
		parts[i] = s.String()
	}
	return "Callable:" + strings.Join(parts, "|")
}

// DataclassDecorator is the type of `@dataclass(...)` itself (before it is
// applied to a class), carrying the keyword parameters it will stamp onto
// the decorated class.
type DataclassDecorator struct{ Params DataclassParams }

func (d *DataclassDecorator) String() string { return "dataclass(...)" }
func (d *DataclassDecorator) key() string    { return "DataclassDecorator" }

// DataclassTransformer is the type of a user decorator marked with
// `typing.dataclass_transform(...)`.
type DataclassTransformer struct{ Params DataclassParams }

func (d *DataclassTransformer) String() string { return "dataclass_transform(...)" }
func (d *DataclassTransformer) key() string    { return "DataclassTransformer" }
