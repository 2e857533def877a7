package builtinscope

import "github.com/prismafold/pytc/internal/typeir"

// registerSpecialForms binds the `typing` names spec.md §3 recognizes as
// type-expression syntax rather than ordinary values (Union, Literal,
// Protocol, ...) directly into builtins scope. A real `from typing import
// Union` binding would shadow these with the same SpecialForm value, so
// pre-binding them here rather than modeling the typing module's exports
// is observationally the same for every construct this core's Non-goals
// (no import-graph resolution) allow it to see.
func registerSpecialForms() {
	forms := map[string]typeir.SpecialFormKind{
		"Union":          typeir.FormUnion,
		"Optional":       typeir.FormOptional,
		"Literal":        typeir.FormLiteral,
		"Annotated":      typeir.FormAnnotated,
		"Callable":       typeir.FormCallable,
		"Generic":        typeir.FormGeneric,
		"Protocol":       typeir.FormProtocol,
		"Tuple":          typeir.FormTuple,
		"Type":           typeir.FormType,
		"Unpack":         typeir.FormUnpack,
		"Concatenate":    typeir.FormConcatenate,
		"ClassVar":       typeir.FormClassVar,
		"Final":          typeir.FormFinal,
		"TypeGuard":      typeir.FormTypeGuard,
		"TypeIs":         typeir.FormTypeIs,
		"Required":       typeir.FormRequired,
		"NotRequired":    typeir.FormNotRequired,
		"ReadOnly":       typeir.FormReadOnly,
		"Self":           typeir.FormSelf,
		"Never":          typeir.FormNever,
		"NoReturn":       typeir.FormNoReturn,
		"LiteralString":  typeir.FormLiteralStringForm,
	}
	for name, kind := range forms {
		Registry[name] = &typeir.SpecialForm{Kind: kind}
	}
}

// registerTypingFactories binds the typing-module factory callables whose
// *calls* the driver recognizes syntactically (spec.md §4.4 "legacy
// typevar / ParamSpec / NewType construction"): a bare KnownInstance with
// no payload stands for the factory class itself, distinguished from a
// constructed typevar (whose KnownInstance carries the TypeVarType).
func registerTypingFactories() {
	Registry["TypeVar"] = &typeir.KnownInstance{Kind: typeir.KnownInstanceTypeVar}
	Registry["ParamSpec"] = &typeir.KnownInstance{Kind: typeir.KnownInstanceParamSpec}
	Registry["NewType"] = &typeir.KnownInstance{Kind: typeir.KnownInstanceNewType}
	Registry["dataclass"] = &typeir.DataclassDecorator{Params: typeir.DataclassParams{Init: true, Eq: true}}
	// dataclasses.KW_ONLY is a sentinel with no interesting type of its
	// own; the field collector recognizes it syntactically.
	Registry["KW_ONLY"] = typeir.AnyType
}
