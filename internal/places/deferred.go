package places

// Deferred annotations (spec.md §4.5, §4.6): under `from __future__ import
// annotations`, inside a `.pyi` stub, or when an annotation expression is a
// string literal, the annotation is not evaluated in place — it's deferred
// to end-of-scope, where every name it uses resolves against the scope's
// *final* bindings rather than the bindings reaching the annotation's
// source position. This matters for forward references
// (`def f(x: "Later") -> None: ...` followed later by `class Later: ...`).

// DeferralReason names why an annotation expression needs end-of-scope
// resolution instead of in-place resolution.
type DeferralReason int

const (
	NotDeferred DeferralReason = iota
	DeferredFutureAnnotations
	DeferredStubFile
	DeferredStringAnnotation
)

// ShouldDefer decides whether an annotation expression in a module needs
// end-of-scope evaluation.
func ShouldDefer(moduleHasFutureAnnotations, moduleIsStub, exprIsStringLiteral bool) DeferralReason {
	switch {
	case exprIsStringLiteral:
		return DeferredStringAnnotation
	case moduleIsStub:
		return DeferredStubFile
	case moduleHasFutureAnnotations:
		return DeferredFutureAnnotations
	default:
		return NotDeferred
	}
}
