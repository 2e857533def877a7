// Package diagnostics is the structured-failure substrate (spec.md §4.7,
// §7): every type error, narrowing failure or class/inheritance problem is
// a typed Diagnostic value, never a panic. Grounded on the teacher's
// internal/errors package (report.go's Report{Schema,Code,Phase,Message,
// Span,Data,Fix} value, json_encoder.go's deterministic JSON rendering,
// codes.go's phase-prefixed code taxonomy), generalized from AILANG's
// compiler-phase codes to this checker's closed diagnostic-kind taxonomy.
package diagnostics

import (
	"encoding/json"

	"github.com/prismafold/pytc/internal/ast"
)

// Severity is the externally-visible level a Diagnostic renders at. It is
// distinct from Kind: the same Kind can render as Error under a strict
// policy and Warning (or be suppressed) under a lenient one (spec.md §4.7
// "severity-policy injection").
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Kind is the closed diagnostic taxonomy of spec.md §7, grouped by the
// category comment headers matching the spec's own section breaks.
type Kind string

const (
	// Name resolution
	KindUnresolvedReference         Kind = "unresolved-reference"
	KindPossiblyUnresolvedReference Kind = "possibly-unresolved-reference"
	KindUnresolvedImport            Kind = "unresolved-import"
	KindUnresolvedAttribute         Kind = "unresolved-attribute"
	KindPossiblyMissingAttribute    Kind = "possibly-missing-attribute"
	KindUnresolvedGlobal            Kind = "unresolved-global"

	// Call & signature
	KindTooManyPositionalArguments Kind = "too-many-positional-arguments"
	KindMissingArgument            Kind = "missing-argument"
	KindUnknownArgument             Kind = "unknown-argument"
	KindParameterAlreadyAssigned    Kind = "parameter-already-assigned"
	KindNoMatchingOverload          Kind = "no-matching-overload"
	KindNotCallable                 Kind = "call-non-callable"
	KindPossiblyNotCallable         Kind = "possibly-not-callable"
	KindInvalidArgumentType         Kind = "invalid-argument-type"

	// Class & inheritance
	KindInheritanceCycle  Kind = "cyclic-class-definition"
	KindDuplicateBase     Kind = "duplicate-base"
	KindUnresolvableMRO   Kind = "inconsistent-mro"
	KindConflictingMetaclass Kind = "conflicting-metaclass"
	KindInvalidMetaclass  Kind = "invalid-metaclass"
	KindInvalidBase       Kind = "invalid-base"
	KindInvalidOverride   Kind = "invalid-override"
	KindSubclassOfFinal   Kind = "subclass-of-final-class"
	KindInvalidProtocol   Kind = "invalid-protocol"
	KindInvalidNamedTuple Kind = "invalid-named-tuple"
	KindDuplicateKWOnly   Kind = "duplicate-kw-only"

	// Types and forms
	KindInvalidTypeForm       Kind = "invalid-type-form"
	KindUnsupportedOperator   Kind = "unsupported-operator"
	KindUnsupportedComparison Kind = "unsupported-comparison"
	KindInvalidAssignment     Kind = "invalid-assignment"
	KindInvalidDeclaration    Kind = "invalid-declaration"
	KindInvalidReturnType     Kind = "invalid-return-type"
	KindInvalidOverload       Kind = "invalid-overload"
	KindInvalidKey            Kind = "invalid-key"
	KindInvalidLegacyTypeVariable Kind = "invalid-legacy-type-variable"
	KindInvalidTypeVarConstraints Kind = "invalid-type-variable-constraints"
	KindInvalidParamSpec      Kind = "invalid-paramspec"
	KindInvalidNewType        Kind = "invalid-newtype"
	KindReadOnlyProperty      Kind = "read-only-property"
	KindIndexOutOfBounds      Kind = "index-out-of-bounds"
	KindInvalidExceptionCaught Kind = "invalid-exception-caught"

	// Semantics
	KindDivisionByZero     Kind = "division-by-zero"
	KindNotIterable        Kind = "not-iterable"
	KindNotSubscriptable   Kind = "non-subscriptable"
	KindInvalidContextManager Kind = "invalid-context-manager"
	KindUnreachableCode    Kind = "unreachable"
	KindRedundantCast      Kind = "redundant-cast"
	KindUndefinedReveal    Kind = "undefined-reveal"
	KindRevealedType       Kind = "revealed-type"
	KindDeprecated         Kind = "deprecated"
	KindSliceStepZero      Kind = "zero-stepsize-in-slice"
)

// Diagnostic is the checker's sole structured-failure value.
type Diagnostic struct {
	Schema   string         `json:"schema"`
	Kind     Kind           `json:"kind"`
	Severity Severity       `json:"-"`
	Message  string         `json:"message"`
	Span     *ast.Span      `json:"span,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

const schemaID = "pytc.diagnostic/v1"

// New constructs a Diagnostic at its default severity (callers apply a
// Policy afterward to possibly override it).
func New(kind Kind, message string, span *ast.Span) *Diagnostic {
	return &Diagnostic{Schema: schemaID, Kind: kind, Severity: SeverityError, Message: message, Span: span}
}

// NewInfo constructs an informational Diagnostic — used for kinds like
// revealed-type whose whole purpose is to print, not to fail a check run.
func NewInfo(kind Kind, message string, span *ast.Span) *Diagnostic {
	return &Diagnostic{Schema: schemaID, Kind: kind, Severity: SeverityInfo, Message: message, Span: span}
}

// WithData attaches structured fields (operand types, the class name, the
// missing argument name, ...) for machine consumption alongside Message.
func (d *Diagnostic) WithData(data map[string]any) *Diagnostic {
	d.Data = data
	return d
}

// jsonView is the wire shape; Severity is rendered as its string form since
// Diagnostic.Severity has no json tag (severity is policy-dependent and
// resolved at render time, not at construction time).
type jsonView struct {
	Schema   string         `json:"schema"`
	Kind     Kind           `json:"kind"`
	Severity string         `json:"severity"`
	Message  string         `json:"message"`
	Span     *ast.Span      `json:"span,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// ToJSON renders d as the pytc.diagnostic/v1 wire format.
func (d *Diagnostic) ToJSON(compact bool) (string, error) {
	v := jsonView{Schema: d.Schema, Kind: d.Kind, Severity: d.Severity.String(), Message: d.Message, Span: d.Span, Data: d.Data}
	var b []byte
	var err error
	if compact {
		b, err = json.Marshal(v)
	} else {
		b, err = json.MarshalIndent(v, "", "  ")
	}
	return string(b), err
}
