package typeir

import "fmt"

// This file carries the algebra-level structured failures: operator and
// conversion errors the checker surfaces as diagnostics rather than Go
// errors, matching the teacher's pattern of typed, data-carrying failure
// values instead of ad-hoc string errors (internal/errors/codes.go
// generalized from the evaluator's runtime errors to this package's static
// ones — spec.md §7 "Types and forms" / binary-operator diagnostics).

// UnsupportedBinaryOperator records that no dunder on either operand (nor
// its reflection) accepts the operator, for the left/right pair actually
// attempted (spec.md §4.4 "reflected-dunder priority rule").
type UnsupportedBinaryOperator struct {
	Op    string
	Left  Type
	Right Type
}

func (e *UnsupportedBinaryOperator) Error() string {
	return fmt.Sprintf("unsupported operand type(s) for %s: %s and %s", e.Op, e.Left, e.Right)
}

// UnsupportedUnaryOperator is the unary analogue.
type UnsupportedUnaryOperator struct {
	Op      string
	Operand Type
}

func (e *UnsupportedUnaryOperator) Error() string {
	return fmt.Sprintf("bad operand type for unary %s: %s", e.Op, e.Operand)
}

// UnsupportedComparison records a rich-comparison (`<`, `==`, ...) with no
// usable dunder on either side (spec.md §4.4 "rich-comparison chaining").
type UnsupportedComparison struct {
	Op    string
	Left  Type
	Right Type
}

func (e *UnsupportedComparison) Error() string {
	return fmt.Sprintf("%s not supported between instances of %s and %s", e.Op, e.Left, e.Right)
}

// NotCallable records a call attempt on a type with no `__call__`.
type NotCallable struct{ Callee Type }

func (e *NotCallable) Error() string { return fmt.Sprintf("%s is not callable", e.Callee) }

// NotSubscriptable records a subscript attempt on a type with no
// `__getitem__` (spec.md §4.4 descriptor/subscript handling).
type NotSubscriptable struct{ Operand Type }

func (e *NotSubscriptable) Error() string {
	return fmt.Sprintf("%s is not subscriptable", e.Operand)
}

// NotIterable records an iteration attempt (for-loop, unpacking,
// comprehension) on a type with no `__iter__`/`__getitem__`.
type NotIterable struct{ Operand Type }

func (e *NotIterable) Error() string { return fmt.Sprintf("%s is not iterable", e.Operand) }
