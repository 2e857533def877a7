package infer

import (
	"math"
	"math/big"

	"github.com/prismafold/pytc/internal/ast"
	"github.com/prismafold/pytc/internal/builtinscope"
	"github.com/prismafold/pytc/internal/diagnostics"
	"github.com/prismafold/pytc/internal/signature"
	"github.com/prismafold/pytc/internal/typeir"
)

// inferBoolOp implements `and`/`or` chaining (spec.md §4.4): the result is
// the union of every operand's type, since short-circuiting means any
// operand may be the value that survives. Operands are not narrowed by
// their static truthiness: each contributes its whole inferred type
// (teacher idiom: prefer a union over collapsing to Unknown whenever an
// expression can yield more than one source value).
func (c *Checker) inferBoolOp(v *ast.BoolOp) typeir.Type {
	operandTypes := make([]typeir.Type, len(v.Values))
	for i, e := range v.Values {
		operandTypes[i] = c.InferExpr(e, NoContext)
	}
	return typeir.NewUnion(operandTypes...)
}

// binOpInfo carries one binary operator's display symbol and its dunder
// triple; the table drives both ordinary dispatch and the in-place
// (augmented assignment) attempt.
type binOpInfo struct {
	sym     string
	dunder  string
	rdunder string
	idunder string
}

var binOpTable = map[ast.BinOpKind]binOpInfo{
	ast.OpAdd:      {"+", "__add__", "__radd__", "__iadd__"},
	ast.OpSub:      {"-", "__sub__", "__rsub__", "__isub__"},
	ast.OpMult:     {"*", "__mul__", "__rmul__", "__imul__"},
	ast.OpMatMult:  {"@", "__matmul__", "__rmatmul__", "__imatmul__"},
	ast.OpDiv:      {"/", "__truediv__", "__rtruediv__", "__itruediv__"},
	ast.OpFloorDiv: {"//", "__floordiv__", "__rfloordiv__", "__ifloordiv__"},
	ast.OpMod:      {"%", "__mod__", "__rmod__", "__imod__"},
	ast.OpPow:      {"**", "__pow__", "__rpow__", "__ipow__"},
	ast.OpLShift:   {"<<", "__lshift__", "__rlshift__", "__ilshift__"},
	ast.OpRShift:   {">>", "__rshift__", "__rrshift__", "__irshift__"},
	ast.OpBitOr:    {"|", "__or__", "__ror__", "__ior__"},
	ast.OpBitXor:   {"^", "__xor__", "__rxor__", "__ixor__"},
	ast.OpBitAnd:   {"&", "__and__", "__rand__", "__iand__"},
}

// inferBinOp implements arithmetic/bitwise/string binary operators (spec.md
// §4.6): distribute over union operands, then literal fast paths, then the
// builtin-numeric/string cases the algebra decides directly, then full
// dunder dispatch with the reflected-priority rule (§4.4), reporting
// unsupported-operator when nothing accepts the pair.
func (c *Checker) inferBinOp(v *ast.BinOp) typeir.Type {
	left := c.InferExpr(v.Left, NoContext)
	right := c.InferExpr(v.Right, NoContext)

	if lu, ru := typeir.UnionMembers(left), typeir.UnionMembers(right); len(lu) > 1 || len(ru) > 1 {
		parts := make([]typeir.Type, 0, len(lu)*len(ru))
		for _, l := range lu {
			for _, r := range ru {
				parts = append(parts, c.binOpPair(v.Op, l, r, spanOf(v)))
			}
		}
		return typeir.NewUnion(parts...)
	}
	return c.binOpPair(v.Op, left, right, spanOf(v))
}

func (c *Checker) binOpPair(op ast.BinOpKind, left, right typeir.Type, span *ast.Span) typeir.Type {
	if typeir.IsDynamic(left) || typeir.IsDynamic(right) {
		return typeir.Unknown
	}
	if isZeroDivision(op, right) {
		c.reportf(diagnostics.KindDivisionByZero, span, "division by zero")
		if op == ast.OpDiv {
			return floatInstance()
		}
		return intInstance()
	}
	if lit, ok := literalArith(op, left, right); ok {
		return lit
	}
	if s, ok := stringConcatOrRepeat(op, left, right); ok {
		return s
	}
	if op == ast.OpDiv && isIntish(left) && isIntish(right) {
		return floatInstance()
	}
	if isIntish(left) && isIntish(right) {
		return intInstance()
	}
	if isFloatish(left) && isFloatish(right) {
		return floatInstance()
	}
	if op == ast.OpAdd && isStringish(left) && isStringish(right) {
		return strInstance()
	}
	if t, ok := c.dunderBinOp(op, left, right); ok {
		return t
	}

	info := binOpTable[op]
	if classForDunder(left) != nil && classForDunder(right) != nil {
		c.reportf(diagnostics.KindUnsupportedOperator, span,
			(&typeir.UnsupportedBinaryOperator{Op: info.sym, Left: left, Right: right}).Error())
	}
	return typeir.Unknown
}

// dunderBinOp is the member-table half of operator dispatch (spec.md §4.4):
// the right operand's reflected dunder is tried first exactly when its
// class is a proper subclass of the left's; otherwise the left's plain
// dunder wins, with the reflected one as fallback.
func (c *Checker) dunderBinOp(op ast.BinOpKind, left, right typeir.Type) (typeir.Type, bool) {
	info, ok := binOpTable[op]
	if !ok {
		return nil, false
	}
	lc, rc := classForDunder(left), classForDunder(right)

	reflectedFirst := lc != nil && rc != nil && rc != lc && classHasAncestor(rc, lc)
	if reflectedFirst {
		if t, ok := c.callDunder(rc, info.rdunder, right, left); ok {
			return t, true
		}
	}
	if lc != nil {
		if t, ok := c.callDunder(lc, info.dunder, left, right); ok {
			return t, true
		}
	}
	if rc != nil && !reflectedFirst {
		if t, ok := c.callDunder(rc, info.rdunder, right, left); ok {
			return t, true
		}
	}
	return nil, false
}

// callDunder looks a dunder up on the receiver's class, checks the operand
// against the method's second parameter, and returns its declared result.
// A parameter-type mismatch means "this dunder does not accept the pair"
// (the runtime would return NotImplemented), so the caller can keep trying.
func (c *Checker) callDunder(class *typeir.ClassLiteral, name string, self, operand typeir.Type) (typeir.Type, bool) {
	member, _, ok := typeir.LookupClassMember(class, name)
	if !ok {
		return nil, false
	}
	fn, ok := member.(*typeir.FunctionLiteral)
	if !ok || len(fn.Overloads) == 0 {
		return typeir.Unknown, true
	}
	sig := signature.WithoutSelf(fn.Overloads[0])
	if len(sig.Params) > 0 && sig.Params[0].Annotated != nil {
		if !typeir.IsAssignable(operand, sig.Params[0].Annotated) {
			return nil, false
		}
	}
	if sig.Return != nil {
		return sig.Return, true
	}
	return typeir.Unknown, true
}

// augOpPair implements augmented assignment's dispatch order (spec.md
// §4.6): the in-place dunder first, then the ordinary binary operator.
func (c *Checker) augOpPair(op ast.BinOpKind, left, right typeir.Type, span *ast.Span) typeir.Type {
	info, ok := binOpTable[op]
	if ok {
		if lc := classForDunder(left); lc != nil {
			if t, found := c.callDunder(lc, info.idunder, left, right); found {
				return t
			}
		}
	}
	return c.binOpPair(op, left, right, span)
}

// classForDunder maps a type to the class its dunder lookups run on,
// widening literals to their backing builtin classes.
func classForDunder(t typeir.Type) *typeir.ClassLiteral {
	switch v := t.(type) {
	case *typeir.NominalInstance:
		return v.Class
	case *typeir.ProtocolInstance:
		return v.Class
	case *typeir.GenericAlias:
		return v.Class
	case *typeir.TypedDictType:
		return builtinscope.Classes[typeir.KnownDict]
	case *typeir.IntLiteral:
		return builtinscope.Classes[typeir.KnownInt]
	case *typeir.BooleanLiteral:
		return builtinscope.Classes[typeir.KnownBool]
	case *typeir.StringLiteral:
		return builtinscope.Classes[typeir.KnownStr]
	case *typeir.BytesLiteral:
		return builtinscope.Classes[typeir.KnownBytes]
	case *typeir.EnumLiteral:
		return v.Class
	default:
		if typeir.Same(t, typeir.LiteralStringType) {
			return builtinscope.Classes[typeir.KnownStr]
		}
		return nil
	}
}

func classHasAncestor(sub, ancestor *typeir.ClassLiteral) bool {
	for _, m := range sub.DerivedMRO {
		if m == ancestor {
			return true
		}
	}
	return false
}

func isZeroDivision(op ast.BinOpKind, right typeir.Type) bool {
	if op != ast.OpDiv && op != ast.OpFloorDiv && op != ast.OpMod {
		return false
	}
	if lit, ok := right.(*typeir.IntLiteral); ok {
		return lit.Value == 0
	}
	if lit, ok := right.(*typeir.BooleanLiteral); ok {
		return !lit.Value
	}
	return false
}

func isIntish(t typeir.Type) bool {
	if _, ok := t.(*typeir.IntLiteral); ok {
		return true
	}
	if _, ok := t.(*typeir.BooleanLiteral); ok {
		return true
	}
	n, ok := t.(*typeir.NominalInstance)
	return ok && (n.Class.KnownClass == typeir.KnownInt || n.Class.KnownClass == typeir.KnownBool)
}

func isFloatish(t typeir.Type) bool {
	if isIntish(t) {
		return true
	}
	n, ok := t.(*typeir.NominalInstance)
	return ok && n.Class.KnownClass == typeir.KnownFloat
}

func isBytesish(t typeir.Type) bool {
	if _, ok := t.(*typeir.BytesLiteral); ok {
		return true
	}
	n, ok := t.(*typeir.NominalInstance)
	return ok && n.Class.KnownClass == typeir.KnownBytes
}

func isStringish(t typeir.Type) bool {
	if _, ok := t.(*typeir.StringLiteral); ok {
		return true
	}
	if typeir.Same(t, typeir.LiteralStringType) {
		return true
	}
	n, ok := t.(*typeir.NominalInstance)
	return ok && n.Class.KnownClass == typeir.KnownStr
}

// literalArith folds `int op int` at the literal level for +, -, *,
// floor-div, mod and pow, matching Python's floor semantics (not Go's
// truncating one) rather than CPython's C implementation detail. A result
// that no longer fits in int64 widens to the plain `int` instance type —
// literal tracking stops at the i64 boundary, it never wraps.
func literalArith(op ast.BinOpKind, left, right typeir.Type) (typeir.Type, bool) {
	l, lok := left.(*typeir.IntLiteral)
	r, rok := right.(*typeir.IntLiteral)
	if !lok || !rok {
		return nil, false
	}
	switch op {
	case ast.OpAdd:
		return fitOrWiden(new(big.Int).Add(big.NewInt(l.Value), big.NewInt(r.Value))), true
	case ast.OpSub:
		return fitOrWiden(new(big.Int).Sub(big.NewInt(l.Value), big.NewInt(r.Value))), true
	case ast.OpMult:
		return fitOrWiden(new(big.Int).Mul(big.NewInt(l.Value), big.NewInt(r.Value))), true
	case ast.OpFloorDiv:
		if r.Value == 0 {
			return nil, false
		}
		if l.Value == math.MinInt64 && r.Value == -1 {
			return intInstance(), true
		}
		return &typeir.IntLiteral{Value: pyFloorDiv(l.Value, r.Value)}, true
	case ast.OpMod:
		if r.Value == 0 {
			return nil, false
		}
		return &typeir.IntLiteral{Value: pyMod(l.Value, r.Value)}, true
	case ast.OpPow:
		if r.Value < 0 {
			return nil, false
		}
		return fitOrWiden(new(big.Int).Exp(big.NewInt(l.Value), big.NewInt(r.Value), nil)), true
	default:
		return nil, false
	}
}

// fitOrWiden keeps an exact result as a literal while it fits in int64 and
// widens it to the `int` instance type otherwise (spec.md §8: `10**20`
// does not overflow i64, it widens to `int`).
func fitOrWiden(n *big.Int) typeir.Type {
	if n.IsInt64() {
		return &typeir.IntLiteral{Value: n.Int64()}
	}
	return intInstance()
}

func pyFloorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func pyMod(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

// stringConcatOrRepeat applies the size-capped concatenation rule (spec.md
// §4.6, shared with inferJoinedStr's f-string handling) to literal `+`/`*`.
func stringConcatOrRepeat(op ast.BinOpKind, left, right typeir.Type) (typeir.Type, bool) {
	switch op {
	case ast.OpAdd:
		l, lok := left.(*typeir.StringLiteral)
		r, rok := right.(*typeir.StringLiteral)
		if lok && rok {
			combined := l.Value + r.Value
			if len(combined) <= stringConcatCap {
				return &typeir.StringLiteral{Value: combined}, true
			}
			return typeir.LiteralStringType, true
		}
		return nil, false
	case ast.OpMult:
		if l, ok := left.(*typeir.StringLiteral); ok {
			if n, ok := right.(*typeir.IntLiteral); ok {
				return repeatString(l.Value, n.Value), true
			}
		}
		if n, ok := left.(*typeir.IntLiteral); ok {
			if r, ok := right.(*typeir.StringLiteral); ok {
				return repeatString(r.Value, n.Value), true
			}
		}
		return nil, false
	default:
		return nil, false
	}
}

func repeatString(s string, n int64) typeir.Type {
	if n <= 0 {
		return &typeir.StringLiteral{Value: ""}
	}
	if int64(len(s))*n > stringConcatCap {
		return typeir.LiteralStringType
	}
	out := make([]byte, 0, int64(len(s))*n)
	for i := int64(0); i < n; i++ {
		out = append(out, s...)
	}
	return &typeir.StringLiteral{Value: string(out)}
}

// inferUnaryOp handles `not`, `-`, `+`, `~` on the literal/nominal atoms the
// algebra can decide without member lookup.
func (c *Checker) inferUnaryOp(v *ast.UnaryOp) typeir.Type {
	operand := c.InferExpr(v.Operand, NoContext)
	if v.Op == ast.OpNot {
		res := typeir.TryBool(operand)
		switch res.Truthiness {
		case typeir.TruthAlwaysTrue:
			return &typeir.BooleanLiteral{Value: false}
		case typeir.TruthAlwaysFalse:
			return &typeir.BooleanLiteral{Value: true}
		default:
			return boolInstance()
		}
	}
	if lit, ok := operand.(*typeir.IntLiteral); ok {
		switch v.Op {
		case ast.OpUSub:
			return &typeir.IntLiteral{Value: -lit.Value}
		case ast.OpUAdd:
			return &typeir.IntLiteral{Value: lit.Value}
		case ast.OpInvert:
			return &typeir.IntLiteral{Value: ^lit.Value}
		}
	}
	if isIntish(operand) {
		return intInstance()
	}
	if isFloatish(operand) {
		return floatInstance()
	}
	return typeir.Unknown
}

// comparison dunders, indexed like binOpTable but without in-place forms.
var cmpDunders = map[ast.CmpOpKind][2]string{
	ast.CmpLt:  {"<", "__lt__"},
	ast.CmpLtE: {"<=", "__le__"},
	ast.CmpGt:  {">", "__gt__"},
	ast.CmpGtE: {">=", "__ge__"},
	ast.CmpEq:  {"==", "__eq__"},
	ast.CmpNotEq: {"!=", "__ne__"},
}

// inferCompare implements chained rich comparison (spec.md §4.4): each
// link `a op b` of the chain is checked independently (the chain's runtime
// short-circuiting affects values, not static types), and the overall
// result is bool. An ordering comparison between operands from provably
// unordered builtin categories reports unsupported-comparison.
func (c *Checker) inferCompare(v *ast.Compare) typeir.Type {
	left := c.InferExpr(v.Left, NoContext)
	for i, comparator := range v.Comparators {
		right := c.InferExpr(comparator, NoContext)
		c.comparePair(v.Ops[i], left, right, spanOf(v))
		left = right
	}
	return boolInstance()
}

func (c *Checker) comparePair(op ast.CmpOpKind, left, right typeir.Type, span *ast.Span) {
	switch op {
	case ast.CmpIs, ast.CmpIsNot, ast.CmpIn, ast.CmpNotIn, ast.CmpEq, ast.CmpNotEq:
		// identity/membership/equality are defined for every object pair
		return
	}
	if typeir.IsDynamic(left) || typeir.IsDynamic(right) {
		return
	}
	for _, l := range typeir.UnionMembers(left) {
		for _, r := range typeir.UnionMembers(right) {
			c.compareOne(op, l, r, span)
		}
	}
}

func (c *Checker) compareOne(op ast.CmpOpKind, left, right typeir.Type, span *ast.Span) {
	if typeir.IsDynamic(left) || typeir.IsDynamic(right) {
		return
	}
	// same orderable builtin category: fine
	if (isFloatish(left) && isFloatish(right)) || (isStringish(left) && isStringish(right)) || (isBytesish(left) && isBytesish(right)) {
		return
	}
	lc, rc := classForDunder(left), classForDunder(right)
	if lc == nil || rc == nil {
		return
	}
	// same builtin container class orders elementwise (list < list, ...);
	// under-reporting the dict corner is safer than flagging valid code
	if lc == rc && lc.DefiningFile == "<builtins>" {
		return
	}
	info := cmpDunders[op]
	if _, ok := c.callDunder(lc, info[1], left, right); ok {
		return
	}
	if _, ok := c.callDunder(rc, reflectedCmp(info[1]), right, left); ok {
		return
	}
	// mismatched builtin scalar categories (int < str), or user classes
	// with no ordering dunder anywhere in their MRO
	if lc.DefiningFile == "<builtins>" && rc.DefiningFile == "<builtins>" {
		c.reportf(diagnostics.KindUnsupportedComparison, span,
			(&typeir.UnsupportedComparison{Op: info[0], Left: left, Right: right}).Error())
		return
	}
	// a user subclass of a builtin scalar inherits its ordering; don't
	// second-guess those
	if mroHasScalar(lc) || mroHasScalar(rc) {
		return
	}
	c.reportf(diagnostics.KindUnsupportedComparison, span,
		(&typeir.UnsupportedComparison{Op: info[0], Left: left, Right: right}).Error())
}

func mroHasScalar(class *typeir.ClassLiteral) bool {
	check := func(c *typeir.ClassLiteral) bool {
		switch c.KnownClass {
		case typeir.KnownInt, typeir.KnownFloat, typeir.KnownStr, typeir.KnownBytes, typeir.KnownBool:
			return true
		}
		return false
	}
	if check(class) {
		return true
	}
	for _, m := range class.DerivedMRO {
		if check(m) {
			return true
		}
	}
	return false
}

// reflectedCmp maps an ordering dunder to its mirrored partner: a < b
// falls back to b.__gt__(a).
func reflectedCmp(name string) string {
	switch name {
	case "__lt__":
		return "__gt__"
	case "__gt__":
		return "__lt__"
	case "__le__":
		return "__ge__"
	case "__ge__":
		return "__le__"
	default:
		return name
	}
}
