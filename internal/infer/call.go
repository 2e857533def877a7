package infer

import (
	"fmt"
	"strings"

	"github.com/prismafold/pytc/internal/ast"
	"github.com/prismafold/pytc/internal/classmodel"
	"github.com/prismafold/pytc/internal/diagnostics"
	"github.com/prismafold/pytc/internal/signature"
	"github.com/prismafold/pytc/internal/typeir"
)

// inferCall dispatches a call expression through internal/signature
// (spec.md §4.4): a plain function/bound-method call resolves its overload
// set, a class-object call resolves a constructor instead. Either way, a
// solved Specialization (if the chosen signature is generic) substitutes
// into the return type before it's handed back, so `list[int]()` and a
// generic function call both come back fully applied rather than leaking
// bare typevars.
func (c *Checker) inferCall(v *ast.Call, tc *TypeContext) typeir.Type {
	callee := c.InferExpr(v.Func, NoContext)

	// reveal_type short-circuits before binding: its argument's inferred
	// type IS the output, emitted as an info diagnostic.
	if fn, ok := callee.(*typeir.FunctionLiteral); ok && fn.DefSite == "<builtins>" && fn.QualName == "reveal_type" {
		return c.inferRevealType(v)
	}
	if ki, ok := callee.(*typeir.KnownInstance); ok && ki.TypeVar == nil && ki.Alias == nil {
		switch ki.Kind {
		case typeir.KnownInstanceTypeVar:
			return c.inferLegacyTypeVar(v, typeir.TypeVarLegacy)
		case typeir.KnownInstanceParamSpec:
			return c.inferLegacyTypeVar(v, typeir.TypeVarLegacyParamSpec)
		case typeir.KnownInstanceNewType:
			return c.inferNewType(v)
		}
	}
	if dd, ok := callee.(*typeir.DataclassDecorator); ok {
		return c.inferDataclassDecoratorCall(v, dd)
	}

	args := c.bindArgs(v)

	switch callee := callee.(type) {
	case *typeir.FunctionLiteral:
		return c.resolveFunctionCall(callee, args, v)
	case *typeir.BoundMethod:
		return c.resolveBoundMethodCall(callee, args, v)
	case *typeir.KnownBoundMethod:
		return c.resolveKnownMethodCall(callee, v)
	case *typeir.ClassLiteralType:
		return c.resolveConstructorCall(callee.Class, args, v)
	case *typeir.GenericAlias:
		// `list[int]()` — a specialized origin called as a constructor; the
		// instance keeps the alias's own type arguments
		c.resolveConstructorCall(callee.Class, args, v)
		return callee
	case *typeir.CallableType:
		return c.resolveSignatures(callee.Signatures, args, v)
	default:
		if typeir.IsDynamic(callee) {
			return typeir.Unknown
		}
		if u, ok := callee.(*typeir.UnionType); ok {
			return c.resolveUnionCall(u, args, v)
		}
		c.reportf(diagnostics.KindNotCallable, spanOf(v), (&typeir.NotCallable{Callee: callee}).Error())
		return typeir.Unknown
	}
}

// resolveUnionCall distributes a call over a union callee; a member that
// isn't callable makes the whole thing possibly-not-callable rather than
// definitely not.
func (c *Checker) resolveUnionCall(u *typeir.UnionType, args []signature.Argument, v *ast.Call) typeir.Type {
	parts := make([]typeir.Type, 0, len(u.Elements))
	sawUncallable := false
	for _, m := range u.Elements {
		switch m := m.(type) {
		case *typeir.FunctionLiteral:
			parts = append(parts, c.resolveFunctionCall(m, args, v))
		case *typeir.BoundMethod:
			parts = append(parts, c.resolveBoundMethodCall(m, args, v))
		case *typeir.ClassLiteralType:
			parts = append(parts, c.resolveConstructorCall(m.Class, args, v))
		default:
			if !typeir.IsDynamic(m) {
				sawUncallable = true
			}
			parts = append(parts, typeir.Unknown)
		}
	}
	if sawUncallable {
		c.reportf(diagnostics.KindPossiblyNotCallable, spanOf(v), "some members of "+u.String()+" are not callable")
	}
	return typeir.NewUnion(parts...)
}

func (c *Checker) bindArgs(v *ast.Call) []signature.Argument {
	args := make([]signature.Argument, 0, len(v.Args)+len(v.Keywords))
	for _, a := range v.Args {
		if st, ok := a.(*ast.Starred); ok {
			args = append(args, signature.Argument{Value: c.InferExpr(st.Value, NoContext), Starred: true})
			continue
		}
		args = append(args, signature.Argument{Value: c.InferExpr(a, NoContext)})
	}
	for _, kw := range v.Keywords {
		if kw.Name == "" {
			args = append(args, signature.Argument{Value: c.InferExpr(kw.Value, NoContext), DoubleStar: true})
			continue
		}
		args = append(args, signature.Argument{Name: kw.Name, Value: c.InferExpr(kw.Value, NoContext)})
	}
	return args
}

func (c *Checker) resolveFunctionCall(fn *typeir.FunctionLiteral, args []signature.Argument, v *ast.Call) typeir.Type {
	binding, err := signature.ResolveOverload(fn, args)
	if binding == nil {
		c.reportBindError(err, v)
		return typeir.Unknown
	}
	if err != nil {
		c.reportBindError(err, v)
	}
	c.checkArgumentTypes(binding, v)
	return returnTypeOf(binding)
}

// resolveBoundMethodCall strips `self` (already bound through the
// descriptor protocol) before matching the explicit arguments.
func (c *Checker) resolveBoundMethodCall(bm *typeir.BoundMethod, args []signature.Argument, v *ast.Call) typeir.Type {
	stripped := make([]*typeir.Signature, len(bm.Function.Overloads))
	for i, sig := range bm.Function.Overloads {
		stripped[i] = signature.WithoutSelf(sig)
	}
	fn := &typeir.FunctionLiteral{
		QualName:  bm.Function.QualName,
		DefSite:   bm.Function.DefSite,
		Overloads: stripped,
		IsAsync:   bm.Function.IsAsync,
	}
	return c.resolveFunctionCall(fn, args, v)
}

func (c *Checker) resolveSignatures(sigs []*typeir.Signature, args []signature.Argument, v *ast.Call) typeir.Type {
	fn := &typeir.FunctionLiteral{QualName: "<callable>", Overloads: sigs}
	return c.resolveFunctionCall(fn, args, v)
}

// checkArgumentTypes validates each bound argument against its parameter's
// annotation (spec.md §4.4 matching pass 2), reporting
// invalid-argument-type per mismatch.
func (c *Checker) checkArgumentTypes(b *signature.Binding, v *ast.Call) {
	for _, p := range b.Sig.Params {
		got, ok := b.Params[p.Name]
		if !ok || p.Annotated == nil {
			continue
		}
		if tv, isVar := p.Annotated.(*typeir.TypeVarType); isVar {
			_ = tv // typevar-annotated parameters are constrained by Solve, not checked here
			continue
		}
		if !typeir.IsAssignable(got, p.Annotated) {
			c.reportf(diagnostics.KindInvalidArgumentType, spanOf(v),
				fmt.Sprintf("argument %q: %s is not assignable to %s", p.Name, got, p.Annotated))
		}
	}
}

// resolveConstructorCall wires internal/signature's ResolveConstructor
// through the class member table populated by inferClassDef, so a
// user-defined `__init__` (or a dataclass's synthesized one) shapes the
// call; protocols are diagnosed as uninstantiable first (spec.md §4.3,
// §8 scenario 4).
func (c *Checker) resolveConstructorCall(class *typeir.ClassLiteral, args []signature.Argument, v *ast.Call) typeir.Type {
	if class.DerivedIsProtocol {
		msg := "cannot instantiate protocol class " + class.Name
		if members := classmodel.ProtocolMembers(class); len(members) > 0 {
			msg += " (structural members: " + strings.Join(members, ", ") + ")"
		}
		c.reportf(diagnostics.KindInvalidProtocol, spanOf(v), msg)
		return signature.InstanceOf(class)
	}
	if class.Deprecated != "" {
		c.reportf(diagnostics.KindDeprecated, spanOf(v), class.Name+" is deprecated: "+class.Deprecated)
	}
	sig, result, _ := signature.ResolveConstructor(class, classMember)
	b, err := signature.Bind(sig, args)
	if err != nil {
		c.reportBindError(err, v)
		return result
	}
	c.checkArgumentTypes(b, v)
	if sig.Generic != nil {
		spec := signature.Solve(b)
		return signature.Substitute(result, spec)
	}
	return result
}

func returnTypeOf(b *signature.Binding) typeir.Type {
	ret := b.Sig.Return
	if ret == nil {
		ret = typeir.Unknown
	}
	if b.Sig.Generic != nil {
		spec := signature.Solve(b)
		return signature.Substitute(ret, spec)
	}
	return ret
}

func (c *Checker) reportBindError(err error, v *ast.Call) {
	if err == nil {
		return
	}
	switch err.(type) {
	case *signature.MissingRequiredArguments:
		c.reportf(diagnostics.KindMissingArgument, spanOf(v), err.Error())
	case *signature.TooManyPositionalArguments:
		c.reportf(diagnostics.KindTooManyPositionalArguments, spanOf(v), err.Error())
	case *signature.DuplicateKeywordArgument:
		c.reportf(diagnostics.KindParameterAlreadyAssigned, spanOf(v), err.Error())
	case *signature.UnknownKeywordArgument:
		c.reportf(diagnostics.KindUnknownArgument, spanOf(v), err.Error())
	case *signature.NoMatchingOverload:
		c.reportf(diagnostics.KindNoMatchingOverload, spanOf(v), err.Error())
	default:
		c.reportf(diagnostics.KindUnknownArgument, spanOf(v), err.Error())
	}
}

// inferRevealType emits the revealed-type info diagnostic for
// `reveal_type(expr)` and passes the argument's type through unchanged.
func (c *Checker) inferRevealType(v *ast.Call) typeir.Type {
	if len(v.Args) != 1 {
		c.reportf(diagnostics.KindUndefinedReveal, spanOf(v), "reveal_type expects exactly one argument")
		return typeir.Unknown
	}
	t := c.InferExpr(v.Args[0], NoContext)
	c.Sink.Report(diagnostics.NewInfo(diagnostics.KindRevealedType, fmt.Sprintf("Revealed type is %q", t.String()), spanOf(v)))
	return t
}

// resolveKnownMethodCall dispatches the hand-modeled bound methods
// (spec.md §4.4 "known classes ... extends to their methods"); today these
// are the TypedDict dict-method specializations of §8 scenario 6.
func (c *Checker) resolveKnownMethodCall(m *typeir.KnownBoundMethod, v *ast.Call) typeir.Type {
	td, _ := m.Self.(*typeir.TypedDictType)
	switch m.Kind {
	case typeir.KnownMethodTypedDictPop:
		return c.typedDictPop(td, v)
	case typeir.KnownMethodTypedDictGet:
		return c.typedDictGet(td, v)
	case typeir.KnownMethodTypedDictSetdefault:
		return c.typedDictGet(td, v)
	default:
		for _, a := range v.Args {
			c.InferExpr(a, NoContext)
		}
		return typeir.Unknown
	}
}

func (c *Checker) typedDictKeyArg(td *typeir.TypedDictType, v *ast.Call) (typeir.Field, bool) {
	if td == nil || len(v.Args) == 0 {
		return typeir.Field{}, false
	}
	key := c.InferExpr(v.Args[0], NoContext)
	lit, ok := key.(*typeir.StringLiteral)
	if !ok {
		c.reportf(diagnostics.KindInvalidKey, spanOf(v), "TypedDict key must be a string literal")
		return typeir.Field{}, false
	}
	f, ok := lookupField(td.Class, lit.Value)
	if !ok {
		c.reportf(diagnostics.KindInvalidKey, spanOf(v), "TypedDict "+td.Class.Name+" has no key "+lit.Value)
		return typeir.Field{}, false
	}
	return f, true
}

// typedDictPop rejects popping a required key — removing it would falsify
// the TypedDict's own type (spec.md §8 scenario 6).
func (c *Checker) typedDictPop(td *typeir.TypedDictType, v *ast.Call) typeir.Type {
	f, ok := c.typedDictKeyArg(td, v)
	if !ok {
		return typeir.Unknown
	}
	if !f.NotRequired {
		c.reportf(diagnostics.KindInvalidKey, spanOf(v), "cannot pop required TypedDict key "+f.Name)
	}
	for _, a := range v.Args[1:] {
		c.InferExpr(a, NoContext)
	}
	return substituteField(f, nil)
}

func (c *Checker) typedDictGet(td *typeir.TypedDictType, v *ast.Call) typeir.Type {
	f, ok := c.typedDictKeyArg(td, v)
	if !ok {
		return typeir.Unknown
	}
	var dflt typeir.Type = noneInstance()
	if len(v.Args) > 1 {
		dflt = c.InferExpr(v.Args[1], NoContext)
	}
	return typeir.NewUnion(substituteField(f, nil), dflt)
}

// inferLegacyTypeVar recognizes `TypeVar("T", ...)` / `ParamSpec("P", ...)`
// syntactically (spec.md §4.4 "legacy typevar construction"): the first
// positional argument must be a string literal (the assignment-target match
// is checked by inferAssign, which sees both sides), bound= and constraints
// are mutually exclusive, constraints number at least two, and the variance
// keywords may not conflict.
func (c *Checker) inferLegacyTypeVar(v *ast.Call, kind typeir.TypeVarKind) typeir.Type {
	badKind := diagnostics.KindInvalidLegacyTypeVariable
	if kind == typeir.TypeVarLegacyParamSpec {
		badKind = diagnostics.KindInvalidParamSpec
	}

	if len(v.Args) == 0 {
		c.reportf(badKind, spanOf(v), "the first argument must be the variable's name as a string literal")
		return typeir.Unknown
	}
	nameLit, ok := v.Args[0].(*ast.Constant)
	if !ok || nameLit.Kind != ast.ConstString {
		c.reportf(badKind, spanOf(v), "the first argument must be the variable's name as a string literal")
		return typeir.Unknown
	}

	tv := &typeir.TypeVarType{Name: nameLit.Str, DefSite: c.Module.Path, Kind: kind}

	// constraints: second-and-later positional arguments
	for _, a := range v.Args[1:] {
		if kind == typeir.TypeVarLegacyParamSpec {
			c.reportf(badKind, spanOf(v), "ParamSpec does not accept constraints")
			break
		}
		c.pushMode(ModeTypeExpression)
		tv.Constraints = append(tv.Constraints, c.evalTypeExpr(a))
		c.popMode()
	}

	covariant, contravariant, inferVariance := false, false, false
	for _, kw := range v.Keywords {
		switch kw.Name {
		case "bound":
			c.pushMode(ModeTypeExpression)
			tv.Bound = c.evalTypeExpr(kw.Value)
			c.popMode()
		case "default":
			c.pushMode(ModeTypeExpression)
			tv.Default = c.evalTypeExpr(kw.Value)
			c.popMode()
		case "covariant":
			covariant = boolKeyword(kw.Value)
		case "contravariant":
			contravariant = boolKeyword(kw.Value)
		case "infer_variance":
			inferVariance = boolKeyword(kw.Value)
		default:
			c.reportf(badKind, spanOf(v), "unknown keyword argument "+kw.Name)
		}
	}
	switch {
	case covariant && contravariant:
		c.reportf(badKind, spanOf(v), "a TypeVar cannot be both covariant and contravariant")
	case covariant:
		tv.Variance = typeir.Covariant
	case contravariant:
		tv.Variance = typeir.Contravariant
	case inferVariance:
		tv.Variance = typeir.VarianceInferred
	}

	if err := signature.ValidateTypeVarConstruction(tv.Bound != nil, tv.Constraints); err != nil {
		c.reportf(diagnostics.KindInvalidTypeVarConstraints, spanOf(v), err.Error())
		tv.Constraints = nil
	}

	instKind := typeir.KnownInstanceTypeVar
	if kind == typeir.TypeVarLegacyParamSpec {
		instKind = typeir.KnownInstanceParamSpec
	}
	return &typeir.KnownInstance{Kind: instKind, TypeVar: tv}
}

func boolKeyword(e ast.Expr) bool {
	cst, ok := e.(*ast.Constant)
	return ok && cst.Kind == ast.ConstBool && cst.Bool
}

// inferNewType recognizes `NewType("X", Base)`: the result is the nominal
// wrapper's constructor, a one-argument callable producing the distinct
// NewTypeInstance (spec.md §4.4).
func (c *Checker) inferNewType(v *ast.Call) typeir.Type {
	if len(v.Args) != 2 {
		c.reportf(diagnostics.KindInvalidNewType, spanOf(v), "NewType expects a name and a base type")
		return typeir.Unknown
	}
	nameLit, ok := v.Args[0].(*ast.Constant)
	if !ok || nameLit.Kind != ast.ConstString {
		c.reportf(diagnostics.KindInvalidNewType, spanOf(v), "the first argument to NewType must be a string literal")
		return typeir.Unknown
	}
	c.pushMode(ModeTypeExpression)
	base := c.evalTypeExpr(v.Args[1])
	c.popMode()

	inst := &typeir.NewTypeInstance{Name: nameLit.Str, Base: base}
	return &typeir.FunctionLiteral{
		QualName: nameLit.Str,
		DefSite:  "<newtype>",
		Overloads: []*typeir.Signature{{
			Params: []typeir.Parameter{{Name: "value", Kind: typeir.ParamPositionalOnly, Annotated: base}},
			Return: inst,
		}},
	}
}

// inferDataclassDecoratorCall evaluates `dataclass(frozen=True, ...)`: the
// result is a decorator carrying the parsed parameters, consumed by
// inferClassDef when it appears above a class.
func (c *Checker) inferDataclassDecoratorCall(v *ast.Call, base *typeir.DataclassDecorator) typeir.Type {
	params := base.Params
	for _, kw := range v.Keywords {
		val := boolKeyword(kw.Value)
		switch kw.Name {
		case "init":
			params.Init = val
		case "eq":
			params.Eq = val
		case "order":
			params.Order = val
		case "frozen":
			params.Frozen = val
		case "kw_only":
			params.KWOnly = val
		}
	}
	return &typeir.DataclassDecorator{Params: params}
}

// inferLambda treats parameters as Unknown (no call-site context flows into
// a bare lambda literal's own inference) and infers the body in that scope;
// CallableType carries the resulting shape for whatever consumes the
// lambda's value, commonly a higher-order call's argument position.
func (c *Checker) inferLambda(v *ast.Lambda) typeir.Type {
	params := make([]typeir.Parameter, len(v.Params.Params))
	for i, p := range v.Params.Params {
		params[i] = typeir.Parameter{Name: p.Name, Kind: typeir.ParamKind(p.Kind), Annotated: typeir.Unknown, HasDefault: p.Default != nil}
	}
	ret := c.InferExpr(v.Body, NoContext)
	return &typeir.CallableType{Signatures: []*typeir.Signature{{Params: params, Return: ret}}, Kind: typeir.CallableFunctionLike}
}

// inferAwait unwraps a coroutine's result; without a modeled Coroutine/
// Awaitable generic wrapper this driver treats the awaited expression's
// static type as already being the delivered value, which holds for every
// construction the spec wires (plain async-def calls) and is the same
// simplification spec.md's Non-goals make for the broader async model.
func (c *Checker) inferAwait(v *ast.Await) typeir.Type {
	return c.InferExpr(v.Value, NoContext)
}

func spanOf(n ast.Node) *ast.Span {
	s := n.Pos()
	return &s
}
