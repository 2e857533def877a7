package infer

import (
	"github.com/prismafold/pytc/internal/ast"
	"github.com/prismafold/pytc/internal/builtinscope"
	"github.com/prismafold/pytc/internal/classmodel"
	"github.com/prismafold/pytc/internal/cycle"
	"github.com/prismafold/pytc/internal/diagnostics"
	"github.com/prismafold/pytc/internal/places"
	"github.com/prismafold/pytc/internal/query"
	"github.com/prismafold/pytc/internal/typeir"
)

// CheckModule runs whole-module scope inference (the scope_inference query
// of spec.md §4.2), memoized so repeated requests for the same module
// observe one coherent pass: the source-order body walk, the module-level
// overload-run validation, and the deferred-annotation pass for
// future-annotations/stub modules.
func (c *Checker) CheckModule() {
	key := query.Key{Kind: query.QueryScopeInference, Node: c.Module.ID()}
	c.Cache.Compute(key, typeir.Unknown, func() (typeir.Type, error) {
		c.InferBody(c.Module.Body)
		c.validateOverloadRuns(c.Module.Body)
		c.inferDeferredAnnotations()
		return typeir.Never, nil
	})
}

// InferBody walks a statement list in source order (spec.md §4.6
// "definition & scope inference driver"), the direct-recursion entry point
// a module's top-level body, a function body, or a class body all share.
func (c *Checker) InferBody(stmts []ast.Stmt) {
	for _, s := range stmts {
		c.InferStmt(s)
	}
}

// InferStmt dispatches one statement. Unlike InferExpr, statement
// inference isn't memoized through c.Cache: statements aren't referenced
// by more than one place in the AST, so there is nothing for memoization
// to share — only the expression and scope/definition queries benefit from
// the query cache's re-entrancy handling.
func (c *Checker) InferStmt(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.ExprStmt:
		c.InferExpr(v.Value, NoContext)
	case *ast.Assign:
		c.inferAssign(v)
	case *ast.AnnAssign:
		c.inferAnnAssign(v)
	case *ast.AugAssign:
		c.inferAugAssign(v)
	case *ast.ReturnStmt:
		c.inferReturn(v)
	case *ast.PassStmt, *ast.BreakStmt, *ast.ContinueStmt:
		// no sub-expressions
	case *ast.RaiseStmt:
		if v.Exc != nil {
			c.InferExpr(v.Exc, NoContext)
		}
		if v.Cause != nil {
			c.InferExpr(v.Cause, NoContext)
		}
	case *ast.AssertStmt:
		test := c.InferExpr(v.Test, NoContext)
		typeir.TryBool(test)
		if v.Msg != nil {
			c.InferExpr(v.Msg, NoContext)
		}
	case *ast.DeleteStmt:
		for _, t := range v.Targets {
			c.InferExpr(t, NoContext)
		}
	case *ast.GlobalStmt, *ast.NonlocalStmt:
		// no sub-expressions; the redirect itself rides on the bindings'
		// IsGlobal/IsNonlocal flags the semantic index records, which
		// places.Resolve consults (spec.md §4.5 steps 2-3)
	case *ast.ImportStmt, *ast.ImportFromStmt:
		// module-level bindings; module-type synthesis is out of scope for
		// this core (spec.md Non-goals: no import-graph resolution)
	case *ast.IfStmt:
		c.InferExpr(v.Test, NoContext)
		c.InferBody(v.Body)
		c.InferBody(v.OrElse)
	case *ast.WhileStmt:
		c.InferExpr(v.Test, NoContext)
		c.InferBody(v.Body)
		c.InferBody(v.OrElse)
	case *ast.ForStmt:
		iter := c.InferExpr(v.Iter, NoContext)
		elem, ok := iterationElement(iter)
		if !ok {
			c.reportf(diagnostics.KindNotIterable, spanOf(v), (&typeir.NotIterable{Operand: iter}).Error())
		}
		c.assignTarget(v.Target, elem)
		c.InferBody(v.Body)
		c.InferBody(v.OrElse)
	case *ast.WithStmt:
		for _, item := range v.Items {
			ctxType := c.InferExpr(item.ContextExpr, NoContext)
			c.checkContextManager(ctxType, item.ContextExpr)
			if item.OptionalVar != nil {
				c.assignTarget(item.OptionalVar, c.enterResult(ctxType))
			}
		}
		c.InferBody(v.Body)
	case *ast.TryStmt:
		c.InferBody(v.Body)
		for _, h := range v.Handlers {
			if h.Type != nil {
				caught := c.InferExpr(h.Type, NoContext)
				c.checkExceptionType(caught, h.Type)
			}
			c.InferBody(h.Body)
		}
		c.InferBody(v.OrElse)
		c.InferBody(v.Finally)
	case *ast.MatchStmt:
		c.inferMatchStmt(v)
	case *ast.FunctionDef:
		c.InferDefinition(v)
	case *ast.ClassDef:
		c.InferDefinition(v)
	case *ast.TypeAliasStmt:
		c.inferTypeAliasStmt(v)
	}
}

func (c *Checker) inferReturn(v *ast.ReturnStmt) {
	rc := c.currentRet()
	var got typeir.Type
	if v.Value != nil {
		tc := NoContext
		if rc != nil && rc.declared != nil {
			tc = &TypeContext{Expected: rc.declared}
		}
		got = c.InferExpr(v.Value, tc)
	} else {
		got = noneInstance()
	}
	if rc == nil {
		return
	}
	rc.sawReturn = true
	if rc.declared != nil && !rc.sawYield && !typeir.IsAssignable(got, rc.declared) {
		c.reportf(diagnostics.KindInvalidReturnType, spanOf(v),
			got.String()+" is not assignable to the declared return type "+rc.declared.String())
	}
}

// enterResult is what a with-item's `as` target binds to: the declared
// return of the receiver's `__enter__`, or Unknown for unmodeled
// receivers.
func (c *Checker) enterResult(t typeir.Type) typeir.Type {
	class, _ := classAndSpecOf(t)
	if class == nil {
		return typeir.Unknown
	}
	if enter, _, ok := typeir.LookupClassMember(class, "__enter__"); ok {
		if fn, ok := enter.(*typeir.FunctionLiteral); ok && len(fn.Overloads) > 0 && fn.Overloads[0].Return != nil {
			return fn.Overloads[0].Return
		}
	}
	return typeir.Unknown
}

// checkContextManager enforces the with-statement enter/exit protocol
// (spec.md §4.6) for receivers whose member tables the checker actually
// models; unmodeled builtins stay silent, the gradual default.
func (c *Checker) checkContextManager(t typeir.Type, at ast.Expr) {
	if typeir.IsDynamic(t) {
		return
	}
	class, _ := classAndSpecOf(t)
	if class == nil || class.DefiningFile == "<builtins>" || class.DerivedMRO == nil {
		return
	}
	_, _, hasEnter := typeir.LookupClassMember(class, "__enter__")
	_, _, hasExit := typeir.LookupClassMember(class, "__exit__")
	if !hasEnter || !hasExit {
		c.reportf(diagnostics.KindInvalidContextManager, spanOf(at), class.Name+" does not implement __enter__ and __exit__")
	}
}

// checkExceptionType validates an except-clause type: a BaseException
// subclass, a tuple of them, or dynamic (spec.md §7 "invalid exception
// caught").
func (c *Checker) checkExceptionType(t typeir.Type, at ast.Expr) {
	if typeir.IsDynamic(t) {
		return
	}
	if members := typeir.UnionMembers(t); len(members) > 1 {
		for _, m := range members {
			c.checkExceptionType(m, at)
		}
		return
	}
	if ga, ok := t.(*typeir.GenericAlias); ok && ga.Class.KnownClass == typeir.KnownTuple {
		for _, a := range ga.Specialization.Args {
			if a != nil {
				c.checkExceptionType(a, at)
			}
		}
		return
	}
	if clt, ok := t.(*typeir.ClassLiteralType); ok {
		base := builtinscope.Classes[typeir.KnownBaseException]
		if clt.Class == base || classHasAncestor(clt.Class, base) {
			return
		}
	}
	c.reportf(diagnostics.KindInvalidExceptionCaught, spanOf(at), t.String()+" is not a BaseException subclass")
}

func (c *Checker) inferAssign(v *ast.Assign) {
	val := c.InferExpr(v.Value, NoContext)
	if len(v.Targets) == 1 {
		if nm, ok := v.Targets[0].(*ast.Name); ok {
			c.checkTypingFactoryName(nm, val, v)
		}
	}
	for _, t := range v.Targets {
		c.assignTarget(t, val)
	}
}

// checkTypingFactoryName enforces the name-match rule for legacy
// `X = TypeVar("X")` / `P = ParamSpec("P")` / `N = NewType("N", ...)`
// constructions (spec.md §4.4: "the name in the call must equal the
// assignment target").
func (c *Checker) checkTypingFactoryName(target *ast.Name, val typeir.Type, v *ast.Assign) {
	switch k := val.(type) {
	case *typeir.KnownInstance:
		if k.TypeVar == nil || k.TypeVar.Name == target.Id {
			return
		}
		kind := diagnostics.KindInvalidLegacyTypeVariable
		if k.Kind == typeir.KnownInstanceParamSpec {
			kind = diagnostics.KindInvalidParamSpec
		}
		c.reportf(kind, spanOf(v), "the name given to the variable ("+k.TypeVar.Name+") must match the name it is assigned to ("+target.Id+")")
	case *typeir.FunctionLiteral:
		if k.DefSite == "<newtype>" && k.QualName != target.Id {
			c.reportf(diagnostics.KindInvalidNewType, spanOf(v), "the name given to NewType ("+k.QualName+") must match the name it is assigned to ("+target.Id+")")
		}
	}
}

// assignTarget infers a target expression against the assigned value's
// type: attribute and subscript stores get their dedicated validators
// (spec.md §4.6 "attribute and subscript assignment"), unpacking recurses
// elementwise, and a bare name's binding type is the place/narrowing
// layer's concern, not this method's.
func (c *Checker) assignTarget(t ast.Expr, val typeir.Type) {
	switch v := t.(type) {
	case *ast.Tuple:
		elems := typeir.UnionMembers(val)
		for i, elt := range v.Elts {
			var et typeir.Type = typeir.Unknown
			if ga, ok := val.(*typeir.GenericAlias); ok && ga.Class.KnownClass == typeir.KnownTuple && i < len(ga.Specialization.Args) {
				et = ga.Specialization.Args[i]
			} else if len(elems) == 1 {
				et = elems[0]
			}
			c.assignTarget(elt, et)
		}
	case *ast.List:
		for _, elt := range v.Elts {
			c.assignTarget(elt, typeir.Unknown)
		}
	case *ast.Starred:
		c.assignTarget(v.Value, val)
	case *ast.Attribute:
		c.assignAttribute(v, val)
	case *ast.Subscript:
		c.assignSubscript(v, val)
	case *ast.Name:
		c.inferStoreName(v, val)
	default:
		c.InferExpr(t, &TypeContext{Expected: val})
	}
}

// inferStoreName records a store-context name's type without running the
// load algorithm: a binding target is not a use, so resolving it through
// places would wrongly demand a reaching definition for the name being
// defined (spec.md §4.5 distinguishes bindings from uses throughout).
func (c *Checker) inferStoreName(n *ast.Name, val typeir.Type) {
	key := query.Key{Kind: query.QueryExpressionInference, Node: n.ID()}
	c.Cache.Compute(key, val, func() (typeir.Type, error) { return val, nil })
}

func (c *Checker) inferAnnAssign(v *ast.AnnAssign) {
	declared := c.inferAnnotation(v.Annotation)
	if v.Value != nil {
		valType := c.InferExpr(v.Value, &TypeContext{Expected: declared})
		if !typeir.IsAssignable(valType, declared) {
			c.reportf(diagnostics.KindInvalidAssignment, spanOf(v), "incompatible assignment: "+valType.String()+" is not assignable to "+declared.String())
		}
	}
	c.assignTarget(v.Target, declared)
}

// inferAugAssign follows spec.md §4.6's augmented-assignment order: the
// in-place dunder first, then the ordinary binary operator assigned back.
func (c *Checker) inferAugAssign(v *ast.AugAssign) {
	left := c.InferExpr(v.Target, NoContext)
	right := c.InferExpr(v.Value, NoContext)
	c.assignTarget(v.Target, c.augOpPair(v.Op, left, right, spanOf(v)))
}

// InferDefinition is the definition-inference query's entry point (spec.md
// §4.2/§4.6): memoized the same way InferExpr is, so a function or class
// body is only walked once per module regardless of how many name uses
// resolve to its binding (place resolution's typeOfBinding is one caller;
// InferStmt's direct walk in source order is the other).
func (c *Checker) InferDefinition(s ast.Stmt) typeir.Type {
	if v, ok := s.(*ast.TypeAliasStmt); ok {
		return c.inferTypeAliasDef(v)
	}
	key := query.Key{Kind: query.QueryDefinitionInference, Node: s.ID()}
	result, err := c.Cache.Compute(key, &typeir.Divergent{Origin: "definition"}, func() (typeir.Type, error) {
		switch v := s.(type) {
		case *ast.FunctionDef:
			return c.inferFunctionDef(v), nil
		case *ast.ClassDef:
			return &typeir.ClassLiteralType{Class: c.inferClassDef(v)}, nil
		default:
			return typeir.Unknown, nil
		}
	})
	if err != nil {
		return typeir.Unknown
	}
	return result
}

// inferFunctionDef builds the callable's Signature from its source
// parameter list, applies decorator flags, and recurses into the body with
// a return-collection frame on the stack (spec.md §4.6 "control
// flow-sensitive returns").
func (c *Checker) inferFunctionDef(v *ast.FunctionDef) *typeir.FunctionLiteral {
	params := make([]typeir.Parameter, len(v.Params.Params))
	for i, p := range v.Params.Params {
		annotated := typeir.Unknown
		if p.Annotation != nil {
			annotated = c.inferAnnotation(p.Annotation)
		}
		params[i] = typeir.Parameter{Name: p.Name, Kind: typeir.ParamKind(p.Kind), Annotated: annotated, HasDefault: p.Default != nil}
		if p.Default != nil {
			defType := c.InferExpr(p.Default, &TypeContext{Expected: annotated})
			if p.Annotation != nil && !typeir.IsAssignable(defType, annotated) {
				c.reportf(diagnostics.KindInvalidAssignment, spanOf(v), "default for parameter "+p.Name+" is not assignable to its annotation")
			}
		}
	}
	var ret typeir.Type
	if v.Returns != nil {
		ret = c.inferAnnotation(v.Returns)
	}
	var gc *typeir.GenericContext
	if len(v.TypeParams) > 0 {
		vars := make([]*typeir.TypeVarType, len(v.TypeParams))
		for i, tp := range v.TypeParams {
			vars[i] = &typeir.TypeVarType{Name: tp.Name, DefSite: v.Name, Kind: typeir.TypeVarPEP695}
		}
		gc = &typeir.GenericContext{BindingSite: v.Name, Vars: vars}
	}
	sig := &typeir.Signature{Params: params, Return: ret, Generic: gc}
	fn := &typeir.FunctionLiteral{QualName: v.Name, DefSite: c.Module.Path, Overloads: []*typeir.Signature{sig}, IsAsync: v.IsAsync}
	applyFunctionDecorators(fn, v.Decorators)

	rc := &returnCtx{declared: ret}
	c.retStack = append(c.retStack, rc)
	c.InferBody(v.Body)
	c.retStack = c.retStack[:len(c.retStack)-1]
	fn.IsGenerator = rc.sawYield

	c.checkImplicitReturn(v, fn, rc)
	return fn
}

func applyFunctionDecorators(fn *typeir.FunctionLiteral, decs []ast.Decorator) {
	for _, d := range decs {
		switch decoratorName(d) {
		case "overload":
			fn.IsOverloadDecl = true
		case "abstractmethod":
			fn.IsAbstract = true
		case "staticmethod":
			fn.IsStatic = true
		case "classmethod":
			fn.IsClassMethod = true
		case "property", "cached_property":
			fn.IsProperty = true
		case "final":
			fn.IsFinal = true
		case "override":
			fn.IsOverride = true
		case "deprecated":
			fn.Deprecated = "deprecated"
		}
	}
}

// checkImplicitReturn applies the fall-off-the-end rule (spec.md §4.6): if
// the body can complete without returning, None must be assignable to the
// declared return type — unless the body is a stub and the function is
// abstract, overloaded, in a stub file, or inside a protocol.
func (c *Checker) checkImplicitReturn(v *ast.FunctionDef, fn *typeir.FunctionLiteral, rc *returnCtx) {
	if rc.declared == nil || rc.sawYield {
		return
	}
	if !bodyFallsOff(v.Body) {
		return
	}
	if typeir.IsAssignable(noneInstance(), rc.declared) {
		return
	}
	if bodyIsStubOnly(v.Body) && (fn.IsAbstract || fn.IsOverloadDecl || c.Module.IsStub || c.inProtocolClass()) {
		return
	}
	c.reportf(diagnostics.KindInvalidReturnType, spanOf(v),
		"function can implicitly return None, which is not assignable to "+rc.declared.String())
}

// bodyFallsOff approximates whether control can reach the end of a
// statement list: a trailing return or raise stops it, a fully-covered
// if/else stops it when both arms do. Loop and try termination analysis
// belongs to the semantic index's reachability predicates, which this
// module-local approximation deliberately doesn't duplicate.
func bodyFallsOff(stmts []ast.Stmt) bool {
	if len(stmts) == 0 {
		return true
	}
	switch s := stmts[len(stmts)-1].(type) {
	case *ast.ReturnStmt, *ast.RaiseStmt:
		return false
	case *ast.IfStmt:
		if len(s.OrElse) == 0 {
			return true
		}
		return bodyFallsOff(s.Body) || bodyFallsOff(s.OrElse)
	default:
		return true
	}
}

// bodyIsStubOnly reports a `...`/`pass`/docstring-only body.
func bodyIsStubOnly(stmts []ast.Stmt) bool {
	for _, s := range stmts {
		switch v := s.(type) {
		case *ast.PassStmt:
		case *ast.ExprStmt:
			cst, ok := v.Value.(*ast.Constant)
			if !ok || (cst.Kind != ast.ConstEllipsis && cst.Kind != ast.ConstString) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// validateOverloadRuns checks module-level `@overload` runs for a final
// non-overloaded implementation (spec.md §8 scenario 5); class bodies do
// the equivalent inline during member collection.
func (c *Checker) validateOverloadRuns(stmts []ast.Stmt) {
	var runName string
	var runSpan *ast.Span
	runOpen, runAbstract := false, false

	flush := func() {
		if runOpen && !(c.Module.IsStub || runAbstract) {
			c.reportf(diagnostics.KindInvalidOverload, runSpan,
				"overloaded function "+runName+" requires a final non-@overload implementation")
		}
		runName, runOpen, runAbstract = "", false, false
	}

	for _, s := range stmts {
		fd, ok := s.(*ast.FunctionDef)
		if !ok {
			flush()
			continue
		}
		if fd.Name != runName {
			flush()
		}
		if hasDecoratorNamed(fd, "overload") {
			if !runOpen {
				runName, runSpan = fd.Name, spanOf(fd)
			}
			runOpen = true
			runAbstract = runAbstract || hasDecoratorNamed(fd, "abstractmethod")
			continue
		}
		if fd.Name == runName {
			// the implementation closes the run cleanly
			runName, runOpen, runAbstract = "", false, false
		}
	}
	flush()
}

func hasDecoratorNamed(fd *ast.FunctionDef, name string) bool {
	for _, d := range fd.Decorators {
		if decoratorName(d) == name {
			return true
		}
	}
	return false
}

// inferDeferredAnnotations is the deferred-definition query (spec.md §4.2,
// §4.5 "deferred evaluation"): under future-annotations or stub semantics,
// once the module walk has finished, it evaluates the return annotation of
// each module-level function again and records it under
// QueryDeferredDefinitionInference so hover/completion clients share the
// result. The annotation is evaluated as during the walk (evalTypeExpr), so
// only string annotations, which resolveStringAnnotation resolves, see
// end-of-scope bindings; parameter, variable, class-body and
// nested-function annotations are not part of this pass.
func (c *Checker) inferDeferredAnnotations() {
	if places.ShouldDefer(c.Module.FutureAnnotations, c.Module.IsStub, false) == places.NotDeferred {
		return
	}
	for _, s := range c.Module.Body {
		fd, ok := s.(*ast.FunctionDef)
		if !ok {
			continue
		}
		key := query.Key{Kind: query.QueryDeferredDefinitionInference, Node: fd.ID()}
		c.Cache.Compute(key, typeir.Unknown, func() (typeir.Type, error) {
			if fd.Returns != nil {
				return c.inferAnnotation(fd.Returns), nil
			}
			return typeir.Unknown, nil
		})
	}
}

// inferClassDef resolves bases, MRO, metaclass, protocol membership,
// member tables and synthesized fields for a class body (spec.md
// §4.2/§4.3), then recurses into the class body for its own statements'
// diagnostics and runs override checking against the finished MRO.
func (c *Checker) inferClassDef(v *ast.ClassDef) *typeir.ClassLiteral {
	class := &typeir.ClassLiteral{Name: v.Name, DefiningFile: c.Module.Path, Keywords: v.Keywords}
	if len(v.TypeParams) > 0 {
		vars := make([]*typeir.TypeVarType, len(v.TypeParams))
		for i, tp := range v.TypeParams {
			vars[i] = &typeir.TypeVarType{Name: tp.Name, DefSite: v.Name, Kind: typeir.TypeVarPEP695}
		}
		class.Generic = &typeir.GenericContext{BindingSite: v.Name, Vars: vars}
	}
	c.applyClassDecorators(class, v.Decorators)

	// Partition base expressions: Protocol/Generic are markers handled
	// here, not classes the C3 merge should see (spec.md §4.3 "bases").
	var baseExprs []ast.Expr
	isProtocol := false
	for _, b := range v.Bases {
		switch c.specialBaseKind(b) {
		case specialBaseProtocol:
			isProtocol = true
			if class.Generic != nil && isSubscriptExpr(b) {
				c.reportf(diagnostics.KindInvalidBase, spanOf(v), "class "+v.Name+" uses PEP 695 type parameters and also subscripts Protocol[...]")
			}
		case specialBaseGenericBare:
			c.reportf(diagnostics.KindInvalidBase, spanOf(v), "Generic must be subscripted, e.g. Generic[T]")
		case specialBaseGenericSubscripted:
			if class.Generic != nil {
				c.reportf(diagnostics.KindInvalidBase, spanOf(v), (&classmodel.Pep695ClassWithGenericInheritance{Class: class}).Error())
			}
		default:
			baseExprs = append(baseExprs, b)
		}
	}
	class.BaseExprs = baseExprs

	eval := func(e ast.Expr) (typeir.Type, error) { return c.InferExpr(e, NoContext), nil }
	bases, err := classmodel.ResolveBases(class, eval)
	if err != nil {
		c.reportf(diagnostics.KindInvalidBase, spanOf(v), err.Error())
		bases = nil
	}
	class.DerivedBases = bases

	for _, b := range bases {
		if b.IsFinalClass {
			c.reportf(diagnostics.KindSubclassOfFinal, spanOf(v), "class "+v.Name+" subclasses final class "+b.Name)
		}
		switch b.KnownClass {
		case typeir.KnownTypedDict:
			class.Dataclass = &typeir.DataclassParams{Kind: typeir.DataclassTypedDict, Init: true}
		case typeir.KnownNamedTuple:
			class.Dataclass = &typeir.DataclassParams{Kind: typeir.DataclassNamedTuple, Init: true}
		}
	}
	if isProtocol {
		if err := classmodel.MarkProtocol(class); err != nil {
			c.reportf(diagnostics.KindInvalidProtocol, spanOf(v), err.Error())
		}
	}

	if err := classmodel.LinearizeMRO(class, bases, builtinscope.Object()); err != nil {
		switch err.(type) {
		case *classmodel.DuplicateBases:
			c.reportf(diagnostics.KindDuplicateBase, spanOf(v), err.Error())
		case *classmodel.UnresolvableMro:
			c.reportf(diagnostics.KindUnresolvableMRO, spanOf(v), err.Error())
		default:
			c.reportf(diagnostics.KindInheritanceCycle, spanOf(v), err.Error())
		}
	}
	explicitMeta := c.metaclassKeyword(v)
	if err := classmodel.ResolveMetaclass(class, explicitMeta, builtinscope.TypeClass()); err != nil {
		c.reportf(diagnostics.KindConflictingMetaclass, spanOf(v), err.Error())
	}

	c.classStack = append(c.classStack, class)
	c.collectClassBody(class, v)
	c.classStack = c.classStack[:len(c.classStack)-1]

	for _, oerr := range classmodel.CheckOverrides(class) {
		c.reportf(diagnostics.KindInvalidOverride, spanOf(v), oerr.Error())
	}
	return class
}

type specialBase int

const (
	specialBaseNone specialBase = iota
	specialBaseProtocol
	specialBaseGenericBare
	specialBaseGenericSubscripted
)

// specialBaseKind recognizes Protocol / Protocol[...] / Generic /
// Generic[...] base expressions syntactically, via the pre-bound special
// forms (spec.md §4.3 "bases" rejection rules).
func (c *Checker) specialBaseKind(b ast.Expr) specialBase {
	name, subscripted := "", false
	switch e := b.(type) {
	case *ast.Name:
		name = e.Id
	case *ast.Subscript:
		if nm, ok := e.Value.(*ast.Name); ok {
			name, subscripted = nm.Id, true
		}
	}
	sf, ok := specialFormOf(name)
	if !ok {
		return specialBaseNone
	}
	switch sf.Kind {
	case typeir.FormProtocol:
		return specialBaseProtocol
	case typeir.FormGeneric:
		if subscripted {
			return specialBaseGenericSubscripted
		}
		return specialBaseGenericBare
	default:
		return specialBaseNone
	}
}

func isSubscriptExpr(e ast.Expr) bool {
	_, ok := e.(*ast.Subscript)
	return ok
}

func (c *Checker) applyClassDecorators(class *typeir.ClassLiteral, decs []ast.Decorator) {
	for _, d := range decs {
		switch decoratorName(d) {
		case "final":
			class.IsFinalClass = true
			continue
		case "type_check_only":
			class.IsTypeCheckOnly = true
			continue
		case "runtime_checkable":
			continue
		}
		switch t := c.InferExpr(d.Expr, NoContext).(type) {
		case *typeir.DataclassDecorator:
			params := t.Params
			params.Kind = typeir.DataclassPlain
			class.Dataclass = &params
		case *typeir.DataclassTransformer:
			params := t.Params
			params.Kind = typeir.DataclassPlain
			class.Dataclass = &params
		}
	}
}

func (c *Checker) metaclassKeyword(v *ast.ClassDef) *typeir.ClassLiteral {
	for _, kw := range v.Keywords {
		if kw.Name != "metaclass" {
			continue
		}
		t := c.InferExpr(kw.Value, NoContext)
		if typeir.IsDynamic(t) {
			return nil
		}
		if clt, ok := t.(*typeir.ClassLiteralType); ok {
			return clt.Class
		}
		c.reportf(diagnostics.KindInvalidMetaclass, spanOf(v), "metaclass of "+v.Name+" is not a class: "+t.String())
		return nil
	}
	return nil
}

// collectClassBody walks a class body once for its member table and field
// map: annotated assignments become fields (with ClassVar/Final/InitVar/
// Required/NotRequired/ReadOnly qualifiers and the KW_ONLY sentinel),
// plain assignments become class attributes (enum members on an Enum
// subclass), and defs become methods — with @overload runs merged into one
// overloaded FunctionLiteral and @property getter/setter pairs folded into
// a PropertyInstance (spec.md §4.3).
func (c *Checker) collectClassBody(class *typeir.ClassLiteral, v *ast.ClassDef) {
	isEnum := classIsEnum(class)
	total := true
	for _, kw := range v.Keywords {
		if kw.Name == "total" && !boolKeyword(kw.Value) {
			total = false
		}
	}

	var ownFields []typeir.Field
	kwOnlyActive := false

	var pendingName string
	var pendingSpan *ast.Span
	var pendingSigs []*typeir.Signature
	pendingAbstract := false
	flushPending := func() {
		if pendingName == "" {
			return
		}
		if !(c.Module.IsStub || class.DerivedIsProtocol || pendingAbstract) {
			c.reportf(diagnostics.KindInvalidOverload, pendingSpan,
				"overloaded method "+class.Name+"."+pendingName+" requires a final non-@overload implementation")
		}
		c.addClassMember(class, pendingName, &typeir.FunctionLiteral{
			QualName: class.Name + "." + pendingName, DefSite: c.Module.Path,
			Overloads: pendingSigs, IsOverloadDecl: true, IsAbstract: pendingAbstract,
		})
		pendingName, pendingSigs, pendingAbstract = "", nil, false
	}

	for _, stmt := range v.Body {
		switch s := stmt.(type) {
		case *ast.AnnAssign:
			name, ok := s.Target.(*ast.Name)
			if !ok {
				continue
			}
			if nm, isName := s.Annotation.(*ast.Name); isName && nm.Id == "KW_ONLY" {
				ownFields = append(ownFields, typeir.Field{Name: ""})
				kwOnlyActive = true
				continue
			}
			f := c.fieldFromAnnAssign(name.Id, s, total)
			f.KeywordOnly = f.KeywordOnly || kwOnlyActive
			ownFields = append(ownFields, f)
		case *ast.Assign:
			if len(s.Targets) != 1 {
				continue
			}
			name, ok := s.Targets[0].(*ast.Name)
			if !ok {
				continue
			}
			if isEnum {
				c.addClassMember(class, name.Id, &typeir.EnumLiteral{Class: class, Member: name.Id})
				continue
			}
			c.addClassMember(class, name.Id, c.InferExpr(s.Value, NoContext))
		case *ast.FunctionDef:
			fnType := c.InferDefinition(s)
			fn, ok := fnType.(*typeir.FunctionLiteral)
			if !ok {
				continue
			}
			if propName, isSetter := setterDecoratorOf(s); isSetter {
				flushPending()
				c.attachPropertySetter(class, propName, fn)
				continue
			}
			if fn.IsProperty {
				flushPending()
				c.addClassMember(class, s.Name, &typeir.PropertyInstance{Getter: fn.Overloads[0]})
				continue
			}
			if fn.IsOverloadDecl {
				if pendingName != "" && pendingName != s.Name {
					flushPending()
				}
				if pendingName == "" {
					pendingName, pendingSpan = s.Name, spanOf(s)
				}
				pendingSigs = append(pendingSigs, fn.Overloads...)
				pendingAbstract = pendingAbstract || fn.IsAbstract
				continue
			}
			if pendingName == s.Name {
				merged := &typeir.FunctionLiteral{
					QualName: fn.QualName, DefSite: fn.DefSite,
					Overloads: append(pendingSigs, fn.Overloads...),
					IsAsync:   fn.IsAsync, IsAbstract: fn.IsAbstract,
					IsStatic: fn.IsStatic, IsClassMethod: fn.IsClassMethod,
					IsFinal: fn.IsFinal, IsOverride: fn.IsOverride,
				}
				pendingName, pendingSigs, pendingAbstract = "", nil, false
				c.addClassMember(class, s.Name, merged)
				continue
			}
			flushPending()
			c.addClassMember(class, s.Name, fn)
		}
	}
	flushPending()

	if err := classmodel.SynthesizeFields(class, ownFields, class.DerivedBases); err != nil {
		switch err.(type) {
		case *classmodel.MultipleKWOnlySentinels:
			c.reportf(diagnostics.KindDuplicateKWOnly, spanOf(v), err.Error())
		case *classmodel.InvalidNamedTupleField, *classmodel.NonDefaultFieldAfterDefault:
			c.reportf(diagnostics.KindInvalidNamedTuple, spanOf(v), err.Error())
		default:
			c.reportf(diagnostics.KindInvalidAssignment, spanOf(v), err.Error())
		}
	}

	c.InferBody(v.Body)
}

func (c *Checker) addClassMember(class *typeir.ClassLiteral, name string, value typeir.Type) {
	for i, m := range class.DerivedMembers {
		if m.Name == name {
			class.DerivedMembers[i].Value = value
			return
		}
	}
	class.DerivedMembers = append(class.DerivedMembers, typeir.Member{Name: name, Value: value})
}

func (c *Checker) attachPropertySetter(class *typeir.ClassLiteral, propName string, setter *typeir.FunctionLiteral) {
	for i, m := range class.DerivedMembers {
		if m.Name != propName {
			continue
		}
		if prop, ok := m.Value.(*typeir.PropertyInstance); ok {
			class.DerivedMembers[i].Value = &typeir.PropertyInstance{Getter: prop.Getter, Setter: setter.Overloads[0]}
			return
		}
	}
	// setter with no preceding @property getter: keep it visible as a
	// write-only property so attribute stores still bind
	c.addClassMember(class, propName, &typeir.PropertyInstance{Setter: setter.Overloads[0]})
}

func setterDecoratorOf(fd *ast.FunctionDef) (string, bool) {
	for _, d := range fd.Decorators {
		if name, ok := isPropertySetterDecorator(d); ok {
			return name, true
		}
	}
	return "", false
}

// fieldFromAnnAssign unwraps the qualifier layers an annotated class-body
// field may carry (spec.md §3 "declared type (with qualifiers such as
// Final, ClassVar, InitVar)"; §4.3 TypedDict required-ness).
func (c *Checker) fieldFromAnnAssign(name string, s *ast.AnnAssign, total bool) typeir.Field {
	f := typeir.Field{Name: name, HasDefault: s.Value != nil, NotRequired: !total}
	expr := s.Annotation
	for {
		sub, ok := expr.(*ast.Subscript)
		if !ok {
			break
		}
		nm, ok := sub.Value.(*ast.Name)
		if !ok {
			break
		}
		matched := true
		switch nm.Id {
		case "ClassVar":
			f.ClassVar = true
		case "Final":
			f.Final = true
		case "InitVar":
			f.InitVar = true
		case "Required":
			f.NotRequired = false
		case "NotRequired":
			f.NotRequired = true
		case "ReadOnly":
			f.ReadOnly = true
		default:
			matched = false
		}
		if !matched {
			break
		}
		expr = sub.Index
	}
	f.Declared = c.inferAnnotation(expr)
	return f
}

func (c *Checker) inferTypeAliasStmt(v *ast.TypeAliasStmt) {
	c.inferTypeAliasDef(v)
}

// inferTypeAliasDef builds the TypeAlias value a `type X = ...` statement's
// name binds to (spec.md §4.2, §9): the alias object itself is the query's
// re-entrant fallback, so a reference to X inside its own right-hand side
// (`type JSON = int | str | list[JSON]`) resolves to the same alias pointer
// rather than looping the cache — identical in shape to how recursive class
// bases bottom out through ClassLiteral.Computing, just via the cache's own
// active-state short-circuit instead of a dedicated guard.
func (c *Checker) inferTypeAliasDef(v *ast.TypeAliasStmt) *typeir.TypeAlias {
	alias := &typeir.TypeAlias{Name: v.Name, DefSite: c.Module.Path}
	if len(v.TypeParams) > 0 {
		vars := make([]*typeir.TypeVarType, len(v.TypeParams))
		for i, tp := range v.TypeParams {
			vars[i] = &typeir.TypeVarType{Name: tp.Name, DefSite: v.Name, Kind: typeir.TypeVarPEP695}
		}
		alias.Generic = &typeir.GenericContext{BindingSite: v.Name, Vars: vars}
	}
	key := query.Key{Kind: query.QueryDefinitionInference, Node: v.ID()}
	result, err := c.Cache.Compute(key, alias, func() (typeir.Type, error) {
		// Drive the expansion to a bounded fixpoint (spec.md §4.2: "the
		// driver re-runs from the entry until results stabilize by set
		// equality, bounded by a small constant"): a self-referential
		// right-hand side resolves to the unfinished alias pointer on the
		// first pass, and the second pass confirms the expansion stopped
		// changing. Non-convergence forces Divergent rather than looping.
		results := cycle.Run(cycle.Region[string]{
			Keys: []string{v.Name},
			Step: func(map[string]typeir.Type) map[string]typeir.Type {
				alias.SetExpanding(true)
				c.pushMode(ModeTypeExpression)
				alias.Expansion = c.evalTypeExpr(v.Value)
				c.popMode()
				alias.SetExpanding(false)
				return map[string]typeir.Type{v.Name: alias.Expansion}
			},
		}, v.Name)
		alias.Expansion = results[v.Name]
		return alias, nil
	})
	if err != nil {
		return alias
	}
	if a, ok := result.(*typeir.TypeAlias); ok {
		return a
	}
	return alias
}
