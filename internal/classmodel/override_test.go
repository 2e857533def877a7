package classmodel

import (
	"testing"

	"github.com/prismafold/pytc/internal/typeir"
	"github.com/stretchr/testify/require"
)

func method(qual string, params []typeir.Parameter, ret typeir.Type) *typeir.FunctionLiteral {
	return &typeir.FunctionLiteral{QualName: qual, DefSite: "t.py", Overloads: []*typeir.Signature{{Params: params, Return: ret}}}
}

func selfParam() typeir.Parameter {
	return typeir.Parameter{Name: "self", Kind: typeir.ParamPositionalOrKeyword, Annotated: typeir.Unknown}
}

func TestCheckOverridesFlagsCovariantParamNarrowing(t *testing.T) {
	object := &typeir.ClassLiteral{Name: "object", DefiningFile: "<builtins>", KnownClass: typeir.KnownObject}
	intC := &typeir.ClassLiteral{Name: "int", DefiningFile: "<builtins>", KnownClass: typeir.KnownInt}
	boolC := &typeir.ClassLiteral{Name: "bool", DefiningFile: "<builtins>", KnownClass: typeir.KnownBool}
	intC.DerivedMRO = []*typeir.ClassLiteral{intC, object}
	boolC.DerivedMRO = []*typeir.ClassLiteral{boolC, intC, object}
	intT := typeir.Type(&typeir.NominalInstance{Class: intC})
	boolT := typeir.Type(&typeir.NominalInstance{Class: boolC})

	base := &typeir.ClassLiteral{Name: "Base", DefiningFile: "t.py"}
	base.DerivedMembers = []typeir.Member{{Name: "f", Value: method("Base.f", []typeir.Parameter{selfParam(), {Name: "x", Kind: typeir.ParamPositionalOrKeyword, Annotated: intT}}, intT)}}
	base.DerivedMRO = []*typeir.ClassLiteral{base, object}

	sub := &typeir.ClassLiteral{Name: "Sub", DefiningFile: "t.py"}
	// narrowing the parameter from int to bool violates contravariance
	sub.DerivedMembers = []typeir.Member{{Name: "f", Value: method("Sub.f", []typeir.Parameter{selfParam(), {Name: "x", Kind: typeir.ParamPositionalOrKeyword, Annotated: boolT}}, intT)}}
	sub.DerivedMRO = []*typeir.ClassLiteral{sub, base, object}

	errs := CheckOverrides(sub)
	require.Len(t, errs, 1)
	require.IsType(t, &IncompatibleOverride{}, errs[0])
}

func TestCheckOverridesAcceptsCompatibleOverride(t *testing.T) {
	object := &typeir.ClassLiteral{Name: "object", DefiningFile: "<builtins>", KnownClass: typeir.KnownObject}
	intC := &typeir.ClassLiteral{Name: "int", DefiningFile: "<builtins>", KnownClass: typeir.KnownInt}
	boolC := &typeir.ClassLiteral{Name: "bool", DefiningFile: "<builtins>", KnownClass: typeir.KnownBool}
	intC.DerivedMRO = []*typeir.ClassLiteral{intC, object}
	boolC.DerivedMRO = []*typeir.ClassLiteral{boolC, intC, object}
	intT := typeir.Type(&typeir.NominalInstance{Class: intC})
	boolT := typeir.Type(&typeir.NominalInstance{Class: boolC})

	base := &typeir.ClassLiteral{Name: "Base", DefiningFile: "t.py"}
	base.DerivedMembers = []typeir.Member{{Name: "f", Value: method("Base.f", []typeir.Parameter{selfParam(), {Name: "x", Kind: typeir.ParamPositionalOrKeyword, Annotated: intT}}, intT)}}
	base.DerivedMRO = []*typeir.ClassLiteral{base, object}

	sub := &typeir.ClassLiteral{Name: "Sub", DefiningFile: "t.py"}
	// covariant return (int -> bool) with unchanged params is fine
	sub.DerivedMembers = []typeir.Member{{Name: "f", Value: method("Sub.f", []typeir.Parameter{selfParam(), {Name: "x", Kind: typeir.ParamPositionalOrKeyword, Annotated: intT}}, boolT)}}
	sub.DerivedMRO = []*typeir.ClassLiteral{sub, base, object}

	require.Empty(t, CheckOverrides(sub))
}

func TestCheckOverridesFlagsFinalMethodOverride(t *testing.T) {
	object := &typeir.ClassLiteral{Name: "object", DefiningFile: "<builtins>", KnownClass: typeir.KnownObject}
	base := &typeir.ClassLiteral{Name: "Base", DefiningFile: "t.py"}
	sealed := method("Base.f", []typeir.Parameter{selfParam()}, nil)
	sealed.IsFinal = true
	base.DerivedMembers = []typeir.Member{{Name: "f", Value: sealed}}
	base.DerivedMRO = []*typeir.ClassLiteral{base, object}

	sub := &typeir.ClassLiteral{Name: "Sub", DefiningFile: "t.py"}
	sub.DerivedMembers = []typeir.Member{{Name: "f", Value: method("Sub.f", []typeir.Parameter{selfParam()}, nil)}}
	sub.DerivedMRO = []*typeir.ClassLiteral{sub, base, object}

	errs := CheckOverrides(sub)
	require.Len(t, errs, 1)
	require.IsType(t, &OverrideOfFinal{}, errs[0])
}

func TestCheckOverridesFlagsOverrideWithoutBase(t *testing.T) {
	object := &typeir.ClassLiteral{Name: "object", DefiningFile: "<builtins>", KnownClass: typeir.KnownObject}
	sub := &typeir.ClassLiteral{Name: "Sub", DefiningFile: "t.py"}
	marked := method("Sub.f", []typeir.Parameter{selfParam()}, nil)
	marked.IsOverride = true
	sub.DerivedMembers = []typeir.Member{{Name: "f", Value: marked}}
	sub.DerivedMRO = []*typeir.ClassLiteral{sub, object}

	errs := CheckOverrides(sub)
	require.Len(t, errs, 1)
	require.IsType(t, &OverrideWithoutBase{}, errs[0])
}
