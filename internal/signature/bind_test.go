package signature

import (
	"testing"

	"github.com/prismafold/pytc/internal/typeir"
	"github.com/stretchr/testify/require"
)

func sig(params ...typeir.Parameter) *typeir.Signature {
	return &typeir.Signature{Params: params}
}

func TestBindPositionalAndKeyword(t *testing.T) {
	s := sig(
		typeir.Parameter{Name: "a", Kind: typeir.ParamPositionalOrKeyword},
		typeir.Parameter{Name: "b", Kind: typeir.ParamPositionalOrKeyword, HasDefault: true},
	)
	b, err := Bind(s, []Argument{{Value: typeir.Unknown}, {Name: "b", Value: typeir.AnyType}})
	require.NoError(t, err)
	require.Contains(t, b.Params, "a")
	require.Contains(t, b.Params, "b")
}

func TestBindMissingRequired(t *testing.T) {
	s := sig(typeir.Parameter{Name: "a", Kind: typeir.ParamPositionalOrKeyword})
	_, err := Bind(s, nil)
	require.Error(t, err)
	require.IsType(t, &MissingRequiredArguments{}, err)
}

func TestBindUnknownKeyword(t *testing.T) {
	s := sig(typeir.Parameter{Name: "a", Kind: typeir.ParamPositionalOrKeyword, HasDefault: true})
	_, err := Bind(s, []Argument{{Name: "z", Value: typeir.Unknown}})
	require.Error(t, err)
	require.IsType(t, &UnknownKeywordArgument{}, err)
}

func TestResolveOverloadPicksFirstMatch(t *testing.T) {
	fn := &typeir.FunctionLiteral{
		QualName: "f",
		Overloads: []*typeir.Signature{
			sig(typeir.Parameter{Name: "a", Kind: typeir.ParamPositionalOrKeyword}),
			sig(typeir.Parameter{Name: "a", Kind: typeir.ParamPositionalOrKeyword}, typeir.Parameter{Name: "b", Kind: typeir.ParamPositionalOrKeyword}),
		},
	}
	b, err := ResolveOverload(fn, []Argument{{Value: typeir.Unknown}})
	require.NoError(t, err)
	require.Same(t, fn.Overloads[0], b.Sig)
}
