package dtree

import (
	"testing"

	"github.com/prismafold/pytc/internal/ast"
	"github.com/stretchr/testify/require"
)

func TestCompileValuePatternsBuildsSwitch(t *testing.T) {
	trueVal := &ast.Constant{Kind: ast.ConstBool, Bool: true}
	falseVal := &ast.Constant{Kind: ast.ConstBool, Bool: false}
	cases := []ast.MatchCase{
		{Pattern: &ast.ValuePattern{Value: trueVal}},
		{Pattern: &ast.ValuePattern{Value: falseVal}},
	}

	tree := NewCompiler(cases).Compile()
	sw, ok := tree.(*SwitchNode)
	require.True(t, ok, "expected a SwitchNode, got %T", tree)
	require.Len(t, sw.Cases, 2)
}

func TestCompileWildcardIsLeaf(t *testing.T) {
	cases := []ast.MatchCase{{Pattern: &ast.WildcardPattern{}}}
	tree := NewCompiler(cases).Compile()
	leaf, ok := tree.(*LeafNode)
	require.True(t, ok, "expected a LeafNode, got %T", tree)
	require.Equal(t, 0, leaf.CaseIndex)
}

func TestCompileClassPatternSpecializesArgs(t *testing.T) {
	cases := []ast.MatchCase{
		{Pattern: &ast.ClassPattern{
			Cls:        &ast.Name{Id: "Point"},
			Positional: []ast.Pattern{&ast.CapturePattern{Name: "x"}, &ast.CapturePattern{Name: "y"}},
		}},
		{Pattern: &ast.WildcardPattern{}},
	}
	tree := NewCompiler(cases).Compile()
	sw, ok := tree.(*SwitchNode)
	require.True(t, ok, "expected a SwitchNode, got %T", tree)
	require.Len(t, sw.Cases, 1)
	require.NotNil(t, sw.Default)
}

func TestCanCompileToTree(t *testing.T) {
	require.False(t, CanCompileToTree([]ast.MatchCase{{Pattern: &ast.WildcardPattern{}}}))
	require.True(t, CanCompileToTree([]ast.MatchCase{
		{Pattern: &ast.ValuePattern{Value: &ast.Constant{}}},
		{Pattern: &ast.ClassPattern{Cls: &ast.Name{Id: "Foo"}}},
	}))
}
