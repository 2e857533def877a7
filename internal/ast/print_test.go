package ast_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/prismafold/pytc/internal/ast"
)

func TestPrintIsStableAcrossIdentity(t *testing.T) {
	mk := func(id ast.NodeID) *ast.BinOp {
		return &ast.BinOp{
			Base: ast.Base{NodeID: id},
			Left: &ast.Name{Base: ast.Base{NodeID: id + 1}, Id: "x"},
			Op:   ast.OpAdd,
			Right: &ast.Constant{
				Base: ast.Base{NodeID: id + 2},
				Kind: ast.ConstInt,
				Int:  1,
			},
		}
	}

	a := ast.Print(mk(10))
	b := ast.Print(mk(999))
	require.Equal(t, a, b, "printed form must not depend on node identity")
}

func TestPrintRoundTripsStructure(t *testing.T) {
	n := &ast.Tuple{Elts: []ast.Expr{
		&ast.Name{Id: "a"},
		&ast.Name{Id: "b"},
	}}
	got := ast.Compact(n)
	if diff := cmp.Diff(`{"Elts":[{"Id":"a","node":"Name"},{"Id":"b","node":"Name"}],"node":"Tuple"}`, got); diff != "" {
		t.Fatalf("unexpected print (-want +got):\n%s", diff)
	}
}
