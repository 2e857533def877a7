package classmodel

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prismafold/pytc/internal/typeir"
	"github.com/stretchr/testify/require"
)

func cls(name string) *typeir.ClassLiteral { return &typeir.ClassLiteral{Name: name, DefiningFile: "t.py"} }

func names(mro []*typeir.ClassLiteral) []string {
	out := make([]string, len(mro))
	for i, c := range mro {
		out[i] = c.Name
	}
	return out
}

func TestLinearizeMroDiamond(t *testing.T) {
	object := cls("object")
	a := cls("A")
	b := cls("B")
	c := cls("C")
	d := cls("D")

	require.NoError(t, LinearizeMRO(object, nil, object))
	require.NoError(t, LinearizeMRO(a, []*typeir.ClassLiteral{object}, object))
	require.NoError(t, LinearizeMRO(b, []*typeir.ClassLiteral{a}, object))
	require.NoError(t, LinearizeMRO(c, []*typeir.ClassLiteral{a}, object))
	require.NoError(t, LinearizeMRO(d, []*typeir.ClassLiteral{b, c}, object))

	require.Equal(t, []string{"D", "B", "C", "A", "object"}, names(d.DerivedMRO))
}

// TestLinearizeMroSharedBaseMixins checks a diamond of two mixins sharing
// one Base with cmp.Diff rather than require.Equal, so a future
// regression's failure message shows the exact MRO divergence instead of
// just "not equal".
func TestLinearizeMroSharedBaseMixins(t *testing.T) {
	object := cls("object")
	base := cls("Base")
	mixinA := cls("MixinA")
	mixinB := cls("MixinB")
	leaf := cls("Leaf")

	require.NoError(t, LinearizeMRO(object, nil, object))
	require.NoError(t, LinearizeMRO(base, []*typeir.ClassLiteral{object}, object))
	require.NoError(t, LinearizeMRO(mixinA, []*typeir.ClassLiteral{base}, object))
	require.NoError(t, LinearizeMRO(mixinB, []*typeir.ClassLiteral{base}, object))
	require.NoError(t, LinearizeMRO(leaf, []*typeir.ClassLiteral{mixinA, mixinB}, object))

	want := []string{"Leaf", "MixinA", "MixinB", "Base", "object"}
	if diff := cmp.Diff(want, names(leaf.DerivedMRO)); diff != "" {
		t.Errorf("MRO mismatch (-want +got):\n%s", diff)
	}
}

func TestLinearizeMroInconsistentOrderFails(t *testing.T) {
	object := cls("object")
	x := cls("X")
	y := cls("Y")
	z := cls("Z")

	require.NoError(t, LinearizeMRO(object, nil, object))
	require.NoError(t, LinearizeMRO(x, []*typeir.ClassLiteral{object}, object))
	require.NoError(t, LinearizeMRO(y, []*typeir.ClassLiteral{object}, object))
	x.DerivedMRO = []*typeir.ClassLiteral{x, y, object}
	y.DerivedMRO = []*typeir.ClassLiteral{y, x, object}

	err := LinearizeMRO(z, []*typeir.ClassLiteral{x, y}, object)
	require.Error(t, err)
	require.IsType(t, &UnresolvableMro{}, err)
}

func TestDuplicateBasesRejected(t *testing.T) {
	object := cls("object")
	a := cls("A")
	err := LinearizeMRO(cls("B"), []*typeir.ClassLiteral{a, a}, object)
	require.Error(t, err)
	require.IsType(t, &DuplicateBases{}, err)
}
