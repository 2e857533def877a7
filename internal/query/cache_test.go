package query

import (
	"testing"

	"github.com/prismafold/pytc/internal/typeir"
	"github.com/stretchr/testify/require"
)

func TestComputeMemoizes(t *testing.T) {
	c := NewCache(MultiPanic)
	calls := 0
	compute := func() (typeir.Type, error) {
		calls++
		return typeir.Unknown, nil
	}
	k := Key{Kind: QueryExpressionInference, Node: 1}
	v1, err := c.Compute(k, typeir.Never, compute)
	require.NoError(t, err)
	v2, err := c.Compute(k, typeir.Never, compute)
	require.NoError(t, err)
	require.True(t, typeir.Same(v1, v2))
	require.Equal(t, 1, calls)
}

func TestComputeReentrantReturnsFallback(t *testing.T) {
	c := NewCache(MultiPanic)
	k := Key{Kind: QueryExpressionInference, Node: 7}
	var got typeir.Type
	_, err := c.Compute(k, typeir.Never, func() (typeir.Type, error) {
		v, _ := c.Compute(k, typeir.Never, func() (typeir.Type, error) {
			t.Fatal("should not re-enter compute during an active cycle")
			return nil, nil
		})
		got = v
		return typeir.AnyType, nil
	})
	require.NoError(t, err)
	require.True(t, typeir.Same(got, typeir.Never))
}

func TestMultiIntersectIntersectsDistinctAnswers(t *testing.T) {
	c := NewCache(MultiIntersect)
	k := Key{Kind: QueryScopeInference, Node: 3}
	hk := k.hashKey()
	c.entries[hk] = &entry{state: stateActive}
	v1, err := c.settle(hk, typeir.LiteralStringType)
	require.NoError(t, err)
	require.True(t, typeir.Same(v1, typeir.LiteralStringType))

	v2, err := c.settle(hk, typeir.AnyType)
	require.NoError(t, err)
	i, ok := v2.(*typeir.IntersectionType)
	require.True(t, ok, "got %T: %s", v2, v2)
	require.Len(t, i.Positive, 2)
	require.Empty(t, i.Negative)
}

func TestMultiPanicReturnsErrorOnDistinctAnswers(t *testing.T) {
	c := NewCache(MultiPanic)
	k := Key{Kind: QueryScopeInference, Node: 4}
	hk := k.hashKey()
	c.entries[hk] = &entry{state: stateActive}
	_, err := c.settle(hk, typeir.LiteralStringType)
	require.NoError(t, err)
	_, err = c.settle(hk, typeir.AnyType)
	require.Error(t, err)
}

func TestPoolInternsByKey(t *testing.T) {
	p := NewPool()
	a := p.Union(typeir.Unknown, typeir.Never)
	b := p.Union(typeir.Unknown, typeir.Never)
	require.True(t, typeir.Same(a, b))
}
