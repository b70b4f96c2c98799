package pager

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCapacityForWindow(t *testing.T) {
	tests := []struct {
		window int64
		want   int
	}{
		{1, 5},
		{3, 9},
		{10, 23},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, capacityForWindow(tt.window))
	}
}

func TestPageCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := newPageCache[int](capacityForWindow(1))
	require.NoError(t, err)

	for k := int64(0); k < 5; k++ {
		c.add(k, []int{int(k)})
	}
	require.Equal(t, 5, c.len())

	// Touch page 0 so page 1 becomes the eviction victim.
	_, ok := c.get(0)
	require.True(t, ok)

	c.add(5, []int{5})
	require.Equal(t, 5, c.len())
	require.True(t, c.contains(0))
	require.False(t, c.contains(1))
	require.True(t, c.contains(5))
}

func TestPageCacheResizeKeepsEntries(t *testing.T) {
	c, err := newPageCache[int](capacityForWindow(1))
	require.NoError(t, err)

	for k := int64(0); k < 5; k++ {
		c.add(k, []int{int(k)})
	}
	c.resize(capacityForWindow(2))
	for k := int64(0); k < 5; k++ {
		require.True(t, c.contains(k))
	}

	c.add(5, []int{5})
	c.add(6, []int{6})
	require.Equal(t, 7, c.len())
}

func TestPageCacheOverwriteIsIdempotent(t *testing.T) {
	c, err := newPageCache[int](capacityForWindow(1))
	require.NoError(t, err)

	c.add(1, []int{1, 2})
	c.add(1, []int{1, 2})
	require.Equal(t, 1, c.len())

	got, ok := c.get(1)
	require.True(t, ok)
	require.Equal(t, []int{1, 2}, got)

	_, ok = c.get(-1)
	require.False(t, ok)
}
