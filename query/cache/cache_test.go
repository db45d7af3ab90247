package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[[]string](2, 0)
	c.Set(Key("columns", "a"), []string{"id"}, 0)
	c.Set(Key("columns", "b"), []string{"id"}, 0)

	_, ok := c.Get(Key("columns", "a"))
	require.True(t, ok)

	c.Set(Key("columns", "c"), []string{"id"}, 0)

	_, ok = c.Get(Key("columns", "b"))
	assert.False(t, ok)
	_, ok = c.Get(Key("columns", "a"))
	assert.True(t, ok)

	s := c.Stats()
	assert.Equal(t, 2, s.Size)
	assert.Equal(t, int64(1), s.Evictions)
	assert.Equal(t, int64(2), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New[string](4, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("version", "8.0.36", 0)
	c.Set("forever", "x", -1)

	now = now.Add(2 * time.Minute)
	_, ok := c.Get("version")
	assert.False(t, ok)
	v, ok := c.Get("forever")
	assert.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestGetOrLoad(t *testing.T) {
	c := New[int](4, 0)
	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}

	for range 3 {
		v, err := c.GetOrLoad("k", load)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, err := c.GetOrLoad("other", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	_, ok := c.Get("other")
	assert.False(t, ok)
}

func TestInvalidatePattern(t *testing.T) {
	c := New[string](8, 0)
	c.Set(Key("columns", "a"), "", 0)
	c.Set(Key("columns", "b"), "", 0)
	c.Set(Key("version"), "", 0)

	c.InvalidatePattern("columns:*")
	assert.Equal(t, 1, c.Stats().Size)

	c.Invalidate("version")
	assert.Equal(t, 0, c.Stats().Size)

	c.Set("x", "", 0)
	c.Clear()
	assert.Equal(t, Stats{MaxSize: 8}, c.Stats())
}
