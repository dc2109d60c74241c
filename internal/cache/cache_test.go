package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

type view struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestKey(t *testing.T) {
	assert.Equal(t, "page:sess-1:country=Greece", Key(KindPage, "sess-1", "country=Greece"))
	assert.Equal(t, "detail:-:navagio", Key(KindDetail, "", "navagio"))
}

func TestGetSet(t *testing.T) {
	c := newTestCache(t)

	var got view
	hit, err := c.Get("page:-:x", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set("page:-:x", view{Name: "a", Count: 2}))

	hit, err = c.Get("page:-:x", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, view{Name: "a", Count: 2}, got)
}

func TestGetOrLoad(t *testing.T) {
	c := newTestCache(t)
	calls := 0
	load := func() (view, error) {
		calls++
		return view{Name: "loaded", Count: calls}, nil
	}

	first, err := GetOrLoad(c, KindPage, "page:-:q", load)
	require.NoError(t, err)
	second, err := GetOrLoad(c, KindPage, "page:-:q", load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestGetOrLoad_ErrorNotCached(t *testing.T) {
	c := newTestCache(t)
	boom := errors.New("boom")

	_, err := GetOrLoad(c, KindPage, "page:-:q", func() (view, error) { return view{}, boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())
}

func TestGetOrLoad_NilCache(t *testing.T) {
	calls := 0
	for i := 0; i < 2; i++ {
		_, err := GetOrLoad[view](nil, KindPage, "k", func() (view, error) {
			calls++
			return view{}, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

func TestInvalidateSession(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.Set(Key(KindPage, "sess-1", "a"), view{}))
	require.NoError(t, c.Set(Key(KindPage, "sess-1", "b"), view{}))
	require.NoError(t, c.Set(Key(KindDetail, "sess-1", "navagio"), view{}))
	require.NoError(t, c.Set(Key(KindPage, "sess-10", "a"), view{}))
	require.NoError(t, c.Set(Key(KindPage, "", "a"), view{}))

	require.NoError(t, c.InvalidateSession("sess-1"))

	var v view
	for _, k := range []string{Key(KindPage, "sess-1", "a"), Key(KindPage, "sess-1", "b"), Key(KindDetail, "sess-1", "navagio")} {
		hit, err := c.Get(k, &v)
		require.NoError(t, err)
		assert.False(t, hit, k)
	}
	for _, k := range []string{Key(KindPage, "sess-10", "a"), Key(KindPage, "", "a")} {
		hit, err := c.Get(k, &v)
		require.NoError(t, err)
		assert.True(t, hit, k)
	}
}

func TestGetOrLoad_InvalidatedDuringLoadNotCached(t *testing.T) {
	c := newTestCache(t)
	key := Key(KindPage, "sess-1", "country=Greece")

	got, err := GetOrLoad(c, KindPage, key, func() (view, error) {
		// A toggle lands while the page is being hydrated.
		require.NoError(t, c.InvalidateSession("sess-1"))
		return view{Name: "before toggle"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "before toggle", got.Name)

	var v view
	hit, err := c.Get(key, &v)
	require.NoError(t, err)
	assert.False(t, hit)

	calls := 0
	got, err = GetOrLoad(c, KindPage, key, func() (view, error) {
		calls++
		return view{Name: "after toggle"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "after toggle", got.Name)
	assert.Equal(t, 1, calls)

	hit, err = c.Get(key, &v)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "after toggle", v.Name)
}

func TestRunGC(t *testing.T) {
	assert.Zero(t, newTestCache(t).RunGC())

	c, err := Open(Options{Path: t.TempDir()})
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Set("page:-:x", view{Name: "a"}))
	assert.GreaterOrEqual(t, c.RunGC(), 0)
}
