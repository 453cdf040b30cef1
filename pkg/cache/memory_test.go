package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string            `json:"name"`
	Items map[string]string `json:"items"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(WithMemoryCleanup(0))
	defer c.Close()

	in := sample{Name: "tickers", Items: map[string]string{"AAPL": "0000320193"}}
	require.NoError(t, c.Set(ctx, "k", in, time.Minute))

	var out sample
	require.NoError(t, c.Get(ctx, "k", &out))
	assert.Equal(t, in, out)

	var raw []byte
	require.NoError(t, c.Get(ctx, "k", &raw))
	assert.Contains(t, string(raw), "0000320193")

	err := c.Get(ctx, "missing", &out)
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(WithMemoryCleanup(0))
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", 1, time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	var v int
	assert.ErrorIs(t, c.Get(ctx, "k", &v), ErrCacheMiss)
	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheEvictsLRU(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryCleanup(0))
	defer c.Close()

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	time.Sleep(time.Millisecond)
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
	time.Sleep(time.Millisecond)
	var v int
	require.NoError(t, c.Get(ctx, "a", &v))
	require.NoError(t, c.Set(ctx, "c", 3, time.Minute))

	assert.Equal(t, 2, c.Len())
	assert.ErrorIs(t, c.Get(ctx, "b", &v), ErrCacheMiss)
	require.NoError(t, c.Get(ctx, "a", &v))
	assert.Equal(t, 1, v)
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(WithMemoryCleanup(0))
	defer c.Close()

	require.NoError(t, c.Set(ctx, GenerateKeyWithParams("prices", "AAPL"), 1, 0))
	require.NoError(t, c.Set(ctx, GenerateKeyWithParams("prices", "MSFT"), 1, 0))
	require.NoError(t, c.Set(ctx, "tickers", 1, 0))
	require.NoError(t, c.DeleteByPattern(ctx, BuildPattern("prices:")))

	assert.Equal(t, 1, c.Len())
}

func TestMemoryCacheTryLock(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(WithMemoryCleanup(0))
	defer c.Close()

	ok, err := c.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = c.TryLock(ctx, "lock", time.Minute)
	assert.False(t, ok)
	require.NoError(t, c.Unlock(ctx, "lock"))
	ok, _ = c.TryLock(ctx, "lock", time.Minute)
	assert.True(t, ok)
}

func TestGetOrLoad(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(WithMemoryCleanup(0))
	defer c.Close()

	calls := 0
	load := func(context.Context) (map[string]string, error) {
		calls++
		return map[string]string{"AAPL": "1"}, nil
	}
	for i := 0; i < 3; i++ {
		v, err := GetOrLoad(ctx, c, "tickers", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, "1", v["AAPL"])
	}
	assert.Equal(t, 1, calls)

	_, err := GetOrLoad(ctx, c, "other", time.Minute, func(context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	assert.Error(t, err)
	ok, _ := c.Exists(ctx, "other")
	assert.False(t, ok)
}

func TestLayeredCachePromotes(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache(WithMemoryCleanup(0))
	lc := NewLayeredCache(remote)
	defer lc.Close()

	require.NoError(t, remote.Set(ctx, "k", sample{Name: "x"}, time.Minute))
	var out sample
	require.NoError(t, lc.Get(ctx, "k", &out))
	assert.Equal(t, "x", out.Name)

	require.NoError(t, remote.Delete(ctx, "k"))
	out = sample{}
	require.NoError(t, lc.Get(ctx, "k", &out))
	assert.Equal(t, "x", out.Name)
}
