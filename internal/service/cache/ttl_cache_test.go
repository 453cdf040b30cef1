package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewTTLCache(0)

	_, ok, err := c.GetBytes(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), time.Minute))
	b, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), b)
}

func TestTTLCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewTTLCache(0)
	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), 10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)
	_, ok, _ := c.GetBytes(ctx, "k")
	assert.False(t, ok)
}

func TestTTLCacheBounded(t *testing.T) {
	ctx := context.Background()
	c := NewTTLCache(2)
	require.NoError(t, c.SetBytes(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.SetBytes(ctx, "b", []byte("2"), time.Minute))

	// overwriting an existing key never purges
	require.NoError(t, c.SetBytes(ctx, "b", []byte("3"), time.Minute))
	_, ok, _ := c.GetBytes(ctx, "a")
	assert.True(t, ok)

	require.NoError(t, c.SetBytes(ctx, "c", []byte("4"), time.Minute))
	_, ok, _ = c.GetBytes(ctx, "a")
	assert.False(t, ok)
	b, ok, _ := c.GetBytes(ctx, "c")
	assert.True(t, ok)
	assert.Equal(t, []byte("4"), b)
}
