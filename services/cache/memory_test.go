package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("kontan_rate_limited", []byte("500"), time.Minute))

	value, err := c.Get("kontan_rate_limited")
	require.NoError(t, err)
	assert.Equal(t, "500", string(value))

	now = now.Add(time.Minute)
	_, err = c.Get("kontan_rate_limited")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache()
	require.NoError(t, c.Set("k", []byte("v"), 0))

	_, err := c.Get("k")
	require.NoError(t, err)

	require.NoError(t, c.Delete("k"))
	_, err = c.Get("k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheCopiesValue(t *testing.T) {
	c := NewMemoryCache()
	buf := []byte("abc")
	require.NoError(t, c.Set("k", buf, 0))
	buf[0] = 'x'

	value, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(value))
}
