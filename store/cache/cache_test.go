package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheSetGetDelete(t *testing.T) {
	c := New(Config{})
	defer c.Close()

	_, ok := c.Get("a")
	require.False(t, ok)

	c.Set("a", 1)
	value, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, value)

	c.Set("a", 2)
	value, _ = c.Get("a")
	require.Equal(t, 2, value, "set overwrites")
	require.Equal(t, 1, c.Len())

	c.Delete("a")
	_, ok = c.Get("a")
	require.False(t, ok)
	require.Equal(t, 0, c.Len())
}

func TestCacheExpiry(t *testing.T) {
	c := New(Config{})
	defer c.Close()

	c.SetWithTTL("a", 1, 10*time.Millisecond)
	_, ok := c.Get("a")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("a")
	require.False(t, ok, "expired entries are dropped on read")
	require.Equal(t, 0, c.Len())
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	c := New(Config{})
	defer c.Close()

	c.SetWithTTL("a", 1, 0)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get("a")
	require.True(t, ok)
}

func TestCacheLRUEviction(t *testing.T) {
	evicted := []string{}
	c := New(Config{
		MaxItems: 2,
		OnEviction: func(key string, _ any) {
			evicted = append(evicted, key)
		},
	})
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)

	// Touch "a" so "b" becomes the least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", 3)
	require.Equal(t, 2, c.Len())
	require.Equal(t, []string{"b"}, evicted)

	_, ok = c.Get("b")
	require.False(t, ok)
	_, ok = c.Get("a")
	require.True(t, ok)
	_, ok = c.Get("c")
	require.True(t, ok)
}

func TestCacheSweep(t *testing.T) {
	c := New(Config{})
	defer c.Close()

	for i := 0; i < 5; i++ {
		c.SetWithTTL(fmt.Sprintf("k%d", i), i, 5*time.Millisecond)
	}
	c.Set("keep", "forever")

	time.Sleep(10 * time.Millisecond)
	c.sweep()
	require.Equal(t, 1, c.Len())

	_, ok := c.Get("keep")
	require.True(t, ok)
}
