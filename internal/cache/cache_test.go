package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGetSetInvalidate(t *testing.T) {
	c := New[string, bool](0)

	_, ok := c.Get("ai_chat")
	assert.False(t, ok)

	c.Set("ai_chat", true)
	v, ok := c.Get("ai_chat")
	require.True(t, ok)
	assert.True(t, v)

	c.Invalidate("ai_chat")
	_, ok = c.Get("ai_chat")
	assert.False(t, ok)
}

func TestCacheInvalidateAll(t *testing.T) {
	c := New[string, int](0)
	c.Set("a", 1)
	c.Set("b", 2)
	require.Equal(t, 2, c.Len())

	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCacheTTL(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := New[string, string](time.Minute)
	c.SetClock(func() time.Time { return now })

	c.Set("k", "v")
	now = now.Add(59 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok, "entry should live until the ttl elapses")

	now = now.Add(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry should expire at the ttl")
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New[int, int](0)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(i, i*i)
			c.Get(i)
			if i%4 == 0 {
				c.Invalidate(i)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 12, c.Len())
}
