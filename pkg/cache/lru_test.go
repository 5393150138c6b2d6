package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/jobkit/pkg/cache"
)

func TestLRU(t *testing.T) {
	t.Parallel()

	t.Run("evicts least recently used", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRU[string, int](2)
		c.Put("a", 1)
		c.Put("b", 2)
		_, _ = c.Get("a")
		c.Put("c", 3)

		_, ok := c.Get("b")
		assert.False(t, ok)
		v, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 1, v)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("put overwrites", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRU[string, string](1)
		c.Put("k", "old")
		c.Put("k", "new")
		v, _ := c.Get("k")
		assert.Equal(t, "new", v)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("remove", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRU[int, int](3)
		c.Put(1, 1)
		assert.True(t, c.Remove(1))
		assert.False(t, c.Remove(1))
		assert.Zero(t, c.Len())
	})

	t.Run("entries expire", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		c := cache.NewLRU[string, string](4,
			cache.WithTTL(time.Minute),
			cache.WithClock(func() time.Time { return now }),
		)
		c.Put("k", "v")

		now = now.Add(59 * time.Second)
		_, ok := c.Get("k")
		assert.True(t, ok)

		now = now.Add(time.Second)
		_, ok = c.Get("k")
		assert.False(t, ok)
		assert.Zero(t, c.Len())
	})

	t.Run("panics on zero capacity", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { cache.NewLRU[string, int](0) })
	})

	t.Run("concurrent use", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRU[int, int](16)
		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := range 100 {
					c.Put(i*100+j, j)
					_, _ = c.Get(j)
				}
			}()
		}
		wg.Wait()
		assert.LessOrEqual(t, c.Len(), 16)
	})
}
