package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache(t *testing.T) {
	t.Run("SetAndGet", func(t *testing.T) {
		c := New(time.Minute)
		defer c.Stop()

		c.Set("mint-a", "value-a")

		value, found := c.Get("mint-a")
		assert.True(t, found)
		assert.Equal(t, "value-a", value)
	})

	t.Run("MissingKey", func(t *testing.T) {
		c := New(time.Minute)
		defer c.Stop()

		_, found := c.Get("absent")
		assert.False(t, found)
	})

	t.Run("ExpiresAfterTTL", func(t *testing.T) {
		c := New(20 * time.Millisecond)
		defer c.Stop()

		c.Set("mint-a", "value-a")
		time.Sleep(30 * time.Millisecond)

		_, found := c.Get("mint-a")
		assert.False(t, found)
	})

	t.Run("StoresArbitraryValues", func(t *testing.T) {
		c := New(time.Minute)
		defer c.Stop()

		type meta struct{ Label string }
		c.Set("mint-a", meta{Label: "Bonk"})

		value, found := c.Get("mint-a")
		assert.True(t, found)
		assert.Equal(t, "Bonk", value.(meta).Label)
	})

	t.Run("DeleteAndClear", func(t *testing.T) {
		c := New(time.Minute)
		defer c.Stop()

		c.Set("a", 1)
		c.Set("b", 2)
		assert.Equal(t, 2, c.Size())

		c.Delete("a")
		assert.Equal(t, 1, c.Size())

		c.Clear()
		assert.Equal(t, 0, c.Size())
	})
}
