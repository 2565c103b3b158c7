// Package cachetest holds the behaviour every cache.Cache implementation
// must share, so memory and lru backends run the same checks.
package cachetest

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/kitbuilder587/tavily-go/internal/cache"
)

func Run(t *testing.T, newCache func(t *testing.T) cache.Cache) {
	t.Run("set and get", func(t *testing.T) {
		c := newCache(t)
		c.Set("key", "value", time.Minute)

		got, ok := c.Get("key")
		if !ok {
			t.Fatal("Get() should return ok=true for existing key")
		}
		if got != "value" {
			t.Errorf("Get() = %v, want value", got)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		c := newCache(t)
		got, ok := c.Get("non-existent")
		if ok || got != nil {
			t.Errorf("Get() = %v, %v; want nil, false", got, ok)
		}
	})

	t.Run("ttl expiration", func(t *testing.T) {
		c := newCache(t)
		c.Set("expiring", "v", 50*time.Millisecond)

		if _, ok := c.Get("expiring"); !ok {
			t.Fatal("key should exist before TTL expiration")
		}

		time.Sleep(100 * time.Millisecond)

		if _, ok := c.Get("expiring"); ok {
			t.Error("key should be expired after TTL")
		}
	})

	t.Run("delete", func(t *testing.T) {
		c := newCache(t)
		c.Set("key", "value", time.Hour)
		c.Delete("key")

		if _, ok := c.Get("key"); ok {
			t.Error("key should not exist after delete")
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		c := newCache(t)
		c.Set("key", "v1", time.Hour)
		c.Set("key", "v2", time.Hour)

		if got, _ := c.Get("key"); got != "v2" {
			t.Errorf("Get() = %v, want v2 after overwrite", got)
		}
	})

	t.Run("concurrent", func(t *testing.T) {
		c := newCache(t)

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 200; i++ {
					key := "k" + strconv.Itoa(i%10)
					c.Set(key, i, time.Hour)
					c.Get(key)
					if i%7 == 0 {
						c.Delete(key)
					}
				}
			}()
		}
		wg.Wait()
	})
}
