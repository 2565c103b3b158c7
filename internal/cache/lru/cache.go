// Package lru - кеш фиксированного размера поверх golang-lru.
// В отличие от memory, старые записи вытесняются при переполнении.
package lru

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kitbuilder587/tavily-go/internal/cache"
)

const DefaultSize = 1024

type entry struct {
	value     any
	expiresAt time.Time
}

type Cache struct {
	lru *lru.Cache[string, entry]
}

func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	l, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &Cache{lru: l}, nil
}

func (c *Cache) Get(key string) (any, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.lru.Add(key, entry{value: value, expiresAt: time.Now().Add(ttl)})
}

func (c *Cache) Delete(key string) {
	c.lru.Remove(key)
}

func (c *Cache) Len() int {
	return c.lru.Len()
}

var _ cache.Cache = (*Cache)(nil)
