// Package cache описывает общий интерфейс кеша поисковых ответов.
package cache

import "time"

type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
}

// Noop - кеш, который ничего не хранит (CACHE_TYPE=none)
type Noop struct{}

func (Noop) Get(string) (any, bool)         { return nil, false }
func (Noop) Set(string, any, time.Duration) {}
func (Noop) Delete(string)                  {}

var _ Cache = Noop{}
