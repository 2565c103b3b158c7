package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter - клиентский троттлинг запросов, отдельный token bucket на ключ
// (обычно endpoint).
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

type Config struct {
	RequestsPerMinute int
	Burst             int
}

func New(cfg Config) *Limiter {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 100
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

// Allow reports whether a request for key may happen now without waiting.
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// Wait blocks until a request for key is allowed or ctx is done.
// Returns true if the call actually had to wait.
func (l *Limiter) Wait(ctx context.Context, key string) (bool, error) {
	lim := l.get(key)
	if lim.Allow() {
		return false, nil
	}
	if err := lim.Wait(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// Tokens - сколько запросов доступно прямо сейчас (приблизительно)
func (l *Limiter) Tokens(key string) float64 {
	return l.get(key).Tokens()
}
