// Package ratelimit throttles requests per key with token buckets.
package ratelimit

import (
	"sync"
	"time"

	"filiales-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

type entry struct {
	limiter *rate.Limiter
	updated time.Time
}

// Limiter keeps one token bucket per key and forgets keys idle for maxAge.
type Limiter struct {
	limit  rate.Limit
	burst  int
	maxAge time.Duration

	mu    sync.Mutex
	store map[string]*entry
}

func New(perSecond float64, burst int) *Limiter {
	return &Limiter{
		limit:  rate.Limit(perSecond),
		burst:  burst,
		maxAge: 10 * time.Minute,
		store:  make(map[string]*entry),
	}
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if e, ok := l.store[key]; ok {
		e.updated = now
		return e.limiter
	}

	lim := rate.NewLimiter(l.limit, l.burst)
	l.store[key] = &entry{limiter: lim, updated: now}

	for k, e := range l.store {
		if now.Sub(e.updated) > l.maxAge {
			delete(l.store, k)
		}
	}
	return lim
}

// Allow consumes one token for key.
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// ByIP limits requests per client IP.
func (l *Limiter) ByIP() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.Allow(c.IP()) {
			c.Set(fiber.HeaderRetryAfter, "1")
			return apperr.TooManyRequests("Demasiados intentos, probá de nuevo en unos segundos")
		}
		return c.Next()
	}
}
