package api

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/p-blackswan/taskflow/internal/lru"
)

// RateLimitConfig holds rate limiter configuration.
type RateLimitConfig struct {
	RPS   int // requests per second
	Burst int // burst size
	// MaxClients bounds how many client buckets are remembered.
	MaxClients int
}

// NewRateLimitMiddleware returns a per-client token-bucket rate limiter.
// Buckets live in an LRU, so idle clients are forgotten without a sweeper.
func NewRateLimitMiddleware(cfg RateLimitConfig) fiber.Handler {
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 1024
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RPS
	}
	buckets := lru.New[string, *rate.Limiter](cfg.MaxClients)

	return func(c *fiber.Ctx) error {
		if isProbe(c.Path()) {
			return c.Next()
		}

		limiter := buckets.GetOrAdd(c.IP(), func() *rate.Limiter {
			return rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
		})
		if !limiter.Allow() {
			return problemResponse(c, fiber.StatusTooManyRequests,
				"rate_limit_exceeded", "Too Many Requests",
				"Rate limit exceeded. Please try again later.")
		}
		return c.Next()
	}
}
