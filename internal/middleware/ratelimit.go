package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
)

// RateLimitConfig is one limiter's budget.
type RateLimitConfig struct {
	Name   string                   // label used in logs and the 429 body
	Max    int                      // requests per window
	Window time.Duration            // fixed window length
	KeyFn  func(c fiber.Ctx) string // bucket key for a request
}

type bucket struct {
	used    int
	resetAt time.Time
}

// RateLimiter counts requests per key in fixed windows, in memory.
type RateLimiter struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	buckets map[string]*bucket
	swept   time.Time
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFn == nil {
		cfg.KeyFn = KeyByIP
	}
	return &RateLimiter{cfg: cfg, buckets: make(map[string]*bucket)}
}

// take spends one request from key's bucket and reports what is left.
// Expired buckets are swept lazily, at most once per window.
func (rl *RateLimiter) take(key string, now time.Time) (remaining int, resetAt time.Time, ok bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.swept) > rl.cfg.Window {
		for k, b := range rl.buckets {
			if now.After(b.resetAt) {
				delete(rl.buckets, k)
			}
		}
		rl.swept = now
	}

	b, found := rl.buckets[key]
	if !found || now.After(b.resetAt) {
		b = &bucket{resetAt: now.Add(rl.cfg.Window)}
		rl.buckets[key] = b
	}
	b.used++
	return rl.cfg.Max - b.used, b.resetAt, b.used <= rl.cfg.Max
}

// Allow spends one request for key outside of an HTTP request.
func (rl *RateLimiter) Allow(key string) bool {
	_, _, ok := rl.take(key, time.Now())
	return ok
}

// Handler enforces the limit and sets X-RateLimit-* headers.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		now := time.Now()
		remaining, resetAt, ok := rl.take(rl.cfg.KeyFn(c), now)

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
		if ok {
			return c.Next()
		}

		retryAfter := int(resetAt.Sub(now).Seconds()) + 1
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": fiber.Map{
				"code":       "RATE_LIMITED",
				"message":    fmt.Sprintf("Too many %s requests. Try again in %d seconds.", rl.cfg.Name, retryAfter),
				"retryAfter": retryAfter,
			},
		})
	}
}

// KeyByIP buckets requests by client IP.
func KeyByIP(c fiber.Ctx) string {
	return "ip:" + c.IP()
}

// KeyBySession buckets requests by the signed-in owner, falling back to the
// client IP when no owner is known.
func KeyBySession(owner func() string) func(c fiber.Ctx) string {
	return func(c fiber.Ctx) string {
		if owner != nil {
			if id := owner(); id != "" {
				return "owner:" + id
			}
		}
		return KeyByIP(c)
	}
}

// NewAPIRateLimiter allows 100 requests/min per IP across /api.
func NewAPIRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{Name: "API", Max: 100, Window: time.Minute, KeyFn: KeyByIP})
}

// NewAIRateLimiter allows 10 prompt generations/min per owner.
func NewAIRateLimiter(owner func() string) *RateLimiter {
	return NewRateLimiter(RateLimitConfig{Name: "AI", Max: 10, Window: time.Minute, KeyFn: KeyBySession(owner)})
}

// NewRefreshRateLimiter allows 2 manual refreshes/min per owner.
func NewRefreshRateLimiter(owner func() string) *RateLimiter {
	return NewRateLimiter(RateLimitConfig{Name: "refresh", Max: 2, Window: time.Minute, KeyFn: KeyBySession(owner)})
}

// NewAuthRateLimiter allows 20 login attempts/min per IP.
func NewAuthRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{Name: "sign-in", Max: 20, Window: time.Minute, KeyFn: KeyByIP})
}
