package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	rdb     *redis.Client
	session func() bool
	startAt time.Time
}

// NewHealthHandler builds the probes. rdb may be nil when the token cache is
// disabled; session reports whether an owner is signed in.
func NewHealthHandler(rdb *redis.Client, session func() bool) *HealthHandler {
	return &HealthHandler{
		rdb:     rdb,
		session: session,
		startAt: time.Now(),
	}
}

// Live handles GET /health/live
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready. The token cache is optional, so a
// disabled or unreachable Redis degrades the report without failing it.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	checks := fiber.Map{"token_cache": checkRedis(ctx, h.rdb)}
	overallStatus := "healthy"
	if cache, ok := checks["token_cache"].(fiber.Map); ok && cache["status"] == "down" {
		overallStatus = "degraded"
	}

	return c.JSON(fiber.Map{
		"status":         overallStatus,
		"checks":         checks,
		"authenticated":  h.session != nil && h.session(),
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
		"version":        "1.0.0",
	})
}

func checkRedis(ctx context.Context, rdb *redis.Client) fiber.Map {
	if rdb == nil {
		return fiber.Map{
			"status": "disabled",
		}
	}

	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}
