package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"
)

// Refresher runs an on-demand refresh cycle.
type Refresher interface {
	RefreshNow(ctx context.Context) error
}

type RefreshHandler struct {
	refresher Refresher
}

func NewRefreshHandler(refresher Refresher) *RefreshHandler {
	return &RefreshHandler{refresher: refresher}
}

// Refresh handles POST /api/refresh
func (h *RefreshHandler) Refresh(c fiber.Ctx) error {
	if err := h.refresher.RefreshNow(c.Context()); err != nil {
		return failure(c, nil, err, "refresh dashboard")
	}
	return c.JSON(fiber.Map{"status": "refreshed"})
}
