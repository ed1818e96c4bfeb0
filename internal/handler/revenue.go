package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/creatordash/internal/middleware"
	"github.com/mathieu-neron/creatordash/internal/model"
	"github.com/mathieu-neron/creatordash/internal/service"
)

type RevenueHandler struct {
	revenue *service.RevenueResolver
}

func NewRevenueHandler(revenue *service.RevenueResolver) *RevenueHandler {
	return &RevenueHandler{revenue: revenue}
}

// Get handles GET /api/revenue
func (h *RevenueHandler) Get(c fiber.Ctx) error {
	return c.JSON(h.revenue.Resolve())
}

// SetRPM handles PUT /api/revenue/rpm
func (h *RevenueHandler) SetRPM(c fiber.Ctx) error {
	var req model.ManualRPMRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if req.RPM == nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "rpm is required")
	}

	if err := h.revenue.ApplyManualOverride(*req.RPM); err != nil {
		return failure(c, nil, err, "apply RPM")
	}
	return c.JSON(h.revenue.Resolve())
}

// ResetRPM handles DELETE /api/revenue/rpm
func (h *RevenueHandler) ResetRPM(c fiber.Ctx) error {
	h.revenue.ResetToAutomatic()
	return c.JSON(h.revenue.Resolve())
}
