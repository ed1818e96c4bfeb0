package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/creatordash/internal/middleware"
	"github.com/mathieu-neron/creatordash/internal/service"
)

type AnalyticsHandler struct {
	dash *service.DashboardService
}

func NewAnalyticsHandler(dash *service.DashboardService) *AnalyticsHandler {
	return &AnalyticsHandler{dash: dash}
}

// Get handles GET /api/analytics
func (h *AnalyticsHandler) Get(c fiber.Ctx) error {
	return c.JSON(h.dash.Analytics())
}

// Summary handles GET /api/analytics/summary
func (h *AnalyticsHandler) Summary(c fiber.Ctx) error {
	text, err := h.dash.Summary()
	resp := fiber.Map{"summary": text}
	if err != nil {
		resp["error"] = "AI summary generation failed"
	}
	return c.JSON(resp)
}

// Toggle handles POST /api/analytics/:metric/toggle
func (h *AnalyticsHandler) Toggle(c fiber.Ctx) error {
	metric, err := service.ParseMetric(c.Params("metric"))
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_METRIC",
			"Invalid metric. Must be one of: views, watchMinutes, likes, comments")
	}

	view, err := h.dash.Board().Toggle(metric)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusConflict, "NO_RANKING", "No ranking data is loaded")
	}
	return c.JSON(service.ToResponse(view))
}
