package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/creatordash/internal/middleware"
	"github.com/mathieu-neron/creatordash/internal/model"
	"github.com/mathieu-neron/creatordash/internal/service"
)

type VideoHandler struct {
	svc   *service.VideoService
	guard SessionGuard
}

func NewVideoHandler(svc *service.VideoService, guard SessionGuard) *VideoHandler {
	return &VideoHandler{svc: svc, guard: guard}
}

// List handles GET /api/videos
func (h *VideoHandler) List(c fiber.Ctx) error {
	videos, err := h.svc.List(c.Context())
	if err != nil {
		return failure(c, h.guard, err, "list videos")
	}
	return c.JSON(fiber.Map{"videos": videos})
}

// Update handles PUT /api/videos/:videoId
func (h *VideoHandler) Update(c fiber.Ctx) error {
	videoID, errMsg := middleware.ValidateVideoID(c.Params("videoId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	var req model.VideoUpdateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if errMsg := middleware.ValidateVideoFields(req.Title, req.Description); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if err := h.svc.Update(c.Context(), videoID, req); err != nil {
		return failure(c, h.guard, err, "update video")
	}
	return c.JSON(fiber.Map{"videoId": videoID, "updated": true})
}

// Delete handles DELETE /api/videos/:videoId
func (h *VideoHandler) Delete(c fiber.Ctx) error {
	videoID, errMsg := middleware.ValidateVideoID(c.Params("videoId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if err := h.svc.Delete(c.Context(), videoID); err != nil {
		return failure(c, h.guard, err, "delete video")
	}
	return c.JSON(fiber.Map{"videoId": videoID, "deleted": true})
}
