package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/creatordash/internal/service"
)

type CommentHandler struct {
	svc   *service.CommentService
	guard SessionGuard
}

func NewCommentHandler(svc *service.CommentService, guard SessionGuard) *CommentHandler {
	return &CommentHandler{svc: svc, guard: guard}
}

// List handles GET /api/comments
func (h *CommentHandler) List(c fiber.Ctx) error {
	comments, err := h.svc.Recent(c.Context())
	if err != nil {
		return failure(c, h.guard, err, "load comments")
	}
	return c.JSON(fiber.Map{"comments": comments})
}
