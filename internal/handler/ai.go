package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/creatordash/internal/middleware"
	"github.com/mathieu-neron/creatordash/internal/model"
	"github.com/mathieu-neron/creatordash/internal/service"
)

type AIHandler struct {
	svc *service.AIService
}

func NewAIHandler(svc *service.AIService) *AIHandler {
	return &AIHandler{svc: svc}
}

// Replies handles POST /api/comments/replies
func (h *AIHandler) Replies(c fiber.Ctx) error {
	var req model.ReplyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	text, errMsg := middleware.ValidateText("text", req.Text, middleware.MaxCommentTextLen)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	suggestions, err := h.svc.SuggestReplies(c.Context(), text)
	if err != nil {
		return failure(c, nil, err, "generate reply suggestions")
	}
	return c.JSON(model.ReplyResponse{Suggestions: suggestions})
}

// Ideas handles POST /api/ideas
func (h *AIHandler) Ideas(c fiber.Ctx) error {
	var req model.IdeaRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	theme, errMsg := middleware.ValidateText("theme", req.Theme, middleware.MaxThemeLen)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	ideas, err := h.svc.GenerateIdeas(c.Context(), theme)
	if err != nil {
		return failure(c, nil, err, "generate ideas")
	}
	return c.JSON(model.IdeaResponse{Ideas: ideas})
}
