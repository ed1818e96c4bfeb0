package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/creatordash/internal/middleware"
	"github.com/mathieu-neron/creatordash/internal/model"
	"github.com/mathieu-neron/creatordash/internal/service"
)

type AuthHandler struct {
	session    *service.SessionService
	afterLogin string
}

func NewAuthHandler(session *service.SessionService, afterLogin string) *AuthHandler {
	if afterLogin == "" {
		afterLogin = "/"
	}
	return &AuthHandler{session: session, afterLogin: afterLogin}
}

// Login handles GET /auth/login
func (h *AuthHandler) Login(c fiber.Ctx) error {
	return c.Redirect().Status(fiber.StatusFound).To(h.session.LoginURL())
}

// Callback handles GET /auth/callback?code=X&state=Y
func (h *AuthHandler) Callback(c fiber.Ctx) error {
	if reason := c.Query("error"); reason != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "CONSENT_DENIED", "Google sign-in was cancelled")
	}

	_, err := h.session.Callback(c.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_STATE", "Login link expired or invalid, try again")
		}
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "LOGIN_FAILED", "Failed to complete Google sign-in")
	}
	return c.Redirect().Status(fiber.StatusFound).To(h.afterLogin)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	h.session.Logout(c.Context())
	return c.JSON(model.SessionResponse{Authenticated: false})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c fiber.Ctx) error {
	profile, ok := h.session.Current()
	if !ok {
		return c.JSON(model.SessionResponse{Authenticated: false})
	}
	return c.JSON(model.SessionResponse{Authenticated: true, Name: profile.Name})
}
