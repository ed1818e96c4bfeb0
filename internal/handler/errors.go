package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/mathieu-neron/creatordash/internal/middleware"
	"github.com/mathieu-neron/creatordash/internal/relay"
	"github.com/mathieu-neron/creatordash/internal/repository"
	"github.com/mathieu-neron/creatordash/internal/service"
)

// SessionGuard ends the session when Google rejects its credentials.
type SessionGuard interface {
	HandleUnauthorized(ctx context.Context, err error) bool
}

// failure maps a service error onto the API error envelope. action completes
// the sentence "Failed to ..." in the fallback message.
func failure(c fiber.Ctx, guard SessionGuard, err error, action string) error {
	if guard != nil {
		guard.HandleUnauthorized(c.Context(), err)
	}
	if repository.IsUnauthorized(err) {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "SESSION_EXPIRED", "Google session expired, sign in again")
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, service.ErrNotAuthenticated):
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "NOT_AUTHENTICATED", "Sign in with Google first")
	case errors.Is(err, repository.ErrNotFound):
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, relay.ErrNotConfigured):
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable, "AI_UNAVAILABLE", "AI generation is not configured")
	case errors.Is(err, relay.ErrRejected):
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "AI_FAILED", "Failed to "+action)
	}

	var uerr *repository.UpstreamError
	if errors.As(err, &uerr) {
		switch uerr.Status {
		case http.StatusForbidden:
			return middleware.ErrorResponse(c, fiber.StatusForbidden, "FORBIDDEN", "YouTube denied the request")
		case http.StatusNotFound:
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Resource not found")
		}
	}

	log.Warn().Err(err).Str("action", action).Msg("request failed")
	return middleware.ErrorResponse(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", "Failed to "+action)
}
