package middleware

import "github.com/gofiber/fiber/v3"

// RequireSession rejects requests with 401 while nobody is signed in.
func RequireSession(active func() bool) fiber.Handler {
	return func(c fiber.Ctx) error {
		if !active() {
			return ErrorResponse(c, fiber.StatusUnauthorized, "NOT_AUTHENTICATED", "Sign in with Google first")
		}
		return c.Next()
	}
}
