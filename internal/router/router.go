package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/mathieu-neron/creatordash/internal/handler"
	"github.com/mathieu-neron/creatordash/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Auth      *handler.AuthHandler
	Revenue   *handler.RevenueHandler
	Analytics *handler.AnalyticsHandler
	Video     *handler.VideoHandler
	Comment   *handler.CommentHandler
	AI        *handler.AIHandler
	Refresh   *handler.RefreshHandler
	Health    *handler.HealthHandler

	// SessionActive reports whether an owner is signed in.
	SessionActive func() bool
	// SessionOwner returns the signed-in owner's id, or "".
	SessionOwner func() string
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewCORS(corsOrigins))

	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	// Auth routes
	authLimit := middleware.NewAuthRateLimiter().Handler()
	auth := app.Group("/auth")
	auth.Get("/login", authLimit, h.Auth.Login)
	auth.Get("/callback", authLimit, h.Auth.Callback)
	auth.Post("/logout", h.Auth.Logout)
	auth.Get("/me", h.Auth.Me)

	// API routes require a signed-in owner
	api := app.Group("/api", middleware.NewAPIRateLimiter().Handler(), middleware.RequireSession(h.SessionActive))

	// Revenue routes
	api.Get("/revenue", h.Revenue.Get)
	api.Put("/revenue/rpm", h.Revenue.SetRPM)
	api.Delete("/revenue/rpm", h.Revenue.ResetRPM)

	// Analytics routes
	api.Get("/analytics", h.Analytics.Get)
	api.Get("/analytics/summary", h.Analytics.Summary)
	api.Post("/analytics/:metric/toggle", h.Analytics.Toggle)

	// Video routes
	api.Get("/videos", h.Video.List)
	api.Put("/videos/:videoId", h.Video.Update)
	api.Delete("/videos/:videoId", h.Video.Delete)

	// Comment and AI routes
	aiLimit := middleware.NewAIRateLimiter(h.SessionOwner).Handler()
	api.Get("/comments", h.Comment.List)
	api.Post("/comments/replies", aiLimit, h.AI.Replies)
	api.Post("/ideas", aiLimit, h.AI.Ideas)

	// Refresh route
	api.Post("/refresh", middleware.NewRefreshRateLimiter(h.SessionOwner).Handler(), h.Refresh.Refresh)
}
