package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/campus-assistant/backend/internal/api/handlers"
	"github.com/campus-assistant/backend/internal/metrics"
	"github.com/campus-assistant/backend/internal/middleware/ratelimit"
	"github.com/campus-assistant/backend/internal/middleware/security"
	"github.com/campus-assistant/backend/internal/middleware/validation"
)

type routeHandlers struct {
	query   *handlers.QueryHandler
	campus  *handlers.CampusHandler
	history *handlers.HistoryHandler
	tts     *handlers.TTSHandler
	admin   *handlers.AdminHandler
	health  *handlers.HealthHandler
	ws      *handlers.WebSocketHandler
}

type routeConfig struct {
	limiter    *ratelimit.RateLimiter
	validation validation.Config
	adminToken string
}

// registerRoutes mounts the API. Health and ready skip the limiter; every
// other route, the WebSocket upgrade included, is rate limited.
func registerRoutes(app *fiber.App, h routeHandlers, cfg routeConfig) {
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api/v1")

	api.Get("/health", h.health.Health)
	api.Get("/ready", h.health.Ready)

	api.Use(cfg.limiter.Middleware())

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws", websocket.New(h.ws.HandleConnection))

	api.Use(validation.Middleware(cfg.validation))

	api.Post("/chat", h.query.HandleChat)
	api.Post("/resolve", h.query.HandleResolve)
	api.Post("/language/detect", h.query.HandleDetectLanguage)

	api.Get("/directions", h.campus.GetDirections)
	api.Get("/routes", h.campus.ListRoutes)
	api.Get("/locations", h.campus.ListLocations)
	api.Get("/locations/:id", h.campus.GetLocation)
	api.Get("/categories", h.campus.ListCategories)

	api.Get("/history/:session", h.history.GetHistory)
	api.Get("/history/:session/queries", h.history.GetQueryHistory)
	api.Delete("/history/:session", h.history.ClearHistory)
	api.Post("/feedback", h.history.SubmitFeedback)
	api.Get("/feedback/stats", h.history.GetFeedbackStats)

	api.Post("/tts", h.tts.HandleSynthesize)

	admin := api.Group("/admin", security.AdminTokenMiddleware(cfg.adminToken))
	admin.Post("/reload", h.admin.ReloadKnowledge)
	admin.Post("/evaluate", h.admin.Evaluate)
}
