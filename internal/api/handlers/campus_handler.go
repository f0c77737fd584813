package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/campus-assistant/backend/internal/chat"
	"github.com/campus-assistant/backend/internal/language"
	"github.com/campus-assistant/backend/pkg/logger"
)

type CampusHandler struct {
	chat *chat.Service
}

func NewCampusHandler(chatService *chat.Service) *CampusHandler {
	return &CampusHandler{chat: chatService}
}

func (h *CampusHandler) GetDirections(c *fiber.Ctx) error {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "from and to are required",
		})
	}

	lang, ok := language.Parse(c.Query("lang"))
	if !ok {
		lang = language.English
	}

	dir, err := h.chat.Directions(c.UserContext(), from, to, lang)
	if errors.Is(err, chat.ErrRouteNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No route found between those places",
		})
	}
	if err != nil {
		logger.Error("Failed to build directions", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build directions",
		})
	}

	return c.JSON(fiber.Map{
		"from":     dir.From,
		"to":       dir.To,
		"language": lang,
		"steps":    dir.Steps,
		"text":     dir.Text(),
	})
}

func (h *CampusHandler) ListRoutes(c *fiber.Ctx) error {
	routes := h.chat.Resolver().Directory().Routes()
	return c.JSON(fiber.Map{
		"routes": routes,
		"count":  len(routes),
	})
}

func (h *CampusHandler) ListLocations(c *fiber.Ctx) error {
	dir := h.chat.Resolver().Directory()
	if category := c.Query("category"); category != "" {
		locs := dir.LocationsByCategory()[category]
		return c.JSON(fiber.Map{
			"category":  category,
			"locations": locs,
			"count":     len(locs),
		})
	}

	return c.JSON(fiber.Map{
		"categories": dir.LocationsByCategory(),
		"count":      len(dir.Locations()),
	})
}

// ListCategories returns the information categories such as fees or
// hostel, not the location groupings.
func (h *CampusHandler) ListCategories(c *fiber.Ctx) error {
	names := h.chat.Resolver().Categories()
	return c.JSON(fiber.Map{
		"categories": names,
		"count":      len(names),
	})
}

func (h *CampusHandler) GetLocation(c *fiber.Ctx) error {
	loc, ok := h.chat.Resolver().Directory().Location(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Location not found",
		})
	}
	return c.JSON(loc)
}
