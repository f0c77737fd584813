package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/campus-assistant/backend/internal/chat"
	"github.com/campus-assistant/backend/internal/storage/models"
	"github.com/campus-assistant/backend/internal/storage/sqlite"
	"github.com/campus-assistant/backend/pkg/logger"
)

type HistoryHandler struct {
	chat *chat.Service
}

func NewHistoryHandler(chatService *chat.Service) *HistoryHandler {
	return &HistoryHandler{chat: chatService}
}

func (h *HistoryHandler) GetHistory(c *fiber.Ctx) error {
	sessionID := c.Params("session")
	msgs, err := h.chat.History(c.UserContext(), sessionID, c.QueryInt("limit", 0))
	if err != nil {
		logger.Error("Failed to load history", zap.String("session_id", sessionID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load history",
		})
	}

	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"messages":   msgs,
		"count":      len(msgs),
	})
}

func (h *HistoryHandler) GetQueryHistory(c *fiber.Ctx) error {
	sessionID := c.Params("session")
	records, err := h.chat.QueryHistory(c.UserContext(), sessionID, c.QueryInt("limit", 0))
	if err != nil {
		logger.Error("Failed to load query history", zap.String("session_id", sessionID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load query history",
		})
	}

	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"queries":    records,
		"count":      len(records),
	})
}

func (h *HistoryHandler) ClearHistory(c *fiber.Ctx) error {
	sessionID := c.Params("session")
	if err := h.chat.Clear(c.UserContext(), sessionID); err != nil {
		logger.Error("Failed to clear history", zap.String("session_id", sessionID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to clear history",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HistoryHandler) SubmitFeedback(c *fiber.Ctx) error {
	var req struct {
		MessageID string `json:"message_id"`
		Helpful   bool   `json:"helpful"`
		Comment   string `json:"comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.MessageID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "message_id is required",
		})
	}

	err := h.chat.Feedback(c.UserContext(), models.Feedback{
		MessageID: req.MessageID,
		Helpful:   req.Helpful,
		Comment:   req.Comment,
	})
	if errors.Is(err, sqlite.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Message not found",
		})
	}
	if err != nil {
		logger.Error("Failed to store feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store feedback",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "recorded",
	})
}

func (h *HistoryHandler) GetFeedbackStats(c *fiber.Ctx) error {
	stats, err := h.chat.FeedbackStats(c.UserContext())
	if err != nil {
		logger.Error("Failed to load feedback stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load feedback stats",
		})
	}
	return c.JSON(stats)
}
