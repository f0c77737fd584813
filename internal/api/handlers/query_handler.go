package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/campus-assistant/backend/internal/chat"
	"github.com/campus-assistant/backend/internal/language"
	"github.com/campus-assistant/backend/internal/metrics"
	"github.com/campus-assistant/backend/pkg/logger"
)

type QueryHandler struct {
	chat *chat.Service
}

func NewQueryHandler(chatService *chat.Service) *QueryHandler {
	return &QueryHandler{
		chat: chatService,
	}
}

func (h *QueryHandler) HandleChat(c *fiber.Ctx) error {
	var req chat.Request
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.SessionID == "" {
		req.SessionID = c.Get("X-Session-ID")
	}

	reply, err := h.chat.Send(c.UserContext(), req)
	if msg, ok := rejectedMessage(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msg,
		})
	}
	if err != nil {
		logger.Error("Failed to process chat message", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": chat.FriendlyError,
		})
	}

	return c.JSON(reply)
}

// HandleResolve answers from the local knowledge base only. Nothing is
// stored and the LLM is never called.
func (h *QueryHandler) HandleResolve(c *fiber.Ctx) error {
	var req struct {
		Query    string `json:"query"`
		Language string `json:"language"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	lang := language.Detect(req.Query)
	if explicit, ok := language.Parse(req.Language); ok {
		lang = explicit
	}

	answer := h.chat.Resolver().Resolve(req.Query, lang)
	metrics.ResolutionsTotal.WithLabelValues(string(answer.Source)).Inc()

	return c.JSON(fiber.Map{
		"query":      req.Query,
		"language":   lang,
		"content":    answer.Content,
		"category":   answer.Category,
		"confidence": answer.Confidence,
		"source":     answer.Source,
	})
}

func (h *QueryHandler) HandleDetectLanguage(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	lang := language.Detect(req.Text)
	metrics.LanguagesDetected.WithLabelValues(lang.String()).Inc()

	return c.JSON(fiber.Map{
		"language": lang,
	})
}

// rejectedMessage maps input errors from chat.Send to a client message.
func rejectedMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return "Message is required", true
	case errors.Is(err, chat.ErrMessageTooLong):
		return "Message exceeds maximum length", true
	case errors.Is(err, chat.ErrUnsafeMessage):
		return "Invalid message content", true
	}
	return "", false
}
