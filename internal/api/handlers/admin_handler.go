package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/campus-assistant/backend/internal/chat"
	"github.com/campus-assistant/backend/internal/evaluation"
	"github.com/campus-assistant/backend/pkg/logger"
)

type AdminHandler struct {
	chat *chat.Service
}

func NewAdminHandler(chatService *chat.Service) *AdminHandler {
	return &AdminHandler{chat: chatService}
}

func (h *AdminHandler) ReloadKnowledge(c *fiber.Ctx) error {
	result, err := h.chat.Reload(c.UserContext())
	if err != nil {
		logger.Error("Knowledge reload failed", zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "Knowledge reload failed",
			"details": err.Error(),
		})
	}

	logger.Info("Knowledge reloaded via admin endpoint",
		zap.Int("locations", result.Locations),
		zap.Int("invalidated_replies", result.InvalidReplies),
	)
	return c.JSON(result)
}

// Evaluate runs a regression dataset against the current resolver. An
// empty body uses the built-in golden set.
func (h *AdminHandler) Evaluate(c *fiber.Ctx) error {
	var (
		dataset *evaluation.Dataset
		err     error
	)
	if len(c.Body()) == 0 {
		dataset, err = evaluation.GoldenDataset()
	} else {
		dataset, err = evaluation.LoadDataset(c.Body())
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid evaluation dataset",
			"details": err.Error(),
		})
	}

	report := evaluation.NewEvaluator(h.chat.Resolver()).Run(dataset)
	return c.JSON(fiber.Map{
		"report":  report,
		"summary": evaluation.GenerateReport(report),
	})
}
