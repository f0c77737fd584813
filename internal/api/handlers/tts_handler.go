package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/campus-assistant/backend/internal/language"
	"github.com/campus-assistant/backend/internal/metrics"
	"github.com/campus-assistant/backend/internal/tts"
	"github.com/campus-assistant/backend/pkg/logger"
	"github.com/campus-assistant/backend/pkg/utils"
)

type Synthesizer interface {
	Synthesize(ctx context.Context, text string, lang language.Language) (*tts.Audio, error)
}

type AudioCache interface {
	GetAudio(ctx context.Context, hash string) (string, bool, error)
	SetAudio(ctx context.Context, hash string, audio string, ttl time.Duration) error
}

type TTSHandler struct {
	synth Synthesizer
	cache AudioCache
	ttl   time.Duration
}

// NewTTSHandler returns a handler that answers 503 when synth is nil. The
// cache is optional.
func NewTTSHandler(synth Synthesizer, cache AudioCache, ttl time.Duration) *TTSHandler {
	return &TTSHandler{synth: synth, cache: cache, ttl: ttl}
}

func (h *TTSHandler) HandleSynthesize(c *fiber.Ctx) error {
	if h.synth == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Text to speech is not configured",
		})
	}

	var req struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	lang, ok := language.Parse(req.Language)
	if !ok {
		lang = language.Detect(req.Text)
	}

	ctx := c.UserContext()
	key := utils.HashKey(req.Text, lang.String())
	if h.cache != nil {
		data, hit, err := h.cache.GetAudio(ctx, key)
		switch {
		case err != nil:
			logger.Warn("Audio cache lookup failed", zap.Error(err))
		case hit:
			metrics.CacheHits.WithLabelValues("audio").Inc()
			return c.JSON(tts.Audio{
				Data:     data,
				Format:   "wav",
				Language: tts.LanguageCode(lang, req.Text),
			})
		default:
			metrics.CacheMisses.WithLabelValues("audio").Inc()
		}
	}

	audio, err := h.synth.Synthesize(ctx, req.Text, lang)
	if errors.Is(err, tts.ErrEmptyText) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Nothing to speak",
		})
	}
	if err != nil {
		logger.Error("Speech synthesis failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Speech synthesis failed",
		})
	}

	if h.cache != nil {
		if err := h.cache.SetAudio(ctx, key, audio.Data, h.ttl); err != nil {
			logger.Warn("Failed to cache audio", zap.Error(err))
		}
	}

	return c.JSON(audio)
}
