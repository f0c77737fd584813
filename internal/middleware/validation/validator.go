package validation

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const DefaultMaxMessageLength = 1000

var xssPattern = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=|onclick=)`)

var (
	ErrEmptyText   = errors.New("text is required")
	ErrTextTooLong = errors.New("text exceeds maximum length")
	ErrUnsafeText  = errors.New("text contains control characters or markup")
)

type Config struct {
	MaxMessageLength    int
	AllowedContentTypes []string
	// TextFields maps a route suffix to the JSON field holding user text.
	TextFields map[string]string
	Logger     *zap.Logger
}

func DefaultTextFields() map[string]string {
	return map[string]string{
		"/api/v1/chat":            "message",
		"/api/v1/resolve":         "query",
		"/api/v1/language/detect": "text",
		"/api/v1/tts":             "text",
	}
}

// DefaultContentTypes accepts JSON everywhere and YAML for dataset uploads.
func DefaultContentTypes() []string {
	return []string{
		fiber.MIMEApplicationJSON,
		"application/yaml",
		"application/x-yaml",
		"text/yaml",
	}
}

// CheckText applies the user-text rules shared by HTTP and WebSocket chat.
func CheckText(text string, maxLen int) error {
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLength
	}
	switch {
	case strings.TrimSpace(text) == "":
		return ErrEmptyText
	case utf8.RuneCountInString(text) > maxLen:
		return ErrTextTooLong
	case containsControl(text) || containsXSS(text):
		return ErrUnsafeText
	}
	return nil
}

func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxMessageLength == 0 {
		cfg.MaxMessageLength = DefaultMaxMessageLength
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = DefaultContentTypes()
	}
	if cfg.TextFields == nil {
		cfg.TextFields = DefaultTextFields()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		contentType := c.Get(fiber.HeaderContentType)
		if c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut {
			if contentType != "" && !matchesAny(contentType, cfg.AllowedContentTypes) {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Unsupported content type",
				})
			}
		}

		field, ok := cfg.TextFields[strings.TrimRight(c.Path(), "/")]
		if !ok || c.Method() != fiber.MethodPost {
			return c.Next()
		}

		// Text routes only speak JSON.
		if contentType != "" && !strings.Contains(contentType, fiber.MIMEApplicationJSON) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported content type",
			})
		}

		var req map[string]interface{}
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		text, ok := req[field].(string)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": field + " is required and must be a string",
			})
		}

		switch err := CheckText(text, cfg.MaxMessageLength); {
		case errors.Is(err, ErrEmptyText):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": field + " is required and must be a string",
			})
		case errors.Is(err, ErrTextTooLong):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": field + " exceeds maximum length",
			})
		case err != nil:
			cfg.Logger.Warn("Rejected suspicious input",
				zap.String("ip", c.IP()),
				zap.String("path", c.Path()),
			)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid " + field + " content",
			})
		}

		return c.Next()
	}
}

func matchesAny(contentType string, allowed []string) bool {
	for _, allowedType := range allowed {
		if strings.Contains(contentType, allowedType) {
			return true
		}
	}
	return false
}

func containsXSS(input string) bool {
	return xssPattern.MatchString(input)
}

// containsControl reports control characters other than ordinary
// whitespace. Zero-width joiners used in Malayalam script are format
// characters and are allowed.
func containsControl(input string) bool {
	for _, r := range input {
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
