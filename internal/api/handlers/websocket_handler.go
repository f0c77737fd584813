package handlers

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/campus-assistant/backend/internal/chat"
	"github.com/campus-assistant/backend/pkg/logger"
)

type WebSocketHandler struct {
	chat    *chat.Service
	timeout time.Duration
}

func NewWebSocketHandler(chatService *chat.Service, timeout time.Duration) *WebSocketHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebSocketHandler{
		chat:    chatService,
		timeout: timeout,
	}
}

type wsMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Language  string `json:"language,omitempty"`
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg wsMessage
		if err := c.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Error("Failed to read WebSocket message", zap.Error(err))
			}
			break
		}

		if msg.Type != "chat" {
			continue
		}

		if err := h.streamReply(c, msg); err != nil {
			if text, ok := rejectedMessage(err); ok {
				logger.Warn("Rejected WebSocket message", zap.Error(err))
				h.sendError(c, text)
				continue
			}
			logger.Error("Failed to stream reply", zap.Error(err))
			h.sendError(c, chat.FriendlyError)
		}
	}
}

func (h *WebSocketHandler) streamReply(c *websocket.Conn, msg wsMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.chat.CheckMessage(msg.Message); err != nil {
		return err
	}
	if err := h.sendChunk(c, "status", "Thinking..."); err != nil {
		return err
	}

	reply, err := h.chat.Send(ctx, chat.Request{
		SessionID: msg.SessionID,
		Message:   msg.Message,
		Language:  msg.Language,
	})
	if err != nil {
		return err
	}

	words := splitIntoWords(reply.Content)
	for i, word := range words {
		chunk := word
		if i < len(words)-1 && word != "\n" {
			chunk += " "
		}
		if err := h.sendChunk(c, "chunk", chunk); err != nil {
			return err
		}
	}

	return h.sendComplete(c, reply)
}

func (h *WebSocketHandler) sendChunk(c *websocket.Conn, msgType, content string) error {
	return c.WriteJSON(map[string]interface{}{
		"type":    msgType,
		"content": content,
	})
}

func (h *WebSocketHandler) sendComplete(c *websocket.Conn, reply *chat.Reply) error {
	return c.WriteJSON(map[string]interface{}{
		"type":       "complete",
		"message_id": reply.ID,
		"session_id": reply.SessionID,
		"language":   reply.Language,
		"source":     reply.Source,
		"category":   reply.Category,
		"confidence": reply.Confidence,
		"augmented":  reply.Augmented,
		"latency_ms": reply.LatencyMS,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	if err := c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	}); err != nil {
		logger.Debug("Failed to send WebSocket error", zap.Error(err))
	}
}

// splitIntoWords breaks text on spaces, keeping each newline as its own
// token so the client can rebuild line breaks.
func splitIntoWords(text string) []string {
	words := []string{}
	currentWord := []rune{}

	for _, char := range text {
		if char == ' ' || char == '\n' {
			if len(currentWord) > 0 {
				words = append(words, string(currentWord))
				currentWord = currentWord[:0]
			}
			if char == '\n' {
				words = append(words, "\n")
			}
			continue
		}
		currentWord = append(currentWord, char)
	}

	if len(currentWord) > 0 {
		words = append(words, string(currentWord))
	}

	return words
}
