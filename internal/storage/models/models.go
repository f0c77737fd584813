package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	Language   string    `json:"language"`
	Source     string    `json:"source,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type QueryRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	QueryText  string    `json:"query_text"`
	Language   string    `json:"language"`
	Source     string    `json:"source"`
	Category   string    `json:"category,omitempty"`
	Confidence float64   `json:"confidence"`
	Augmented  bool      `json:"augmented"`
	LatencyMS  int       `json:"latency_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

type Feedback struct {
	ID        int       `json:"id"`
	MessageID string    `json:"message_id"`
	Helpful   bool      `json:"helpful"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type FeedbackStats struct {
	Total       int     `json:"total"`
	Helpful     int     `json:"helpful"`
	NotHelpful  int     `json:"not_helpful"`
	HelpfulRate float64 `json:"helpful_rate"`
}
