package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/campus-assistant/backend/internal/storage/models"
	"github.com/campus-assistant/backend/pkg/logger"
)

var ErrNotFound = errors.New("sqlite: record not found")

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping() error {
	return c.db.Ping()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		language TEXT,
		source TEXT,
		confidence REAL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id TEXT NOT NULL,
		helpful INTEGER NOT NULL,
		comment TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (message_id) REFERENCES messages(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_message ON feedback(message_id);
	CREATE INDEX IF NOT EXISTS idx_feedback_created ON feedback(created_at);

	CREATE TABLE IF NOT EXISTS query_history (
		id TEXT PRIMARY KEY,
		session_id TEXT,
		query_text TEXT NOT NULL,
		language TEXT,
		source TEXT,
		category TEXT,
		confidence REAL,
		augmented INTEGER DEFAULT 0,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_query_session ON query_history(session_id);
	CREATE INDEX IF NOT EXISTS idx_query_created ON query_history(created_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertMessage(msg *models.Message) error {
	query := `
		INSERT INTO messages (id, session_id, role, content, language, source, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		msg.ID,
		msg.SessionID,
		string(msg.Role),
		msg.Content,
		msg.Language,
		msg.Source,
		msg.Confidence,
		msg.CreatedAt.UnixMilli(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	return nil
}

// TrimMessages keeps only the newest keep messages of a session.
func (c *Client) TrimMessages(sessionID string, keep int) (int64, error) {
	query := `
		DELETE FROM messages
		WHERE session_id = ? AND id NOT IN (
			SELECT id FROM messages
			WHERE session_id = ?
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		)
	`

	res, err := c.db.Exec(query, sessionID, sessionID, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to trim messages: %w", err)
	}

	removed, _ := res.RowsAffected()
	if removed > 0 {
		logger.Debug("Messages trimmed",
			zap.String("session_id", sessionID),
			zap.Int64("removed", removed),
		)
	}

	return removed, nil
}

// GetMessages returns up to limit of the newest messages, oldest first.
func (c *Client) GetMessages(sessionID string, limit int) ([]models.Message, error) {
	query := `
		SELECT id, session_id, role, content, language, source, confidence, created_at FROM (
			SELECT rowid AS seq, * FROM messages
			WHERE session_id = ?
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		) ORDER BY created_at ASC, seq ASC
	`

	rows, err := c.db.Query(query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0, limit)
	for rows.Next() {
		var m models.Message
		var role string
		var language, source sql.NullString
		var confidence sql.NullFloat64
		var createdAt int64

		err := rows.Scan(&m.ID, &m.SessionID, &role, &m.Content, &language, &source, &confidence, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		m.Role = models.Role(role)
		m.Language = language.String
		m.Source = source.String
		m.Confidence = confidence.Float64
		m.CreatedAt = time.UnixMilli(createdAt)
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	return messages, nil
}

func (c *Client) DeleteMessages(sessionID string) (int64, error) {
	res, err := c.db.Exec(`DELETE FROM messages WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}

	removed, _ := res.RowsAffected()
	logger.Info("Session history cleared",
		zap.String("session_id", sessionID),
		zap.Int64("removed", removed),
	)

	return removed, nil
}

func (c *Client) InsertQueryRecord(record *models.QueryRecord) error {
	query := `
		INSERT INTO query_history (id, session_id, query_text, language, source, category,
			confidence, augmented, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	augmented := 0
	if record.Augmented {
		augmented = 1
	}

	_, err := c.db.Exec(
		query,
		record.ID,
		record.SessionID,
		record.QueryText,
		record.Language,
		record.Source,
		record.Category,
		record.Confidence,
		augmented,
		record.LatencyMS,
		record.CreatedAt.UnixMilli(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert query record: %w", err)
	}

	logger.Debug("Query recorded",
		zap.String("query_id", record.ID),
		zap.String("source", record.Source),
		zap.Float64("confidence", record.Confidence),
	)

	return nil
}

func (c *Client) GetQueryHistory(sessionID string, limit int) ([]models.QueryRecord, error) {
	query := `
		SELECT id, session_id, query_text, language, source, category, confidence, augmented, latency_ms, created_at
		FROM query_history
		WHERE session_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get query history: %w", err)
	}
	defer rows.Close()

	var records []models.QueryRecord
	for rows.Next() {
		var r models.QueryRecord
		var augmented int
		var createdAt int64

		err := rows.Scan(&r.ID, &r.SessionID, &r.QueryText, &r.Language, &r.Source, &r.Category,
			&r.Confidence, &augmented, &r.LatencyMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.Augmented = augmented == 1
		r.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, r)
	}

	return records, rows.Err()
}

// StoreFeedback records a rating for an assistant message. It returns
// ErrNotFound when the message no longer exists.
func (c *Client) StoreFeedback(feedback *models.Feedback) error {
	var exists int
	err := c.db.QueryRow(`SELECT 1 FROM messages WHERE id = ?`, feedback.MessageID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up message: %w", err)
	}

	helpful := 0
	if feedback.Helpful {
		helpful = 1
	}

	res, err := c.db.Exec(
		`INSERT INTO feedback (message_id, helpful, comment, created_at) VALUES (?, ?, ?, ?)`,
		feedback.MessageID,
		helpful,
		feedback.Comment,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		feedback.ID = int(id)
	}

	logger.Info("Feedback stored",
		zap.String("message_id", feedback.MessageID),
		zap.Bool("helpful", feedback.Helpful),
	)

	return nil
}

func (c *Client) GetFeedbackStats() (*models.FeedbackStats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(helpful), 0) FROM feedback`

	var stats models.FeedbackStats
	if err := c.db.QueryRow(query).Scan(&stats.Total, &stats.Helpful); err != nil {
		return nil, fmt.Errorf("failed to get feedback stats: %w", err)
	}

	stats.NotHelpful = stats.Total - stats.Helpful
	if stats.Total > 0 {
		stats.HelpfulRate = float64(stats.Helpful) / float64(stats.Total)
	}

	return &stats, nil
}
