package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	cache "github.com/campus-assistant/backend/internal/cache/redis"
	"github.com/campus-assistant/backend/internal/campus"
	"github.com/campus-assistant/backend/internal/knowledge"
	"github.com/campus-assistant/backend/internal/language"
	"github.com/campus-assistant/backend/internal/llm"
	"github.com/campus-assistant/backend/internal/metrics"
	"github.com/campus-assistant/backend/internal/middleware/validation"
	"github.com/campus-assistant/backend/internal/query"
	"github.com/campus-assistant/backend/internal/session"
	"github.com/campus-assistant/backend/internal/storage/models"
	"github.com/campus-assistant/backend/internal/website"
	"github.com/campus-assistant/backend/pkg/logger"
	"github.com/campus-assistant/backend/pkg/utils"
)

// FriendlyError is shown to users when a chat turn cannot be completed.
const FriendlyError = "Oops! Something went wrong. Please try again, or contact our office at 04994-250790."

var (
	ErrEmptyMessage   = errors.New("message is required")
	ErrMessageTooLong = errors.New("message exceeds maximum length")
	ErrUnsafeMessage  = errors.New("message contains control characters or markup")
	ErrRouteNotFound  = errors.New("no route between those places")
)

type MessageStore interface {
	InsertMessage(msg *models.Message) error
	TrimMessages(sessionID string, keep int) (int64, error)
	GetMessages(sessionID string, limit int) ([]models.Message, error)
	DeleteMessages(sessionID string) (int64, error)
	InsertQueryRecord(record *models.QueryRecord) error
	GetQueryHistory(sessionID string, limit int) ([]models.QueryRecord, error)
	StoreFeedback(feedback *models.Feedback) error
	GetFeedbackStats() (*models.FeedbackStats, error)
}

type ReplyCache interface {
	GetReply(ctx context.Context, hash string) (*cache.CachedReply, bool, error)
	SetReply(ctx context.Context, hash string, reply cache.CachedReply, ttl time.Duration) error
	Invalidate(ctx context.Context, prefix string) (int, error)
}

type Augmenter interface {
	Augment(ctx context.Context, req llm.AugmentRequest) (string, error)
}

type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type PathFinder interface {
	FindPath(ctx context.Context, from, to string, lang language.Language) (*campus.Directions, error)
	Sync(ctx context.Context, routes []knowledge.Route) error
}

type Config struct {
	// HistoryLimit caps the stored messages per session.
	HistoryLimit int
	// ContextHistory is how many earlier messages are sent to the LLM.
	ContextHistory int
	ReplyTTL       time.Duration
	// MaxMessageLength caps a message in runes. Zero uses the validation
	// default.
	MaxMessageLength int
}

// Deps wires optional backends into the service. Leave a field nil to turn
// the feature off.
type Deps struct {
	Knowledge *knowledge.Store
	Sessions  *session.Store
	Messages  MessageStore
	Cache     ReplyCache
	LLM       Augmenter
	Website   PageFetcher
	Graph     PathFinder
	Options   query.Options
}

type Request struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Language  string `json:"language,omitempty"`
}

type Reply struct {
	ID         string            `json:"id"`
	SessionID  string            `json:"session_id"`
	Content    string            `json:"content"`
	Language   language.Language `json:"language"`
	Source     query.Source      `json:"source"`
	Category   string            `json:"category"`
	Confidence float64           `json:"confidence"`
	Augmented  bool              `json:"augmented"`
	LatencyMS  int64             `json:"latency_ms"`
}

type ReloadResult struct {
	Locations      int `json:"locations"`
	Routes         int `json:"routes"`
	QAEntries      int `json:"qa_entries"`
	FAQs           int `json:"faqs"`
	Categories     int `json:"categories"`
	InvalidReplies int `json:"invalidated_replies"`
}

type Service struct {
	resolver  atomic.Pointer[query.Resolver]
	knowledge *knowledge.Store
	sessions  *session.Store
	messages  MessageStore
	cache     ReplyCache
	llm       Augmenter
	website   PageFetcher
	graph     PathFinder
	options   query.Options
	cfg       Config
}

func NewService(deps Deps, cfg Config) (*Service, error) {
	if deps.Knowledge == nil {
		return nil, errors.New("chat: knowledge store is required")
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewStore(time.Hour)
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	if cfg.ContextHistory < 0 {
		cfg.ContextHistory = 0
	}
	if cfg.ReplyTTL <= 0 {
		cfg.ReplyTTL = 6 * time.Hour
	}

	s := &Service{
		knowledge: deps.Knowledge,
		sessions:  deps.Sessions,
		messages:  deps.Messages,
		cache:     deps.Cache,
		llm:       deps.LLM,
		website:   deps.Website,
		graph:     deps.Graph,
		options:   deps.Options,
		cfg:       cfg,
	}
	s.resolver.Store(query.NewResolver(deps.Knowledge.Base(), deps.Options))
	return s, nil
}

// Resolver returns the resolver for the current knowledge snapshot.
func (s *Service) Resolver() *query.Resolver {
	return s.resolver.Load()
}

// CheckMessage applies the length and content rules Send enforces.
func (s *Service) CheckMessage(message string) error {
	switch err := validation.CheckText(message, s.cfg.MaxMessageLength); {
	case errors.Is(err, validation.ErrEmptyText):
		return ErrEmptyMessage
	case errors.Is(err, validation.ErrTextTooLong):
		return ErrMessageTooLong
	case err != nil:
		return ErrUnsafeMessage
	}
	return nil
}

func (s *Service) Send(ctx context.Context, req Request) (*Reply, error) {
	start := time.Now()

	message := strings.TrimSpace(req.Message)
	if err := s.CheckMessage(message); err != nil {
		return nil, err
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	lang := language.Detect(message)
	if explicit, ok := language.Parse(req.Language); ok {
		lang = explicit
	}
	metrics.LanguagesDetected.WithLabelValues(lang.String()).Inc()

	_, first := s.sessions.Touch(sessionID)
	s.sessions.SetLanguage(sessionID, lang)

	answer := s.Resolver().ResolveTurn(message, lang, first)
	metrics.ResolutionsTotal.WithLabelValues(string(answer.Source)).Inc()
	metrics.ConfidenceScore.Observe(answer.Confidence)

	content, augmented := answer.Content, false
	if s.llm != nil {
		content, augmented = s.augment(ctx, sessionID, message, lang, answer)
	}

	reply := &Reply{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Content:    content,
		Language:   lang,
		Source:     answer.Source,
		Category:   answer.Category,
		Confidence: answer.Confidence,
		Augmented:  augmented,
	}

	elapsed := time.Since(start)
	reply.LatencyMS = elapsed.Milliseconds()
	metrics.RequestDuration.WithLabelValues("chat").Observe(elapsed.Seconds())

	s.persist(sessionID, message, reply)

	logger.Info("Chat turn resolved",
		zap.String("session_id", sessionID),
		zap.String("language", lang.String()),
		zap.String("source", string(answer.Source)),
		zap.Float64("confidence", answer.Confidence),
		zap.Bool("augmented", augmented),
		zap.Duration("latency", elapsed),
	)

	return reply, nil
}

// augment asks the LLM to rephrase the local answer. Any failure falls back
// to the local answer.
func (s *Service) augment(ctx context.Context, sessionID, message string, lang language.Language, answer query.Answer) (string, bool) {
	key := utils.HashKey(llm.PromptVersion, lang.String(), message, string(answer.Source), answer.Category, answer.Fact)

	if s.cache != nil {
		cached, ok, err := s.cache.GetReply(ctx, key)
		switch {
		case err != nil:
			logger.Warn("Reply cache lookup failed", zap.Error(err))
		case ok:
			metrics.CacheHits.WithLabelValues("reply").Inc()
			metrics.AugmentationsTotal.WithLabelValues("cached").Inc()
			return cached.Content, true
		default:
			metrics.CacheMisses.WithLabelValues("reply").Inc()
		}
	}

	req := llm.AugmentRequest{
		Message:     message,
		Language:    lang,
		LocalAnswer: answer.Content,
		History:     s.recentTurns(sessionID),
	}

	if s.website != nil {
		url := website.URLFor(message)
		text, err := s.website.Fetch(ctx, url)
		if err != nil {
			logger.Warn("Website context unavailable", zap.String("url", url), zap.Error(err))
		} else {
			req.WebsiteURL, req.WebsiteContent = url, text
		}
	}

	content, err := s.llm.Augment(ctx, req)
	if err != nil {
		metrics.AugmentationsTotal.WithLabelValues("error").Inc()
		logger.Warn("Augmentation failed, using local answer", zap.Error(err))
		return answer.Content, false
	}
	metrics.AugmentationsTotal.WithLabelValues("ok").Inc()

	if s.cache != nil {
		err := s.cache.SetReply(ctx, key, cache.CachedReply{
			Content:       content,
			Language:      lang.String(),
			PromptVersion: llm.PromptVersion,
			CreatedAt:     time.Now(),
		}, s.cfg.ReplyTTL)
		if err != nil {
			logger.Warn("Failed to cache reply", zap.Error(err))
		}
	}

	return content, true
}

func (s *Service) recentTurns(sessionID string) []llm.Turn {
	if s.messages == nil || s.cfg.ContextHistory == 0 {
		return nil
	}
	msgs, err := s.messages.GetMessages(sessionID, s.cfg.ContextHistory)
	if err != nil {
		logger.Warn("Failed to load conversation context", zap.Error(err))
		return nil
	}
	turns := make([]llm.Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, llm.Turn{Role: string(m.Role), Content: m.Content})
	}
	return turns
}

// persist stores both sides of the turn. Storage errors are logged; the
// user still gets the reply.
func (s *Service) persist(sessionID, message string, reply *Reply) {
	if s.messages == nil {
		return
	}

	now := time.Now()
	userMsg := &models.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   message,
		Language:  reply.Language.String(),
		CreatedAt: now,
	}
	botMsg := &models.Message{
		ID:         reply.ID,
		SessionID:  sessionID,
		Role:       models.RoleAssistant,
		Content:    reply.Content,
		Language:   reply.Language.String(),
		Source:     string(reply.Source),
		Confidence: reply.Confidence,
		CreatedAt:  now,
	}

	for _, m := range []*models.Message{userMsg, botMsg} {
		if err := s.messages.InsertMessage(m); err != nil {
			logger.Error("Failed to store message", zap.String("session_id", sessionID), zap.Error(err))
			return
		}
	}
	if _, err := s.messages.TrimMessages(sessionID, s.cfg.HistoryLimit); err != nil {
		logger.Warn("Failed to trim history", zap.String("session_id", sessionID), zap.Error(err))
	}

	err := s.messages.InsertQueryRecord(&models.QueryRecord{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		QueryText:  message,
		Language:   reply.Language.String(),
		Source:     string(reply.Source),
		Category:   reply.Category,
		Confidence: reply.Confidence,
		Augmented:  reply.Augmented,
		LatencyMS:  int(reply.LatencyMS),
		CreatedAt:  now,
	})
	if err != nil {
		logger.Warn("Failed to record query", zap.Error(err))
	}
}

// Directions answers from the route table first and falls back to a
// multi-leg path through the route graph when one is configured.
func (s *Service) Directions(ctx context.Context, from, to string, lang language.Language) (*campus.Directions, error) {
	if dir, ok := s.Resolver().Directions(from, to, lang); ok {
		return dir, nil
	}
	if s.graph == nil {
		return nil, ErrRouteNotFound
	}

	dir, err := s.graph.FindPath(ctx, from, to, lang)
	if err != nil {
		logger.Debug("Graph path lookup failed",
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
		return nil, ErrRouteNotFound
	}
	return dir, nil
}

func (s *Service) History(_ context.Context, sessionID string, limit int) ([]models.Message, error) {
	if s.messages == nil {
		return []models.Message{}, nil
	}
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	msgs, err := s.messages.GetMessages(sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return msgs, nil
}

// QueryHistory lists the session's resolution records, newest first.
func (s *Service) QueryHistory(_ context.Context, sessionID string, limit int) ([]models.QueryRecord, error) {
	if s.messages == nil {
		return []models.QueryRecord{}, nil
	}
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	records, err := s.messages.GetQueryHistory(sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load query history: %w", err)
	}
	if records == nil {
		records = []models.QueryRecord{}
	}
	return records, nil
}

func (s *Service) Clear(_ context.Context, sessionID string) error {
	s.sessions.Delete(sessionID)
	if s.messages == nil {
		return nil
	}
	if _, err := s.messages.DeleteMessages(sessionID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func (s *Service) Feedback(_ context.Context, fb models.Feedback) error {
	if s.messages == nil {
		return errors.New("chat: message storage is not configured")
	}
	if err := s.messages.StoreFeedback(&fb); err != nil {
		return err
	}
	metrics.FeedbackTotal.WithLabelValues(strconv.FormatBool(fb.Helpful)).Inc()
	return nil
}

func (s *Service) FeedbackStats(_ context.Context) (*models.FeedbackStats, error) {
	if s.messages == nil {
		return &models.FeedbackStats{}, nil
	}
	return s.messages.GetFeedbackStats()
}

// Reload re-reads the knowledge base and swaps in a new resolver. Cached
// augmented replies are dropped and the route graph is re-synced. A failed
// load leaves the running resolver untouched.
func (s *Service) Reload(ctx context.Context) (*ReloadResult, error) {
	base, err := s.knowledge.Reload()
	if err != nil {
		return nil, err
	}
	s.resolver.Store(query.NewResolver(base, s.options))

	result := &ReloadResult{
		Locations:  len(base.Locations),
		Routes:     len(base.Routes),
		QAEntries:  len(base.QA),
		FAQs:       len(base.FAQs),
		Categories: len(base.Categories),
	}

	if s.cache != nil {
		n, err := s.cache.Invalidate(ctx, cache.PrefixReply)
		if err != nil {
			logger.Warn("Failed to invalidate reply cache", zap.Error(err))
		}
		result.InvalidReplies = n
	}
	if s.graph != nil {
		if err := s.graph.Sync(ctx, base.Routes); err != nil {
			logger.Warn("Failed to sync route graph", zap.Error(err))
		}
	}

	return result, nil
}
