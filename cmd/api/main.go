package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/campus-assistant/backend/internal/api/handlers"
	cache "github.com/campus-assistant/backend/internal/cache/redis"
	"github.com/campus-assistant/backend/internal/chat"
	graph "github.com/campus-assistant/backend/internal/graph/neo4j"
	"github.com/campus-assistant/backend/internal/knowledge"
	"github.com/campus-assistant/backend/internal/llm"
	"github.com/campus-assistant/backend/internal/metrics"
	"github.com/campus-assistant/backend/internal/middleware/ratelimit"
	"github.com/campus-assistant/backend/internal/middleware/security"
	"github.com/campus-assistant/backend/internal/middleware/validation"
	"github.com/campus-assistant/backend/internal/session"
	"github.com/campus-assistant/backend/internal/storage/sqlite"
	"github.com/campus-assistant/backend/internal/tts"
	"github.com/campus-assistant/backend/internal/website"
	"github.com/campus-assistant/backend/pkg/config"
	appLogger "github.com/campus-assistant/backend/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(appLogger.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting LBS Campus Assistant API Server", zap.String("version", version))
	metrics.Init()

	ctx := context.Background()

	kb, err := knowledge.NewStore(cfg.Knowledge.Dir)
	if err != nil {
		appLogger.Fatal("Failed to load knowledge base", zap.Error(err))
	}

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	checks := map[string]handlers.Check{
		"sqlite": func(context.Context) error { return sqliteClient.Ping() },
	}

	deps := chat.Deps{
		Knowledge: kb,
		Sessions:  session.NewStore(time.Duration(cfg.Chat.SessionTTLMin) * time.Minute),
		Messages:  sqliteClient,
	}

	var redisClient *cache.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewClient(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			deps.Cache = redisClient
			checks["redis"] = redisClient.Ping
		}
	}

	if cfg.LLM.Enabled {
		llmClient, err := llm.NewClient(llm.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			TopP:        cfg.LLM.TopP,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		})
		switch {
		case errors.Is(err, llm.ErrNotConfigured):
			appLogger.Warn("LLM API key not set, answering from the knowledge base only")
		case err != nil:
			appLogger.Fatal("Failed to create LLM client", zap.Error(err))
		default:
			deps.LLM = llmClient
		}
	}

	if cfg.Website.Enabled {
		deps.Website = website.NewFetcher(
			time.Duration(cfg.Website.TimeoutSec)*time.Second,
			cfg.Website.UserAgent,
			cfg.Website.MaxChars,
		)
	}

	if cfg.Neo4j.Enabled {
		graphClient, err := graph.NewClient(ctx, cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, cfg.Neo4j.Database)
		if err != nil {
			appLogger.Warn("Neo4j unavailable, multi-leg directions disabled", zap.Error(err))
		} else {
			defer graphClient.Close(context.Background())
			if err := graphClient.Sync(ctx, kb.Base().Routes); err != nil {
				appLogger.Warn("Failed to sync route graph", zap.Error(err))
			}
			deps.Graph = graphClient
		}
	}

	var synth handlers.Synthesizer
	if cfg.TTS.Enabled {
		ttsClient, err := tts.NewClient(tts.Config{
			Endpoint:   cfg.TTS.Endpoint,
			APIKey:     cfg.TTS.APIKey,
			Model:      cfg.TTS.Model,
			Speaker:    cfg.TTS.Speaker,
			SampleRate: cfg.TTS.SampleRate,
			MaxChars:   cfg.TTS.MaxChars,
			Timeout:    time.Duration(cfg.TTS.TimeoutSec) * time.Second,
		})
		switch {
		case errors.Is(err, tts.ErrNotConfigured):
			appLogger.Warn("TTS API key not set, speech disabled")
		case err != nil:
			appLogger.Fatal("Failed to create TTS client", zap.Error(err))
		default:
			synth = ttsClient
		}
	}

	replyTTL := time.Duration(cfg.Redis.TTLMin) * time.Minute
	chatService, err := chat.NewService(deps, chat.Config{
		HistoryLimit:     cfg.Chat.HistoryLimit,
		ContextHistory:   cfg.Chat.ContextHistory,
		ReplyTTL:         replyTTL,
		MaxMessageLength: cfg.RateLimit.MaxMessageLength,
	})
	if err != nil {
		appLogger.Fatal("Failed to create chat service", zap.Error(err))
	}

	var audioCache handlers.AudioCache
	if redisClient != nil {
		audioCache = redisClient
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Server.AllowedOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Session-ID, X-Admin-Token",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IsDevelopment:  cfg.Server.Development,
	}))

	registerRoutes(app, routeHandlers{
		query:   handlers.NewQueryHandler(chatService),
		campus:  handlers.NewCampusHandler(chatService),
		history: handlers.NewHistoryHandler(chatService),
		tts:     handlers.NewTTSHandler(synth, audioCache, replyTTL),
		admin:   handlers.NewAdminHandler(chatService),
		health:  handlers.NewHealthHandler(version, checks),
		ws:      handlers.NewWebSocketHandler(chatService, time.Duration(cfg.LLM.TimeoutSec)*time.Second),
	}, routeConfig{
		limiter: limiter,
		validation: validation.Config{
			MaxMessageLength: cfg.RateLimit.MaxMessageLength,
			Logger:           appLogger.GetLogger(),
		},
		adminToken: cfg.Server.AdminToken,
	})
	if cfg.Server.AdminToken == "" {
		appLogger.Warn("Admin token not set, admin endpoints disabled")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
