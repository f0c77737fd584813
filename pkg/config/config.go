package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Neo4j     Neo4jConfig
	LLM       LLMConfig
	TTS       TTSConfig
	Website   WebsiteConfig
	Chat      ChatConfig
	Knowledge KnowledgeConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    int
	WriteTimeout   int
	BodyLimit      int
	AllowedOrigins []string
	Development    bool
	// AdminToken guards /admin routes. Empty disables them.
	AdminToken string
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLMin   int
}

type Neo4jConfig struct {
	Enabled  bool
	URI      string
	Username string
	Password string
	Database string
}

type LLMConfig struct {
	Enabled     bool
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	TopP        float32
	MaxTokens   int
	TimeoutSec  int
}

type TTSConfig struct {
	Enabled    bool
	Endpoint   string
	APIKey     string
	Model      string
	Speaker    string
	SampleRate int
	MaxChars   int
	TimeoutSec int
}

type WebsiteConfig struct {
	Enabled    bool
	MaxChars   int
	TimeoutSec int
	UserAgent  string
}

type ChatConfig struct {
	HistoryLimit   int
	ContextHistory int
	SessionTTLMin  int
}

type KnowledgeConfig struct {
	Dir string
}

type RateLimitConfig struct {
	RequestsPerMinute int
	MaxMessageLength  int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/campus-assistant")

	v.SetEnvPrefix("CAMPUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.bodyLimit", 1048576)
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.development", false)
	v.SetDefault("server.adminToken", "")

	v.SetDefault("sqlite.path", "./data/campus.db")

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttlMin", 360)

	v.SetDefault("neo4j.enabled", false)
	v.SetDefault("neo4j.uri", "bolt://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "password")
	v.SetDefault("neo4j.database", "neo4j")

	v.SetDefault("llm.enabled", true)
	v.SetDefault("llm.baseURL", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.apiKey", "")
	v.SetDefault("llm.temperature", 0.75)
	v.SetDefault("llm.topP", 0.85)
	v.SetDefault("llm.maxTokens", 350)
	v.SetDefault("llm.timeoutSec", 30)

	v.SetDefault("tts.enabled", true)
	v.SetDefault("tts.endpoint", "https://api.sarvam.ai/text-to-speech")
	v.SetDefault("tts.apiKey", "")
	v.SetDefault("tts.model", "bulbul:v2")
	v.SetDefault("tts.speaker", "manisha")
	v.SetDefault("tts.sampleRate", 22050)
	v.SetDefault("tts.maxChars", 500)
	v.SetDefault("tts.timeoutSec", 20)

	v.SetDefault("website.enabled", true)
	v.SetDefault("website.maxChars", 3000)
	v.SetDefault("website.timeoutSec", 8)
	v.SetDefault("website.userAgent", "Mozilla/5.0 (compatible; LBSCollegeBot/1.0)")

	v.SetDefault("chat.historyLimit", 50)
	v.SetDefault("chat.contextHistory", 6)
	v.SetDefault("chat.sessionTTLMin", 60)

	v.SetDefault("knowledge.dir", "")

	v.SetDefault("ratelimit.requestsPerMinute", 60)
	v.SetDefault("ratelimit.maxMessageLength", 1000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
	v.SetDefault("logging.maxSizeMB", 10)
	v.SetDefault("logging.maxBackups", 5)
	v.SetDefault("logging.maxAgeDays", 30)
	v.SetDefault("logging.compress", true)
}
