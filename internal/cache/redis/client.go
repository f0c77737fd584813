package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campus-assistant/backend/pkg/logger"
)

const (
	PrefixReply = "reply:"
	PrefixAudio = "audio:"
)

type Client struct {
	client *redis.Client
}

// CachedReply is an augmented answer stored against the hash of its inputs.
type CachedReply struct {
	Content       string    `json:"content"`
	Language      string    `json:"language"`
	PromptVersion string    `json:"prompt_version"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewClient(ctx context.Context, host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func ReplyKey(hash string) string {
	return PrefixReply + hash
}

func AudioKey(hash string) string {
	return PrefixAudio + hash
}

func (c *Client) SetReply(ctx context.Context, hash string, reply CachedReply, ttl time.Duration) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	if err := c.client.Set(ctx, ReplyKey(hash), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set reply cache: %w", err)
	}

	logger.Debug("Reply cached", zap.String("hash", hash), zap.Duration("ttl", ttl))
	return nil
}

// GetReply reports false with a nil error on a cache miss.
func (c *Client) GetReply(ctx context.Context, hash string) (*CachedReply, bool, error) {
	data, err := c.client.Get(ctx, ReplyKey(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get reply cache: %w", err)
	}

	var reply CachedReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal reply: %w", err)
	}

	logger.Debug("Reply cache hit", zap.String("hash", hash))
	return &reply, true, nil
}

func (c *Client) SetAudio(ctx context.Context, hash string, audio string, ttl time.Duration) error {
	if err := c.client.Set(ctx, AudioKey(hash), audio, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set audio cache: %w", err)
	}

	logger.Debug("Audio cached", zap.String("hash", hash), zap.Int("size", len(audio)))
	return nil
}

func (c *Client) GetAudio(ctx context.Context, hash string) (string, bool, error) {
	audio, err := c.client.Get(ctx, AudioKey(hash)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get audio cache: %w", err)
	}
	return audio, true, nil
}

// Invalidate deletes every key starting with prefix and returns how many
// were removed.
func (c *Client) Invalidate(ctx context.Context, prefix string) (int, error) {
	removed := 0
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.String("key", iter.Val()), zap.Error(err))
			continue
		}
		removed++
	}

	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Cache invalidated", zap.String("prefix", prefix), zap.Int("removed", removed))
	return removed, nil
}
