package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"volunteermatch/internal/domain"
)

// Config selects and configures a score cache.
type Config struct {
	Provider string // "redis" or "noop"
	Addr     string
	Password string
	DB       int
}

// NewScoreCache creates a score cache from config. Provider "redis" connects and pings the
// server; "noop" or an unknown provider disables caching.
func NewScoreCache(ctx context.Context, config Config, logger *slog.Logger) (domain.ScoreCache, func() error, error) {
	switch config.Provider {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.Addr,
			Password: config.Password,
			DB:       config.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("score cache connected", "provider", "redis", "addr", config.Addr)
		return NewRedisScoreCache(rdb), rdb.Close, nil
	case "noop", "":
		return noopCache{}, func() error { return nil }, nil
	default:
		logger.Warn("unknown score cache provider, caching disabled", "provider", config.Provider)
		return noopCache{}, func() error { return nil }, nil
	}
}

const keyPrefix = "volunteermatch:"

// kv is the subset of the go-redis client the cache uses.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type redisScoreCache struct {
	rdb kv
}

// NewRedisScoreCache stores scores as JSON values under a fixed key prefix.
func NewRedisScoreCache(rdb kv) domain.ScoreCache {
	return &redisScoreCache{rdb: rdb}
}

func (c *redisScoreCache) Get(ctx context.Context, key string) (*domain.MatchScore, bool, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var ms domain.MatchScore
	if err := json.Unmarshal(raw, &ms); err != nil {
		return nil, false, fmt.Errorf("decode cached score: %w", err)
	}
	return &ms, true, nil
}

func (c *redisScoreCache) Set(ctx context.Context, key string, score *domain.MatchScore, ttl time.Duration) error {
	raw, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("encode score: %w", err)
	}
	return c.rdb.Set(ctx, keyPrefix+key, raw, ttl).Err()
}

type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string) (*domain.MatchScore, bool, error) {
	return nil, false, nil
}

func (noopCache) Set(ctx context.Context, key string, score *domain.MatchScore, ttl time.Duration) error {
	return nil
}
