package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe-importer/internal/infrastructure/config"
	"recipe-importer/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "ai:response:"

// Service Redis 緩存服務，多個實例共用估算結果
type Service struct {
	client *redis.Client
	ttl    time.Duration
}

// NewService 連線 Redis 並建立緩存服務
func NewService(ctx context.Context, cacheCfg config.CacheConfig, redisCfg config.RedisConfig) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewServiceWithClient(client, cacheCfg.TTL), nil
}

// NewServiceWithClient 使用既有的 redis client
func NewServiceWithClient(client *redis.Client, ttl time.Duration) *Service {
	return &Service{client: client, ttl: ttl}
}

// Get 獲取緩存
func (s *Service) Get(ctx context.Context, prompt string) (string, error) {
	val, err := s.client.Get(ctx, s.generateKey(prompt)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			common.LogCacheMiss("redis")
			return "", common.ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get cache: %w", err)
	}
	common.LogCacheHit("redis")
	return val, nil
}

// Set 設置緩存
func (s *Service) Set(ctx context.Context, prompt, value string) error {
	if err := s.client.Set(ctx, s.generateKey(prompt), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close 關閉 Redis 連線
func (s *Service) Close() error {
	return s.client.Close()
}

// generateKey 生成緩存鍵
func (s *Service) generateKey(prompt string) string {
	return keyPrefix + hashString(prompt)
}

var _ Cache = (*Service)(nil)
