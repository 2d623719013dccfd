package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe-chat-gateway/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
)

// ErrNotFound 鍵不存在
var ErrNotFound = errors.New("key not found")

// Store 會話與待辦交棒資料的持久化介面
// Redis 開啟時使用 RedisStore，否則退回單機的 MemoryStore。
type Store interface {
	// Get 讀取值，不存在時回傳 ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set 寫入值與存活時間
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete 刪除鍵
	Delete(ctx context.Context, key string) error

	// GetDel 讀取後立即刪除，消費一次性資料用
	GetDel(ctx context.Context, key string) (string, error)

	// Close 關閉存放區
	Close() error
}

// RedisStore Redis 實作
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 創建 Redis 存放區
func NewRedisStore(cfg *config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Get 讀取值
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get key: %w", err)
	}
	return val, nil
}

// Set 寫入值
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

// Delete 刪除鍵
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// GetDel 讀取後立即刪除
func (s *RedisStore) GetDel(ctx context.Context, key string) (string, error) {
	val, err := s.client.GetDel(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to getdel key: %w", err)
	}
	return val, nil
}

// Close 關閉連接
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// NewStore 依設定選擇 Redis 或記憶體實作
func NewStore(cfg *config.Config) (Store, error) {
	if cfg.Redis.Enabled {
		return NewRedisStore(&cfg.Redis)
	}
	return NewMemoryStore(cfg.Session.CheckInterval), nil
}
