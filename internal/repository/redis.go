package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"calcbot/internal/config"
	"calcbot/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisCacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisCacheRepository(client *redis.Client, ttl time.Duration) *RedisCacheRepository {
	return &RedisCacheRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisCacheRepository) Get(ctx context.Context, userID int64) (*models.SubscriptionEntry, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("subscription:%d", userID)
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription entry from redis: %w", err)
	}

	var entry models.SubscriptionEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subscription entry: %w", err)
	}

	return &entry, nil
}

func (r *RedisCacheRepository) Set(ctx context.Context, entry *models.SubscriptionEntry) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("subscription:%d", entry.UserID)
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription entry: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set subscription entry in redis: %w", err)
	}

	return nil
}

func (r *RedisCacheRepository) Delete(ctx context.Context, userID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("subscription:%d", userID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete subscription entry from redis: %w", err)
	}
	return nil
}

// Sweep для Redis не делает ничего: устаревшие ключи вытесняются по TTL.
func (r *RedisCacheRepository) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	return 0, nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
