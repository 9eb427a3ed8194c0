package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"market-backend/internal/models"
	"market-backend/pkg/logger"
	"market-backend/pkg/redis"

	redisClient "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned by Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// RedisCacheManager implements CacheManager using Redis.
type RedisCacheManager struct {
	client *redis.Client
	config CacheConfig
	stats  *cacheStats
	ctx    context.Context
}

type cacheStats struct {
	mu          sync.RWMutex
	totalHits   int64
	totalMisses int64
}

// NewCacheManager creates a Redis-backed cache manager.
func NewCacheManager(client *redis.Client, config CacheConfig) CacheManager {
	return &RedisCacheManager{
		client: client,
		config: config,
		stats:  &cacheStats{},
		ctx:    context.Background(),
	}
}

// NewDefaultCacheManager creates a cache manager with default configuration.
func NewDefaultCacheManager(client *redis.Client) CacheManager {
	return NewCacheManager(client, DefaultCacheConfig())
}

func (r *RedisCacheManager) GetApplication(id string) (*models.Application, error) {
	key := r.buildKey("application", id)

	data, err := r.client.GetClient().Get(r.ctx, key).Result()
	if err != nil {
		if err == redisClient.Nil {
			r.recordMiss()
			return nil, nil // miss, not an error
		}
		return nil, fmt.Errorf("failed to get application from cache: %w", err)
	}

	var app models.Application
	if err := json.Unmarshal([]byte(data), &app); err != nil {
		return nil, fmt.Errorf("failed to unmarshal application data: %w", err)
	}

	r.recordHit()
	return &app, nil
}

func (r *RedisCacheManager) SetApplication(id string, app *models.Application, ttl time.Duration) error {
	key := r.buildKey("application", id)

	data, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("failed to marshal application data: %w", err)
	}

	if err := r.client.GetClient().Set(r.ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set application in cache: %w", err)
	}

	tags := []string{
		fmt.Sprintf("application:%s", id),
		fmt.Sprintf("category:%s", app.Category),
		fmt.Sprintf("status:%s", app.Status),
	}
	if err := r.TagKey(key, tags...); err != nil {
		logger.Logger().Warn("failed to tag cache key",
			zap.String("key", key), zap.Error(err))
	}

	return nil
}

func (r *RedisCacheManager) InvalidateApplication(id string) error {
	return r.Delete(r.buildKey("application", id))
}

func (r *RedisCacheManager) GetApplicationList(key string) ([]*models.Application, error) {
	cacheKey := r.buildKey("application_list", key)

	data, err := r.client.GetClient().Get(r.ctx, cacheKey).Result()
	if err != nil {
		if err == redisClient.Nil {
			r.recordMiss()
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application list from cache: %w", err)
	}

	var apps []*models.Application
	if err := json.Unmarshal([]byte(data), &apps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal application list data: %w", err)
	}

	r.recordHit()
	return apps, nil
}

func (r *RedisCacheManager) SetApplicationList(key string, apps []*models.Application, ttl time.Duration) error {
	cacheKey := r.buildKey("application_list", key)

	data, err := json.Marshal(apps)
	if err != nil {
		return fmt.Errorf("failed to marshal application list data: %w", err)
	}

	if err := r.client.GetClient().Set(r.ctx, cacheKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set application list in cache: %w", err)
	}

	// Lists are invalidated wholesale whenever any application changes.
	if err := r.TagKey(cacheKey, "application_lists"); err != nil {
		logger.Logger().Warn("failed to tag cache key",
			zap.String("key", cacheKey), zap.Error(err))
	}

	return nil
}

func (r *RedisCacheManager) Get(key string, dest interface{}) error {
	data, err := r.client.GetClient().Get(r.ctx, r.config.KeyPrefix+key).Result()
	if err != nil {
		if err == redisClient.Nil {
			r.recordMiss()
			return ErrCacheMiss
		}
		return err
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	r.recordHit()
	return nil
}

func (r *RedisCacheManager) Set(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return r.client.GetClient().Set(r.ctx, r.config.KeyPrefix+key, data, ttl).Err()
}

func (r *RedisCacheManager) Delete(key string) error {
	return r.client.GetClient().Del(r.ctx, key).Err()
}

func (r *RedisCacheManager) TagKey(key string, tags ...string) error {
	pipe := r.client.GetClient().Pipeline()
	for _, tag := range tags {
		tagKey := r.config.TagPrefix + tag
		pipe.SAdd(r.ctx, tagKey, key)
		pipe.Expire(r.ctx, tagKey, time.Hour)
	}
	_, err := pipe.Exec(r.ctx)
	return err
}

func (r *RedisCacheManager) InvalidateByTag(tag string) error {
	tagKey := r.config.TagPrefix + tag

	keys, err := r.client.GetClient().SMembers(r.ctx, tagKey).Result()
	if err != nil {
		return fmt.Errorf("failed to read tag members: %w", err)
	}

	if len(keys) > 0 {
		if err := r.client.GetClient().Del(r.ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete tagged keys: %w", err)
		}
	}

	return r.client.GetClient().Del(r.ctx, tagKey).Err()
}

func (r *RedisCacheManager) GetCacheStats() CacheStats {
	r.stats.mu.RLock()
	defer r.stats.mu.RUnlock()

	stats := CacheStats{
		TotalHits:   r.stats.totalHits,
		TotalMisses: r.stats.totalMisses,
	}

	total := stats.TotalHits + stats.TotalMisses
	if total > 0 {
		stats.HitRate = float64(stats.TotalHits) / float64(total)
		stats.MissRate = float64(stats.TotalMisses) / float64(total)
	}

	return stats
}

func (r *RedisCacheManager) HealthCheck() error {
	ctx, cancel := context.WithTimeout(r.ctx, 3*time.Second)
	defer cancel()
	return r.client.GetClient().Ping(ctx).Err()
}

func (r *RedisCacheManager) Close() error {
	return r.client.Close()
}

func (r *RedisCacheManager) buildKey(kind, id string) string {
	return fmt.Sprintf("%s%s:%s", r.config.KeyPrefix, kind, id)
}

func (r *RedisCacheManager) recordHit() {
	r.stats.mu.Lock()
	r.stats.totalHits++
	r.stats.mu.Unlock()
}

func (r *RedisCacheManager) recordMiss() {
	r.stats.mu.Lock()
	r.stats.totalMisses++
	r.stats.mu.Unlock()
}
