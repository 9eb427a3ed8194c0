package cache

import (
	"time"

	"market-backend/internal/models"
)

// CacheManager defines the caching operations used by the catalog services.
type CacheManager interface {
	// Application operations
	GetApplication(id string) (*models.Application, error)
	SetApplication(id string, app *models.Application, ttl time.Duration) error
	InvalidateApplication(id string) error

	// Application list operations
	GetApplicationList(key string) ([]*models.Application, error)
	SetApplicationList(key string, apps []*models.Application, ttl time.Duration) error

	// Generic operations
	Get(key string, dest interface{}) error
	Set(key string, value interface{}, ttl time.Duration) error
	Delete(key string) error

	// Tag operations for grouped invalidation
	TagKey(key string, tags ...string) error
	InvalidateByTag(tag string) error

	// Statistics and health
	GetCacheStats() CacheStats
	HealthCheck() error
	Close() error
}

// CacheStats provides cache performance metrics.
type CacheStats struct {
	HitRate     float64 `json:"hitRate"`
	MissRate    float64 `json:"missRate"`
	TotalHits   int64   `json:"totalHits"`
	TotalMisses int64   `json:"totalMisses"`
}
