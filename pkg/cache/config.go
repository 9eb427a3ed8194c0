package cache

import "time"

// CacheConfig holds TTL values and key namespacing for the catalog cache.
type CacheConfig struct {
	ApplicationTTL time.Duration `json:"applicationTTL"`
	ListTTL        time.Duration `json:"listTTL"`
	KeyPrefix      string        `json:"keyPrefix"`
	TagPrefix      string        `json:"tagPrefix"`
}

// DefaultCacheConfig returns the default cache configuration. Catalog data
// changes rarely, so the TTLs are generous compared to the write rate.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		ApplicationTTL: 5 * time.Minute,
		ListTTL:        2 * time.Minute,
		KeyPrefix:      "market:cache:",
		TagPrefix:      "market:tag:",
	}
}
