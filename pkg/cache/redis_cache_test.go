package cache

import (
	"strings"
	"testing"
	"time"

	"market-backend/internal/config"
	"market-backend/internal/models"
	"market-backend/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) (CacheManager, func()) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	host, port, _ := strings.Cut(mr.Addr(), ":")
	client := redis.NewClient(config.RedisConfig{
		Host:         host,
		Port:         port,
		PoolSize:     5,
		MaxRetries:   1,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolTimeout:  2 * time.Second,
	})

	manager := NewDefaultCacheManager(client)

	return manager, func() {
		client.Close()
		mr.Close()
	}
}

func sampleApplication() *models.Application {
	return &models.Application{
		Name:       "Invoice Builder",
		Slug:       "invoice-builder",
		Category:   "productivity",
		PriceCents: 1999,
		Currency:   "USD",
		Status:     "published",
		Developer:  "Acme Tools",
	}
}

func TestCache_SetAndGetApplication(t *testing.T) {
	manager, cleanup := setupCache(t)
	defer cleanup()

	app := sampleApplication()
	require.NoError(t, manager.SetApplication("app-1", app, time.Minute))

	got, err := manager.GetApplication("app-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, app.Slug, got.Slug)
	assert.Equal(t, app.PriceCents, got.PriceCents)
}

func TestCache_MissReturnsNil(t *testing.T) {
	manager, cleanup := setupCache(t)
	defer cleanup()

	got, err := manager.GetApplication("absent")
	require.NoError(t, err)
	assert.Nil(t, got)

	stats := manager.GetCacheStats()
	assert.Equal(t, int64(1), stats.TotalMisses)
}

func TestCache_InvalidateApplication(t *testing.T) {
	manager, cleanup := setupCache(t)
	defer cleanup()

	require.NoError(t, manager.SetApplication("app-2", sampleApplication(), time.Minute))
	require.NoError(t, manager.InvalidateApplication("app-2"))

	got, err := manager.GetApplication("app-2")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_InvalidateByTagDropsLists(t *testing.T) {
	manager, cleanup := setupCache(t)
	defer cleanup()

	apps := []*models.Application{sampleApplication()}
	require.NoError(t, manager.SetApplicationList("all", apps, time.Minute))

	got, err := manager.GetApplicationList("all")
	require.NoError(t, err)
	require.Len(t, got, 1)

	require.NoError(t, manager.InvalidateByTag("application_lists"))

	got, err = manager.GetApplicationList("all")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_GenericRoundTrip(t *testing.T) {
	manager, cleanup := setupCache(t)
	defer cleanup()

	type payload struct {
		Count int    `json:"count"`
		Label string `json:"label"`
	}

	require.NoError(t, manager.Set("stats", payload{Count: 7, Label: "weekly"}, time.Minute))

	var got payload
	require.NoError(t, manager.Get("stats", &got))
	assert.Equal(t, 7, got.Count)

	assert.ErrorIs(t, manager.Get("missing", &got), ErrCacheMiss)
}

func TestCache_HealthCheck(t *testing.T) {
	manager, cleanup := setupCache(t)
	defer cleanup()

	assert.NoError(t, manager.HealthCheck())
}
