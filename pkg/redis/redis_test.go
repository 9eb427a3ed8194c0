package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"market-backend/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(addr string) config.RedisConfig {
	host, port, _ := strings.Cut(addr, ":")
	return config.RedisConfig{
		Host:         host,
		Port:         port,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		RetryDelay:   time.Second,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	}
}

func TestNewClient_ConnectsAndPings(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := NewClient(testConfig(mr.Addr()))
	defer client.Close()

	require.NotNil(t, client.GetClient())
	assert.True(t, client.IsConnected())

	err = client.GetClient().Set(context.Background(), "probe", "ok", time.Minute).Err()
	assert.NoError(t, err)
}

func TestHealthCheck_ReportsStatus(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := NewClient(testConfig(mr.Addr()))
	defer client.Close()

	status := client.HealthCheck()
	assert.True(t, status.IsConnected)
	assert.Empty(t, status.Error)
	assert.False(t, status.LastPing.IsZero())

	stats := client.GetConnectionStats()
	assert.Equal(t, true, stats["initialized"])
}

func TestHealthCheck_DetectsFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := NewClient(testConfig(mr.Addr()))
	defer client.Close()

	mr.Close()

	status := client.HealthCheck()
	assert.False(t, status.IsConnected)
	assert.NotEmpty(t, status.Error)
}
