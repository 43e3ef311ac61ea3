package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"DOSSIER_ADDR", "DB_BASE_DIR", "POOL_CAPACITY", "OPERATION_TIMEOUT", "KAFKA_BROKERS", "REDIS_URL"} {
		t.Setenv(key, "")
	}
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "./data", cfg.BaseDir)
	assert.Equal(t, 10, cfg.Pool.Capacity)
	assert.Equal(t, 30*time.Second, cfg.Dossier.OperationTimeout)
	assert.Empty(t, cfg.Audit.Brokers)
	assert.Empty(t, cfg.Redis.URL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DOSSIER_ADDR", ":9090")
	t.Setenv("POOL_CAPACITY", "3")
	t.Setenv("POOL_ACQUIRE_TIMEOUT", "250ms")
	t.Setenv("RECONNECT_INTERVAL", "10m")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("CACHE_TTL", "2h")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 3, cfg.Pool.Capacity)
	assert.Equal(t, 250*time.Millisecond, cfg.Pool.AcquireTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Dossier.ReconnectInterval)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Audit.Brokers)
	assert.Equal(t, 2*time.Hour, cfg.Redis.TTL)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("POOL_CAPACITY", "many")
	t.Setenv("OPERATION_TIMEOUT", "soon")
	t.Setenv("FANOUT_LIMIT", "0")

	_, err := FromEnv()
	require.Error(t, err)
	assert.ErrorContains(t, err, "POOL_CAPACITY")
	assert.ErrorContains(t, err, "OPERATION_TIMEOUT")
	assert.ErrorContains(t, err, "FANOUT_LIMIT")
}
