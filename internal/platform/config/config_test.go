package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenEnvUnset(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Pool.MinThreads)
	require.Equal(t, 12, cfg.Pool.MaxThreads)
	require.Equal(t, "memory", cfg.Cache.Backend)
	require.Equal(t, 30*time.Second, cfg.Breaker.Timeout)
	require.False(t, cfg.ML.Enabled)
}

func TestLoad_ReadsOverridesFromEnv(t *testing.T) {
	t.Setenv("CUTSTOCK_POOL_MAX_THREADS", "24")
	t.Setenv("CUTSTOCK_ML_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 24, cfg.Pool.MaxThreads)
	require.True(t, cfg.ML.Enabled)
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("CUTSTOCK_POOL_MAX_QUEUE", "not-a-number")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 256, cfg.Pool.MaxQueue)
}

