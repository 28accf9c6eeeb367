// Package config loads the engine's runtime configuration from a .env
// file plus the process environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/cutstock/engine/internal/platform/logger"
)

// Config holds every configuration section the engine's ambient and
// domain stacks read from.
type Config struct {
	Logging    logger.Config
	Pool       PoolConfig
	Cache      CacheConfig
	Breaker    BreakerConfig
	Experiment ExperimentConfig
	ML         MLConfig
}

// PoolConfig configures the worker pool (§6 pool.*).
type PoolConfig struct {
	MinThreads     int
	MaxThreads     int
	MaxQueue       int
	IdleTimeout    time.Duration
}

// CacheConfig configures the cache component (§6 cache.*).
type CacheConfig struct {
	Backend        string // "memory" or "distributed"
	DefaultTTL     time.Duration
	KeyPrefix      string
	RedisURL       string
}

// BreakerConfig configures the circuit breaker (§6 breaker.*).
type BreakerConfig struct {
	Timeout           time.Duration
	ErrorThresholdPct int
	ResetTimeout      time.Duration
	VolumeThreshold   int
}

// ExperimentConfig configures experiment-assignment caching (§6 experiment.*).
type ExperimentConfig struct {
	TTL    time.Duration
	Jitter time.Duration
}

// MLConfig configures ML-assisted selection and shadow evaluation (§6 ml.*).
type MLConfig struct {
	Enabled            bool
	ShadowWindowDays   int
	ShadowMinImprove   float64
	ShadowMinSamples   int
}

// Load reads a .env file (if present) and the process environment into
// a Config, applying spec-mandated defaults for anything unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Logging: logger.Config{
			Level:  getEnv("CUTSTOCK_LOG_LEVEL", "info"),
			Format: getEnv("CUTSTOCK_LOG_FORMAT", "json"),
		},
		Pool: PoolConfig{
			MinThreads:  getEnvAsInt("CUTSTOCK_POOL_MIN_THREADS", 4),
			MaxThreads:  getEnvAsInt("CUTSTOCK_POOL_MAX_THREADS", 12),
			MaxQueue:    getEnvAsInt("CUTSTOCK_POOL_MAX_QUEUE", 256),
			IdleTimeout: getEnvAsDuration("CUTSTOCK_POOL_IDLE_TIMEOUT", 60*time.Second),
		},
		Cache: CacheConfig{
			Backend:    getEnv("CUTSTOCK_CACHE_BACKEND", "memory"),
			DefaultTTL: getEnvAsDuration("CUTSTOCK_CACHE_DEFAULT_TTL", 5*time.Minute),
			KeyPrefix:  getEnv("CUTSTOCK_CACHE_KEY_PREFIX", "cutstock:"),
			RedisURL:   getEnv("CUTSTOCK_CACHE_REDIS_URL", "redis://localhost:6379"),
		},
		Breaker: BreakerConfig{
			Timeout:           getEnvAsDuration("CUTSTOCK_BREAKER_TIMEOUT", 30*time.Second),
			ErrorThresholdPct: getEnvAsInt("CUTSTOCK_BREAKER_ERROR_THRESHOLD_PCT", 50),
			ResetTimeout:      getEnvAsDuration("CUTSTOCK_BREAKER_RESET_TIMEOUT", 10*time.Second),
			VolumeThreshold:   getEnvAsInt("CUTSTOCK_BREAKER_VOLUME_THRESHOLD", 5),
		},
		Experiment: ExperimentConfig{
			TTL:    getEnvAsDuration("CUTSTOCK_EXPERIMENT_TTL", 60*time.Second),
			Jitter: getEnvAsDuration("CUTSTOCK_EXPERIMENT_JITTER", 5*time.Second),
		},
		ML: MLConfig{
			Enabled:          getEnvAsBool("CUTSTOCK_ML_ENABLED", false),
			ShadowWindowDays: getEnvAsInt("CUTSTOCK_ML_SHADOW_WINDOW_DAYS", 7),
			ShadowMinImprove: getEnvAsFloat("CUTSTOCK_ML_SHADOW_MIN_IMPROVEMENT", 0.05),
			ShadowMinSamples: getEnvAsInt("CUTSTOCK_ML_SHADOW_MIN_SAMPLES", 100),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
