package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// loadDotEnv loads ./.env into the process environment. Variables already
// set are left alone.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file", "error", err)
	}
}

// applyEnv overrides file settings with PYWHIZ_* variables
func applyEnv(cfg *LocalConfig) {
	// Same variable the web build used
	cfg.API.BaseURL = getEnv("VITE_API_URL", cfg.API.BaseURL)
	cfg.API.BaseURL = getEnv("PYWHIZ_API_URL", cfg.API.BaseURL)

	cfg.Cache.Driver = getEnv("PYWHIZ_CACHE_DRIVER", cfg.Cache.Driver)
	cfg.Cache.Path = getEnv("PYWHIZ_CACHE_PATH", cfg.Cache.Path)
	cfg.Cache.RedisURL = getEnv("PYWHIZ_REDIS_URL", cfg.Cache.RedisURL)

	cfg.Learning.VideoThreshold = getEnvFloat("PYWHIZ_VIDEO_THRESHOLD", cfg.Learning.VideoThreshold)
	cfg.Log.Level = getEnv("PYWHIZ_LOG_LEVEL", cfg.Log.Level)

	cfg.Resilience.BreakerFailures = getEnvInt("PYWHIZ_BREAKER_FAILURES", cfg.Resilience.BreakerFailures)
	cfg.Resilience.BreakerOpenSeconds = getEnvInt("PYWHIZ_BREAKER_OPEN_SECONDS", cfg.Resilience.BreakerOpenSeconds)
	cfg.Resilience.MaxInFlight = getEnvInt("PYWHIZ_MAX_IN_FLIGHT", cfg.Resilience.MaxInFlight)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
