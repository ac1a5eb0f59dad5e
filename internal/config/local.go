package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig holds configuration for the pywhiz client
type LocalConfig struct {
	API        APIConfig        `yaml:"api"`
	Cache      CacheConfig      `yaml:"cache"`
	Learning   LearningConfig   `yaml:"learning"`
	Log        LogConfig        `yaml:"log"`
	Resilience ResilienceConfig `yaml:"resilience"`
}

// APIConfig holds remote API settings
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
}

// CacheConfig selects the local fallback cache backend
type CacheConfig struct {
	Driver   string `yaml:"driver"` // sqlite, file, redis, memory
	Path     string `yaml:"path,omitempty"`
	RedisURL string `yaml:"redis_url,omitempty"`
}

// LearningConfig holds page controller settings
type LearningConfig struct {
	VideoThreshold float64 `yaml:"video_threshold"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// ResilienceConfig tunes the breaker and bulkhead around background calls
type ResilienceConfig struct {
	BreakerFailures    int `yaml:"breaker_failures"`
	BreakerOpenSeconds int `yaml:"breaker_open_seconds"`
	MaxInFlight        int `yaml:"max_in_flight"`
}

// Dir returns the path to ~/.pywhiz, or $PYWHIZ_HOME when set
func Dir() (string, error) {
	if dir := os.Getenv("PYWHIZ_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".pywhiz"), nil
}

// EnsureDir creates ~/.pywhiz and subdirectories if they don't exist
func EnsureDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}

	subdirs := []string{
		"",
		"logs",
		"cache",
		"credentials",
	}

	for _, subdir := range subdirs {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// DefaultLocalConfig returns sensible defaults
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		API: APIConfig{
			BaseURL: "http://localhost:8000/api",
		},
		Cache: CacheConfig{
			Driver: "sqlite",
		},
		Learning: LearningConfig{
			VideoThreshold: 0.9,
		},
		Log: LogConfig{
			Level: "warn",
		},
		Resilience: ResilienceConfig{
			BreakerFailures:    3,
			BreakerOpenSeconds: 30,
			MaxInFlight:        4,
		},
	}
}

// LoadLocalConfig loads configuration from ~/.pywhiz/config.yaml, then
// applies .env and environment overrides
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(filepath.Join(dir, "config.yaml"))
}

// LoadFrom loads configuration from the given YAML file
func LoadFrom(configPath string) (*LocalConfig, error) {
	cfg := DefaultLocalConfig()

	// Missing file means defaults
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	loadDotEnv()
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveLocalConfig saves configuration to ~/.pywhiz/config.yaml
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsureDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Validate rejects settings the client cannot run with
func (c *LocalConfig) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	switch c.Cache.Driver {
	case "sqlite", "file", "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url must be set for the redis driver")
		}
	default:
		return fmt.Errorf("unknown cache driver %q (valid: sqlite, file, redis, memory)", c.Cache.Driver)
	}
	if c.Learning.VideoThreshold <= 0 || c.Learning.VideoThreshold > 1 {
		return fmt.Errorf("learning.video_threshold must be in (0, 1], got %v", c.Learning.VideoThreshold)
	}
	return nil
}

// CachePath resolves the cache file location for file-backed drivers
func (c *LocalConfig) CachePath(dir string) string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	switch c.Cache.Driver {
	case "sqlite":
		return filepath.Join(dir, "cache", "flags.db")
	default:
		return filepath.Join(dir, "cache")
	}
}
