package config

import (
	"path/filepath"
	"testing"
)

func TestApplyEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("VITE_API_URL", "http://vite.example/api")
	t.Setenv("PYWHIZ_API_URL", "http://pywhiz.example/api")
	t.Setenv("PYWHIZ_CACHE_DRIVER", "memory")
	t.Setenv("PYWHIZ_VIDEO_THRESHOLD", "0.95")
	t.Setenv("PYWHIZ_MAX_IN_FLIGHT", "8")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	// PYWHIZ_API_URL wins over VITE_API_URL
	if cfg.API.BaseURL != "http://pywhiz.example/api" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Cache.Driver != "memory" {
		t.Errorf("Cache.Driver = %q, want memory", cfg.Cache.Driver)
	}
	if cfg.Learning.VideoThreshold != 0.95 {
		t.Errorf("VideoThreshold = %v, want 0.95", cfg.Learning.VideoThreshold)
	}
	if cfg.Resilience.MaxInFlight != 8 {
		t.Errorf("MaxInFlight = %d, want 8", cfg.Resilience.MaxInFlight)
	}
}

func TestApplyEnv_InvalidNumbersIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("PYWHIZ_BREAKER_FAILURES", "many")
	t.Setenv("PYWHIZ_VIDEO_THRESHOLD", "most")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Resilience.BreakerFailures != 3 {
		t.Errorf("BreakerFailures = %d, want default 3", cfg.Resilience.BreakerFailures)
	}
	if cfg.Learning.VideoThreshold != 0.9 {
		t.Errorf("VideoThreshold = %v, want default 0.9", cfg.Learning.VideoThreshold)
	}
}

func TestApplyEnv_VitePrefix(t *testing.T) {
	clearEnv(t)
	t.Setenv("VITE_API_URL", "http://vite.example/api")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.API.BaseURL != "http://vite.example/api" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
}
