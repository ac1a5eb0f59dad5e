package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pywhiz/pywhiz/internal/config"
	mcpserver "github.com/pywhiz/pywhiz/internal/mcp"
)

// cmdMCP starts the MCP server on stdio for AI tutors
func cmdMCP() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	mcpSrv := mcpserver.NewServer(mcpserver.Config{
		Session:   a.store,
		Navigator: a.nav,
		Version:   Version,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	slog.Info("mcp server started", "user", a.store.CurrentUser().DisplayName())
	return mcpSrv.ServeStdio(ctx)
}

// cmdConfig shows current configuration
func cmdConfig() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	dir, _ := config.Dir()

	fmt.Println("PyWhiz Configuration")

	fmt.Println("API:")
	fmt.Printf("  base_url: %s\n", cfg.API.BaseURL)

	fmt.Println("\nCache:")
	fmt.Printf("  driver: %s\n", cfg.Cache.Driver)
	switch cfg.Cache.Driver {
	case "redis":
		redisURL := cfg.Cache.RedisURL
		if u, err := url.Parse(redisURL); err == nil {
			redisURL = u.Redacted()
		}
		fmt.Printf("  redis_url: %s\n", redisURL)
	case "sqlite", "file":
		fmt.Printf("  path: %s\n", cfg.CachePath(dir))
	}

	fmt.Println("\nLearning:")
	fmt.Printf("  video_threshold: %.2f\n", cfg.Learning.VideoThreshold)

	fmt.Println("\nResilience:")
	fmt.Printf("  breaker_failures: %d\n", cfg.Resilience.BreakerFailures)
	fmt.Printf("  breaker_open_seconds: %d\n", cfg.Resilience.BreakerOpenSeconds)
	fmt.Printf("  max_in_flight: %d\n", cfg.Resilience.MaxInFlight)

	fmt.Println("\nLog:")
	fmt.Printf("  level: %s\n", cfg.Log.Level)
	fmt.Printf("  file: %s\n", filepath.Join(dir, "logs", "pywhiz.log"))

	fmt.Printf("\nConfig path: %s\n", filepath.Join(dir, "config.yaml"))

	return nil
}
