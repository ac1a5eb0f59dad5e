package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pywhiz/pywhiz/internal/api"
	"github.com/pywhiz/pywhiz/internal/cache"
	"github.com/pywhiz/pywhiz/internal/config"
	"github.com/pywhiz/pywhiz/internal/learn"
	"github.com/pywhiz/pywhiz/internal/session"
)

// app holds the collaborators shared by every command
type app struct {
	cfg     *config.LocalConfig
	dir     string
	client  *api.Client
	flags   cache.Store
	store   *session.Store
	nav     *learn.Navigator
	logFile *os.File
}

// newApp loads configuration, opens the local cache and restores the saved
// session. Bootstrap failures leave the session anonymous.
func newApp(ctx context.Context) (*app, error) {
	dir, err := config.EnsureDir()
	if err != nil {
		return nil, fmt.Errorf("ensure pywhiz dir: %w", err)
	}

	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logFile, err := setupLogging(dir, parseLogLevel(cfg.Log.Level))
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	a := &app{cfg: cfg, dir: dir, logFile: logFile}

	a.flags, err = cache.Open(ctx, cache.Options{
		Driver:   cfg.Cache.Driver,
		Path:     cfg.CachePath(dir),
		RedisURL: cfg.Cache.RedisURL,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open cache: %w", err)
	}

	a.client, err = api.New(api.Config{
		BaseURL:            cfg.API.BaseURL,
		BreakerFailures:    cfg.Resilience.BreakerFailures,
		BreakerOpenTimeout: time.Duration(cfg.Resilience.BreakerOpenSeconds) * time.Second,
		Logger:             slog.Default(),
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create api client: %w", err)
	}

	creds, err := session.NewFileCredentials(dir)
	if err != nil {
		a.close()
		return nil, err
	}

	a.store = session.New(session.Config{
		Remote:      a.client,
		Cache:       a.flags,
		Credentials: creds,
		Logger:      slog.Default(),
		MaxInFlight: cfg.Resilience.MaxInFlight,
	})
	a.store.Bootstrap(ctx)

	a.nav = learn.NewNavigator(learn.Config{
		Session:        a.store,
		Content:        a.client,
		VideoThreshold: cfg.Learning.VideoThreshold,
		Logger:         slog.Default(),
	})
	return a, nil
}

// close waits for background progress updates, then releases resources
func (a *app) close() {
	if a.store != nil {
		a.store.Wait()
	}
	if a.flags != nil {
		if err := a.flags.Close(); err != nil {
			slog.Warn("close cache", "error", err)
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// requireLogin fails unless the saved session is valid
func (a *app) requireLogin() error {
	if !a.store.IsAuthenticated() {
		return fmt.Errorf("not logged in (run 'pywhiz login' first)")
	}
	return nil
}

// withApp runs fn with a bootstrapped app and a context cancelled on
// SIGINT/SIGTERM
func withApp(fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	return fn(ctx, a)
}

var stdin = bufio.NewReader(os.Stdin)

// prompt reads one line from stdin
func prompt(label string) (string, error) {
	fmt.Print(label)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads a password from $PYWHIZ_PASSWORD or stdin
func promptSecret(label string) (string, error) {
	if v := os.Getenv("PYWHIZ_PASSWORD"); v != "" {
		return v, nil
	}
	return prompt(label)
}
