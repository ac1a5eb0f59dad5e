package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/pywhiz/pywhiz/internal/domain"
	"github.com/pywhiz/pywhiz/internal/learn"
)

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{0, "[░░░░]"},
		{0.5, "[██░░]"},
		{1, "[████]"},
		{1.5, "[████]"},
		{-1, "[░░░░]"},
	}
	for _, tt := range tests {
		if got := renderProgressBar(tt.value, 4); got != tt.want {
			t.Errorf("renderProgressBar(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestPageCommand(t *testing.T) {
	tests := []struct {
		page learn.Page
		want string
	}{
		{learn.LearnPage("m1"), "learn m1"},
		{learn.Page{Kind: domain.UnitCode, MilestoneID: "m2"}, "code m2"},
		{learn.Page{Kind: domain.UnitExercise, MilestoneID: "m3"}, "quiz m3"},
	}
	for _, tt := range tests {
		if got := pageCommand(tt.page); got != tt.want {
			t.Errorf("pageCommand(%s) = %q, want %q", tt.page, got, tt.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelWarn,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMultiHandler(t *testing.T) {
	var debug, warn bytes.Buffer
	logger := slog.New(&multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}}).With("component", "test")

	logger.Info("quiet")
	logger.Warn("loud")

	if !strings.Contains(debug.String(), "quiet") || !strings.Contains(debug.String(), "loud") {
		t.Errorf("debug handler output = %q", debug.String())
	}
	if strings.Contains(warn.String(), "quiet") || !strings.Contains(warn.String(), "component=test") {
		t.Errorf("warn handler output = %q", warn.String())
	}
}
