package cache

import (
	"context"
	"testing"

	"github.com/pywhiz/pywhiz/internal/domain"
)

func TestUnitKey(t *testing.T) {
	tests := []struct {
		kind domain.UnitKind
		id   string
		want string
	}{
		{domain.UnitVideo, "m1", "video_watched_m1"},
		{domain.UnitCode, "m1", "code_success_m1"},
		{domain.UnitExercise, "m2", "exercise_completed_m2"},
	}
	for _, tt := range tests {
		if got := UnitKey(tt.kind, tt.id); got != tt.want {
			t.Errorf("UnitKey(%s, %s) = %q, want %q", tt.kind, tt.id, got, tt.want)
		}
	}
}

func TestIsUnitKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"video_watched_m1", true},
		{"code_success_42", true},
		{"exercise_completed_m3", true},
		{"video_watched_", false},
		{"code_1_success", false},
		{LastVisitedPageKey, false},
		{CurrentMilestoneKey, false},
	}
	for _, tt := range tests {
		if got := IsUnitKey(tt.key); got != tt.want {
			t.Errorf("IsUnitKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestFlags(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if Flag(ctx, s, domain.UnitVideo, "m1") {
		t.Error("Flag() should be false before SetFlag")
	}
	if err := SetFlag(ctx, s, domain.UnitVideo, "m1"); err != nil {
		t.Fatalf("SetFlag() error = %v", err)
	}
	if !Flag(ctx, s, domain.UnitVideo, "m1") {
		t.Error("Flag() should be true after SetFlag")
	}

	s.Set(ctx, UnitKey(domain.UnitCode, "m1"), "false")
	if Flag(ctx, s, domain.UnitCode, "m1") {
		t.Error(`Flag() should only accept "true"`)
	}
}

func TestClearMilestone(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, kind := range domain.UnitKinds {
		SetFlag(ctx, s, kind, "m1")
		SetFlag(ctx, s, kind, "m2")
	}

	if err := ClearMilestone(ctx, s, "m1"); err != nil {
		t.Fatalf("ClearMilestone() error = %v", err)
	}
	for _, kind := range domain.UnitKinds {
		if Flag(ctx, s, kind, "m1") {
			t.Errorf("%s flag of m1 survived reset", kind)
		}
		if !Flag(ctx, s, kind, "m2") {
			t.Errorf("%s flag of m2 was removed", kind)
		}
	}
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	SetFlag(ctx, s, domain.UnitVideo, "m1")
	SetFlag(ctx, s, domain.UnitExercise, "m4")
	s.Set(ctx, LastVisitedPageKey, "/code/m4")
	s.Set(ctx, CurrentMilestoneKey, "m4")
	s.Set(ctx, "theme", "dark")

	if err := ClearAll(ctx, s); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}

	keys, _ := s.Keys(ctx)
	if len(keys) != 1 || keys[0] != "theme" {
		t.Errorf("Keys() after ClearAll = %v; want [theme]", keys)
	}
}
