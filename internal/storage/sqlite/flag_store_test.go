package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFlagStore_SetGet(t *testing.T) {
	store := NewFlagStore(openTestDB(t))
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "video_watched_m1"); err != nil || ok {
		t.Fatalf("Get() on empty store = ok %v, err %v", ok, err)
	}

	if err := store.Set(ctx, "video_watched_m1", "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value, ok, err := store.Get(ctx, "video_watched_m1")
	if err != nil || !ok || value != "true" {
		t.Errorf("Get() = %q, %v, %v; want true", value, ok, err)
	}
}

func TestFlagStore_LastWriteWins(t *testing.T) {
	store := NewFlagStore(openTestDB(t))
	ctx := context.Background()

	store.Set(ctx, "lastVisitedPage", "/learn/m1")
	store.Set(ctx, "lastVisitedPage", "/code/m1")

	value, _, _ := store.Get(ctx, "lastVisitedPage")
	if value != "/code/m1" {
		t.Errorf("Get() = %q; want /code/m1", value)
	}
}

func TestFlagStore_RemoveAndKeys(t *testing.T) {
	store := NewFlagStore(openTestDB(t))
	ctx := context.Background()

	store.Set(ctx, "code_success_m1", "true")
	store.Set(ctx, "exercise_completed_m1", "true")

	if err := store.Remove(ctx, "code_success_m1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := store.Remove(ctx, "code_success_m1"); err != nil {
		t.Errorf("Remove() of missing key error = %v", err)
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != "exercise_completed_m1" {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestFlagStore_SharedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.db")
	ctx := context.Background()

	first, err := OpenFlagStore(path)
	if err != nil {
		t.Fatalf("OpenFlagStore() error = %v", err)
	}
	defer first.Close()
	second, err := OpenFlagStore(path)
	if err != nil {
		t.Fatalf("second OpenFlagStore() error = %v", err)
	}
	defer second.Close()

	if err := first.Set(ctx, "currentMilestone", "m2"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value, ok, err := second.Get(ctx, "currentMilestone")
	if err != nil || !ok || value != "m2" {
		t.Errorf("second store sees %q, %v, %v; want m2", value, ok, err)
	}
}
