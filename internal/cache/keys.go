package cache

import (
	"context"
	"strings"

	"github.com/pywhiz/pywhiz/internal/domain"
)

// Well-known keys
const (
	LastVisitedPageKey  = "lastVisitedPage"
	CurrentMilestoneKey = "currentMilestone"
)

const flagTrue = "true"

var unitKeyPrefix = map[domain.UnitKind]string{
	domain.UnitVideo:    "video_watched_",
	domain.UnitCode:     "code_success_",
	domain.UnitExercise: "exercise_completed_",
}

// UnitKey returns the flag key for a unit of a milestone, e.g. video_watched_m1
func UnitKey(kind domain.UnitKind, milestoneID string) string {
	return unitKeyPrefix[kind] + milestoneID
}

// UnitKeys returns the three unit flag keys of a milestone
func UnitKeys(milestoneID string) []string {
	keys := make([]string, 0, len(domain.UnitKinds))
	for _, kind := range domain.UnitKinds {
		keys = append(keys, UnitKey(kind, milestoneID))
	}
	return keys
}

// IsUnitKey reports whether key is a unit flag key
func IsUnitKey(key string) bool {
	for _, prefix := range unitKeyPrefix {
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			return true
		}
	}
	return false
}

// Flag reads a unit flag. Backend errors read as false.
func Flag(ctx context.Context, s Store, kind domain.UnitKind, milestoneID string) bool {
	v, ok, err := s.Get(ctx, UnitKey(kind, milestoneID))
	return err == nil && ok && v == flagTrue
}

// SetFlag marks a unit complete
func SetFlag(ctx context.Context, s Store, kind domain.UnitKind, milestoneID string) error {
	return s.Set(ctx, UnitKey(kind, milestoneID), flagTrue)
}

// ClearMilestone removes the unit flags of one milestone
func ClearMilestone(ctx context.Context, s Store, milestoneID string) error {
	for _, key := range UnitKeys(milestoneID) {
		if err := s.Remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// ClearAll removes every unit flag plus the resume hints
func ClearAll(ctx context.Context, s Store) error {
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if IsUnitKey(key) || key == LastVisitedPageKey || key == CurrentMilestoneKey {
			if err := s.Remove(ctx, key); err != nil {
				return err
			}
		}
	}
	return nil
}
