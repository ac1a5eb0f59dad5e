package domain

import (
	"fmt"
	"strings"
)

// UnitKind identifies one of the three sub-activities of a milestone
type UnitKind string

const (
	UnitVideo    UnitKind = "video"
	UnitCode     UnitKind = "code"
	UnitExercise UnitKind = "exercise"
)

// UnitKinds lists the kinds in the order a learner meets them
var UnitKinds = []UnitKind{UnitVideo, UnitCode, UnitExercise}

// Valid reports whether k is a known unit kind
func (k UnitKind) Valid() bool {
	switch k {
	case UnitVideo, UnitCode, UnitExercise:
		return true
	}
	return false
}

// String returns the string representation
func (k UnitKind) String() string {
	return string(k)
}

// Next returns the kind that follows k within a milestone. The second
// return value is false for the last unit.
func (k UnitKind) Next() (UnitKind, bool) {
	switch k {
	case UnitVideo:
		return UnitCode, true
	case UnitCode:
		return UnitExercise, true
	}
	return "", false
}

// ParseUnitKind parses a unit kind, accepting "quiz" and "learn" as aliases
func ParseUnitKind(s string) (UnitKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "video", "learn":
		return UnitVideo, nil
	case "code":
		return UnitCode, nil
	case "exercise", "quiz":
		return UnitExercise, nil
	}
	return "", fmt.Errorf("%w: unknown unit kind %q", ErrInvalidInput, s)
}

// UnitState is the per-mount state of a unit
type UnitState int

const (
	NotStarted UnitState = iota
	InProgress
	Completed
)

func (s UnitState) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	}
	return "unknown"
}

// ResetScope selects what ResetProgress clears: everything, or the three
// unit sets of a single milestone.
type ResetScope struct {
	All         bool
	MilestoneID string
}

// ResetAll returns the scope covering every milestone
func ResetAll() ResetScope {
	return ResetScope{All: true}
}

// ResetMilestone returns the scope covering a single milestone
func ResetMilestone(id string) ResetScope {
	return ResetScope{MilestoneID: id}
}

// ParseResetScope parses "all" or a milestone id
func ParseResetScope(s string) (ResetScope, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || strings.EqualFold(s, "all"):
		return ResetAll(), nil
	default:
		return ResetMilestone(s), nil
	}
}

// Validate checks that a milestone scope names a milestone
func (r ResetScope) Validate() error {
	if !r.All && r.MilestoneID == "" {
		return fmt.Errorf("%w: reset scope needs a milestone id", ErrInvalidInput)
	}
	return nil
}

func (r ResetScope) String() string {
	if r.All {
		return "all"
	}
	return r.MilestoneID
}
