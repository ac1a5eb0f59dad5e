package domain

import (
	"errors"
	"testing"
)

func TestActiveMilestones(t *testing.T) {
	ms := []Milestone{
		{ID: "c", Order: 3, IsActive: true},
		{ID: "a", Order: 1, IsActive: true},
		{ID: "x", Order: 2, IsActive: false},
		{ID: "b", Order: 2, IsActive: true},
	}

	got := ActiveMilestones(ms)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("ActiveMilestones() returned %d; want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d = %s; want %s", i, got[i].ID, id)
		}
	}
}

func TestValidateOrder(t *testing.T) {
	tests := []struct {
		name    string
		ms      []Milestone
		wantErr bool
	}{
		{"empty", nil, false},
		{"dense", []Milestone{{ID: "a", Order: 1}, {ID: "b", Order: 2}}, false},
		{"gap", []Milestone{{ID: "a", Order: 1}, {ID: "b", Order: 3}}, true},
		{"zero-based", []Milestone{{ID: "a", Order: 0}}, true},
		{"duplicate id", []Milestone{{ID: "a", Order: 1}, {ID: "a", Order: 2}}, true},
		{"missing id", []Milestone{{Order: 1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOrder(tt.ms)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOrder() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error should wrap ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestNextMilestone(t *testing.T) {
	ms := []Milestone{{ID: "a", Order: 1}, {ID: "c", Order: 3}, {ID: "b", Order: 2}}

	next, ok := NextMilestone(ms, "a")
	if !ok || next.ID != "b" {
		t.Errorf("NextMilestone(a) = %v, %v; want b", next.ID, ok)
	}

	if _, ok := NextMilestone(ms, "c"); ok {
		t.Error("last milestone should have no successor")
	}
	if _, ok := NextMilestone(ms, "zzz"); ok {
		t.Error("unknown milestone should have no successor")
	}
}
