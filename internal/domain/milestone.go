package domain

import (
	"fmt"
	"sort"
	"time"
)

// Milestone is an ordered curriculum unit. Order is dense and 1-based.
type Milestone struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Order       int       `json:"order"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// SortMilestones orders milestones by their Order field in place
func SortMilestones(ms []Milestone) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Order < ms[j].Order
	})
}

// ActiveMilestones returns the active milestones sorted by order
func ActiveMilestones(ms []Milestone) []Milestone {
	out := make([]Milestone, 0, len(ms))
	for _, m := range ms {
		if m.IsActive {
			out = append(out, m)
		}
	}
	SortMilestones(out)
	return out
}

// ValidateOrder checks that sorted milestones carry the orders 1..n
func ValidateOrder(ms []Milestone) error {
	seen := make(map[string]bool, len(ms))
	for i, m := range ms {
		if m.ID == "" {
			return fmt.Errorf("%w: milestone at position %d has no id", ErrInvalidInput, i+1)
		}
		if seen[m.ID] {
			return fmt.Errorf("%w: duplicate milestone id %s", ErrInvalidInput, m.ID)
		}
		seen[m.ID] = true
		if m.Order != i+1 {
			return fmt.Errorf("%w: milestone %s has order %d, want %d", ErrInvalidInput, m.ID, m.Order, i+1)
		}
	}
	return nil
}

// FindMilestone returns the milestone with the given id
func FindMilestone(ms []Milestone, id string) (Milestone, bool) {
	for _, m := range ms {
		if m.ID == id {
			return m, true
		}
	}
	return Milestone{}, false
}

// NextMilestone returns the milestone whose order follows the given one
func NextMilestone(ms []Milestone, id string) (Milestone, bool) {
	current, ok := FindMilestone(ms, id)
	if !ok {
		return Milestone{}, false
	}
	var next *Milestone
	for i := range ms {
		if ms[i].Order > current.Order && (next == nil || ms[i].Order < next.Order) {
			next = &ms[i]
		}
	}
	if next == nil {
		return Milestone{}, false
	}
	return *next, true
}
