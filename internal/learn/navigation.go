package learn

import (
	"github.com/pywhiz/pywhiz/internal/domain"
)

// Status of a milestone on the dashboard
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCurrent   Status = "current"
	StatusLocked    Status = "locked"
)

// MilestoneView pairs a milestone with its dashboard status
type MilestoneView struct {
	Milestone domain.Milestone `json:"milestone"`
	Status    Status           `json:"status"`
}

// Reachable reports whether every milestone ordered before id is completed
func Reachable(milestones []domain.Milestone, completed domain.IDSet, id string) bool {
	target, ok := domain.FindMilestone(milestones, id)
	if !ok {
		return false
	}
	for _, m := range milestones {
		if m.Order < target.Order && !completed.Has(m.ID) {
			return false
		}
	}
	return true
}

// Statuses derives the dashboard status of every milestone. A milestone
// is completed when the server lists it, locked when it lies beyond the
// current milestone, and current otherwise.
func Statuses(milestones []domain.Milestone, progress *domain.Progress) []MilestoneView {
	completed := progress.CompletedMilestoneIDs()
	currentOrder := 1
	if progress != nil && progress.CurrentMilestone != nil {
		currentOrder = progress.CurrentMilestone.Order
	} else if first, ok := firstOpen(milestones, completed); ok {
		currentOrder = first.Order
	}

	views := make([]MilestoneView, 0, len(milestones))
	for _, m := range milestones {
		status := StatusCurrent
		switch {
		case completed.Has(m.ID):
			status = StatusCompleted
		case m.Order > currentOrder:
			status = StatusLocked
		}
		views = append(views, MilestoneView{Milestone: m, Status: status})
	}
	return views
}

// AllComplete reports whether the server lists every milestone as completed
func AllComplete(milestones []domain.Milestone, progress *domain.Progress) bool {
	if len(milestones) == 0 || progress == nil {
		return false
	}
	completed := progress.CompletedMilestoneIDs()
	for _, m := range milestones {
		if !completed.Has(m.ID) {
			return false
		}
	}
	return true
}

// ContinueTarget picks the page "Continue Learning" opens: the lowest-order
// milestone not yet completed, resuming at the last visited page when it
// belongs to that milestone. Without progress it follows the last visited
// page, then the cached current milestone, then the first milestone. The
// second result is false when there are no milestones.
func ContinueTarget(milestones []domain.Milestone, progress *domain.Progress, lastVisited, cachedCurrent string) (Page, bool) {
	if len(milestones) == 0 {
		return Page{}, false
	}
	sorted := append([]domain.Milestone(nil), milestones...)
	domain.SortMilestones(sorted)

	last, lastErr := ParsePage(lastVisited)
	lastValid := lastErr == nil
	if lastValid {
		_, lastValid = domain.FindMilestone(sorted, last.MilestoneID)
	}

	if progress == nil {
		if lastValid {
			return last, true
		}
		if m, ok := domain.FindMilestone(sorted, cachedCurrent); ok {
			return LearnPage(m.ID), true
		}
		return LearnPage(sorted[0].ID), true
	}

	target, ok := firstOpen(sorted, progress.CompletedMilestoneIDs())
	if !ok {
		if lastValid {
			return last, true
		}
		return LearnPage(sorted[0].ID), true
	}
	if lastValid && last.MilestoneID == target.ID {
		return last, true
	}
	return LearnPage(target.ID), true
}

// firstOpen returns the lowest-order milestone not in completed
func firstOpen(milestones []domain.Milestone, completed domain.IDSet) (domain.Milestone, bool) {
	var best *domain.Milestone
	for i := range milestones {
		if completed.Has(milestones[i].ID) {
			continue
		}
		if best == nil || milestones[i].Order < best.Order {
			best = &milestones[i]
		}
	}
	if best == nil {
		return domain.Milestone{}, false
	}
	return *best, true
}
