package domain

import "time"

// Progress is the per-user aggregate kept by the remote progress store.
// CompletedMilestones is computed server-side and only ever read here.
type Progress struct {
	User                *User       `json:"user,omitempty"`
	CurrentMilestone    *Milestone  `json:"current_milestone"`
	CompletedMilestones []Milestone `json:"completed_milestones"`
	WatchedVideos       IDSet       `json:"watched_videos"`
	CompletedCode       IDSet       `json:"completed_code"`
	CompletedExercises  IDSet       `json:"completed_exercises"`
	Score               int         `json:"score"`
	CreatedAt           time.Time   `json:"created_at,omitempty"`
	UpdatedAt           time.Time   `json:"updated_at,omitempty"`
}

// NewProgress returns an empty progress record
func NewProgress() *Progress {
	return &Progress{
		CompletedMilestones: []Milestone{},
		WatchedVideos:       NewIDSet(),
		CompletedCode:       NewIDSet(),
		CompletedExercises:  NewIDSet(),
	}
}

// Normalize replaces nil sets with empty ones
func (p *Progress) Normalize() {
	if p.WatchedVideos == nil {
		p.WatchedVideos = NewIDSet()
	}
	if p.CompletedCode == nil {
		p.CompletedCode = NewIDSet()
	}
	if p.CompletedExercises == nil {
		p.CompletedExercises = NewIDSet()
	}
	if p.CompletedMilestones == nil {
		p.CompletedMilestones = []Milestone{}
	}
}

// Units returns the set tracking the given unit kind. Call Normalize before
// adding to the returned set.
func (p *Progress) Units(kind UnitKind) IDSet {
	switch kind {
	case UnitVideo:
		return p.WatchedVideos
	case UnitCode:
		return p.CompletedCode
	case UnitExercise:
		return p.CompletedExercises
	}
	return nil
}

// UnitCompleted reports whether the unit of the given kind is complete for a milestone
func (p *Progress) UnitCompleted(kind UnitKind, milestoneID string) bool {
	if p == nil {
		return false
	}
	return p.Units(kind).Has(milestoneID)
}

// MilestoneCompleted reports whether the server lists the milestone as completed
func (p *Progress) MilestoneCompleted(milestoneID string) bool {
	if p == nil {
		return false
	}
	for _, m := range p.CompletedMilestones {
		if m.ID == milestoneID {
			return true
		}
	}
	return false
}

// CompletedMilestoneIDs returns the ids of completed milestones
func (p *Progress) CompletedMilestoneIDs() IDSet {
	ids := NewIDSet()
	if p == nil {
		return ids
	}
	for _, m := range p.CompletedMilestones {
		ids.Add(m.ID)
	}
	return ids
}

// Badges derives one badge per completed milestone
func (p *Progress) Badges() []string {
	if p == nil {
		return nil
	}
	badges := make([]string, 0, len(p.CompletedMilestones))
	for _, m := range p.CompletedMilestones {
		badges = append(badges, "Completed: "+m.Title)
	}
	return badges
}

// Clone returns a deep copy
func (p *Progress) Clone() *Progress {
	if p == nil {
		return nil
	}
	out := *p
	if p.User != nil {
		u := *p.User
		out.User = &u
	}
	if p.CurrentMilestone != nil {
		m := *p.CurrentMilestone
		out.CurrentMilestone = &m
	}
	out.CompletedMilestones = append([]Milestone{}, p.CompletedMilestones...)
	out.WatchedVideos = p.WatchedVideos.Clone()
	out.CompletedCode = p.CompletedCode.Clone()
	out.CompletedExercises = p.CompletedExercises.Clone()
	return &out
}
