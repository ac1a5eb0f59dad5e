package learn

import (
	"testing"

	"github.com/pywhiz/pywhiz/internal/domain"
)

func curriculum() []domain.Milestone {
	return []domain.Milestone{
		{ID: "m1", Title: "Hello Python", Order: 1, IsActive: true},
		{ID: "m2", Title: "Variables", Order: 2, IsActive: true},
		{ID: "m3", Title: "Loops", Order: 3, IsActive: true},
	}
}

func progressWith(current int, completed ...int) *domain.Progress {
	ms := curriculum()
	p := domain.NewProgress()
	if current > 0 {
		m := ms[current-1]
		p.CurrentMilestone = &m
	}
	for _, order := range completed {
		p.CompletedMilestones = append(p.CompletedMilestones, ms[order-1])
	}
	return p
}

func TestReachable(t *testing.T) {
	ms := curriculum()
	tests := []struct {
		name      string
		completed domain.IDSet
		id        string
		want      bool
	}{
		{"first milestone is always open", domain.NewIDSet(), "m1", true},
		{"second needs the first", domain.NewIDSet(), "m2", false},
		{"second after first", domain.NewIDSet("m1"), "m2", true},
		{"third needs both", domain.NewIDSet("m2"), "m3", false},
		{"unknown milestone", domain.NewIDSet("m1", "m2"), "m9", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reachable(ms, tt.completed, tt.id); got != tt.want {
				t.Errorf("Reachable(%s) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestStatuses(t *testing.T) {
	tests := []struct {
		name     string
		progress *domain.Progress
		want     []Status
	}{
		{"anonymous", nil, []Status{StatusCurrent, StatusLocked, StatusLocked}},
		{"fresh learner", progressWith(1), []Status{StatusCurrent, StatusLocked, StatusLocked}},
		{"first done", progressWith(2, 1), []Status{StatusCompleted, StatusCurrent, StatusLocked}},
		{"all done", progressWith(3, 1, 2, 3), []Status{StatusCompleted, StatusCompleted, StatusCompleted}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views := Statuses(curriculum(), tt.progress)
			if len(views) != len(tt.want) {
				t.Fatalf("len(Statuses()) = %d, want %d", len(views), len(tt.want))
			}
			for i, v := range views {
				if v.Status != tt.want[i] {
					t.Errorf("%s status = %s, want %s", v.Milestone.ID, v.Status, tt.want[i])
				}
			}
		})
	}
}

func TestAllComplete(t *testing.T) {
	ms := curriculum()
	if AllComplete(ms, nil) {
		t.Error("AllComplete(nil progress) = true")
	}
	if AllComplete(ms, progressWith(3, 1, 2)) {
		t.Error("AllComplete(two of three) = true")
	}
	if !AllComplete(ms, progressWith(3, 1, 2, 3)) {
		t.Error("AllComplete(three of three) = false")
	}
	if AllComplete(nil, progressWith(1)) {
		t.Error("AllComplete(no milestones) = true")
	}
}

func TestContinueTarget(t *testing.T) {
	tests := []struct {
		name          string
		progress      *domain.Progress
		lastVisited   string
		cachedCurrent string
		want          string
	}{
		{"no signal starts at the first milestone", nil, "", "", "/learn/m1"},
		{"anonymous resumes the last page", nil, "/code/m2", "", "/code/m2"},
		{"anonymous falls back to cached milestone", nil, "", "m3", "/learn/m3"},
		{"ignores pages of unknown milestones", nil, "/code/m9", "", "/learn/m1"},
		{"first open milestone", progressWith(2, 1), "", "", "/learn/m2"},
		{"resumes mid milestone", progressWith(2, 1), "/exercise/m2", "", "/exercise/m2"},
		{"stale last page is ignored", progressWith(3, 1, 2), "/code/m1", "", "/learn/m3"},
		{"everything done returns to last page", progressWith(3, 1, 2, 3), "/exercise/m3", "", "/exercise/m3"},
		{"everything done without last page", progressWith(3, 1, 2, 3), "", "", "/learn/m1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ContinueTarget(curriculum(), tt.progress, tt.lastVisited, tt.cachedCurrent)
			if !ok {
				t.Fatal("ContinueTarget() ok = false")
			}
			if got.Path() != tt.want {
				t.Errorf("ContinueTarget() = %s, want %s", got.Path(), tt.want)
			}
		})
	}

	if _, ok := ContinueTarget(nil, nil, "/learn/m1", ""); ok {
		t.Error("ContinueTarget(no milestones) ok = true")
	}
}
