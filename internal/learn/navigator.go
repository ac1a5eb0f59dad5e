// Package learn drives a learner through the curriculum. A single generic
// Controller serves the video, code and quiz unit of every milestone; the
// Navigator decides which milestones are unlocked and where "continue"
// leads.
package learn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pywhiz/pywhiz/internal/cache"
	"github.com/pywhiz/pywhiz/internal/domain"
)

// DefaultVideoThreshold is the watched fraction that completes a video
const DefaultVideoThreshold = 0.9

// Session is the part of the session store the controllers depend on
type Session interface {
	IsAuthenticated() bool
	Progress() *domain.Progress
	UnitCompleted(kind domain.UnitKind, milestoneID string) bool
	MarkUnitComplete(ctx context.Context, kind domain.UnitKind, milestoneID, unitID string) error
	SetCurrentMilestone(ctx context.Context, m domain.Milestone)
	Cache() cache.Store
}

// Content is the curriculum and judge API used by the controllers
type Content interface {
	Milestones(ctx context.Context) ([]domain.Milestone, error)
	LearnContents(ctx context.Context, milestoneID string) ([]domain.LearnContent, error)
	CodeQuestions(ctx context.Context, milestoneID string) ([]domain.CodeQuestion, error)
	MCQQuestions(ctx context.Context, milestoneID string) ([]domain.MCQQuestion, error)
	SubmitCode(ctx context.Context, questionID, code string, inputs []string) (*domain.CodeSubmission, error)
	SubmitMCQ(ctx context.Context, questionID, option string) (*domain.MCQResult, error)
}

// Config contains the collaborators of a Navigator
type Config struct {
	Session        Session
	Content        Content
	VideoThreshold float64 // fraction in (0, 1], default 0.9
	Logger         *slog.Logger
}

// Navigator mounts page controllers and answers dashboard questions
type Navigator struct {
	session   Session
	content   Content
	threshold float64
	logger    *slog.Logger
}

// NewNavigator creates a Navigator
func NewNavigator(cfg Config) *Navigator {
	threshold := cfg.VideoThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultVideoThreshold
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{
		session:   cfg.Session,
		content:   cfg.Content,
		threshold: threshold,
		logger:    logger,
	}
}

// Milestones fetches the active milestones in order
func (n *Navigator) Milestones(ctx context.Context) ([]domain.Milestone, error) {
	ms, err := n.content.Milestones(ctx)
	if err != nil {
		return nil, unavailable(err)
	}
	return ms, nil
}

// Dashboard is the learner's overview
type Dashboard struct {
	Milestones  []MilestoneView `json:"milestones"`
	Score       int             `json:"score"`
	Badges      []string        `json:"badges"`
	AllComplete bool            `json:"all_complete"`
	Continue    string          `json:"continue,omitempty"`
}

// Dashboard builds the overview from the merged session progress
func (n *Navigator) Dashboard(ctx context.Context) (*Dashboard, error) {
	ms, err := n.Milestones(ctx)
	if err != nil {
		return nil, err
	}
	progress := n.session.Progress()

	d := &Dashboard{
		Milestones:  Statuses(ms, progress),
		Badges:      progress.Badges(),
		AllComplete: AllComplete(ms, progress),
	}
	if progress != nil {
		d.Score = progress.Score
	}
	if page, ok := n.continueFrom(ctx, ms, progress); ok {
		d.Continue = page.Path()
	}
	return d, nil
}

// Continue returns the page "Continue Learning" opens. It fails with
// ErrContentUnavailable when there are no milestones.
func (n *Navigator) Continue(ctx context.Context) (Page, error) {
	ms, err := n.Milestones(ctx)
	if err != nil {
		return Page{}, err
	}
	page, ok := n.continueFrom(ctx, ms, n.session.Progress())
	if !ok {
		return Page{}, fmt.Errorf("%w: no milestones", domain.ErrContentUnavailable)
	}
	return page, nil
}

func (n *Navigator) continueFrom(ctx context.Context, ms []domain.Milestone, progress *domain.Progress) (Page, bool) {
	lastVisited := n.cacheValue(ctx, cache.LastVisitedPageKey)
	current := n.cacheValue(ctx, cache.CurrentMilestoneKey)
	return ContinueTarget(ms, progress, lastVisited, current)
}

// Unlocked reports whether the learner may open a milestone. A logged-in
// learner needs every lower milestone completed; without a session the
// cached current milestone is the furthest one reachable.
func (n *Navigator) Unlocked(ctx context.Context, ms []domain.Milestone, id string) bool {
	if n.session.IsAuthenticated() {
		return Reachable(ms, n.session.Progress().CompletedMilestoneIDs(), id)
	}
	target, ok := domain.FindMilestone(ms, id)
	if !ok {
		return false
	}
	limit := 1
	if m, ok := domain.FindMilestone(ms, n.cacheValue(ctx, cache.CurrentMilestoneKey)); ok {
		limit = m.Order
	}
	return target.Order <= limit
}

// currentOrder is the order of the learner's current milestone, or 0 when
// neither the server nor the cache knows one
func (n *Navigator) currentOrder(ctx context.Context, ms []domain.Milestone) int {
	if p := n.session.Progress(); p != nil && p.CurrentMilestone != nil {
		return p.CurrentMilestone.Order
	}
	if m, ok := domain.FindMilestone(ms, n.cacheValue(ctx, cache.CurrentMilestoneKey)); ok {
		return m.Order
	}
	return 0
}

func (n *Navigator) cacheValue(ctx context.Context, key string) string {
	store := n.session.Cache()
	if store == nil {
		return ""
	}
	v, ok, err := store.Get(ctx, key)
	if err != nil {
		n.logger.Warn("cache read failed", "key", key, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

// unavailable maps missing and malformed curriculum records onto
// ErrContentUnavailable. Authentication and transport errors pass through.
func unavailable(err error) error {
	switch {
	case errors.Is(err, domain.ErrContentUnavailable):
		return err
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrMilestoneNotFound):
		return fmt.Errorf("%w: %w", domain.ErrContentUnavailable, err)
	}
	return err
}
