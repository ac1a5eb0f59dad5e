package learn

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/pywhiz/pywhiz/internal/cache"
	"github.com/pywhiz/pywhiz/internal/domain"
)

// Controller is the state machine of one mounted unit page. The same type
// serves video, code and quiz pages; only the loaded content differs.
type Controller struct {
	page      Page
	milestone domain.Milestone
	all       []domain.Milestone
	session   Session
	content   Content
	threshold float64
	logger    *slog.Logger

	lessons []domain.LearnContent
	code    []domain.CodeQuestion
	quiz    []domain.MCQQuestion

	mu      sync.Mutex
	state   domain.UnitState
	answers map[string]string
}

// Mount opens a unit page. Missing or malformed content fails with
// ErrContentUnavailable; a milestone beyond the learner's reach fails with
// ErrLocked. A successful mount records the page as the last visited one.
func (n *Navigator) Mount(ctx context.Context, page Page) (*Controller, error) {
	if !page.Kind.Valid() || page.MilestoneID == "" {
		return nil, fmt.Errorf("%w: page %+v", domain.ErrInvalidInput, page)
	}

	ms, err := n.Milestones(ctx)
	if err != nil {
		return nil, err
	}
	m, ok := domain.FindMilestone(ms, page.MilestoneID)
	if !ok {
		return nil, unavailable(fmt.Errorf("%w: %s", domain.ErrMilestoneNotFound, page.MilestoneID))
	}
	if !n.Unlocked(ctx, ms, m.ID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrLocked, m.Title)
	}

	c := &Controller{
		page:      page,
		milestone: m,
		all:       ms,
		session:   n.session,
		content:   n.content,
		threshold: n.threshold,
		logger:    n.logger.With("page", page.Path()),
		answers:   make(map[string]string),
	}
	if err := c.load(ctx); err != nil {
		return nil, err
	}

	if store := n.session.Cache(); store != nil {
		if err := store.Set(ctx, cache.LastVisitedPageKey, page.Path()); err != nil {
			c.logger.Warn("cache write failed", "key", cache.LastVisitedPageKey, "error", err)
		}
	}
	if m.Order > n.currentOrder(ctx, ms) {
		n.session.SetCurrentMilestone(ctx, m)
	}

	if c.NextEnabled(ctx) {
		c.state = domain.Completed
	}
	return c, nil
}

func (c *Controller) load(ctx context.Context) error {
	id := c.milestone.ID
	var (
		err   error
		count int
	)
	switch c.page.Kind {
	case domain.UnitVideo:
		c.lessons, err = c.content.LearnContents(ctx, id)
		count = len(c.lessons)
	case domain.UnitCode:
		c.code, err = c.content.CodeQuestions(ctx, id)
		count = len(c.code)
	case domain.UnitExercise:
		c.quiz, err = c.content.MCQQuestions(ctx, id)
		count = len(c.quiz)
	}
	if err != nil {
		return unavailable(err)
	}
	if count == 0 {
		return fmt.Errorf("%w: no %s content for %s", domain.ErrContentUnavailable, c.page.Kind, id)
	}
	return nil
}

// Page returns the mounted page
func (c *Controller) Page() Page { return c.page }

// Milestone returns the milestone of the mounted page
func (c *Controller) Milestone() domain.Milestone { return c.milestone }

// Lessons returns the videos of a video page, main lessons first
func (c *Controller) Lessons() []domain.LearnContent {
	out := make([]domain.LearnContent, len(c.lessons))
	copy(out, c.lessons)
	sort.SliceStable(out, func(i, j int) bool {
		return !out[i].IsAdditional && out[j].IsAdditional
	})
	return out
}

// CodeQuestions returns the coding tasks of a code page
func (c *Controller) CodeQuestions() []domain.CodeQuestion {
	return append([]domain.CodeQuestion(nil), c.code...)
}

// Questions returns the quiz questions of an exercise page
func (c *Controller) Questions() []domain.MCQQuestion {
	return append([]domain.MCQQuestion(nil), c.quiz...)
}

// State returns the unit state for this mount
func (c *Controller) State() domain.UnitState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// NextEnabled reports whether the learner may move on: the unit is complete
// on the server or in the local cache, or was completed during this mount.
func (c *Controller) NextEnabled(ctx context.Context) bool {
	c.mu.Lock()
	completed := c.state == domain.Completed
	c.mu.Unlock()
	if completed {
		return true
	}

	kind, id := c.page.Kind, c.milestone.ID
	if c.session.UnitCompleted(kind, id) {
		return true
	}
	store := c.session.Cache()
	return store != nil && cache.Flag(ctx, store, kind, id)
}

// Next returns the page after this one. The last unit of a milestone leads
// to the next milestone's video; after the final milestone the second
// result is false and the learner returns to the dashboard.
func (c *Controller) Next(ctx context.Context) (Page, bool, error) {
	if !c.NextEnabled(ctx) {
		return Page{}, false, fmt.Errorf("%w: finish the %s first", domain.ErrLocked, c.page.Kind)
	}
	if kind, ok := c.page.Kind.Next(); ok {
		return Page{Kind: kind, MilestoneID: c.milestone.ID}, true, nil
	}
	next, ok := domain.NextMilestone(c.all, c.milestone.ID)
	if !ok {
		return Page{}, false, nil
	}
	return LearnPage(next.ID), true, nil
}

// ObserveVideo reports the playback position. Crossing the watched
// threshold completes the video once per mount; later reports are no-ops.
// It returns true on the report that completed the unit.
func (c *Controller) ObserveVideo(ctx context.Context, position, duration float64) (bool, error) {
	if c.page.Kind != domain.UnitVideo {
		return false, fmt.Errorf("%w: %s page has no video", domain.ErrInvalidInput, c.page.Kind)
	}
	if math.IsNaN(position) || math.IsInf(position, 0) || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return false, nil
	}
	if duration <= 0 || position < 0 {
		return false, nil
	}

	c.mu.Lock()
	if c.state == domain.Completed {
		c.mu.Unlock()
		return false, nil
	}
	if position/duration < c.threshold {
		c.state = domain.InProgress
		c.mu.Unlock()
		return false, nil
	}
	c.state = domain.Completed
	c.mu.Unlock()

	c.complete(ctx, fmt.Sprint(c.Lessons()[0].ID))
	return true, nil
}

// SubmitCode sends code to the judge. An empty questionID selects the
// first question. The first correct run completes the unit; later runs
// never uncomplete it.
func (c *Controller) SubmitCode(ctx context.Context, questionID, code string, inputs []string) (*domain.CodeSubmission, error) {
	if c.page.Kind != domain.UnitCode {
		return nil, fmt.Errorf("%w: %s page has no code task", domain.ErrInvalidInput, c.page.Kind)
	}
	q, err := c.codeQuestion(questionID)
	if err != nil {
		return nil, err
	}

	result, err := c.content.SubmitCode(ctx, q.ID, code, inputs)
	if err != nil {
		return nil, fmt.Errorf("submit code: %w", err)
	}

	c.mu.Lock()
	first := result.IsCorrect && c.state != domain.Completed
	switch {
	case first:
		c.state = domain.Completed
	case c.state == domain.NotStarted:
		c.state = domain.InProgress
	}
	c.mu.Unlock()

	if first {
		c.complete(ctx, q.ID)
	}
	return result, nil
}

func (c *Controller) codeQuestion(id string) (domain.CodeQuestion, error) {
	if id == "" {
		return c.code[0], nil
	}
	for _, q := range c.code {
		if q.ID == id {
			return q, nil
		}
	}
	return domain.CodeQuestion{}, fmt.Errorf("%w: no code question %s in %s", domain.ErrInvalidInput, id, c.milestone.ID)
}

// SelectAnswer records the learner's choice for a quiz question
func (c *Controller) SelectAnswer(questionID, option string) error {
	if c.page.Kind != domain.UnitExercise {
		return fmt.Errorf("%w: %s page has no quiz", domain.ErrInvalidInput, c.page.Kind)
	}
	q, ok := c.question(questionID)
	if !ok {
		return fmt.Errorf("%w: no question %s in %s", domain.ErrInvalidInput, questionID, c.milestone.ID)
	}
	key, err := q.NormalizeOption(option)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.answers[q.ID] = key
	if c.state == domain.NotStarted {
		c.state = domain.InProgress
	}
	c.mu.Unlock()
	return nil
}

func (c *Controller) question(id string) (domain.MCQQuestion, bool) {
	for _, q := range c.quiz {
		if q.ID == id {
			return q, true
		}
	}
	return domain.MCQQuestion{}, false
}

// Answers returns the selected option per question id
func (c *Controller) Answers() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.answers))
	for k, v := range c.answers {
		out[k] = v
	}
	return out
}

// QuestionResult is the judge's verdict on one answer
type QuestionResult struct {
	QuestionID string `json:"question_id"`
	Selected   string `json:"selected"`
	domain.MCQResult
}

// QuizResult is the outcome of one check of the whole quiz
type QuizResult struct {
	Results []QuestionResult `json:"results"`
	Correct int              `json:"correct"`
	Total   int              `json:"total"`
	Passed  bool             `json:"passed"`
}

// CheckQuiz submits every answer in one batch. The quiz completes only if
// every answer in this check is correct; otherwise it stays in progress
// and may be retried.
func (c *Controller) CheckQuiz(ctx context.Context) (*QuizResult, error) {
	if c.page.Kind != domain.UnitExercise {
		return nil, fmt.Errorf("%w: %s page has no quiz", domain.ErrInvalidInput, c.page.Kind)
	}

	answers := c.Answers()
	var missing []string
	for _, q := range c.quiz {
		if _, ok := answers[q.ID]; !ok {
			missing = append(missing, q.ID)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: unanswered questions %v", domain.ErrInvalidInput, missing)
	}

	result := &QuizResult{Total: len(c.quiz)}
	for _, q := range c.quiz {
		verdict, err := c.content.SubmitMCQ(ctx, q.ID, answers[q.ID])
		if err != nil {
			return nil, fmt.Errorf("submit answer %s: %w", q.ID, err)
		}
		result.Results = append(result.Results, QuestionResult{
			QuestionID: q.ID,
			Selected:   answers[q.ID],
			MCQResult:  *verdict,
		})
		if verdict.IsCorrect {
			result.Correct++
		}
	}
	result.Passed = result.Correct == result.Total

	c.mu.Lock()
	first := result.Passed && c.state != domain.Completed
	if first {
		c.state = domain.Completed
	}
	c.mu.Unlock()

	if first {
		c.complete(ctx, "")
	}
	return result, nil
}

// complete hands the finished unit to the session store
func (c *Controller) complete(ctx context.Context, unitID string) {
	kind, id := c.page.Kind, c.milestone.ID
	if err := c.session.MarkUnitComplete(ctx, kind, id, unitID); err != nil {
		c.logger.Warn("mark unit failed", "kind", kind, "milestone_id", id, "error", err)
		return
	}
	c.logger.Info("unit completed", "kind", kind, "milestone_id", id, "unit_id", unitID)
}
