// Package mcp exposes a learner's progress to AI tutors over the Model
// Context Protocol.
package mcp

import (
	"context"
	"fmt"
	"strings"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"
	"github.com/pywhiz/pywhiz/internal/domain"
	"github.com/pywhiz/pywhiz/internal/learn"
	"github.com/pywhiz/pywhiz/internal/session"
)

// Server wraps the MCP server with PyWhiz functionality
type Server struct {
	mcpServer *server.Server
	session   *session.Store
	navigator *learn.Navigator
}

// Config contains configuration for the MCP server
type Config struct {
	Session   *session.Store
	Navigator *learn.Navigator
	Version   string
}

// NewServer creates a new MCP server for PyWhiz
func NewServer(cfg Config) *Server {
	s := &Server{
		session:   cfg.Session,
		navigator: cfg.Navigator,
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s.mcpServer = server.New(server.Info{
		Name:    "pywhiz",
		Version: version,
	}, server.WithInstructions(`
PyWhiz teaches children Python through ordered milestones. Each milestone has
a video, a coding task and a multiple-choice quiz; finishing all three unlocks
the next milestone.

Available tools:
- pywhiz_progress: Dashboard with score, badges and milestone status
- pywhiz_milestones: List the curriculum in order
- pywhiz_continue: The page the learner should open next
- pywhiz_mark: Mark a video, code task or quiz complete
- pywhiz_reset: Reset progress for one milestone or everything
`))

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("pywhiz_progress").
		Description("Get the learner's dashboard: score, badges and the status of every milestone.").
		Handler(s.handleProgress)

	s.mcpServer.Tool("pywhiz_milestones").
		Description("List the active milestones in curriculum order.").
		Handler(s.handleMilestones)

	s.mcpServer.Tool("pywhiz_continue").
		Description("Get the page Continue Learning opens for the learner.").
		Handler(s.handleContinue)

	s.mcpServer.Tool("pywhiz_mark").
		Description("Mark a unit of a milestone complete. The server is updated in the background.").
		Handler(s.handleMark)

	s.mcpServer.Tool("pywhiz_reset").
		Description("Reset progress for one milestone, or for every milestone with scope=all.").
		Handler(s.handleReset)
}

// Input/Output types for tools

type ProgressInput struct{}

type ProgressOutput struct {
	Learner     string                `json:"learner,omitempty"`
	LoggedIn    bool                  `json:"logged_in"`
	Score       int                   `json:"score"`
	Badges      []string              `json:"badges"`
	Milestones  []learn.MilestoneView `json:"milestones"`
	AllComplete bool                  `json:"all_complete"`
	Continue    string                `json:"continue,omitempty"`
	Pending     int                   `json:"pending"`
}

type MilestonesInput struct{}

type MilestonesOutput struct {
	Milestones []domain.Milestone `json:"milestones"`
}

type ContinueInput struct{}

type ContinueOutput struct {
	Page        string `json:"page"`
	Unit        string `json:"unit"`
	MilestoneID string `json:"milestone_id"`
}

type MarkInput struct {
	Kind        string `json:"kind" jsonschema:"description=Unit to mark: video or code or exercise,enum=video,enum=code,enum=exercise"`
	MilestoneID string `json:"milestone_id" jsonschema:"description=Milestone ID"`
}

// MarkOutput reports the local mark. Queued means a server update was
// scheduled, not that it succeeded.
type MarkOutput struct {
	Message string `json:"message"`
	Queued  bool   `json:"queued"`
}

type ResetInput struct {
	Scope string `json:"scope" jsonschema:"description=all or a milestone ID"`
}

type ResetOutput struct {
	Message string `json:"message"`
}

// Tool handlers

func (s *Server) handleProgress(ctx context.Context, _ ProgressInput) (ProgressOutput, error) {
	d, err := s.navigator.Dashboard(ctx)
	if err != nil {
		return ProgressOutput{}, fmt.Errorf("failed to load dashboard: %w", err)
	}

	return ProgressOutput{
		Learner:     s.session.CurrentUser().DisplayName(),
		LoggedIn:    s.session.IsAuthenticated(),
		Score:       d.Score,
		Badges:      d.Badges,
		Milestones:  d.Milestones,
		AllComplete: d.AllComplete,
		Continue:    d.Continue,
		Pending:     s.session.Pending(),
	}, nil
}

func (s *Server) handleMilestones(ctx context.Context, _ MilestonesInput) (MilestonesOutput, error) {
	ms, err := s.navigator.Milestones(ctx)
	if err != nil {
		return MilestonesOutput{}, fmt.Errorf("failed to load milestones: %w", err)
	}
	return MilestonesOutput{Milestones: ms}, nil
}

func (s *Server) handleContinue(ctx context.Context, _ ContinueInput) (ContinueOutput, error) {
	page, err := s.navigator.Continue(ctx)
	if err != nil {
		return ContinueOutput{}, fmt.Errorf("failed to pick next page: %w", err)
	}
	return ContinueOutput{
		Page:        page.Path(),
		Unit:        page.Kind.String(),
		MilestoneID: page.MilestoneID,
	}, nil
}

func (s *Server) handleMark(ctx context.Context, input MarkInput) (MarkOutput, error) {
	kind, err := domain.ParseUnitKind(input.Kind)
	if err != nil {
		return MarkOutput{}, err
	}
	if strings.TrimSpace(input.MilestoneID) == "" {
		return MarkOutput{}, fmt.Errorf("%w: milestone_id is required", domain.ErrInvalidInput)
	}

	ms, err := s.navigator.Milestones(ctx)
	if err != nil {
		return MarkOutput{}, fmt.Errorf("failed to load milestones: %w", err)
	}
	if _, ok := domain.FindMilestone(ms, input.MilestoneID); !ok {
		return MarkOutput{}, fmt.Errorf("%w: %s", domain.ErrMilestoneNotFound, input.MilestoneID)
	}
	if !s.navigator.Unlocked(ctx, ms, input.MilestoneID) {
		return MarkOutput{}, fmt.Errorf("%w: finish the earlier milestones before %s", domain.ErrLocked, input.MilestoneID)
	}

	if err := s.session.MarkUnitComplete(ctx, kind, input.MilestoneID, ""); err != nil {
		return MarkOutput{}, fmt.Errorf("failed to mark %s: %w", kind, err)
	}

	if !s.session.IsAuthenticated() {
		return MarkOutput{
			Message: fmt.Sprintf("Saved %s of %s locally. Log in to sync with the server.", kind, input.MilestoneID),
		}, nil
	}
	return MarkOutput{
		Message: fmt.Sprintf("Marked %s of %s complete. The server is updated in the background.", kind, input.MilestoneID),
		Queued:  true,
	}, nil
}

func (s *Server) handleReset(ctx context.Context, input ResetInput) (ResetOutput, error) {
	if strings.TrimSpace(input.Scope) == "" {
		return ResetOutput{}, fmt.Errorf("%w: scope is required (all or a milestone ID)", domain.ErrInvalidInput)
	}
	scope, err := domain.ParseResetScope(input.Scope)
	if err != nil {
		return ResetOutput{}, err
	}
	if err := s.session.ResetProgress(ctx, scope); err != nil {
		return ResetOutput{}, fmt.Errorf("failed to reset progress: %w", err)
	}

	if scope.All {
		return ResetOutput{Message: "All progress reset."}, nil
	}
	return ResetOutput{Message: fmt.Sprintf("Progress for %s reset.", scope.MilestoneID)}, nil
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
