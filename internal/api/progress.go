package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pywhiz/pywhiz/internal/domain"
)

var markEndpoints = map[domain.UnitKind]string{
	domain.UnitVideo:    "mark-video-watched",
	domain.UnitCode:     "mark-code-completed",
	domain.UnitExercise: "mark-exercise-completed",
}

// Progress returns the authoritative progress record
func (c *Client) Progress(ctx context.Context) (*domain.Progress, error) {
	progress := domain.NewProgress()
	if err := c.do(ctx, http.MethodGet, "/learn/progress/", nil, progress); err != nil {
		return nil, err
	}
	progress.Normalize()
	return progress, nil
}

// UpdateCurrentMilestone moves the learner's current milestone
func (c *Client) UpdateCurrentMilestone(ctx context.Context, milestoneID string) error {
	return c.mutate(ctx, "/learn/progress/update-milestone/", map[string]string{
		"milestone_id": milestoneID,
	})
}

// MarkUnit marks a unit of a milestone complete, or clears it when reset is set
func (c *Client) MarkUnit(ctx context.Context, kind domain.UnitKind, milestoneID string, reset bool) error {
	endpoint, ok := markEndpoints[kind]
	if !ok {
		return fmt.Errorf("%w: unknown unit kind %q", domain.ErrInvalidInput, kind)
	}
	body := map[string]any{}
	if reset {
		body["reset"] = true
	}
	return c.mutate(ctx, "/learn/milestones/"+url.PathEscape(milestoneID)+"/"+endpoint+"/", body)
}

// ResetProgress clears all progress of the logged-in user
func (c *Client) ResetProgress(ctx context.Context) error {
	return c.mutate(ctx, "/auth/reset-progress/", map[string]any{})
}
